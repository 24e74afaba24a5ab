package sessionprefs

import (
	"context"
	"testing"

	"pkt.systems/tablayout/schema"
)

func TestWithContextAndFromContext(t *testing.T) {
	prefs := New()
	prefs.SetSortBy(schema.SortByRecent)

	ctx := WithContext(context.Background(), prefs)
	got := FromContext(ctx)
	if got == nil {
		t.Fatalf("expected prefs")
	}
	if got.SortBy() != schema.SortByRecent {
		t.Fatalf("expected pref to be preserved, got %q", got.SortBy())
	}
}

func TestDefaultSortIsRecent(t *testing.T) {
	if got := New().SortBy(); got != schema.SortByRecent {
		t.Fatalf("expected recent, got %q", got)
	}
	var nilPrefs *Prefs
	if got := nilPrefs.SortBy(); got != schema.SortByRecent {
		t.Fatalf("expected recent from nil prefs, got %q", got)
	}
	prefs := New()
	prefs.SetSortBy("")
	if got := prefs.SortBy(); got != schema.SortByRecent {
		t.Fatalf("expected recent for unset prefs, got %q", got)
	}
}

func TestWithContextNil(t *testing.T) {
	var nilCtx context.Context
	ctx := WithContext(nilCtx, New())
	if ctx != nil {
		t.Fatalf("expected nil context")
	}
	ctx = WithContext(context.Background(), nil)
	if ctx == nil {
		t.Fatalf("expected non-nil context to pass through")
	}
	if FromContext(context.Background()) != nil {
		t.Fatalf("expected no prefs for empty context")
	}
}
