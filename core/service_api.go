package core

import (
	"context"

	"pkt.systems/tablayout/schema"
)

// Service is the host-agnostic API for capturing, storing and restoring
// layouts of a single-root workspace. Every method resolves the workspace
// root from the editor and fails with schema.ErrUnavailable (or reports
// false/empty) when there is not exactly one root.
type Service interface {
	Available(ctx context.Context) bool
	WorkspaceRoot(ctx context.Context) (string, error)
	LayoutsDir(ctx context.Context) (string, error)

	TakeSnapshot(ctx context.Context) (schema.LayoutSnapshot, error)
	RestoreLayout(ctx context.Context, snapshot schema.LayoutSnapshot) error

	ActiveLayout(ctx context.Context) (schema.LayoutName, bool)
	SetActiveLayout(ctx context.Context, name schema.LayoutName) error
	Enabled(ctx context.Context) bool

	ListLayouts(ctx context.Context, sort schema.SortMethod) []schema.LayoutName
	HasLayout(ctx context.Context, name schema.LayoutName) bool
	GetLayout(ctx context.Context, name schema.LayoutName) (schema.LayoutSnapshot, bool)
	PutLayout(ctx context.Context, name schema.LayoutName, snapshot schema.LayoutSnapshot) error
	DeleteLayout(ctx context.Context, name schema.LayoutName) bool
	RenameLayout(ctx context.Context, name, newName schema.LayoutName) error
}
