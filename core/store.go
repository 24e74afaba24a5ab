package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
	"pkt.systems/pslog"
	"pkt.systems/tablayout/internal/persist"
	"pkt.systems/tablayout/schema"
)

// layoutsDir returns the directory holding the layouts of root.
func (s *service) layoutsDir(root string) string {
	return filepath.Join(root, s.cfg.LayoutsDir)
}

func (s *service) layoutPath(root string, name schema.LayoutName) string {
	return filepath.Join(s.layoutsDir(root), string(name)+"."+s.cfg.Format.Ext())
}

// listNames returns the stored layout names. A directory read failure yields
// an empty list.
func (s *service) listNames(ctx context.Context, root string, method schema.SortMethod) []schema.LayoutName {
	log := pslog.Ctx(ctx)
	dir := s.layoutsDir(root)
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Debug("layout list miss", "dir", dir, "err", err)
		return []schema.LayoutName{}
	}
	ext := "." + s.cfg.Format.Ext()
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		base, ok := strings.CutSuffix(entry.Name(), ext)
		if !ok || base == "" {
			continue
		}
		names = append(names, base)
	}
	switch method {
	case schema.SortByName:
		s.sortByName(names)
	case schema.SortByRecent:
		s.sortByName(names)
		stamps := make(map[string]int64, len(names))
		for _, name := range names {
			stamps[name] = s.readTimestamp(ctx, root, schema.LayoutName(name))
		}
		sort.SliceStable(names, func(i, j int) bool {
			return stamps[names[i]] > stamps[names[j]]
		})
	}
	out := make([]schema.LayoutName, len(names))
	for i, name := range names {
		out[i] = schema.LayoutName(name)
	}
	return out
}

func (s *service) sortByName(names []string) {
	collate.New(s.locale).SortStrings(names)
}

// readTimestamp returns the capture time of a stored layout, or 0 when the
// file cannot be read or parsed.
func (s *service) readTimestamp(ctx context.Context, root string, name schema.LayoutName) int64 {
	data, err := os.ReadFile(s.layoutPath(root, name))
	if err != nil {
		pslog.Ctx(ctx).Debug("layout timestamp miss", "layout", name, "err", err)
		return 0
	}
	var header struct {
		Timestamp int64 `json:"timestamp" yaml:"timestamp"`
	}
	if s.cfg.Format == schema.FormatYAML {
		err = yaml.Unmarshal(data, &header)
	} else {
		err = json.Unmarshal(data, &header)
	}
	if err != nil {
		pslog.Ctx(ctx).Debug("layout timestamp invalid", "layout", name, "err", err)
		return 0
	}
	return header.Timestamp
}

func (s *service) hasLayout(root string, name schema.LayoutName) bool {
	if schema.ValidateLayoutName(name) != nil {
		return false
	}
	info, err := os.Stat(s.layoutPath(root, name))
	return err == nil && info.Mode().IsRegular()
}

func (s *service) getLayout(ctx context.Context, root string, name schema.LayoutName) (schema.LayoutSnapshot, bool) {
	log := pslog.Ctx(ctx)
	if schema.ValidateLayoutName(name) != nil {
		return schema.LayoutSnapshot{}, false
	}
	data, err := os.ReadFile(s.layoutPath(root, name))
	if err != nil {
		log.Debug("layout load miss", "layout", name, "err", err)
		return schema.LayoutSnapshot{}, false
	}
	snapshot, err := DecodeSnapshot(s.cfg.Format, data)
	if err != nil {
		log.Debug("layout load invalid", "layout", name, "err", err)
		return schema.LayoutSnapshot{}, false
	}
	return snapshot, true
}

func (s *service) putLayout(ctx context.Context, root string, name schema.LayoutName, snapshot schema.LayoutSnapshot) error {
	log := pslog.Ctx(ctx)
	if err := schema.ValidateLayoutName(name); err != nil {
		return err
	}
	data, err := EncodeSnapshot(s.cfg.Format, snapshot)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	if err := os.MkdirAll(s.layoutsDir(root), 0o755); err != nil {
		return fmt.Errorf("create layouts dir: %w", err)
	}
	if err := persist.WriteFileAtomic(s.layoutPath(root, name), data, 0o644); err != nil {
		log.Warn("layout save failed", "layout", name, "err", err)
		return fmt.Errorf("write layout: %w", err)
	}
	log.Trace("layout save ok", "layout", name, "bytes", len(data))
	s.emitLayoutsChanged(root)
	return nil
}

// deleteLayout removes a stored layout, clearing the active pointer first
// when it names the layout. It reports whether a file was removed.
func (s *service) deleteLayout(ctx context.Context, root string, name schema.LayoutName) bool {
	log := pslog.Ctx(ctx)
	if schema.ValidateLayoutName(name) != nil {
		log.Warn("layout delete failed", "layout", name, "err", schema.ErrInvalidLayoutName)
		return false
	}
	if current, ok := s.rawActive(ctx, root); ok && current == name {
		if err := s.setActive(ctx, root, ""); err != nil {
			log.Warn("layout delete failed", "layout", name, "err", err)
			return false
		}
	}
	path := s.layoutPath(root, name)
	if _, err := os.Stat(path); err != nil {
		log.Warn("layout delete failed", "layout", name, "err", err)
		return false
	}
	if err := os.Remove(path); err != nil {
		log.Warn("layout delete failed", "layout", name, "err", err)
		return false
	}
	log.Trace("layout delete ok", "layout", name)
	s.emitLayoutsChanged(root)
	return true
}

// renameLayout moves a stored layout and re-points the active pointer when
// it named the old layout.
func (s *service) renameLayout(ctx context.Context, root string, name, newName schema.LayoutName) error {
	if name == newName {
		return nil
	}
	if err := schema.ValidateLayoutName(name); err != nil {
		return err
	}
	if err := schema.ValidateLayoutName(newName); err != nil {
		return err
	}
	if s.hasLayout(root, newName) {
		return fmt.Errorf("rename %s to %s: %w", name, newName, schema.ErrLayoutExists)
	}
	current, wasActive := s.rawActive(ctx, root)
	wasActive = wasActive && current == name
	if err := os.Rename(s.layoutPath(root, name), s.layoutPath(root, newName)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("rename %s: %w", name, schema.ErrLayoutNotFound)
		}
		return fmt.Errorf("rename %s: %w", name, err)
	}
	pslog.Ctx(ctx).Trace("layout rename ok", "layout", name, "new_layout", newName)
	s.emitLayoutsChanged(root)
	if wasActive {
		return s.setActive(ctx, root, newName)
	}
	return nil
}

func (s *service) emitLayoutsChanged(root string) {
	if s.sink != nil {
		s.sink.OnLayoutsChanged(schema.LayoutsChangedEvent{Workspace: root})
	}
}

func parseLocale(locale string) language.Tag {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	return tag
}
