package core

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/tablayout/schema"
)

// rawActive returns the persisted active pointer without checking that the
// layout exists.
func (s *service) rawActive(ctx context.Context, root string) (schema.LayoutName, bool) {
	value, ok, err := s.state(root).Get(schema.StateKeyActiveLayout)
	if err != nil {
		pslog.Ctx(ctx).Warn("active layout read failed", "err", err)
		return "", false
	}
	if !ok || value == "" {
		return "", false
	}
	return schema.LayoutName(value), true
}

// getActive returns the active layout. A pointer to a missing layout is
// cleared and reported as absent.
func (s *service) getActive(ctx context.Context, root string) (schema.LayoutName, bool) {
	name, ok := s.rawActive(ctx, root)
	if !ok {
		return "", false
	}
	if s.hasLayout(root, name) {
		return name, true
	}
	log := pslog.Ctx(ctx)
	log.Warn("active layout missing", "layout", name)
	if err := s.state(root).Delete(schema.StateKeyActiveLayout); err != nil {
		log.Warn("active layout clear failed", "layout", name, "err", err)
	}
	return "", false
}

// setActive stores name as the active layout; an empty name clears it.
// Nothing is written or emitted when the value is unchanged.
func (s *service) setActive(ctx context.Context, root string, name schema.LayoutName) error {
	log := pslog.Ctx(ctx)
	current, _ := s.rawActive(ctx, root)
	if current == name {
		return nil
	}
	kv := s.state(root)
	if name == "" {
		if err := kv.Delete(schema.StateKeyActiveLayout); err != nil {
			return err
		}
	} else {
		if !s.hasLayout(root, name) {
			log.Warn("active layout set to missing layout", "layout", name)
		}
		if err := kv.Set(schema.StateKeyActiveLayout, string(name)); err != nil {
			return err
		}
	}
	log.Debug("active layout changed", "layout", name, "previous", current)
	if s.sink != nil {
		s.sink.OnActiveLayoutChanged(schema.ActiveLayoutChangedEvent{Workspace: root, Name: name})
	}
	return nil
}
