package core

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/language"
	"pkt.systems/pslog"
	"pkt.systems/tablayout/internal/clock"
	"pkt.systems/tablayout/internal/logx"
	"pkt.systems/tablayout/internal/persist"
	"pkt.systems/tablayout/schema"
)

// service implements the core service behavior.
type service struct {
	cfg      schema.ServiceConfig
	editor   EditorAdapter
	state    StateProvider
	sink     EventSink
	codec    *codec
	restorer *restorer
	locale   language.Tag
}

// NewService constructs the core service implementation.
func NewService(cfg schema.ServiceConfig, deps ServiceDeps) (Service, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg = normalized
	if deps.Editor == nil {
		return nil, errors.New("editor adapter is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if deps.State == nil {
		store, err := persist.NewStoreWithLogger(cfg.StateDir, logger)
		if err != nil {
			return nil, err
		}
		deps.State = func(root string) KeyValue {
			return store.Workspace(root)
		}
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	logger.Debug("layout service ready", "layouts_dir", cfg.LayoutsDir, "format", cfg.Format, "locale", cfg.Locale)
	return &service{
		cfg:      cfg,
		editor:   deps.Editor,
		state:    deps.State,
		sink:     deps.EventSink,
		codec:    newCodec(deps.Editor, deps.Clock),
		restorer: &restorer{editor: deps.Editor, honorFirstTabActive: cfg.HonorFirstTabActive},
		locale:   parseLocale(cfg.Locale),
	}, nil
}

// scope resolves the workspace root and returns a context whose logger is
// annotated with it.
func (s *service) scope(ctx context.Context) (context.Context, string, error) {
	if ctx == nil {
		return nil, "", errors.New("missing context")
	}
	folders, err := s.editor.WorkspaceFolders(ctx)
	if err != nil {
		return ctx, "", fmt.Errorf("%w: %v", schema.ErrUnavailable, err)
	}
	if len(folders) != 1 {
		return ctx, "", schema.ErrUnavailable
	}
	root := folders[0]
	log := logx.WithWorkspace(ctx, root)
	return logx.ContextWithWorkspaceLogger(ctx, log, root), root, nil
}

func (s *service) Available(ctx context.Context) bool {
	_, _, err := s.scope(ctx)
	return err == nil
}

func (s *service) WorkspaceRoot(ctx context.Context) (string, error) {
	_, root, err := s.scope(ctx)
	return root, err
}

func (s *service) LayoutsDir(ctx context.Context) (string, error) {
	_, root, err := s.scope(ctx)
	if err != nil {
		return "", err
	}
	return s.layoutsDir(root), nil
}

func (s *service) TakeSnapshot(ctx context.Context) (schema.LayoutSnapshot, error) {
	ctx, root, err := s.scope(ctx)
	if err != nil {
		return schema.LayoutSnapshot{}, err
	}
	snapshot, err := s.codec.capture(ctx, root)
	if err != nil {
		pslog.Ctx(ctx).Warn("snapshot capture failed", "err", err)
		return schema.LayoutSnapshot{}, err
	}
	pslog.Ctx(ctx).Debug("snapshot captured", "groups", len(snapshot.TabGroups), "timestamp", snapshot.Timestamp)
	return snapshot, nil
}

func (s *service) RestoreLayout(ctx context.Context, snapshot schema.LayoutSnapshot) error {
	ctx, root, err := s.scope(ctx)
	if err != nil {
		return err
	}
	return s.restorer.restore(ctx, root, snapshot)
}

func (s *service) ActiveLayout(ctx context.Context) (schema.LayoutName, bool) {
	ctx, root, err := s.scope(ctx)
	if err != nil {
		return "", false
	}
	return s.getActive(ctx, root)
}

func (s *service) SetActiveLayout(ctx context.Context, name schema.LayoutName) error {
	ctx, root, err := s.scope(ctx)
	if err != nil {
		return err
	}
	return s.setActive(ctx, root, name)
}

func (s *service) Enabled(ctx context.Context) bool {
	_, ok := s.ActiveLayout(ctx)
	return ok
}

func (s *service) ListLayouts(ctx context.Context, sort schema.SortMethod) []schema.LayoutName {
	ctx, root, err := s.scope(ctx)
	if err != nil {
		return []schema.LayoutName{}
	}
	return s.listNames(ctx, root, sort)
}

func (s *service) HasLayout(ctx context.Context, name schema.LayoutName) bool {
	if name == "" {
		return false
	}
	_, root, err := s.scope(ctx)
	if err != nil {
		return false
	}
	return s.hasLayout(root, name)
}

func (s *service) GetLayout(ctx context.Context, name schema.LayoutName) (schema.LayoutSnapshot, bool) {
	ctx, root, err := s.scope(ctx)
	if err != nil {
		return schema.LayoutSnapshot{}, false
	}
	return s.getLayout(ctx, root, name)
}

func (s *service) PutLayout(ctx context.Context, name schema.LayoutName, snapshot schema.LayoutSnapshot) error {
	ctx, root, err := s.scope(ctx)
	if err != nil {
		return err
	}
	return s.putLayout(ctx, root, name, snapshot)
}

func (s *service) DeleteLayout(ctx context.Context, name schema.LayoutName) bool {
	ctx, root, err := s.scope(ctx)
	if err != nil {
		return false
	}
	return s.deleteLayout(ctx, root, name)
}

func (s *service) RenameLayout(ctx context.Context, name, newName schema.LayoutName) error {
	ctx, root, err := s.scope(ctx)
	if err != nil {
		return err
	}
	return s.renameLayout(ctx, root, name, newName)
}
