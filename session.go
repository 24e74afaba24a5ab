// Package tablayout composes the layout service, command dispatcher,
// autosave coordinator and layouts watcher into one session per editor
// window.
package tablayout

import (
	"context"
	"errors"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/tablayout/core"
	"pkt.systems/tablayout/internal/autosave"
	"pkt.systems/tablayout/internal/clock"
	"pkt.systems/tablayout/internal/command"
	"pkt.systems/tablayout/internal/eventbus"
	"pkt.systems/tablayout/internal/gate"
	"pkt.systems/tablayout/internal/sessionprefs"
	"pkt.systems/tablayout/internal/watch"
	"pkt.systems/tablayout/schema"
)

// SessionConfig configures a Session.
type SessionConfig struct {
	Service         schema.ServiceConfig
	AutosaveEnabled bool
	AutosaveWindow  time.Duration
	WatchEnabled    bool
	SortBy          schema.SortMethod
}

// SessionDeps captures the host collaborators of a Session. Editor is
// required.
type SessionDeps struct {
	Editor    core.EditorAdapter
	State     core.StateProvider
	EventSink core.EventSink
	Prompter  command.Prompter
	Notifier  command.Notifier
	Clock     clock.Clock
	Logger    pslog.Logger
}

// Session owns everything that lives as long as an editor window.
type Session struct {
	service  core.Service
	handler  *command.Handler
	gate     *gate.Gate
	bus      *eventbus.Bus
	sink     core.EventSink
	autosave *autosave.Coordinator
	watcher  *watch.Watcher
	format   schema.LayoutFormat
	log      pslog.Logger

	signals chan autosave.Signal
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// NewSession builds and starts a session. The context bounds the background
// signal loop; Close stops it earlier.
func NewSession(ctx context.Context, cfg SessionConfig, deps SessionDeps) (*Session, error) {
	if ctx == nil {
		return nil, errors.New("missing context")
	}
	if deps.Editor == nil {
		return nil, errors.New("editor adapter is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}

	normalized, err := schema.NormalizeServiceConfig(cfg.Service)
	if err != nil {
		return nil, err
	}
	cfg.Service = normalized

	bus := eventbus.New(logger)
	sink := fanout(bus, deps.EventSink)
	service, err := core.NewService(cfg.Service, core.ServiceDeps{
		Editor:    deps.Editor,
		State:     deps.State,
		EventSink: sink,
		Clock:     deps.Clock,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	prefs := sessionprefs.New()
	prefs.SetSortBy(cfg.SortBy)
	g := gate.New()
	handler := command.NewHandler(service, g, command.HandlerDeps{
		Prompter:  deps.Prompter,
		Notifier:  deps.Notifier,
		Prefs:     prefs,
		EventSink: sink,
	}, command.HandlerConfig{
		DisableAuditLogging: cfg.Service.DisableAuditLogging,
	})

	s := &Session{
		service: service,
		handler: handler,
		gate:    g,
		bus:     bus,
		sink:    sink,
		format:  cfg.Service.Format,
		log:     logger,
	}

	runCtx, cancel := context.WithCancel(pslog.ContextWithLogger(ctx, logger))
	s.cancel = cancel

	if cfg.AutosaveEnabled {
		s.autosave = autosave.New(s.saveActive, autosave.Options{
			Clock:  deps.Clock,
			Window: cfg.AutosaveWindow,
			Filter: s.acceptSignal,
			Logger: logger,
		})
		s.signals = make(chan autosave.Signal, 64)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.autosave.Run(runCtx, s.signals); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("autosave loop stopped", "err", err)
			}
		}()
	}

	if cfg.WatchEnabled {
		if err := s.startWatcher(runCtx); err != nil {
			cancel()
			s.wg.Wait()
			return nil, err
		}
	}

	logger.Info("session ready", "autosave", cfg.AutosaveEnabled, "watch", s.watcher != nil)
	return s, nil
}

func (s *Session) startWatcher(ctx context.Context) error {
	root, err := s.service.WorkspaceRoot(ctx)
	if err != nil {
		s.log.Debug("layouts watch skipped", "reason", "unavailable")
		return nil
	}
	dir, err := s.service.LayoutsDir(ctx)
	if err != nil {
		return err
	}
	w, err := watch.New(dir, func() {
		s.sink.OnLayoutsChanged(schema.LayoutsChangedEvent{Workspace: root})
	}, watch.Options{
		Ext:    s.format.Ext(),
		Logger: s.log,
	})
	if err != nil {
		return err
	}
	w.Start()
	s.watcher = w
	return nil
}

// acceptSignal lets UI changes schedule an autosave unless the workspace is
// unusable or a load is rearranging the editor.
func (s *Session) acceptSignal(ctx context.Context, _ autosave.Signal) bool {
	if !s.service.Available(ctx) {
		return false
	}
	return s.gate.Owner() != schema.CommandLoad
}

func (s *Session) saveActive(ctx context.Context) error {
	name, ok := s.service.ActiveLayout(ctx)
	if !ok {
		return nil
	}
	return s.handler.Execute(ctx, schema.CommandSaveAs, string(name))
}

// Signal reports a UI change. Signals are dropped when autosave is off or
// the queue is full.
func (s *Session) Signal(sig autosave.Signal) {
	if s.signals == nil {
		return
	}
	select {
	case s.signals <- sig:
	default:
		s.log.Trace("autosave signal dropped", "signal", sig)
	}
}

// Subscribe returns layout change notifications and a cancel func.
func (s *Session) Subscribe() (<-chan eventbus.Event, func()) {
	return s.bus.Subscribe()
}

// Handler returns the command dispatcher.
func (s *Session) Handler() *command.Handler {
	return s.handler
}

// Service returns the layout service.
func (s *Session) Service() core.Service {
	return s.service
}

// Close stops the watcher and the signal loop, then runs any autosave
// synchronously. Later calls return the first result.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		if s.watcher != nil {
			if err := s.watcher.Close(); err != nil {
				s.log.Warn("layouts watch close failed", "err", err)
			}
		}
		s.cancel()
		s.wg.Wait()
		if s.autosave != nil {
			s.closeErr = s.autosave.ExecuteImmediately(ctx)
		}
		s.log.Info("session closed", "err", s.closeErr)
	})
	return s.closeErr
}
