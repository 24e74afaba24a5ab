package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"pkt.systems/tablayout/core"
	"pkt.systems/tablayout/internal/gate"
	"pkt.systems/tablayout/internal/logx"
	"pkt.systems/tablayout/internal/sessionprefs"
	"pkt.systems/tablayout/internal/version"
	"pkt.systems/tablayout/schema"
)

// Message shown when the workspace does not have exactly one root.
const unavailableMessage = "TabLayout is not available for current workspace!"

// HandlerConfig configures command behavior.
type HandlerConfig struct {
	DisableAuditLogging bool
}

// HandlerDeps captures optional collaborators of the handler.
type HandlerDeps struct {
	Prompter  Prompter
	Notifier  Notifier
	Prefs     *sessionprefs.Prefs
	EventSink core.EventSink
}

// Handler dispatches layout commands. Mutating commands run one at a time
// behind the gate.
type Handler struct {
	service  core.Service
	gate     *gate.Gate
	prompter Prompter
	notifier Notifier
	prefs    *sessionprefs.Prefs
	sink     core.EventSink
	cfg      HandlerConfig
	newID    func() string
}

type commandFunc func(h *Handler, ctx context.Context, args []string) error

var commands = map[schema.CommandID]commandFunc{
	schema.CommandNew:          (*Handler).runNew,
	schema.CommandLoad:         (*Handler).runLoad,
	schema.CommandSaveAs:       (*Handler).runSaveAs,
	schema.CommandDelete:       (*Handler).runDelete,
	schema.CommandRename:       (*Handler).runRename,
	schema.CommandDisable:      (*Handler).runDisable,
	schema.CommandSortByName:   (*Handler).runSortByName,
	schema.CommandSortByRecent: (*Handler).runSortByRecent,
	schema.CommandRefresh:      (*Handler).runRefresh,
}

// NewHandler constructs a command handler. A nil gate gets a fresh one.
func NewHandler(service core.Service, g *gate.Gate, deps HandlerDeps, cfg HandlerConfig) *Handler {
	if g == nil {
		g = gate.New()
	}
	if deps.Notifier == nil {
		deps.Notifier = logNotifier{}
	}
	if deps.Prefs == nil {
		deps.Prefs = sessionprefs.New()
	}
	return &Handler{
		service:  service,
		gate:     g,
		prompter: deps.Prompter,
		notifier: deps.Notifier,
		prefs:    deps.Prefs,
		sink:     deps.EventSink,
		cfg:      cfg,
		newID:    uuid.NewString,
	}
}

// Gate returns the gate guarding mutating commands.
func (h *Handler) Gate() *gate.Gate {
	return h.gate
}

// prefsFor returns the prefs carried by ctx, falling back to the session's.
func (h *Handler) prefsFor(ctx context.Context) *sessionprefs.Prefs {
	if prefs := sessionprefs.FromContext(ctx); prefs != nil {
		return prefs
	}
	return h.prefs
}

// Execute runs a command. Mutating commands check workspace availability,
// then hold the gate for their whole run. A user cancel is not an error.
func (h *Handler) Execute(ctx context.Context, id schema.CommandID, args ...string) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	run, ok := commands[id]
	if !ok {
		return fmt.Errorf("%w: %s", schema.ErrUnknownCommand, id)
	}
	invocation := h.newID()
	log := logx.WithCommand(ctx, id, invocation)
	ctx = logx.ContextWithCommandLogger(ctx, log, id)
	if sessionprefs.FromContext(ctx) == nil {
		ctx = sessionprefs.WithContext(ctx, h.prefs)
	}
	if !h.cfg.DisableAuditLogging {
		log.Debug("audit command", "command_type", "dispatch", "args", strings.Join(args, ", "))
	}
	if id.Mutating() {
		if !h.service.Available(ctx) {
			log.Warn("command rejected", "reason", "unavailable")
			h.notifier.ShowError(ctx, unavailableMessage)
			return schema.ErrUnavailable
		}
		if err := h.gate.Acquire(ctx, id); err != nil {
			log.Warn("command gate wait failed", "err", err)
			return err
		}
		defer h.gate.Release()
	}
	log.Info("command start", "args", len(args))
	err := run(h, ctx, args)
	switch {
	case err == nil:
		log.Info("command done")
		return nil
	case errors.Is(err, schema.ErrUserCanceled):
		log.Debug("command canceled by user")
		return nil
	default:
		log.Error("command failed", "err", err)
		return err
	}
}

func arg(args []string, i int) string {
	if i < 0 || i >= len(args) {
		return ""
	}
	return args[i]
}

func (h *Handler) runNew(ctx context.Context, _ []string) error {
	name, err := h.pickNewName(ctx)
	if err != nil {
		return err
	}
	return h.saveAs(ctx, name)
}

func (h *Handler) runLoad(ctx context.Context, args []string) error {
	name := schema.LayoutName(arg(args, 0))
	if name == "" {
		return nil
	}
	log := logx.WithLayout(logx.Ctx(ctx), name)
	snapshot, ok := h.service.GetLayout(ctx, name)
	if !ok {
		h.notifier.ShowError(ctx, fmt.Sprintf("Failed to load layout %s", name))
		return fmt.Errorf("load %s: %w", name, schema.ErrLayoutNotFound)
	}
	if err := h.service.SetActiveLayout(ctx, ""); err != nil {
		return err
	}
	if err := h.service.RestoreLayout(ctx, snapshot); err != nil {
		return err
	}
	log.Debug("command load restored", "groups", len(snapshot.TabGroups))
	return h.service.SetActiveLayout(ctx, name)
}

func (h *Handler) runSaveAs(ctx context.Context, args []string) error {
	name := schema.LayoutName(arg(args, 0))
	if name == "" {
		return nil
	}
	return h.saveAs(ctx, name)
}

func (h *Handler) saveAs(ctx context.Context, name schema.LayoutName) error {
	snapshot, err := h.service.TakeSnapshot(ctx)
	if err != nil {
		return err
	}
	if err := h.service.PutLayout(ctx, name, snapshot); err != nil {
		return err
	}
	return h.service.SetActiveLayout(ctx, name)
}

func (h *Handler) runDelete(ctx context.Context, args []string) error {
	name := schema.LayoutName(arg(args, 0))
	if name == "" {
		return nil
	}
	if !h.service.DeleteLayout(ctx, name) {
		logx.WithLayout(logx.Ctx(ctx), name).Warn("command delete failed")
	}
	return nil
}

func (h *Handler) runRename(ctx context.Context, args []string) error {
	oldName := schema.LayoutName(arg(args, 0))
	if oldName == "" {
		return nil
	}
	active, ok := h.service.ActiveLayout(ctx)
	isActive := ok && active == oldName
	newName := schema.LayoutName(arg(args, 1))
	if newName == "" {
		picked, err := h.pickNewName(ctx)
		if err != nil {
			return err
		}
		newName = picked
	}
	if err := h.service.RenameLayout(ctx, oldName, newName); err != nil {
		logx.WithLayout(logx.Ctx(ctx), oldName).Trace("command rename failed", "new_layout", newName, "err", err)
		return nil
	}
	if isActive {
		return h.service.SetActiveLayout(ctx, newName)
	}
	return nil
}

func (h *Handler) runDisable(ctx context.Context, _ []string) error {
	return h.service.SetActiveLayout(ctx, "")
}

func (h *Handler) runSortByName(ctx context.Context, _ []string) error {
	h.prefsFor(ctx).SetSortBy(schema.SortByName)
	h.emitLayoutsChanged(ctx)
	return nil
}

func (h *Handler) runSortByRecent(ctx context.Context, _ []string) error {
	h.prefsFor(ctx).SetSortBy(schema.SortByRecent)
	h.emitLayoutsChanged(ctx)
	return nil
}

func (h *Handler) runRefresh(ctx context.Context, _ []string) error {
	h.emitLayoutsChanged(ctx)
	return nil
}

func (h *Handler) emitLayoutsChanged(ctx context.Context) {
	if h.sink == nil {
		return
	}
	root, _ := h.service.WorkspaceRoot(ctx)
	h.sink.OnLayoutsChanged(schema.LayoutsChangedEvent{Workspace: root})
}

// DefaultNewName returns layout-N for the first N >= 1 not in names.
func DefaultNewName(names []schema.LayoutName) schema.LayoutName {
	taken := make(map[schema.LayoutName]struct{}, len(names))
	for _, name := range names {
		taken[name] = struct{}{}
	}
	for i := 1; ; i++ {
		candidate := schema.LayoutName(fmt.Sprintf("layout-%d", i))
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

// pickNewName prompts for an unused layout name. Without a prompter the
// default name is used.
func (h *Handler) pickNewName(ctx context.Context) (schema.LayoutName, error) {
	defaultName := DefaultNewName(h.service.ListLayouts(ctx, schema.SortNone))
	if h.prompter == nil {
		return defaultName, nil
	}
	validate := func(value string) string {
		if value == "" {
			return ""
		}
		if schema.ValidateLayoutName(schema.LayoutName(value)) != nil {
			return "Invalid layout name"
		}
		if _, ok := h.service.GetLayout(ctx, schema.LayoutName(value)); ok {
			return "Layout name already exists"
		}
		return ""
	}
	value, ok, err := h.prompter.PromptName(ctx, NamePrompt{
		Title:       "New Layout",
		Placeholder: "Layout Name",
		Prompt:      fmt.Sprintf("Enter a name for the new layout, or leave it empty to use '%s'", defaultName),
		Default:     string(defaultName),
		Validate:    validate,
	})
	if err != nil {
		return "", err
	}
	if !ok {
		return "", schema.ErrUserCanceled
	}
	if value == "" {
		return defaultName, nil
	}
	if msg := validate(value); msg != "" {
		return "", fmt.Errorf("%w: %s", schema.ErrInvalidRequest, msg)
	}
	return schema.LayoutName(value), nil
}

// Display returns the stored layouts in the session's sort order. The
// active layout is marked with "*".
func (h *Handler) Display(ctx context.Context) []string {
	names := h.service.ListLayouts(ctx, h.prefsFor(ctx).SortBy())
	active, _ := h.service.ActiveLayout(ctx)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		marker := " "
		if name == active {
			marker = "*"
		}
		lines = append(lines, fmt.Sprintf("%s %s", marker, name))
	}
	return lines
}

// Status describes the active layout in one line.
func (h *Handler) Status(ctx context.Context) string {
	if !h.service.Available(ctx) {
		return unavailableMessage
	}
	if name, ok := h.service.ActiveLayout(ctx); ok {
		return fmt.Sprintf("Current Layout: %s", name)
	}
	return "Tab Layout is disabled."
}

// Handle inspects input and executes slash commands. It reports whether
// the input was a command.
func (h *Handler) Handle(ctx context.Context, input string) (bool, error) {
	if ctx == nil {
		return false, errors.New("missing context")
	}
	cmd, ok := Parse(input)
	if !ok {
		return false, nil
	}
	log := logx.Ctx(ctx).With("command", cmd.Name, "args", len(cmd.Args))
	log.Info("command slash request")
	switch cmd.Name {
	case "":
		log.Warn("command slash rejected", "reason", "empty")
		return true, fmt.Errorf("%w: empty command", schema.ErrInvalidRequest)
	case "new":
		return true, h.Execute(ctx, schema.CommandNew)
	case "load":
		if len(cmd.Args) == 0 {
			return true, fmt.Errorf("usage: /load <name>")
		}
		return true, h.Execute(ctx, schema.CommandLoad, cmd.Joined())
	case "save":
		name, ok := h.service.ActiveLayout(ctx)
		if !ok {
			return true, fmt.Errorf("no active layout; use /saveas <name>")
		}
		return true, h.Execute(ctx, schema.CommandSaveAs, string(name))
	case "saveas":
		if len(cmd.Args) == 0 {
			return true, fmt.Errorf("usage: /saveas <name>")
		}
		return true, h.Execute(ctx, schema.CommandSaveAs, cmd.Joined())
	case "delete", "rm":
		if len(cmd.Args) == 0 {
			return true, fmt.Errorf("usage: /%s <name>", cmd.Name)
		}
		return true, h.Execute(ctx, schema.CommandDelete, cmd.Joined())
	case "rename", "mv":
		if len(cmd.Args) == 0 || len(cmd.Args) > 2 {
			return true, fmt.Errorf("usage: /%s <old> [new]", cmd.Name)
		}
		return true, h.Execute(ctx, schema.CommandRename, cmd.Args...)
	case "disable":
		return true, h.Execute(ctx, schema.CommandDisable)
	case "sort":
		switch strings.ToLower(cmd.Arg(0)) {
		case "name":
			return true, h.Execute(ctx, schema.CommandSortByName)
		case "recent", "recency":
			return true, h.Execute(ctx, schema.CommandSortByRecent)
		default:
			return true, fmt.Errorf("usage: /sort name|recent")
		}
	case "refresh":
		return true, h.Execute(ctx, schema.CommandRefresh)
	case "list", "ls":
		lines := h.Display(ctx)
		if len(lines) == 0 {
			h.notifier.ShowInfo(ctx, "no layouts")
			return true, nil
		}
		h.notifier.ShowInfo(ctx, strings.Join(lines, "\n"))
		return true, nil
	case "status":
		h.notifier.ShowInfo(ctx, h.Status(ctx))
		return true, nil
	case "help":
		h.notifier.ShowInfo(ctx, helpText)
		return true, nil
	case "version":
		h.notifier.ShowInfo(ctx, version.Current())
		return true, nil
	default:
		log.Warn("command slash rejected", "reason", "unknown")
		return true, fmt.Errorf("%w: /%s", schema.ErrUnknownCommand, cmd.Name)
	}
}

const helpText = `commands:
  /new                     capture the current layout under a new name
  /load <name>             restore a layout and make it active
  /save                    save the active layout now
  /saveas <name>           capture the current layout as <name>
  /delete <name>           delete a layout (alias /rm)
  /rename <old> [new]      rename a layout (alias /mv)
  /disable                 stop tracking the active layout
  /sort name|recent        change the listing order
  /refresh                 re-read the layouts directory
  /list                    list layouts (alias /ls)
  /status                  show the active layout
  /version                 show the version
Names with spaces must be quoted.`
