package command

import (
	"context"

	"pkt.systems/pslog"
)

// NamePrompt describes a request for a layout name.
type NamePrompt struct {
	Title       string
	Placeholder string
	Prompt      string
	Default     string
	// Validate returns a message for an unacceptable value, or "".
	Validate func(value string) string
}

// Prompter asks the user for a layout name. ok is false when the user
// dismissed the prompt.
type Prompter interface {
	PromptName(ctx context.Context, req NamePrompt) (value string, ok bool, err error)
}

// Notifier shows messages to the user.
type Notifier interface {
	ShowError(ctx context.Context, message string)
	ShowInfo(ctx context.Context, message string)
}

// logNotifier reports messages through the context logger.
type logNotifier struct{}

func (logNotifier) ShowError(ctx context.Context, message string) {
	pslog.Ctx(ctx).Error("notify", "message", message)
}

func (logNotifier) ShowInfo(ctx context.Context, message string) {
	pslog.Ctx(ctx).Info("notify", "message", message)
}
