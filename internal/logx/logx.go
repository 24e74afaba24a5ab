package logx

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/tablayout/schema"
)

type contextKey int

const (
	workspaceKey contextKey = iota
	commandKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithWorkspace annotates the logger with the workspace root if present.
func WithWorkspace(ctx context.Context, root string) pslog.Logger {
	log := pslog.Ctx(ctx)
	if root != "" {
		if current, ok := ctx.Value(workspaceKey).(string); ok && current == root {
			return log
		}
		log = log.With("workspace", root)
	}
	return log
}

// WithCommand annotates the logger with the command id and invocation id.
func WithCommand(ctx context.Context, id schema.CommandID, invocation string) pslog.Logger {
	log := pslog.Ctx(ctx)
	if id != "" {
		if current, ok := ctx.Value(commandKey).(schema.CommandID); ok && current == id {
			return log
		}
		log = log.With("command", id)
	}
	if invocation != "" {
		log = log.With("invocation", invocation)
	}
	return log
}

// WithLayout annotates the logger with a layout name when available.
func WithLayout(log pslog.Logger, name schema.LayoutName) pslog.Logger {
	if name != "" {
		log = log.With("layout", name)
	}
	return log
}

// ContextWithWorkspaceLogger attaches the logger and workspace marker to the context.
func ContextWithWorkspaceLogger(ctx context.Context, log pslog.Logger, root string) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	if root == "" {
		return ctx
	}
	return context.WithValue(ctx, workspaceKey, root)
}

// ContextWithCommandLogger attaches the logger and command marker to the context.
func ContextWithCommandLogger(ctx context.Context, log pslog.Logger, id schema.CommandID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, commandKey, id)
}
