package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/tablayout/internal/autosave"
	"pkt.systems/tablayout/internal/command"
	"pkt.systems/tablayout/internal/eventbus"
	"pkt.systems/tablayout/schema"
)

const sessionHelp = `editor:
  /open <path> [column]    open a file (a bare path works too)
  /close                   close every tab
  /quit                    flush autosave and exit`

func newSessionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Interactive session with autosave and layouts watching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, true, func(env *cliEnv) error {
				return runSession(cmd.Context(), env, cmd.OutOrStdout())
			})
		},
	}
}

func runSession(ctx context.Context, env *cliEnv, out io.Writer) error {
	logger := pslog.Ctx(ctx)
	handler := env.session.Handler()
	_, _ = fmt.Fprintf(out, "tablayout session for %s (/help for commands)\n", env.root)
	_, _ = fmt.Fprintln(out, handler.Status(ctx))

	events, cancel := env.session.Subscribe()
	defer cancel()
	go printEvents(events, out)

	for {
		_, _ = fmt.Fprint(out, "> ")
		next, err := readLine(ctx, env.input)
		if err != nil {
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				logger.Debug("session interrupted")
				return nil
			case errors.Is(err, io.EOF) && strings.TrimSpace(next) == "":
				return nil
			case !errors.Is(err, io.EOF):
				return err
			}
		}
		line := strings.TrimSpace(next)
		if line == "" {
			continue
		}
		quit, runErr := sessionLine(ctx, env, out, line)
		if runErr != nil {
			_, _ = fmt.Fprintf(out, "error: %v\n", runErr)
		}
		if quit || errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// sessionLine runs one line of input. Editor lines are handled here; slash
// commands go to the layout handler.
func sessionLine(ctx context.Context, env *cliEnv, out io.Writer, line string) (bool, error) {
	cmd, ok := command.Parse(line)
	if !ok {
		return false, sessionOpen(ctx, env, []string{line})
	}
	switch cmd.Name {
	case "quit", "exit":
		return true, nil
	case "open":
		return false, sessionOpen(ctx, env, cmd.Args)
	case "close":
		if err := env.editor.CloseAllEditors(ctx); err != nil {
			return false, err
		}
		env.session.Signal(autosave.SignalVisibleEditors)
		return false, nil
	case "help":
		if _, err := env.session.Handler().Handle(ctx, line); err != nil {
			return false, err
		}
		_, err := fmt.Fprintln(out, sessionHelp)
		return false, err
	}
	_, err := env.session.Handler().Handle(ctx, line)
	return false, err
}

func sessionOpen(ctx context.Context, env *cliEnv, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("%w: usage: /open <path> [column]", schema.ErrInvalidRequest)
	}
	req := openRequest{kind: "text", column: 1, paths: args[:1]}
	if len(args) == 2 {
		column, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: column %q", schema.ErrInvalidRequest, args[1])
		}
		req.column = column
	}
	if err := openTabs(ctx, env, req); err != nil {
		return err
	}
	env.session.Signal(autosave.SignalVisibleEditors)
	if req.column != 1 {
		env.session.Signal(autosave.SignalViewColumn)
	}
	return nil
}

func printEvents(events <-chan eventbus.Event, out io.Writer) {
	for event := range events {
		switch event.Type {
		case eventbus.EventActiveChanged:
			name := string(event.Active.Name)
			if name == "" {
				name = "(none)"
			}
			_, _ = fmt.Fprintf(out, "\n[active layout: %s]\n", name)
		case eventbus.EventLayoutsChanged:
			_, _ = fmt.Fprintln(out, "\n[layouts changed]")
		}
	}
}
