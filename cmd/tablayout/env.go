package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pkt.systems/pslog"
	"pkt.systems/tablayout"
	"pkt.systems/tablayout/internal/appconfig"
	"pkt.systems/tablayout/internal/command"
	"pkt.systems/tablayout/internal/headless"
)

// cliEnv is one workspace opened for the duration of a command.
type cliEnv struct {
	cfg     appconfig.Config
	root    string
	editor  *headless.Editor
	session *tablayout.Session
	input   *bufio.Reader
}

func openEnv(cmd *cobra.Command, opts *rootOptions, interactive bool) (*cliEnv, error) {
	ctx := cmd.Context()
	logger := pslog.Ctx(ctx)
	cfg, err := appconfig.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	root, err := resolveWorkspace(opts.workspace)
	if err != nil {
		return nil, err
	}
	editor, err := headless.New(cfg.StateDir, root, logger)
	if err != nil {
		return nil, err
	}

	input := bufio.NewReader(cmd.InOrStdin())
	deps := tablayout.SessionDeps{
		Editor:   editor,
		Notifier: cliNotifier{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()},
		Logger:   logger,
	}
	if isTerminal(cmd.InOrStdin()) {
		deps.Prompter = linePrompter{in: input, out: cmd.OutOrStdout()}
	}
	sessionCfg := tablayout.SessionConfig{
		Service: cfg.ServiceConfig(),
		SortBy:  cfg.SortMethod(),
	}
	if interactive {
		sessionCfg.AutosaveEnabled = cfg.Autosave.Enabled
		sessionCfg.AutosaveWindow = cfg.AutosaveWindow()
		sessionCfg.WatchEnabled = cfg.Watch.Enabled
	}
	session, err := tablayout.NewSession(ctx, sessionCfg, deps)
	if err != nil {
		return nil, err
	}
	return &cliEnv{
		cfg:     cfg,
		root:    root,
		editor:  editor,
		session: session,
		input:   input,
	}, nil
}

// close flushes the session even when ctx was canceled by a signal.
func (e *cliEnv) close(ctx context.Context) error {
	return e.session.Close(context.WithoutCancel(ctx))
}

func resolveWorkspace(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		value = wd
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("workspace: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("workspace %s is not a directory", abs)
	}
	return abs, nil
}

func isTerminal(r io.Reader) bool {
	file, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

type cliNotifier struct {
	out    io.Writer
	errOut io.Writer
}

func (n cliNotifier) ShowError(_ context.Context, message string) {
	_, _ = fmt.Fprintf(n.errOut, "error: %s\n", message)
}

func (n cliNotifier) ShowInfo(_ context.Context, message string) {
	_, _ = fmt.Fprintln(n.out, message)
}

// linePrompter reads a layout name from one line of input, re-asking until
// the value validates. EOF dismisses the prompt.
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p linePrompter) PromptName(ctx context.Context, req command.NamePrompt) (string, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		_, _ = fmt.Fprintf(p.out, "%s\n%s: ", req.Prompt, req.Placeholder)
		line, err := readLine(ctx, p.in)
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				return "", false, nil
			}
			return "", false, err
		}
		value := strings.TrimSpace(line)
		if req.Validate != nil {
			if msg := req.Validate(value); msg != "" {
				_, _ = fmt.Fprintln(p.out, msg)
				if err != nil {
					return "", false, nil
				}
				continue
			}
		}
		return value, true, nil
	}
}

// readLine reads one line, giving up when ctx ends. A read abandoned that
// way still consumes the next line of input.
func readLine(ctx context.Context, in *bufio.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := in.ReadString('\n')
		done <- result{line: line, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.line, r.err
	}
}
