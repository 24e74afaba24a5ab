package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pkt.systems/tablayout/core"
	"pkt.systems/tablayout/schema"
)

type openRequest struct {
	kind     string
	column   int
	preview  bool
	pinned   bool
	viewType string
	paths    []string
}

func newOpenCmd(opts *rootOptions) *cobra.Command {
	req := openRequest{}
	cmd := &cobra.Command{
		Use:   "open [path...]",
		Short: "Open tabs in the workspace editor state",
		Long: "Open tabs in the workspace editor state. Text tabs need existing files; " +
			"webview and terminal tabs stand in for editors that cannot be reopened.",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.paths = args
			return withEnv(cmd, opts, false, func(env *cliEnv) error {
				return openTabs(cmd.Context(), env, req)
			})
		},
	}
	cmd.Flags().StringVar(&req.kind, "kind", "text", "tab kind: text, webview or terminal")
	cmd.Flags().IntVar(&req.column, "column", 1, "view column (pane) to open in")
	cmd.Flags().BoolVar(&req.preview, "preview", false, "open as a preview tab")
	cmd.Flags().BoolVar(&req.pinned, "pin", false, "pin the tab")
	cmd.Flags().StringVar(&req.viewType, "view-type", "", "webview view type")
	return cmd
}

func openTabs(ctx context.Context, env *cliEnv, req openRequest) error {
	column := schema.ViewColumn(req.column)
	switch req.kind {
	case "", "text":
		if len(req.paths) == 0 {
			return fmt.Errorf("%w: open needs at least one path", schema.ErrInvalidRequest)
		}
		for _, path := range req.paths {
			if !filepath.IsAbs(path) {
				path = filepath.Join(env.root, path)
			}
			if req.pinned {
				if _, err := os.Stat(path); err != nil {
					return err
				}
				tab := schema.TabSnapshot{
					Input:     schema.TabInputText{URI: core.FileURI(path)},
					IsPinned:  true,
					IsPreview: req.preview,
				}
				if err := env.editor.Open(ctx, tab, column); err != nil {
					return err
				}
				continue
			}
			if err := env.editor.OpenText(ctx, core.FileURI(path), core.OpenOptions{
				ViewColumn: column,
				Preview:    req.preview,
			}); err != nil {
				return err
			}
		}
		return nil
	case "webview":
		return env.editor.Open(ctx, schema.TabSnapshot{
			Input:    schema.TabInputWebview{ViewType: req.viewType},
			IsPinned: req.pinned,
		}, column)
	case "terminal":
		return env.editor.Open(ctx, schema.TabSnapshot{
			Input:    schema.TabInputTerminal{},
			IsPinned: req.pinned,
		}, column)
	default:
		return fmt.Errorf("%w: unsupported tab kind %q", schema.ErrInvalidRequest, req.kind)
	}
}

func newCloseAllCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "close-all",
		Short: "Close every tab in the workspace editor state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, false, func(env *cliEnv) error {
				return env.editor.CloseAllEditors(cmd.Context())
			})
		},
	}
}
