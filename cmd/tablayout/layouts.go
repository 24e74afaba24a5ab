package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/tablayout/core"
	"pkt.systems/tablayout/internal/sessionprefs"
	"pkt.systems/tablayout/schema"
)

// withEnv opens the workspace, runs fn and closes the session.
func withEnv(cmd *cobra.Command, opts *rootOptions, interactive bool, fn func(env *cliEnv) error) (err error) {
	env, err := openEnv(cmd, opts, interactive)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := env.close(cmd.Context()); err == nil {
			err = closeErr
		}
	}()
	return fn(env)
}

func runCommand(opts *rootOptions, id schema.CommandID) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, opts, false, func(env *cliEnv) error {
			if err := env.session.Handler().Execute(cmd.Context(), id, args...); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), env.session.Handler().Status(cmd.Context()))
			return err
		})
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var sortBy string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored layouts; the active one is marked with *",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, false, func(env *cliEnv) error {
				if !env.session.Service().Available(cmd.Context()) {
					return schema.ErrUnavailable
				}
				ctx := cmd.Context()
				if cmd.Flags().Changed("sort") {
					method, err := schema.ParseSortMethod(sortBy)
					if err != nil {
						return err
					}
					prefs := sessionprefs.New()
					prefs.SetSortBy(method)
					ctx = sessionprefs.WithContext(ctx, prefs)
				}
				for _, line := range env.session.Handler().Display(ctx) {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", "", "order: none, name or recent (default from config)")
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a stored layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, false, func(env *cliEnv) error {
				name := schema.LayoutName(args[0])
				snapshot, ok := env.session.Service().GetLayout(cmd.Context(), name)
				if !ok {
					return fmt.Errorf("show %s: %w", name, schema.ErrLayoutNotFound)
				}
				outFormat := schema.LayoutFormat(format)
				if outFormat == "" {
					outFormat = schema.LayoutFormat(env.cfg.Format)
				}
				data, err := core.EncodeSnapshot(outFormat, snapshot)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "output format: json or yaml (default from config)")
	return cmd
}

func newActiveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "Show the active layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, false, func(env *cliEnv) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), env.session.Handler().Status(cmd.Context()))
				return err
			})
		},
	}
}

func newNewCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Capture the open tabs under a new name and make it active",
		Args:  cobra.NoArgs,
		RunE:  runCommand(opts, schema.CommandNew),
	}
}

func newLoadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <name>",
		Short: "Restore a layout and make it active",
		Args:  cobra.ExactArgs(1),
		RunE:  runCommand(opts, schema.CommandLoad),
	}
}

func newSaveAsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save-as <name>",
		Short: "Capture the open tabs as <name> and make it active",
		Args:  cobra.ExactArgs(1),
		RunE:  runCommand(opts, schema.CommandSaveAs),
	}
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a stored layout",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, false, func(env *cliEnv) error {
				name := schema.LayoutName(args[0])
				if !env.session.Service().HasLayout(cmd.Context(), name) {
					return fmt.Errorf("delete %s: %w", name, schema.ErrLayoutNotFound)
				}
				return env.session.Handler().Execute(cmd.Context(), schema.CommandDelete, args...)
			})
		},
	}
}

func newRenameCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rename <old> [new]",
		Aliases: []string{"mv"},
		Short:   "Rename a stored layout, prompting for the new name when omitted",
		Args:    cobra.RangeArgs(1, 2),
		RunE:    runCommand(opts, schema.CommandRename),
	}
}

func newDisableCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Stop tracking the active layout",
		Args:  cobra.NoArgs,
		RunE:  runCommand(opts, schema.CommandDisable),
	}
}
