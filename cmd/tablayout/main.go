package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"pkt.systems/psi"
	"pkt.systems/pslog"
)

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)

	root := newRootCmd()
	root.SetArgs(os.Args[1:])

	if err := root.ExecuteContext(ctx); err != nil {
		pslog.Ctx(ctx).With("err", err).Error("tablayout command failed")
		return 1
	}
	return 0
}

type rootOptions struct {
	configPath string
	workspace  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "tablayout",
		Short:         "Save and restore editor tab layouts per workspace",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (default ~/.tablayout/config.yaml)")
	root.PersistentFlags().StringVarP(&opts.workspace, "workspace", "w", "", "workspace root (default current directory)")

	root.AddCommand(newListCmd(opts))
	root.AddCommand(newShowCmd(opts))
	root.AddCommand(newActiveCmd(opts))
	root.AddCommand(newNewCmd(opts))
	root.AddCommand(newLoadCmd(opts))
	root.AddCommand(newSaveAsCmd(opts))
	root.AddCommand(newDeleteCmd(opts))
	root.AddCommand(newRenameCmd(opts))
	root.AddCommand(newDisableCmd(opts))
	root.AddCommand(newOpenCmd(opts))
	root.AddCommand(newCloseAllCmd(opts))
	root.AddCommand(newSessionCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newVersionCmd())

	return root
}
