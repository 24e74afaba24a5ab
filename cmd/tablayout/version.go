package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/tablayout/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", version.String(), version.Module())
			return err
		},
	}
}
