package cli

import (
	"fmt"

	internal "github.com/ZanzyTHEbar/payload-cache/pcache"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information.",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (built %s)\n", internal.DefaultAppName, internal.FullVersion(), internal.BuildTime)
		},
	}
}
