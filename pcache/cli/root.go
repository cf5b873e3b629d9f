// Package cli implements the pcache command line.
package cli

import (
	"context"
	"fmt"
	"os"

	internal "github.com/ZanzyTHEbar/payload-cache/pcache"
	"github.com/ZanzyTHEbar/payload-cache/pcache/app"
	"github.com/ZanzyTHEbar/payload-cache/pcache/config"
	"github.com/ZanzyTHEbar/payload-cache/pcache/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// state is shared by every subcommand of one invocation.
type state struct {
	configPath string
	config     *config.Config
	logger     zerolog.Logger
}

// NewRootCommand builds the pcache command tree.
func NewRootCommand() *cobra.Command {
	st := &state{}

	rootCmd := &cobra.Command{
		Use:   internal.DefaultAppName,
		Short: "A content-addressed payload cache.",
		Long: `pcache transforms paired lists of strings, interleaves the results and
stores the joined payload under the MD5 of its content. Per-element
transformations are memoized in the same store.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(st.configPath)
			if err != nil {
				return err
			}
			st.config = cfg
			st.logger = logging.New(cfg.Log, cmd.ErrOrStderr())
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&st.configPath, "config", "", "config file path (default searches ./config.yaml, ~/.config/pcache/config.yaml)")

	rootCmd.AddCommand(
		newServeCommand(st),
		newBuildCommand(st),
		newLookupCommand(st),
		newVersionCommand(),
	)
	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// openApp builds the payload service for one command run.
func (st *state) openApp(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, st.config, st.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start payload service: %w", err)
	}
	return a, nil
}
