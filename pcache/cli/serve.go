package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ZanzyTHEbar/payload-cache/pcache/config"
	"github.com/ZanzyTHEbar/payload-cache/pcache/logging"
	"github.com/spf13/cobra"
)

func newServeCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the payload HTTP API until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := st.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			watching, err := config.WatchConfig(st.configPath, func(cfg *config.Config) {
				lvl := logging.SetLevel(cfg.Log.Level)
				st.logger.Info().Str("level", lvl.String()).Msg("Config reloaded")
			})
			if err != nil {
				st.logger.Warn().Err(err).Msg("Config watch disabled")
			} else if watching {
				st.logger.Debug().Msg("Watching config file for changes")
			}

			srv, err := a.Server()
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx)
		},
	}
}
