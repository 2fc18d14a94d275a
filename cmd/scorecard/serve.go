package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oakmont-ai/scorecard/internal/server"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP scoring service",
		Long: `Serve scoring, feedback, retraining, reload and version endpoints
over HTTP. If no model bundle can be loaded at startup the service
stays up in a degraded state and recovers on a successful reload.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cleanup, err := newApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer cleanup()

			if addr == "" {
				addr = viper.GetString("server.addr")
			}

			srv := server.New(app.engine, app.retrainer(), app.versions, retrainDefaults())
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the scorecard version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("scorecard %s\n", version)
		},
	}
}
