package main

import (
	"strings"

	"github.com/spf13/cobra"

	"gnurante/internal/app"
	"gnurante/internal/logging"
	"gnurante/internal/metrics"
	"gnurante/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the subtitle pipeline over HTTP",
		Long: `Serve POST /v1/subtitles, GET /healthz and GET /metrics.

The request body carries recognizer segments or flat text plus an optional
duration; the response carries the rendered SRT and its cues. Set
server.token (or GNURANTE_API_TOKEN) to require a bearer token on /v1.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			app.LogDependencySnapshot(logger, cfg)

			m := metrics.New()
			svc, err := app.Build(cmd.Context(), cfg, logger, m)
			if err != nil {
				return err
			}
			defer svc.Close()

			opts := server.OptionsFromConfig(cfg)
			if strings.TrimSpace(bind) != "" {
				opts.Bind = strings.TrimSpace(bind)
			}
			logger.Info("starting api server",
				logging.String(logging.FieldEventType, "server_start"),
				logging.String("bind", opts.Bind),
				logging.String("backend", svc.Backend.Name()),
				logging.Bool("auth", opts.Token != ""),
			)
			return server.New(opts, svc.Orchestrator, m, logger).ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override server.bind (host:port)")
	return cmd
}
