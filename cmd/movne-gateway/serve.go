package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"movne-gateway/internal/config"
	"movne-gateway/internal/logging"
	"movne-gateway/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return errors.Wrap(err, "load config")
			}
			if err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
				return err
			}
			s, err := server.NewServer(cfg)
			if err != nil {
				return errors.Wrap(err, "create server")
			}
			return s.Run(cmd.Context())
		},
	}
}
