package main

import (
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"movne-gateway/internal/chat"
	"movne-gateway/internal/config"
	"movne-gateway/internal/logging"
	"movne-gateway/internal/tui"
)

func newChatCmd() *cobra.Command {
	var (
		title     string
		productID string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the terminal chat against a running gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return errors.Wrap(err, "load config")
			}
			// The alt screen owns the terminal.
			if err := logging.Setup(cfg.LogLevel, "json", io.Discard); err != nil {
				return err
			}

			userID := cfg.UserID
			if userID == "" {
				userID = uuid.NewString()
			}
			// Sends wait for the backend, so give them the gateway's headroom.
			timeout := cfg.BackendTimeout + cfg.ProbeTimeout
			session := chat.NewSession(chat.NewClient(cfg.GatewayURL, timeout), chat.Options{
				UserID:      userID,
				ProductID:   productID,
				Unavailable: cfg.Messages.ServiceUnavailable,
				SystemError: cfg.Messages.SystemError,
			})
			return tui.Run(session, title, timeout)
		},
	}
	cmd.Flags().StringVar(&title, "title", "Movne Assistant", "window title")
	cmd.Flags().StringVar(&productID, "product", "", "structured product id to scope the conversation")
	return cmd
}
