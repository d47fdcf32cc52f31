package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"movne-gateway/internal/backend"
	"movne-gateway/internal/config"
	"movne-gateway/internal/diagnostics"
	"movne-gateway/internal/logging"
)

func newCheckCmd() *cobra.Command {
	var withOpenAI bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the system diagnostic against the backend and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return errors.Wrap(err, "load config")
			}
			if err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
				return err
			}

			client := backend.NewClient(cfg.BackendBaseURL, cfg.ProbeTimeout)
			probes := diagnostics.BackendProbes(client, cfg.Provider, cfg.Messages)
			if withOpenAI && cfg.OpenAIAPIKey != "" {
				probes = append(probes, diagnostics.OpenAIProbe(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL))
			}
			st := diagnostics.NewOrchestrator(probes, cfg.ProbeTimeout, cfg.Messages).CheckSystem(cmd.Context())

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			if err := enc.Encode(st); err != nil {
				return err
			}
			if !st.OK {
				return errors.New(st.Message)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withOpenAI, "openai", true, "also probe the OpenAI API directly when OPENAI_API_KEY is set")
	return cmd
}
