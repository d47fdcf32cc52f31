package diagnostics

import (
	"context"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProbe checks the provider directly by listing models with the given
// key. It does not depend on the backend. baseURL may be empty.
func OpenAIProbe(apiKey, baseURL string) Probe {
	oc := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		oc.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(oc)
	return Probe{
		Name:    "openai-direct",
		Failure: "cannot reach OpenAI with the configured key",
		Check: func(ctx context.Context) error {
			models, err := client.ListModels(ctx)
			if err != nil {
				return errors.Wrap(err, "list models")
			}
			if len(models.Models) == 0 {
				return errors.New("no models available")
			}
			return nil
		},
	}
}
