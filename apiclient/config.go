package apiclient

import (
	"context"
	"net/http"

	apierrors "langteacher/errors"
	"langteacher/types"
)

// llmConfigPayload is the writable subset of LLMConfig.
type llmConfigPayload struct {
	Provider types.Provider `json:"provider"`
	Model    string         `json:"model"`
	BaseURL  string         `json:"base_url"`
	APIKey   string         `json:"api_key,omitempty"`
}

// GetConfig returns the current LLM and transcription configuration.
func (c *Client) GetConfig(ctx context.Context) (*types.AppConfig, error) {
	return call[types.AppConfig](ctx, c, &request{method: http.MethodGet, path: "/api/config"})
}

// UpdateConfig persists the LLM configuration. The echoed config reports key
// presence through HasAPIKey rather than returning the key.
func (c *Client) UpdateConfig(ctx context.Context, cfg types.LLMConfig) (*types.ConfigUpdate[types.LLMConfig], error) {
	if !cfg.Provider.Valid() {
		return nil, apierrors.NewInvalidInput("unknown provider %q", cfg.Provider)
	}
	return call[types.ConfigUpdate[types.LLMConfig]](ctx, c, &request{
		method: http.MethodPost,
		path:   "/api/config",
		body: jsonBody{llmConfigPayload{
			Provider: cfg.Provider,
			Model:    cfg.Model,
			BaseURL:  cfg.BaseURL,
			APIKey:   cfg.APIKey,
		}},
	})
}

func (c *Client) UpdateWhisperConfig(ctx context.Context, cfg types.WhisperConfig) (*types.ConfigUpdate[types.WhisperConfig], error) {
	return call[types.ConfigUpdate[types.WhisperConfig]](ctx, c, &request{
		method: http.MethodPost,
		path:   "/api/config/whisper",
		body:   jsonBody{cfg},
	})
}
