package services

import (
	"context"

	"langteacher/types"
)

// LoadConfig fetches the configuration and stores the LLM part.
func (a *App) LoadConfig(ctx context.Context) (*types.AppConfig, error) {
	defer a.begin()()
	cfg, err := a.api.GetConfig(ctx)
	if err != nil {
		return nil, a.fail(ctx, "load_config", err)
	}
	llm := cfg.LLM
	a.state.LLMConfig.Set(&llm)
	return cfg, nil
}

// SaveConfig persists cfg and stores the echoed config, which carries key
// presence instead of the key itself.
func (a *App) SaveConfig(ctx context.Context, cfg types.LLMConfig) error {
	defer a.begin()()
	resp, err := a.api.UpdateConfig(ctx, cfg)
	if err != nil {
		return a.fail(ctx, "save_config", err)
	}
	saved := resp.Config
	saved.APIKey = ""
	a.state.LLMConfig.Set(&saved)
	return nil
}

func (a *App) SaveWhisperConfig(ctx context.Context, cfg types.WhisperConfig) (*types.WhisperConfig, error) {
	defer a.begin()()
	resp, err := a.api.UpdateWhisperConfig(ctx, cfg)
	if err != nil {
		return nil, a.fail(ctx, "save_whisper_config", err)
	}
	return &resp.Config, nil
}
