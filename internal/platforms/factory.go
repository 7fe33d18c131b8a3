package platforms

import (
	"github.com/feedbird/feedbird/backend/internal/config"
)

// NewRegistryFromConfig builds the adapter registry for every platform whose
// client credentials are configured. Platforms without an adapter here are
// skipped by the orchestrator, not failed.
func NewRegistryFromConfig(cfg *config.Config) *Registry {
	registry := NewRegistry()

	if creds, ok := cfg.PlatformCreds("youtube"); ok {
		registry.Register(NewYouTubeAdapter(creds.ClientID, creds.ClientSecret, cfg.HTTPTimeout))
	}
	if creds, ok := cfg.PlatformCreds("facebook"); ok {
		registry.Register(NewFacebookAdapter(creds.ClientID, creds.ClientSecret, cfg.HTTPTimeout))
	}

	return registry
}
