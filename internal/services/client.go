package services

import (
	"context"
	"net/http"

	"github.com/desertthunder/plzip/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
)

// NewHTTPClient builds the [http.Client] used to reach the external service.
//
// When client credentials are configured the client fetches and refreshes a bearer token
// from TokenURL; otherwise a plain client is returned. Both use the configured timeout.
func NewHTTPClient(ctx context.Context, cfg shared.BackendConfig) *http.Client {
	if !cfg.UsesClientCredentials() {
		return &http.Client{Timeout: cfg.TimeoutDuration()}
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}
	client := cc.Client(ctx)
	client.Timeout = cfg.TimeoutDuration()
	return client
}
