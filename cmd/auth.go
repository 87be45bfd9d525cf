package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/mkplaylist/internal/server"
	"github.com/desertthunder/mkplaylist/internal/services"
	"github.com/desertthunder/mkplaylist/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Auth performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// exchanges the auth code for tokens, which are saved back to the config file.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if config == nil {
		var err error
		if _, statErr := os.Stat(configPath); statErr == nil {
			config, err = shared.LoadConfig(configPath)
			if err != nil {
				r.logger.Warnf("failed to load config, using defaults %v", err)
				config = shared.DefaultConfig()
			}
		} else {
			config = shared.DefaultConfig()
		}
	}

	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrInvalidArgument)
	}

	spotifyService, err := services.NewSpotifyService(config.Credentials.Spotify.Map())
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token, err := r.doOAuth(ctx, config, spotifyService)
	if err != nil {
		return err
	}

	if err := config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if err := spotifyService.Authenticate(ctx, config.Credentials.Spotify.Map()); err != nil {
		return fmt.Errorf("failed to authenticate with new tokens: %w", err)
	}

	r.config = config
	r.spotify = spotifyService

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", configPath)
	r.writePlain("You can now run: mkplaylist sync\n")

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a temporary loopback server.
func (r *Runner) doOAuth(ctx context.Context, config *shared.Config, svc *services.SpotifyService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	authURL := svc.GetAuthURL(state)
	handler := server.NewOAuthHandler(svc.OAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))

	serverAddr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	token, err := server.AwaitCallback(waitCtx, serverAddr, handler, router)
	if err != nil {
		if waitCtx.Err() != nil {
			return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
		}
		return nil, fmt.Errorf("authorization failed: %w", err)
	}

	return token, nil
}
