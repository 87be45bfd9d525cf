package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/mkplaylist/internal/services"
	"github.com/desertthunder/mkplaylist/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	var spotifyService *services.SpotifyService
	var lastfmService *services.LastfmService

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
			if authErr := svc.Authenticate(context.Background(), config.Credentials.Spotify.Map()); authErr != nil {
				logger.Debug("spotify not authenticated yet", "error", authErr)
			}
			spotifyService = svc
		}
	}

	if config.Credentials.Lastfm.APIKey != "" {
		if svc, err := services.NewLastfmService(config.Credentials.Lastfm.Map()); err == nil {
			lastfmService = svc
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Spotify: spotifyService,
		Lastfm:  lastfmService,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "mkplaylist",
		Usage:    "Build Spotify playlists from your library and Last.fm history",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
