package services

import (
	"context"
	"strings"
	"testing"
)

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			credentials := map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
				"redirect_uri":  "http://localhost:9999/callback",
			}

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv == nil {
				t.Fatal("expected service to be created")
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			credentials := map[string]string{
				"client_secret": "test_client_secret",
			}

			_, err := NewSpotifyService(credentials)
			if err == nil {
				t.Error("expected error for missing client_id")
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			credentials := map[string]string{
				"client_id": "test_client_id",
			}

			_, err := NewSpotifyService(credentials)
			if err == nil {
				t.Error("expected error for missing client_secret")
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			credentials := map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
			}

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.config.RedirectURL != "http://localhost:8080/callback" {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		if authURL == "" {
			t.Error("expected auth URL to be generated")
		}

		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_client_id") {
			t.Error("auth URL should contain client_id")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("WithAccessToken", func(t *testing.T) {
			authCreds := map[string]string{
				"access_token": "test_access_token",
			}

			err := srv.Authenticate(context.Background(), authCreds)
			if err != nil {
				t.Errorf("expected no error with access token, got %v", err)
			}

			if srv.token == nil {
				t.Error("expected token to be set")
			}

			if srv.token.AccessToken != "test_access_token" {
				t.Errorf("expected access token to be 'test_access_token', got %s", srv.token.AccessToken)
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{})
			if err == nil {
				t.Error("expected error for missing credentials")
			}
		})
	})

	t.Run("Interfaces", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		var _ CatalogService = srv
		var _ PlaylistMutator = srv
	})
}

func TestBatchURIs(t *testing.T) {
	uris := make([]string, 250)
	for i := range uris {
		uris[i] = TrackURI("id")
	}

	batches := batchURIs(uris)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[0]) != 100 || len(batches[1]) != 100 || len(batches[2]) != 50 {
		t.Errorf("unexpected batch sizes: %d, %d, %d", len(batches[0]), len(batches[1]), len(batches[2]))
	}

	if got := batchURIs(nil); got != nil {
		t.Errorf("expected no batches for empty input, got %d", len(got))
	}
}

func TestTrackURI(t *testing.T) {
	if got := TrackURI("abc123"); got != "spotify:track:abc123" {
		t.Errorf("unexpected URI: %s", got)
	}
}
