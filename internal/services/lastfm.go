// Last.fm implementation of [HistoryService] using shkh/lastfm-go.
package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/shared"
	"github.com/shkh/lastfm-go/lastfm"
	"golang.org/x/time/rate"
)

// Last.fm caps recent-tracks page sizes at 200.
const lastfmPageSize = 200

// LastfmService reads listening history from the Last.fm API. Recent-tracks
// reads only need an API key; no session authentication is required.
type LastfmService struct {
	api     *lastfm.Api
	limiter *rate.Limiter
}

// NewLastfmService creates a new Last.fm service with the given credentials.
func NewLastfmService(credentials map[string]string) (*LastfmService, error) {
	apiKey, ok := credentials["api_key"]
	if !ok || apiKey == "" {
		return nil, fmt.Errorf("%w: missing api_key", shared.ErrMissingCredentials)
	}

	// Shared secret is only needed for write scopes; history reads work
	// without it.
	sharedSecret := credentials["shared_secret"]

	return &LastfmService{
		api:     lastfm.New(apiKey, sharedSecret),
		limiter: rate.NewLimiter(rate.Limit(4), 1),
	}, nil
}

func (s *LastfmService) Name() string {
	return "Last.fm"
}

// RecentTracks pages through a user's scrobbles within [from, to] and
// returns play descriptors, oldest pages last. Now-playing entries carry no
// timestamp and are skipped.
func (s *LastfmService) RecentTracks(ctx context.Context, user string, from, to time.Time) ([]models.PlayDescriptor, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: missing Last.fm username", shared.ErrMissingArgument)
	}

	var descriptors []models.PlayDescriptor

	for page := 1; ; page++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		params := lastfm.P{
			"user":  user,
			"limit": lastfmPageSize,
			"page":  page,
		}
		if !from.IsZero() {
			params["from"] = from.Unix()
		}
		if !to.IsZero() {
			params["to"] = to.Unix()
		}

		result, err := s.api.User.GetRecentTracks(params)
		if err != nil {
			return nil, fmt.Errorf("%w: recent tracks for %s: %v", shared.ErrAPIRequest, user, err)
		}

		for _, t := range result.Tracks {
			if t.NowPlaying == "true" {
				continue
			}

			uts, err := strconv.ParseInt(t.Date.Uts, 10, 64)
			if err != nil {
				continue
			}

			descriptors = append(descriptors, models.PlayDescriptor{
				Title:    t.Name,
				Artist:   t.Artist.Name,
				Album:    t.Album.Name,
				PlayedAt: time.Unix(uts, 0).UTC(),
				Source:   "lastfm",
			})
		}

		if page >= result.TotalPages || len(result.Tracks) == 0 {
			break
		}
	}

	return descriptors, nil
}

// ArtistTopTag returns the artist's highest-ranked tag, or "" when Last.fm
// has none for the artist.
func (s *LastfmService) ArtistTopTag(ctx context.Context, artist string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	result, err := s.api.Artist.GetTopTags(lastfm.P{"artist": artist, "autocorrect": 1})
	if err != nil {
		return "", fmt.Errorf("%w: top tags for %s: %v", shared.ErrAPIRequest, artist, err)
	}

	if len(result.Tags) == 0 {
		return "", nil
	}
	return result.Tags[0].Name, nil
}
