package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/shared"
)

var repoNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

// newTestDB opens an in-memory database with migrations applied. The pool is
// capped at one connection so every query sees the same in-memory store.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func seedTrack(t *testing.T, repo *TrackRepository, id, spotifyID, title, artist string, added time.Time, playCount int, lastPlayed time.Time) models.Track {
	t.Helper()

	track := models.Track{
		ID:           id,
		SpotifyID:    spotifyID,
		Title:        title,
		Artist:       artist,
		AddedAt:      added,
		PlayCount:    playCount,
		LastPlayedAt: lastPlayed,
		CreatedAt:    added,
		UpdatedAt:    added,
	}
	if err := repo.Create(context.Background(), &track); err != nil {
		t.Fatalf("failed to seed track %s: %v", id, err)
	}
	return track
}

func trackIDs(tracks []models.Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

func assertOrder(t *testing.T, got []models.Track, want ...string) {
	t.Helper()
	ids := trackIDs(got)
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
}

func TestTrackRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create And Get Round Trip", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))

		track := models.Track{
			ID:         "t1",
			SpotifyID:  "sp1",
			Title:      "Nude",
			Artist:     "Radiohead",
			Album:      "In Rainbows",
			Genre:      "art rock",
			DurationMS: 255000,
			Popularity: 70,
			AddedAt:    repoNow,
			CreatedAt:  repoNow,
			UpdatedAt:  repoNow,
		}
		if err := repo.Create(ctx, &track); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		got, err := repo.Get(ctx, "t1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Title != "Nude" || got.Artist != "Radiohead" || got.Album != "In Rainbows" {
			t.Errorf("unexpected track: %+v", got)
		}
		if got.SpotifyID != "sp1" || got.DurationMS != 255000 || got.Popularity != 70 {
			t.Errorf("unexpected track fields: %+v", got)
		}
		if !got.AddedAt.Equal(repoNow) {
			t.Errorf("expected AddedAt %v, got %v", repoNow, got.AddedAt)
		}
		if !got.LastPlayedAt.IsZero() {
			t.Errorf("expected zero LastPlayedAt, got %v", got.LastPlayedAt)
		}
	})

	t.Run("Create Assigns ID When Empty", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))

		track := models.Track{Title: "Reckoner", Artist: "Radiohead", AddedAt: repoNow, CreatedAt: repoNow, UpdatedAt: repoNow}
		if err := repo.Create(ctx, &track); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if track.ID == "" {
			t.Error("expected generated ID")
		}
	})

	t.Run("Create Rejects Missing Fields", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))

		if err := repo.Create(ctx, &models.Track{Artist: "Radiohead"}); err == nil {
			t.Error("expected validation error for missing title")
		}
	})

	t.Run("Update Modifies Existing Track", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))
		track := seedTrack(t, repo, "t1", "sp1", "Nude", "Radiohead", repoNow, 0, time.Time{})

		track.Genre = "art rock"
		track.PlayCount = 3
		track.LastPlayedAt = repoNow.Add(time.Hour)
		if err := repo.Update(ctx, &track); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		got, err := repo.Get(ctx, "t1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Genre != "art rock" || got.PlayCount != 3 {
			t.Errorf("unexpected track after update: %+v", got)
		}
		if !got.LastPlayedAt.Equal(repoNow.Add(time.Hour)) {
			t.Errorf("expected LastPlayedAt to be set, got %v", got.LastPlayedAt)
		}
	})

	t.Run("Update Missing Track Fails", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))

		track := models.Track{ID: "ghost", Title: "Nude", Artist: "Radiohead"}
		if err := repo.Update(ctx, &track); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))
		seedTrack(t, repo, "t1", "sp1", "Nude", "Radiohead", repoNow, 0, time.Time{})

		if err := repo.Delete(ctx, "t1"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if err := repo.Delete(ctx, "t1"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound on second delete, got %v", err)
		}
	})

	t.Run("TrackBySpotifyID Returns Nil When Absent", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))
		seedTrack(t, repo, "t1", "sp1", "Nude", "Radiohead", repoNow, 0, time.Time{})

		got, err := repo.TrackBySpotifyID(ctx, "sp1")
		if err != nil || got == nil || got.ID != "t1" {
			t.Fatalf("expected t1, got %v (err %v)", got, err)
		}

		got, err = repo.TrackBySpotifyID(ctx, "missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil for absent spotify id, got %+v", got)
		}
	})

	t.Run("TrackByNormalizedKey Ignores Case And Punctuation", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))
		seedTrack(t, repo, "t1", "sp1", "Exit Music (For a Film)", "Radiohead", repoNow, 0, time.Time{})

		key := shared.NormalizeTrackKey("exit music for a film", "RADIOHEAD")
		got, err := repo.TrackByNormalizedKey(ctx, key)
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if got == nil || got.ID != "t1" {
			t.Errorf("expected t1, got %+v", got)
		}
	})

	t.Run("TracksByNormalizedArtist", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))
		seedTrack(t, repo, "t1", "sp1", "Nude", "Radiohead", repoNow, 0, time.Time{})
		seedTrack(t, repo, "t2", "sp2", "Reckoner", "Radiohead", repoNow, 0, time.Time{})
		seedTrack(t, repo, "t3", "sp3", "Intro", "The xx", repoNow, 0, time.Time{})

		got, err := repo.TracksByNormalizedArtist(ctx, shared.NormalizeText("Radiohead"))
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		assertOrder(t, got, "t1", "t2")
	})

	t.Run("TracksByIDs Skips Missing", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))
		seedTrack(t, repo, "t1", "sp1", "Nude", "Radiohead", repoNow, 0, time.Time{})

		got, err := repo.TracksByIDs(ctx, []string{"t1", "ghost"})
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 track, got %d", len(got))
		}
		if _, ok := got["t1"]; !ok {
			t.Error("expected t1 in result")
		}

		empty, err := repo.TracksByIDs(ctx, nil)
		if err != nil || len(empty) != 0 {
			t.Errorf("expected empty result for nil ids, got %v (err %v)", empty, err)
		}
	})

	t.Run("TracksMissingGenre Oldest First", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))
		older := seedTrack(t, repo, "t1", "sp1", "Nude", "Radiohead", repoNow.Add(-2*time.Hour), 0, time.Time{})
		seedTrack(t, repo, "t2", "sp2", "Reckoner", "Radiohead", repoNow.Add(-time.Hour), 0, time.Time{})
		tagged := seedTrack(t, repo, "t3", "sp3", "Intro", "The xx", repoNow, 0, time.Time{})

		tagged.Genre = "indie"
		if err := repo.Update(ctx, &tagged); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		got, err := repo.TracksMissingGenre(ctx, 0)
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		assertOrder(t, got, older.ID, "t2")
	})

	t.Run("Library Orderings", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))

		// t1 oldest, most played; t2 unplayed; t3 newest, played most recently
		seedTrack(t, repo, "t1", "sp1", "Nude", "Radiohead", repoNow.Add(-3*time.Hour), 5, repoNow.Add(-2*time.Hour))
		seedTrack(t, repo, "t2", "sp2", "Reckoner", "Radiohead", repoNow.Add(-2*time.Hour), 0, time.Time{})
		seedTrack(t, repo, "t3", "sp3", "Intro", "The xx", repoNow.Add(-time.Hour), 2, repoNow.Add(-time.Minute))

		t.Run("RecentlyAdded", func(t *testing.T) {
			got, err := repo.RecentlyAdded(ctx, 0)
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}
			assertOrder(t, got, "t3", "t2", "t1")
		})

		t.Run("RecentlyAdded With Limit", func(t *testing.T) {
			got, err := repo.RecentlyAdded(ctx, 2)
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}
			assertOrder(t, got, "t3", "t2")
		})

		t.Run("RecentlyPlayed Excludes Unplayed", func(t *testing.T) {
			got, err := repo.RecentlyPlayed(ctx, 0)
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}
			assertOrder(t, got, "t3", "t1")
		})

		t.Run("MostPlayed", func(t *testing.T) {
			got, err := repo.MostPlayed(ctx, 0)
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}
			assertOrder(t, got, "t1", "t3")
		})

		t.Run("TracksByArtist Case Insensitive", func(t *testing.T) {
			got, err := repo.TracksByArtist(ctx, "radiohead")
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}
			assertOrder(t, got, "t2", "t1")
		})

		t.Run("TracksAddedSince Inclusive", func(t *testing.T) {
			got, err := repo.TracksAddedSince(ctx, repoNow.Add(-2*time.Hour))
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}
			assertOrder(t, got, "t3", "t2")
		})

		t.Run("TracksAddedBefore Exclusive", func(t *testing.T) {
			got, err := repo.TracksAddedBefore(ctx, repoNow.Add(-2*time.Hour))
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}
			assertOrder(t, got, "t1")
		})

		t.Run("Count", func(t *testing.T) {
			n, err := repo.Count(ctx)
			if err != nil || n != 3 {
				t.Errorf("expected 3 tracks, got %d (err %v)", n, err)
			}
		})
	})

	t.Run("TracksPlayedSince Orders By Latest Qualifying Play", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewTrackRepository(db)
		events := NewPlayEventRepository(db)

		seedTrack(t, repo, "t1", "sp1", "Nude", "Radiohead", repoNow.Add(-48*time.Hour), 2, repoNow.Add(-time.Hour))
		seedTrack(t, repo, "t2", "sp2", "Reckoner", "Radiohead", repoNow.Add(-48*time.Hour), 1, repoNow.Add(-2*time.Hour))
		seedTrack(t, repo, "t3", "sp3", "Intro", "The xx", repoNow.Add(-48*time.Hour), 1, repoNow.Add(-5*time.Hour))

		plays := []struct {
			track string
			at    time.Time
		}{
			{"t1", repoNow.Add(-5 * time.Hour)},
			{"t1", repoNow.Add(-time.Hour)},
			{"t2", repoNow.Add(-2 * time.Hour)},
			{"t3", repoNow.Add(-5 * time.Hour)},
		}
		for _, p := range plays {
			event := models.PlayEvent{TrackID: p.track, PlayedAt: p.at, Source: "lastfm", CreatedAt: repoNow}
			if err := events.Create(ctx, &event); err != nil {
				t.Fatalf("failed to seed play event: %v", err)
			}
		}

		got, err := repo.TracksPlayedSince(ctx, repoNow.Add(-3*time.Hour))
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		assertOrder(t, got, "t1", "t2")
	})
}

func TestPlaylistRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Upsert Inserts Then Updates By SpotifyID", func(t *testing.T) {
		repo := NewPlaylistRepository(newTestDB(t))

		pl := models.Playlist{SpotifyID: "sp_pl1", Name: "daily mix", Description: "first"}
		if err := repo.Upsert(ctx, &pl); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
		if pl.ID == "" {
			t.Fatal("expected generated ID")
		}
		originalID := pl.ID

		updated := models.Playlist{SpotifyID: "sp_pl1", Name: "daily mix", Description: "second", Public: true}
		if err := repo.Upsert(ctx, &updated); err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}
		if updated.ID != originalID {
			t.Errorf("expected upsert to keep ID %s, got %s", originalID, updated.ID)
		}

		got, err := repo.GetBySpotifyID(ctx, "sp_pl1")
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if got.Description != "second" || !got.Public {
			t.Errorf("expected updated playlist, got %+v", got)
		}
	})

	t.Run("GetByName Returns Nil When Absent", func(t *testing.T) {
		repo := NewPlaylistRepository(newTestDB(t))

		got, err := repo.GetByName(ctx, "missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("List Ordered By Name", func(t *testing.T) {
		repo := NewPlaylistRepository(newTestDB(t))

		for _, name := range []string{"workout", "chill", "morning"} {
			pl := models.Playlist{Name: name}
			if err := repo.Upsert(ctx, &pl); err != nil {
				t.Fatalf("upsert failed: %v", err)
			}
		}

		got, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(got) != 3 || got[0].Name != "chill" || got[1].Name != "morning" || got[2].Name != "workout" {
			names := make([]string, len(got))
			for i, p := range got {
				names[i] = p.Name
			}
			t.Errorf("unexpected order: %v", names)
		}
	})

	t.Run("ReplaceEntries Round Trip", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewPlaylistRepository(db)
		tracks := NewTrackRepository(db)

		pl := models.Playlist{Name: "daily mix"}
		if err := repo.Upsert(ctx, &pl); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
		seedTrack(t, tracks, "t1", "sp1", "Nude", "Radiohead", repoNow, 0, time.Time{})
		seedTrack(t, tracks, "t2", "sp2", "Reckoner", "Radiohead", repoNow, 0, time.Time{})

		entries := []models.PlaylistEntry{
			{PlaylistID: pl.ID, TrackID: "t1", Position: 0, AddedAt: repoNow},
			{PlaylistID: pl.ID, TrackID: "t2", Position: 1, AddedAt: repoNow},
		}
		if err := repo.ReplaceEntries(ctx, pl.ID, entries); err != nil {
			t.Fatalf("replace failed: %v", err)
		}

		got, err := repo.Entries(ctx, pl.ID)
		if err != nil {
			t.Fatalf("entries failed: %v", err)
		}
		if len(got) != 2 || got[0].TrackID != "t1" || got[1].TrackID != "t2" {
			t.Fatalf("unexpected entries: %+v", got)
		}

		swapped := []models.PlaylistEntry{
			{PlaylistID: pl.ID, TrackID: "t2", Position: 0, AddedAt: repoNow},
		}
		if err := repo.ReplaceEntries(ctx, pl.ID, swapped); err != nil {
			t.Fatalf("second replace failed: %v", err)
		}

		got, _ = repo.Entries(ctx, pl.ID)
		if len(got) != 1 || got[0].TrackID != "t2" || got[0].Position != 0 {
			t.Errorf("expected membership swapped, got %+v", got)
		}
	})

	t.Run("RemoveTrackEverywhere", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewPlaylistRepository(db)
		tracks := NewTrackRepository(db)

		seedTrack(t, tracks, "t1", "sp1", "Nude", "Radiohead", repoNow, 0, time.Time{})

		first := models.Playlist{Name: "first"}
		second := models.Playlist{Name: "second"}
		for _, pl := range []*models.Playlist{&first, &second} {
			if err := repo.Upsert(ctx, pl); err != nil {
				t.Fatalf("upsert failed: %v", err)
			}
			entry := []models.PlaylistEntry{{PlaylistID: pl.ID, TrackID: "t1", Position: 0}}
			if err := repo.ReplaceEntries(ctx, pl.ID, entry); err != nil {
				t.Fatalf("replace failed: %v", err)
			}
		}

		if err := repo.RemoveTrackEverywhere(ctx, "t1"); err != nil {
			t.Fatalf("remove failed: %v", err)
		}

		for _, pl := range []models.Playlist{first, second} {
			got, _ := repo.Entries(ctx, pl.ID)
			if len(got) != 0 {
				t.Errorf("expected %s to be empty, got %+v", pl.Name, got)
			}
		}
	})
}

func TestPlayEventRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create And ListByTrack Most Recent First", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewPlayEventRepository(db)
		tracks := NewTrackRepository(db)
		seedTrack(t, tracks, "t1", "sp1", "Nude", "Radiohead", repoNow, 0, time.Time{})

		for _, at := range []time.Time{repoNow.Add(-2 * time.Hour), repoNow.Add(-time.Hour)} {
			event := models.PlayEvent{TrackID: "t1", PlayedAt: at, Source: "lastfm", CreatedAt: repoNow}
			if err := repo.Create(ctx, &event); err != nil {
				t.Fatalf("create failed: %v", err)
			}
		}

		got, err := repo.ListByTrack(ctx, "t1")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 events, got %d", len(got))
		}
		if !got[0].PlayedAt.After(got[1].PlayedAt) {
			t.Errorf("expected most recent first, got %v then %v", got[0].PlayedAt, got[1].PlayedAt)
		}

		n, err := repo.Count(ctx)
		if err != nil || n != 2 {
			t.Errorf("expected 2 events, got %d (err %v)", n, err)
		}
	})

	t.Run("Create Rejects Missing Timestamp", func(t *testing.T) {
		repo := NewPlayEventRepository(newTestDB(t))

		event := models.PlayEvent{TrackID: "t1"}
		if err := repo.Create(ctx, &event); err == nil {
			t.Error("expected validation error for zero PlayedAt")
		}
	})

	t.Run("ReassignTrack Moves Events", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewPlayEventRepository(db)
		tracks := NewTrackRepository(db)
		seedTrack(t, tracks, "dup", "", "Weird Fishex", "Radiohead", repoNow, 0, time.Time{})
		seedTrack(t, tracks, "canon", "sp1", "Weird Fishes", "Radiohead", repoNow, 0, time.Time{})

		for i := 0; i < 3; i++ {
			event := models.PlayEvent{TrackID: "dup", PlayedAt: repoNow.Add(time.Duration(-i) * time.Hour), Source: "lastfm", CreatedAt: repoNow}
			if err := repo.Create(ctx, &event); err != nil {
				t.Fatalf("create failed: %v", err)
			}
		}

		moved, err := repo.ReassignTrack(ctx, "dup", "canon")
		if err != nil {
			t.Fatalf("reassign failed: %v", err)
		}
		if moved != 3 {
			t.Errorf("expected 3 moved events, got %d", moved)
		}

		remaining, _ := repo.ListByTrack(ctx, "dup")
		if len(remaining) != 0 {
			t.Errorf("expected no events left on duplicate, got %d", len(remaining))
		}
		adopted, _ := repo.ListByTrack(ctx, "canon")
		if len(adopted) != 3 {
			t.Errorf("expected 3 events on canonical, got %d", len(adopted))
		}
	})
}

func TestConflictRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create And Get Round Trip", func(t *testing.T) {
		repo := NewConflictRepository(newTestDB(t))

		conflict := models.IdentityConflict{
			Title:        "Weird Fishex",
			Artist:       "Radiohead",
			Source:       "lastfm",
			TrackID:      "dup",
			CandidateIDs: []string{"c1", "c2"},
			CreatedAt:    repoNow,
		}
		if err := repo.Create(ctx, &conflict); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		got, err := repo.Get(ctx, conflict.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if len(got.CandidateIDs) != 2 || got.CandidateIDs[0] != "c1" || got.CandidateIDs[1] != "c2" {
			t.Errorf("unexpected candidates: %v", got.CandidateIDs)
		}
		if got.Resolved() {
			t.Error("new conflict should be unresolved")
		}
	})

	t.Run("Get Missing Fails", func(t *testing.T) {
		repo := NewConflictRepository(newTestDB(t))

		if _, err := repo.Get(ctx, "ghost"); !errors.Is(err, shared.ErrConflictNotFound) {
			t.Errorf("expected ErrConflictNotFound, got %v", err)
		}
	})

	t.Run("ListUnresolved Excludes Resolved", func(t *testing.T) {
		repo := NewConflictRepository(newTestDB(t))

		older := models.IdentityConflict{Title: "A", Artist: "X", Source: "lastfm", TrackID: "t1", CreatedAt: repoNow.Add(-2 * time.Hour)}
		newer := models.IdentityConflict{Title: "B", Artist: "Y", Source: "lastfm", TrackID: "t2", CreatedAt: repoNow.Add(-time.Hour)}
		for _, c := range []*models.IdentityConflict{&older, &newer} {
			if err := repo.Create(ctx, c); err != nil {
				t.Fatalf("create failed: %v", err)
			}
		}

		pending, err := repo.ListUnresolved(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(pending) != 2 || pending[0].Title != "A" {
			t.Fatalf("expected oldest first, got %+v", pending)
		}

		if err := repo.MarkResolved(ctx, older.ID, repoNow); err != nil {
			t.Fatalf("resolve failed: %v", err)
		}

		pending, _ = repo.ListUnresolved(ctx)
		if len(pending) != 1 || pending[0].Title != "B" {
			t.Errorf("expected only B pending, got %+v", pending)
		}
	})

	t.Run("MarkResolved Twice Fails", func(t *testing.T) {
		repo := NewConflictRepository(newTestDB(t))

		conflict := models.IdentityConflict{Title: "A", Artist: "X", Source: "lastfm", TrackID: "t1", CreatedAt: repoNow}
		if err := repo.Create(ctx, &conflict); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		if err := repo.MarkResolved(ctx, conflict.ID, repoNow); err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if err := repo.MarkResolved(ctx, conflict.ID, repoNow); !errors.Is(err, shared.ErrConflictNotFound) {
			t.Errorf("expected ErrConflictNotFound on double resolve, got %v", err)
		}
	})
}
