package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/desertthunder/mkplaylist/internal/identity"
	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/shared"
	mocks "github.com/desertthunder/mkplaylist/internal/testing"
)

var taskNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return taskNow }

// fakeCatalog is a canned CatalogService.
type fakeCatalog struct {
	saved     []models.CatalogDescriptor
	playlists []models.Playlist
	items     map[string][]models.CatalogDescriptor
}

func (f *fakeCatalog) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (f *fakeCatalog) SavedTracks(ctx context.Context) ([]models.CatalogDescriptor, error) {
	return f.saved, nil
}

func (f *fakeCatalog) Playlists(ctx context.Context) ([]models.Playlist, error) {
	return f.playlists, nil
}

func (f *fakeCatalog) PlaylistItems(ctx context.Context, playlistID string) ([]models.CatalogDescriptor, error) {
	return f.items[playlistID], nil
}

func (f *fakeCatalog) Name() string { return "fake-catalog" }

// fakeHistory is a canned HistoryService.
type fakeHistory struct {
	plays []models.PlayDescriptor
	tags  map[string]string
}

func (f *fakeHistory) RecentTracks(ctx context.Context, user string, from, to time.Time) ([]models.PlayDescriptor, error) {
	return f.plays, nil
}

func (f *fakeHistory) ArtistTopTag(ctx context.Context, artist string) (string, error) {
	return f.tags[artist], nil
}

func (f *fakeHistory) Name() string { return "fake-history" }

// syncTrackStore adapts MockStore to the sync engine's TrackStore.
type syncTrackStore struct {
	*mocks.MockStore
}

func (s syncTrackStore) TracksMissingGenre(ctx context.Context, limit int) ([]models.Track, error) {
	var out []models.Track
	for _, t := range s.Tracks {
		if t.Genre == "" {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s syncTrackStore) Update(ctx context.Context, track *models.Track) error {
	return s.UpdateTrack(ctx, track)
}

func buildTrack(id, spotifyID string, addedHoursAgo, playCount, playedHoursAgo int) models.Track {
	t := models.Track{
		ID:        id,
		SpotifyID: spotifyID,
		Title:     "title-" + id,
		Artist:    "Artist " + id,
		AddedAt:   taskNow.Add(-time.Duration(addedHoursAgo) * time.Hour),
	}
	if playCount > 0 {
		t.PlayCount = playCount
		t.LastPlayedAt = taskNow.Add(-time.Duration(playedHoursAgo) * time.Hour)
	}
	return t
}

func TestBuilder(t *testing.T) {
	ctx := context.Background()
	logger := shared.NewLogger(nil)

	lib := &mocks.MockLibrary{Tracks: []models.Track{
		buildTrack("t1", "sp1", 50, 2, 4),
		buildTrack("t2", "sp2", 40, 0, 0),
		buildTrack("t3", "sp3", 30, 7, 2),
		buildTrack("t4", "sp4", 20, 0, 0),
		buildTrack("t5", "sp5", 10, 1, 100),
	}}

	t.Run("Plan Composes And Diffs", func(t *testing.T) {
		lists := mocks.NewMockPlaylistStore()
		b := NewBuilder(lib, lists, mocks.NewMockMutator(), logger, fixedNow)

		plan, err := b.Plan(ctx, nil, "daily mix", "2 most recently added songs and 2 last played songs", "append", 0)
		if err != nil {
			t.Fatalf("plan failed: %v", err)
		}

		want := []string{"t5", "t4", "t3", "t1"}
		if len(plan.Final) != len(want) {
			t.Fatalf("expected final %v, got %d tracks", want, len(plan.Final))
		}
		for i, id := range want {
			if plan.Final[i].ID != id {
				t.Errorf("final[%d]: expected %s, got %s", i, id, plan.Final[i].ID)
			}
		}

		if plan.Playlist != nil {
			t.Error("expected no existing playlist")
		}
		if len(plan.Changes.Adds()) != 4 || len(plan.Changes.Removes()) != 0 {
			t.Errorf("expected 4 adds, got %+v", plan.Changes)
		}
	})

	t.Run("Apply Creates Playlist And Pushes Adds", func(t *testing.T) {
		lists := mocks.NewMockPlaylistStore()
		mutator := mocks.NewMockMutator()
		b := NewBuilder(lib, lists, mutator, logger, fixedNow)

		result, err := b.Run(ctx, nil, "daily mix", "2 most recently added songs and 2 last played songs", "append", 0)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if !result.Created {
			t.Error("expected playlist creation")
		}
		if result.Added != 4 {
			t.Errorf("expected 4 adds, got %d", result.Added)
		}

		uris := mutator.AddedURIs[result.Playlist.SpotifyID]
		want := []string{"spotify:track:sp5", "spotify:track:sp4", "spotify:track:sp3", "spotify:track:sp1"}
		if len(uris) != len(want) {
			t.Fatalf("expected %v, got %v", want, uris)
		}
		for i := range want {
			if uris[i] != want[i] {
				t.Errorf("uri %d: expected %s, got %s", i, want[i], uris[i])
			}
		}

		entries, _ := lists.Entries(ctx, result.Playlist.ID)
		if len(entries) != 4 {
			t.Errorf("expected 4 mirrored entries, got %d", len(entries))
		}
	})

	t.Run("Append Is Idempotent", func(t *testing.T) {
		lists := mocks.NewMockPlaylistStore()
		mutator := mocks.NewMockMutator()
		b := NewBuilder(lib, lists, mutator, logger, fixedNow)

		criteria := "2 most recently added songs and 2 last played songs"
		if _, err := b.Run(ctx, nil, "daily mix", criteria, "append", 0); err != nil {
			t.Fatalf("first run failed: %v", err)
		}

		plan, err := b.Plan(ctx, nil, "daily mix", criteria, "append", 0)
		if err != nil {
			t.Fatalf("second plan failed: %v", err)
		}
		if !plan.Changes.Empty() {
			t.Errorf("expected empty change-set on unchanged library, got %+v", plan.Changes.Changes)
		}
	})

	t.Run("Replace Pushes Final List", func(t *testing.T) {
		lists := mocks.NewMockPlaylistStore()
		mutator := mocks.NewMockMutator()
		b := NewBuilder(lib, lists, mutator, logger, fixedNow)

		if _, err := b.Run(ctx, nil, "daily mix", "songs by Artist t2", "append", 0); err != nil {
			t.Fatalf("seed run failed: %v", err)
		}

		result, err := b.Run(ctx, nil, "daily mix", "2 most played songs", "replace", 0)
		if err != nil {
			t.Fatalf("replace run failed: %v", err)
		}

		uris := mutator.ReplacedURIs[result.Playlist.SpotifyID]
		want := []string{"spotify:track:sp3", "spotify:track:sp1"}
		if len(uris) != len(want) {
			t.Fatalf("expected %v, got %v", want, uris)
		}
		for i := range want {
			if uris[i] != want[i] {
				t.Errorf("uri %d: expected %s, got %s", i, want[i], uris[i])
			}
		}

		entries, _ := lists.Entries(ctx, result.Playlist.ID)
		if len(entries) != 2 || entries[0].TrackID != "t3" || entries[1].TrackID != "t1" {
			t.Errorf("mirror should hold the final list, got %+v", entries)
		}
	})

	t.Run("Global Limit", func(t *testing.T) {
		lists := mocks.NewMockPlaylistStore()
		b := NewBuilder(lib, lists, mocks.NewMockMutator(), logger, fixedNow)

		plan, err := b.Plan(ctx, nil, "daily mix", "2 most recently added songs and 2 last played songs", "append", 2)
		if err != nil {
			t.Fatalf("plan failed: %v", err)
		}
		if len(plan.Final) != 2 || plan.Final[0].ID != "t5" || plan.Final[1].ID != "t4" {
			t.Errorf("expected [t5 t4], got %+v", plan.Final)
		}
	})

	t.Run("Parse Errors Abort The Plan", func(t *testing.T) {
		b := NewBuilder(lib, mocks.NewMockPlaylistStore(), mocks.NewMockMutator(), logger, fixedNow)

		if _, err := b.Plan(ctx, nil, "daily mix", "banana", "append", 0); err == nil {
			t.Error("expected parse error")
		}
		if _, err := b.Plan(ctx, nil, "daily mix", "songs by Radiohead", "merge", 0); err == nil {
			t.Error("expected mode error")
		}
	})

	t.Run("History Only Tracks Are Skipped", func(t *testing.T) {
		local := &mocks.MockLibrary{Tracks: []models.Track{
			buildTrack("t1", "sp1", 10, 0, 0),
			buildTrack("t2", "", 5, 0, 0), // no Spotify ID
		}}
		lists := mocks.NewMockPlaylistStore()
		mutator := mocks.NewMockMutator()
		b := NewBuilder(local, lists, mutator, logger, fixedNow)

		result, err := b.Run(ctx, nil, "daily mix", "2 most recently added songs", "append", 0)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if len(result.Skipped) != 1 || result.Skipped[0].ID != "t2" {
			t.Errorf("expected t2 skipped, got %+v", result.Skipped)
		}
		if result.Added != 1 {
			t.Errorf("expected 1 pushed add, got %d", result.Added)
		}

		// The local mirror still tracks full membership.
		entries, _ := lists.Entries(ctx, result.Playlist.ID)
		if len(entries) != 2 {
			t.Errorf("expected 2 mirrored entries, got %d", len(entries))
		}
	})
}

func TestSyncEngine(t *testing.T) {
	ctx := context.Background()
	logger := shared.NewLogger(nil)

	newEngine := func(catalog *fakeCatalog, history *fakeHistory) (*SyncEngine, *mocks.MockStore, *mocks.MockPlaylistStore) {
		store := mocks.NewMockStore()
		lists := mocks.NewMockPlaylistStore()
		resolver := identity.NewResolver(store, logger, fixedNow)
		engine := NewSyncEngine(catalog, history, resolver, syncTrackStore{store}, lists, logger)
		return engine, store, lists
	}

	t.Run("SyncCatalog", func(t *testing.T) {
		catalog := &fakeCatalog{saved: []models.CatalogDescriptor{
			{ExternalID: "sp1", Title: "Nude", Artist: "Radiohead", ObservedAt: taskNow},
			{ExternalID: "sp2", Title: "Reckoner", Artist: "Radiohead", ObservedAt: taskNow},
		}}
		engine, store, _ := newEngine(catalog, &fakeHistory{})

		result, err := engine.SyncCatalog(ctx, nil)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if result.Created != 2 {
			t.Errorf("expected 2 created, got %+v", result)
		}
		if len(store.Tracks) != 2 {
			t.Errorf("expected 2 tracks stored, got %d", len(store.Tracks))
		}
	})

	t.Run("SyncPlaylists Mirrors Membership", func(t *testing.T) {
		items := []models.CatalogDescriptor{
			{ExternalID: "sp1", Title: "Nude", Artist: "Radiohead", ObservedAt: taskNow},
			{ExternalID: "sp2", Title: "Reckoner", Artist: "Radiohead", ObservedAt: taskNow},
		}
		catalog := &fakeCatalog{
			playlists: []models.Playlist{{SpotifyID: "spl1", Name: "mirror me"}},
			items:     map[string][]models.CatalogDescriptor{"spl1": items},
		}
		engine, _, lists := newEngine(catalog, &fakeHistory{})

		mirrored, err := engine.SyncPlaylists(ctx, nil)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if mirrored != 1 {
			t.Errorf("expected 1 mirrored playlist, got %d", mirrored)
		}

		pl, _ := lists.GetByName(ctx, "mirror me")
		if pl == nil {
			t.Fatal("playlist was not mirrored")
		}
		entries, _ := lists.Entries(ctx, pl.ID)
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		for i, e := range entries {
			if e.Position != i {
				t.Errorf("expected dense positions, got %+v", entries)
			}
		}
	})

	t.Run("SyncHistory", func(t *testing.T) {
		history := &fakeHistory{plays: []models.PlayDescriptor{
			{Title: "Nude", Artist: "Radiohead", PlayedAt: taskNow.Add(-time.Hour), Source: "lastfm"},
		}}
		engine, store, _ := newEngine(&fakeCatalog{}, history)

		result, err := engine.SyncHistory(ctx, nil, "someone", time.Time{}, time.Time{})
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if result.Created != 1 || result.EventsAdded != 1 {
			t.Errorf("expected history track with event, got %+v", result)
		}
		if len(store.Events) != 1 {
			t.Errorf("expected 1 event, got %d", len(store.Events))
		}
	})

	t.Run("BackfillGenres", func(t *testing.T) {
		history := &fakeHistory{tags: map[string]string{"Radiohead": "art rock"}}
		engine, store, _ := newEngine(&fakeCatalog{}, history)

		store.Tracks["t1"] = &models.Track{ID: "t1", Title: "Nude", Artist: "Radiohead"}
		store.Tracks["t2"] = &models.Track{ID: "t2", Title: "Unknown", Artist: "Nobody"}

		tagged, err := engine.BackfillGenres(ctx, nil)
		if err != nil {
			t.Fatalf("backfill failed: %v", err)
		}
		if tagged != 1 {
			t.Errorf("expected 1 tagged track, got %d", tagged)
		}
		if store.Tracks["t1"].Genre != "art rock" {
			t.Errorf("expected genre set, got %q", store.Tracks["t1"].Genre)
		}
		if store.Tracks["t2"].Genre != "" {
			t.Errorf("untagged artist should stay empty, got %q", store.Tracks["t2"].Genre)
		}
	})
}

func TestProgressReporting(t *testing.T) {
	// A full channel must never block the operation.
	progress := make(chan ProgressUpdate, 1)
	sendProgress(progress, ProgressUpdate{Phase: FetchCatalog})
	sendProgress(progress, ProgressUpdate{Phase: FetchHistory}) // dropped, channel full

	update := <-progress
	if update.Phase != FetchCatalog {
		t.Errorf("expected first update, got %v", update.Phase)
	}

	// Nil channels are ignored.
	sendProgress(nil, ProgressUpdate{Phase: FetchCatalog})
}

func TestPhaseString(t *testing.T) {
	cases := map[Phase]string{
		FetchCatalog:   "fetch_catalog",
		FetchPlaylists: "fetch_playlists",
		FetchHistory:   "fetch_history",
		ResolveTracks:  "resolve_tracks",
		BackfillGenres: "backfill_genres",
		ParseCriteria:  "parse_criteria",
		ExecuteClauses: "execute_clauses",
		ComposeTracks:  "compose_tracks",
		DiffPlaylist:   "diff_playlist",
		ApplyChanges:   "apply_changes",
		MergeConflict:  "merge_conflict",
		Phase(99):      "",
	}
	for phase, want := range cases {
		if phase.String() != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, phase.String(), want)
		}
	}
}
