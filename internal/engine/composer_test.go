package engine

import (
	"testing"

	"github.com/desertthunder/mkplaylist/internal/criteria"
	"github.com/desertthunder/mkplaylist/internal/models"
)

func track(id string) models.Track {
	return models.Track{ID: id, Title: "title-" + id, Artist: "artist"}
}

func ids(tracks []models.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

func assertIDs(t *testing.T, got []models.Track, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("expected %v, got %v", want, gotIDs)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, gotIDs)
		}
	}
}

func TestCompose(t *testing.T) {
	t.Run("Union With First Seen Wins", func(t *testing.T) {
		results := [][]models.Track{
			{track("t1"), track("t2")},
			{track("t2"), track("t3")},
		}

		final := Compose(criteria.Query{}, results)
		assertIDs(t, final, "t1", "t2", "t3")
	})

	t.Run("Global Limit Truncates After Merge", func(t *testing.T) {
		results := [][]models.Track{
			{track("t1"), track("t2")},
			{track("t2"), track("t3")},
		}

		q := criteria.Query{}
		q.SetLimit(2)

		final := Compose(q, results)
		assertIDs(t, final, "t1", "t2")
	})

	t.Run("Zero Global Limit Selects Nothing", func(t *testing.T) {
		q := criteria.Query{}
		q.SetLimit(0)

		final := Compose(q, [][]models.Track{{track("t1")}})
		if len(final) != 0 {
			t.Errorf("expected empty list, got %v", ids(final))
		}
	})

	t.Run("Limit Larger Than Result", func(t *testing.T) {
		q := criteria.Query{}
		q.SetLimit(10)

		final := Compose(q, [][]models.Track{{track("t1"), track("t2")}})
		assertIDs(t, final, "t1", "t2")
	})

	t.Run("Empty Sequences", func(t *testing.T) {
		final := Compose(criteria.Query{}, [][]models.Track{nil, {}, {track("t1")}})
		assertIDs(t, final, "t1")
	})

	t.Run("No Results", func(t *testing.T) {
		final := Compose(criteria.Query{}, nil)
		if len(final) != 0 {
			t.Errorf("expected empty list, got %v", ids(final))
		}
	})
}
