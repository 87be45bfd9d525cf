package engine

import (
	"github.com/desertthunder/mkplaylist/internal/criteria"
	"github.com/desertthunder/mkplaylist/internal/models"
)

// Compose merges per-clause track sequences into one final ordered list.
//
// Policy: union with first-seen-wins dedup. Clause sequences are walked in
// the order the clauses appeared in the criteria text; a track selected by an
// earlier clause keeps its earlier position and is never re-added. After the
// merge, the query's global limit (when set) truncates the list.
//
// First-seen-wins gives criteria authors control: a high-priority clause
// listed first is guaranteed its tracks even when a later clause would also
// select them under a tight global limit.
func Compose(q criteria.Query, results [][]models.Track) []models.Track {
	var final []models.Track
	seen := make(map[string]struct{})

	for _, sequence := range results {
		for _, track := range sequence {
			if _, dup := seen[track.ID]; dup {
				continue
			}
			seen[track.ID] = struct{}{}
			final = append(final, track)
		}
	}

	if q.HasLimit && len(final) > q.Limit {
		final = final[:q.Limit]
	}

	return final
}
