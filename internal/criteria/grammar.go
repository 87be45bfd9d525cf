package criteria

import (
	"regexp"
	"strings"
)

// connective splits criteria on the word "and". Word boundaries keep artist
// names like "Band of Horses" intact.
var connective = regexp.MustCompile(`(?i)\band\b`)

// grammar pairs a fragment pattern with its clause constructor.
type grammar struct {
	kind  Kind
	re    *regexp.Regexp
	build func(m []string) (Clause, error)
}

// grammars are tried in order; the first whole-fragment match wins. Count and
// day-window grammars come before the open-ended param grammars so that
// "songs added in the last 30 days" never parses as a genre.
var grammars = []grammar{
	{
		kind: RecentlyAdded,
		re:   regexp.MustCompile(`(?i)^(\d+)\s+(?:most\s+)?recently\s+added\s+songs$`),
		build: func(m []string) (Clause, error) {
			n, err := count(m[1])
			if err != nil {
				return Clause{}, err
			}
			return Clause{Kind: RecentlyAdded, Limit: n, HasLimit: true}, nil
		},
	},
	{
		kind: RecentlyPlayed,
		re:   regexp.MustCompile(`(?i)^(\d+)\s+(?:most\s+recently|recently|last)\s+played\s+songs$`),
		build: func(m []string) (Clause, error) {
			n, err := count(m[1])
			if err != nil {
				return Clause{}, err
			}
			return Clause{Kind: RecentlyPlayed, Limit: n, HasLimit: true}, nil
		},
	},
	{
		kind: MostPlayed,
		re:   regexp.MustCompile(`(?i)^(?:(\d+)\s+)?most\s+played\s+songs$`),
		build: func(m []string) (Clause, error) {
			if m[1] == "" {
				return Clause{Kind: MostPlayed}, nil
			}
			n, err := count(m[1])
			if err != nil {
				return Clause{}, err
			}
			return Clause{Kind: MostPlayed, Limit: n, HasLimit: true}, nil
		},
	},
	{
		kind: AddedWithinDays,
		re:   regexp.MustCompile(`(?i)^songs\s+added\s+in\s+the\s+last\s+(\d+)\s+days?$`),
		build: func(m []string) (Clause, error) {
			n, err := count(m[1])
			if err != nil {
				return Clause{}, err
			}
			return Clause{Kind: AddedWithinDays, Days: n}, nil
		},
	},
	{
		kind: AddedWithinDays,
		re:   regexp.MustCompile(`(?i)^songs\s+added\s+more\s+than\s+(\d+)\s+days?\s+ago$`),
		build: func(m []string) (Clause, error) {
			n, err := count(m[1])
			if err != nil {
				return Clause{}, err
			}
			return Clause{Kind: AddedWithinDays, Days: n, OlderThan: true}, nil
		},
	},
	{
		kind: PlayedWithinDays,
		re:   regexp.MustCompile(`(?i)^songs\s+played\s+in\s+the\s+last\s+(\d+)\s+days?$`),
		build: func(m []string) (Clause, error) {
			n, err := count(m[1])
			if err != nil {
				return Clause{}, err
			}
			return Clause{Kind: PlayedWithinDays, Days: n}, nil
		},
	},
	{
		kind: ByArtist,
		re:   regexp.MustCompile(`(?i)^songs\s+by\s+(\S.*)$`),
		build: func(m []string) (Clause, error) {
			return Clause{Kind: ByArtist, Param: strings.TrimSpace(m[1])}, nil
		},
	},
	{
		kind: FromAlbum,
		re:   regexp.MustCompile(`(?i)^songs\s+from\s+(\S.*)$`),
		build: func(m []string) (Clause, error) {
			return Clause{Kind: FromAlbum, Param: strings.TrimSpace(m[1])}, nil
		},
	},
	{
		kind: InGenre,
		re:   regexp.MustCompile(`(?i)^songs\s+in\s+(\S.*)$`),
		build: func(m []string) (Clause, error) {
			return Clause{Kind: InGenre, Param: strings.TrimSpace(m[1])}, nil
		},
	},
}

// SupportedPatterns returns human-readable descriptions of every clause
// grammar, for CLI help output.
func SupportedPatterns() []string {
	return []string{
		"N most recently added songs",
		"N last played songs",
		"N most played songs (N optional, unbounded without it)",
		"songs by ARTIST",
		"songs from ALBUM",
		"songs in GENRE",
		"songs added in the last N days",
		"songs added more than N days ago",
		"songs played in the last N days",
	}
}
