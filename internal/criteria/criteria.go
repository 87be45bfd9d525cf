// package criteria parses free-text track selection criteria into structured queries.
package criteria

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies one clause grammar.
type Kind string

const (
	RecentlyAdded    Kind = "recently-added"
	RecentlyPlayed   Kind = "recently-played"
	MostPlayed       Kind = "most-played"
	ByArtist         Kind = "by-artist"
	FromAlbum        Kind = "from-album"
	InGenre          Kind = "in-genre"
	AddedWithinDays  Kind = "added-within-days"
	PlayedWithinDays Kind = "played-within-days"
)

// Clause is one parsed unit of criteria, e.g. "10 most recently added songs".
// Immutable once parsed.
type Clause struct {
	Kind      Kind
	Limit     int    // Per-clause count; meaningful only when HasLimit is set
	HasLimit  bool   // Distinguishes an explicit 0 from an absent count
	Param     string // Artist, album or genre, original casing preserved
	Days      int    // Day window for the *-within-days kinds
	OlderThan bool   // Inverts added-within-days to "more than N days ago"
}

// Query is the full parsed criteria: all clauses in the order they appeared,
// plus an optional global limit applied after composition.
type Query struct {
	Clauses  []Clause
	Limit    int
	HasLimit bool
}

// SetLimit sets the global limit on the query. Negative values are ignored.
func (q *Query) SetLimit(n int) {
	if n < 0 {
		return
	}
	q.Limit = n
	q.HasLimit = true
}

// ParseError reports a criteria fragment that matched no grammar. The whole
// query fails; fragments are never silently dropped.
type ParseError struct {
	Fragment string // The offending fragment, verbatim
	Position int    // Byte offset of the fragment in the original input
}

func (e *ParseError) Error() string {
	if e.Fragment == "" {
		return "empty criteria string"
	}
	return fmt.Sprintf("unrecognized criteria fragment %q at position %d", e.Fragment, e.Position)
}

// Parse turns a criteria string into a Query.
//
// The input is split on the word connective "and" (case-insensitive); each
// fragment must fully match one of the clause grammars:
//
//	<N> [most] recently added songs
//	<N> [most recently|recently|last] played songs
//	[<N>] most played songs
//	songs by <artist>
//	songs from <album>
//	songs in <genre>
//	songs added in the last <N> days
//	songs added more than <N> days ago
//	songs played in the last <N> days
//
// "most played songs" without a count is unbounded; only a global limit
// bounds it. Any fragment matching no grammar fails the whole parse with a
// [ParseError] naming the fragment.
func Parse(input string) (Query, error) {
	fragments := split(input)
	if len(fragments) == 0 {
		return Query{}, &ParseError{}
	}

	q := Query{Clauses: make([]Clause, 0, len(fragments))}
	for _, f := range fragments {
		clause, ok := parseFragment(f.text)
		if !ok {
			return Query{}, &ParseError{Fragment: f.text, Position: f.offset}
		}
		q.Clauses = append(q.Clauses, clause)
	}

	return q, nil
}

// fragment is one connective-delimited piece of the input, with its byte
// offset in the original string.
type fragment struct {
	text   string
	offset int
}

// split breaks the input on word-boundary "and" connectives. Fragments are
// trimmed; empty fragments (doubled or dangling connectives) are kept so the
// parser can name them in the error.
func split(input string) []fragment {
	if strings.TrimSpace(input) == "" {
		return nil
	}

	var fragments []fragment
	start := 0
	for _, span := range connective.FindAllStringIndex(input, -1) {
		fragments = append(fragments, trimFragment(input, start, span[0]))
		start = span[1]
	}
	fragments = append(fragments, trimFragment(input, start, len(input)))

	return fragments
}

// trimFragment trims input[lo:hi] while tracking the offset of the first
// retained byte.
func trimFragment(input string, lo, hi int) fragment {
	raw := input[lo:hi]
	trimmed := strings.TrimLeft(raw, " \t\r\n")
	offset := lo + len(raw) - len(trimmed)
	return fragment{text: strings.TrimRight(trimmed, " \t\r\n"), offset: offset}
}

// parseFragment tries each grammar in order and accepts the first that
// matches the whole fragment.
func parseFragment(text string) (Clause, bool) {
	if text == "" {
		return Clause{}, false
	}

	for _, g := range grammars {
		m := g.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		clause, err := g.build(m)
		if err != nil {
			return Clause{}, false
		}
		return clause, true
	}

	return Clause{}, false
}

// count parses a numeric capture. Captures are \d+ so the only failure mode
// is integer overflow.
func count(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return n, nil
}
