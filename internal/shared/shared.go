// package shared defines shared helpers
package shared

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// NewFileLogger creates a [log.Logger] that appends to the file at path,
// creating parent directories as needed. Used by the TUI to keep log output
// off the interactive screen.
func NewFileLogger(path string) (*log.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewLogger(f), nil
}

// GenerateState returns a cryptographically random hex token for OAuth CSRF
// protection.
func GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// OpenBrowser opens url in the system default browser.
func OpenBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// NormalizeText normalizes a string for identity comparison: case-folds,
// strips diacritics and punctuation, and collapses whitespace runs to a
// single space.
func NormalizeText(s string) string {
	s = strings.ToLower(s)
	s = norm.NFD.String(s)

	var b strings.Builder
	lastWasSpace := true // starts true to trim leading spaces

	for _, r := range s {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from NFD decomposition
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastWasSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '/':
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		}
		// remaining punctuation is dropped entirely
	}

	return strings.TrimSpace(b.String())
}

// NormalizeTrackKey builds the normalized (artist, title) identity key used
// when no exact Spotify ID match exists.
func NormalizeTrackKey(title, artist string) string {
	return NormalizeText(title) + "|" + NormalizeText(artist)
}

// FormatDuration renders a millisecond duration as m:ss.
func FormatDuration(ms int) string {
	if ms <= 0 {
		return "0:00"
	}
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// VisibilityString renders playlist visibility for display.
func VisibilityString(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}

// MarshalJSON marshals v, optionally with indentation.
func MarshalJSON(v any, indent bool) ([]byte, error) {
	if indent {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
