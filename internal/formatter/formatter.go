// package formatter renders playlists and change-sets for export and terminal display (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/mkplaylist/internal/engine"
	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/shared"
)

// PlaylistExport bundles a playlist with its resolved tracks in position
// order, ready for rendering.
type PlaylistExport struct {
	Playlist models.Playlist
	Tracks   []models.Track
}

// ExportToCSV converts a PlaylistExport to CSV format with columns: ID, SpotifyID, Title, Artist, Album, Genre, Duration, PlayCount
func ExportToCSV(export *PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "SpotifyID", "Title", "Artist", "Album", "Genre", "Duration", "PlayCount"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{
			track.ID,
			track.SpotifyID,
			track.Title,
			track.Artist,
			track.Album,
			track.Genre,
			shared.FormatDuration(track.DurationMS),
			strconv.Itoa(track.PlayCount),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PlaylistExport to Markdown format
func ExportToMarkdown(export *PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Playlist.Name))

	if export.Playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("**Criteria**: %s\n\n", export.Playlist.Description))
	}

	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(export.Tracks)))
	buf.WriteString(fmt.Sprintf("**Visibility**: %s\n\n", shared.VisibilityString(export.Playlist.Public)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range export.Tracks {
		duration := shared.FormatDuration(track.DurationMS)
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, track.Artist, track.Title, albumPart, duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaylistExport to plain text format
func ExportToText(export *PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", export.Playlist.Name))
	if export.Playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("Criteria: %s\n", export.Playlist.Description))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(export.Tracks)))

	for i, track := range export.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist, track.Title))
	}

	return buf.Bytes(), nil
}

// FormatChangeSet renders a change-set as terminal output for dry runs.
// Tracks are looked up in trackByID for display; unknown IDs fall back to the
// raw ID.
func FormatChangeSet(cs engine.ChangeSet, trackByID map[string]models.Track) string {
	var buf bytes.Buffer

	if cs.Empty() {
		buf.WriteString("No changes: playlist already matches the criteria.\n")
		return buf.String()
	}

	buf.WriteString(fmt.Sprintf("Mode: %s\n", cs.Mode))

	removes := cs.Removes()
	if len(removes) > 0 {
		buf.WriteString(fmt.Sprintf("\nRemove (%d):\n", len(removes)))
		for _, ch := range removes {
			buf.WriteString(fmt.Sprintf("  - [%d] %s\n", ch.Position, describeTrack(ch.TrackID, trackByID)))
		}
	}

	adds := cs.Adds()
	if len(adds) > 0 {
		buf.WriteString(fmt.Sprintf("\nAdd (%d):\n", len(adds)))
		for _, ch := range adds {
			buf.WriteString(fmt.Sprintf("  + [%d] %s\n", ch.Position, describeTrack(ch.TrackID, trackByID)))
		}
	}

	return buf.String()
}

func describeTrack(id string, trackByID map[string]models.Track) string {
	if track, ok := trackByID[id]; ok {
		return fmt.Sprintf("%s - %s", track.Artist, track.Title)
	}
	return id
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without tracks)
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	return shared.MarshalJSON(playlist, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Defaults to playlist ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(export *PlaylistExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Playlist.ID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}
