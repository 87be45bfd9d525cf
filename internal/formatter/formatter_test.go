package formatter

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/mkplaylist/internal/engine"
	"github.com/desertthunder/mkplaylist/internal/models"
)

func sampleExport() *PlaylistExport {
	return &PlaylistExport{
		Playlist: models.Playlist{
			ID:          "pl1",
			Name:        "daily mix",
			Description: "2 most recently added songs",
		},
		Tracks: []models.Track{
			{ID: "t1", SpotifyID: "sp1", Title: "Nude", Artist: "Radiohead", Album: "In Rainbows", DurationMS: 255000, PlayCount: 3},
			{ID: "t2", Title: "Myxomatosis", Artist: "Radiohead", DurationMS: 0},
		},
	}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(sampleExport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 records, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "ID,SpotifyID,Title") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "Nude") || !strings.Contains(lines[1], "4:15") {
		t.Errorf("unexpected record: %s", lines[1])
	}
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(sampleExport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	md := string(data)
	for _, want := range []string{
		"# daily mix",
		"**Criteria**: 2 most recently added songs",
		"**Tracks**: 2",
		"**Visibility**: Private",
		"1. Radiohead - Nude (In Rainbows) [4:15]",
		"2. Radiohead - Myxomatosis [0:00]",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(sampleExport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := string(data)
	if !strings.Contains(text, "Playlist: daily mix") || !strings.Contains(text, "1. Radiohead - Nude") {
		t.Errorf("unexpected text output:\n%s", text)
	}
}

func TestFormatChangeSet(t *testing.T) {
	trackByID := map[string]models.Track{
		"t1": {ID: "t1", Title: "Nude", Artist: "Radiohead"},
		"t2": {ID: "t2", Title: "Reckoner", Artist: "Radiohead"},
	}

	t.Run("Empty", func(t *testing.T) {
		out := FormatChangeSet(engine.ChangeSet{Mode: engine.Append}, trackByID)
		if !strings.Contains(out, "No changes") {
			t.Errorf("unexpected output: %s", out)
		}
	})

	t.Run("Adds And Removes", func(t *testing.T) {
		cs := engine.ChangeSet{
			Mode: engine.Replace,
			Changes: []engine.Change{
				{Action: engine.ActionRemove, TrackID: "t1", Position: 0},
				{Action: engine.ActionAdd, TrackID: "t2", Position: 0},
				{Action: engine.ActionAdd, TrackID: "t9", Position: 1},
			},
		}

		out := FormatChangeSet(cs, trackByID)
		for _, want := range []string{
			"Mode: replace",
			"Remove (1):",
			"- [0] Radiohead - Nude",
			"Add (2):",
			"+ [0] Radiohead - Reckoner",
			"+ [1] t9", // unknown ID falls back to the raw ID
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})
}

func TestWriteCSVExport(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "daily-mix")

	result, err := WriteCSVExport(sampleExport(), base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TracksFile != base+"_tracks.csv" {
		t.Errorf("unexpected tracks file: %s", result.TracksFile)
	}
	if result.MetadataFile != base+"_metadata.json" {
		t.Errorf("unexpected metadata file: %s", result.MetadataFile)
	}
}
