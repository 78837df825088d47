package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `{
		"league": "Serie A",
		"season": "2025/26",
		"matchday": 24,
		"teams": {
			"Pisa":   {"points": 15, "goals_for": 19, "goals_against": 40},
			"Verona": {"points": 13, "goals_for": 14, "goals_against": 35}
		},
		"form": {
			"Pisa": [0, 1, 0, 0, 1]
		},
		"fixtures": [
			{"home": "Pisa", "away": "Verona"}
		],
		"updated_at": "2026-02-10T09:00:00Z"
	}`)

	snap, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.League != "Serie A" || snap.Matchday != 24 {
		t.Errorf("header mismatch: %s matchday %d", snap.League, snap.Matchday)
	}
	if len(snap.Teams) != 2 {
		t.Errorf("got %d teams, want 2", len(snap.Teams))
	}
	if snap.Teams["Pisa"].GoalsAgainst != 40 {
		t.Errorf("Pisa GA = %d, want 40", snap.Teams["Pisa"].GoalsAgainst)
	}
	if len(snap.Form["Pisa"]) != 5 {
		t.Errorf("Pisa form has %d entries, want 5", len(snap.Form["Pisa"]))
	}
	if len(snap.Fixtures) != 1 || snap.Fixtures[0].Home != "Pisa" {
		t.Errorf("fixtures mismatch: %v", snap.Fixtures)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := writeFile(t, `{"league": "Serie A",`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestLoad_InvalidSnapshot(t *testing.T) {
	// Parses fine but fails validation: fixture references an unknown team
	path := writeFile(t, `{
		"league": "Serie A",
		"season": "2025/26",
		"matchday": 24,
		"teams": {
			"Pisa": {"points": 15, "goals_for": 19, "goals_against": 40}
		},
		"fixtures": [
			{"home": "Pisa", "away": "Atlantis"}
		]
	}`)
	if _, err := Load(path); err == nil {
		t.Error("expected validation error")
	}
}
