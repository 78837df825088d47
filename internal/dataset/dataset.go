// Package dataset loads league snapshots from JSON files. A snapshot file
// is the hand-off point from whatever produced the standings (static tables,
// an export from a stats provider) to the simulator; the engine itself never
// fetches anything.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lmoroni/dropzone/internal/league"
)

// Load reads and validates a snapshot file.
func Load(path string) (*league.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap league.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file %s: %w", path, err)
	}

	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot file %s: %w", path, err)
	}
	return &snap, nil
}
