package stats

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

// EndpointStatsFileName is the default JSON sink file.
const EndpointStatsFileName = "dcl_endpoint_stats.json"

// WriteJSON persists the report under dir as a single JSON document, one
// object per pool keyed by endpoint.
func (r Report) WriteJSON(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("stats: create dir: %w", err)
	}
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("stats: marshal report: %w", err)
	}
	path := filepath.Join(dir, EndpointStatsFileName)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("stats: write %s: %w", path, err)
	}
	return nil
}
