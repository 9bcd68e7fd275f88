package tasks

import (
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/yotoshare/internal/shared"
)

type manifestEntry struct {
	CardResult
	ErrorMessage string `json:"error,omitempty"`
}

type manifest struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Summary     *BulkResult     `json:"summary"`
	Results     []manifestEntry `json:"results"`
}

// WriteManifest writes a JSON summary of a bulk run.
func WriteManifest(result *BulkResult, path string) error {
	m := manifest{GeneratedAt: time.Now().UTC(), Summary: result}
	for _, r := range result.Results {
		entry := manifestEntry{CardResult: r}
		if r.Error != nil {
			entry.ErrorMessage = r.Error.Error()
		}
		m.Results = append(m.Results, entry)
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
