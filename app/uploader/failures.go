package uploader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// writeFailures persists the batches that exhausted their retries so they
// can be reprocessed offline.
func writeFailures(dir string, batches [][]map[string]string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create failure directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("failed_batches_%d.json", time.Now().Unix()))

	data, err := json.MarshalIndent(batches, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal failed batches: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write failure file: %w", err)
	}

	return path, nil
}
