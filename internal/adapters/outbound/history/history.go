package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openkraft/archverify/internal/domain"
)

// File is the history location relative to the project.
const File = ".archverify/history/runs.json"

// DefaultLimit bounds how many runs are kept.
const DefaultLimit = 200

// FileHistory implements domain.RunHistory using JSON file storage.
type FileHistory struct {
	limit int
}

func New() *FileHistory {
	return &FileHistory{limit: DefaultLimit}
}

// WithLimit returns a history that keeps at most n runs; n <= 0 keeps all.
func WithLimit(n int) *FileHistory {
	return &FileHistory{limit: n}
}

// Save appends entry and drops the oldest runs beyond the limit.
func (h *FileHistory) Save(projectPath string, entry domain.RunEntry) error {
	entries, err := h.Load(projectPath)
	if err != nil {
		return err
	}

	entries = append(entries, entry)
	if h.limit > 0 && len(entries) > h.limit {
		entries = entries[len(entries)-h.limit:]
	}

	fp := filepath.Join(projectPath, File)
	if err := os.MkdirAll(filepath.Dir(fp), 0755); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(fp, data, 0644)
}

// Load returns all recorded runs, oldest first.
func (h *FileHistory) Load(projectPath string) ([]domain.RunEntry, error) {
	fp := filepath.Join(projectPath, File)

	data, err := os.ReadFile(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []domain.RunEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", File, err)
	}

	return entries, nil
}
