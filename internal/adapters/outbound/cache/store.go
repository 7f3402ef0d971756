package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openkraft/archverify/internal/domain"
)

// File is the cache location relative to the project.
const File = ".archverify/cache/analysis.json"

var _ domain.CacheStore = (*Store)(nil)

// Store is a file-based implementation of domain.CacheStore.
type Store struct{}

// New creates a new file-based cache store.
func New() *Store {
	return &Store{}
}

// Load reads a project cache from disk. Returns (nil, nil) if no cache exists.
func (s *Store) Load(projectPath string) (*domain.AnalysisCache, error) {
	data, err := os.ReadFile(cachePath(projectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cache domain.AnalysisCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", File, err)
	}
	if cache.Classes == nil {
		cache.Classes = make(map[string]*domain.AnalyzedClass)
	}
	return &cache, nil
}

// Save writes a project cache to disk, creating directories as needed.
func (s *Store) Save(cache *domain.AnalysisCache) error {
	path := cachePath(cache.ProjectPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.Marshal(cache)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Invalidate removes the cache file for the given project path.
func (s *Store) Invalidate(projectPath string) error {
	if err := os.Remove(cachePath(projectPath)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func cachePath(projectPath string) string {
	return filepath.Join(projectPath, filepath.FromSlash(File))
}
