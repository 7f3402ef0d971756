package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkraft/archverify/internal/adapters/outbound/cache"
	"github.com/openkraft/archverify/internal/domain"
)

func TestStore_SaveAndLoad(t *testing.T) {
	store := cache.New()
	projectPath := t.TempDir()

	original := domain.NewAnalysisCache(projectPath, "1")
	original.Classes["k1"] = &domain.AnalyzedClass{
		Name:       "com.acme.Order",
		Super:      "java.lang.Object",
		References: []domain.TypeRef{{Name: "java.lang.Object", Origin: "superclass"}},
	}

	require.NoError(t, store.Save(original))

	loaded, err := store.Load(projectPath)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, original.ProjectPath, loaded.ProjectPath)
	assert.Equal(t, "1", loaded.AnalyzerVersion)
	require.Contains(t, loaded.Classes, "k1")
	assert.Equal(t, original.Classes["k1"], loaded.Classes["k1"])
}

func TestStore_LoadNonExistent(t *testing.T) {
	loaded, err := cache.New().Load(t.TempDir())
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestStore_LoadCorrupt(t *testing.T) {
	projectPath := t.TempDir()
	path := filepath.Join(projectPath, cache.File)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := cache.New().Load(projectPath)
	assert.Error(t, err)
}

func TestStore_Invalidate(t *testing.T) {
	store := cache.New()
	projectPath := t.TempDir()

	require.NoError(t, store.Save(domain.NewAnalysisCache(projectPath, "1")))
	require.NoError(t, store.Invalidate(projectPath))

	loaded, err := store.Load(projectPath)
	assert.NoError(t, err)
	assert.Nil(t, loaded)

	assert.NoError(t, store.Invalidate(projectPath), "invalidating twice is not an error")
}
