package archive_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkraft/archverify/internal/adapters/outbound/archive"
	"github.com/openkraft/archverify/internal/domain"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func zipBytes(t *testing.T, entries map[string][]byte, order ...string) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tmp.zip")
	writeZip(t, path, entries, order...)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// writeZip writes entries in the given order so tests can check sorting.
func writeZip(t *testing.T, path string, entries map[string][]byte, order ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func collect(t *testing.T, s *archive.Source, roots ...string) []domain.ClassEntry {
	t.Helper()
	var got []domain.ClassEntry
	require.NoError(t, s.Walk(roots, nil, func(e domain.ClassEntry) error {
		got = append(got, e)
		return nil
	}))
	return got
}

func paths(entries []domain.ClassEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func TestWalk_DirectoryIsSorted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "com/acme/b/B.class"), []byte("b"))
	writeFile(t, filepath.Join(root, "com/acme/a/A.class"), []byte("a"))
	writeFile(t, filepath.Join(root, "com/acme/a/readme.txt"), []byte("x"))

	got := collect(t, archive.New(), root)

	assert.Equal(t, []string{
		filepath.Join(root, "com/acme/a/A.class"),
		filepath.Join(root, "com/acme/b/B.class"),
	}, paths(got))
	assert.Equal(t, []byte("a"), got[0].Data)
	assert.Equal(t, got[0].Path, got[0].Origin)
}

func TestWalk_JarEntries(t *testing.T) {
	root := t.TempDir()
	jar := filepath.Join(root, "lib", "app.jar")
	writeZip(t, jar, map[string][]byte{
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
		"com/acme/Z.class":     []byte("z"),
		"com/acme/A.class":     []byte("a"),
	}, "META-INF/MANIFEST.MF", "com/acme/Z.class", "com/acme/A.class")

	got := collect(t, archive.New(), jar)

	assert.Equal(t, []string{jar + "!/com/acme/A.class", jar + "!/com/acme/Z.class"}, paths(got))
	for _, e := range got {
		assert.Equal(t, jar, e.Origin)
	}
}

func TestWalk_WarWithNestedJar(t *testing.T) {
	root := t.TempDir()
	inner := zipBytes(t, map[string][]byte{"com/acme/lib/L.class": []byte("l")}, "com/acme/lib/L.class")
	war := filepath.Join(root, "app.war")
	writeZip(t, war, map[string][]byte{
		"WEB-INF/classes/com/acme/web/W.class": []byte("w"),
		"WEB-INF/lib/lib.jar":                  inner,
	}, "WEB-INF/lib/lib.jar", "WEB-INF/classes/com/acme/web/W.class")

	got := collect(t, archive.New(), root)

	assert.Equal(t, []string{
		war + "!/WEB-INF/classes/com/acme/web/W.class",
		war + "!/WEB-INF/lib/lib.jar!/com/acme/lib/L.class",
	}, paths(got))
	assert.Equal(t, war, got[1].Origin)
}

func TestWalk_SingleClassFileAndRootOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "Z.class")
	second := filepath.Join(dir, "A.class")
	writeFile(t, first, []byte("z"))
	writeFile(t, second, []byte("a"))

	got := collect(t, archive.New(), first, second)
	assert.Equal(t, []string{first, second}, paths(got))
}

func TestWalk_Exclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "com/acme/A.class"), []byte("a"))
	writeFile(t, filepath.Join(root, "com/acme/A$Test.class"), []byte("t"))
	writeFile(t, filepath.Join(root, "generated/G.class"), []byte("g"))
	writeFile(t, filepath.Join(root, ".git/objects/X.class"), []byte("x"))

	files, err := archive.Files(root, []string{"generated/**", "**/*$Test.class"})
	require.NoError(t, err)
	assert.Equal(t, []string{"com/acme/A.class"}, files)

	var got []string
	require.NoError(t, archive.New().Walk([]string{root}, []string{"generated/**"}, func(e domain.ClassEntry) error {
		got = append(got, e.Path)
		return nil
	}))
	assert.Equal(t, []string{
		filepath.Join(root, "com/acme/A$Test.class"),
		filepath.Join(root, "com/acme/A.class"),
	}, got)
}

func TestWalk_StopsOnCallbackError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a/A.class"), []byte("a"))
	writeFile(t, filepath.Join(root, "b/B.class"), []byte("b"))

	stop := errors.New("stop")
	calls := 0
	err := archive.New().Walk([]string{root}, nil, func(domain.ClassEntry) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestWalk_Errors(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing")
	err := archive.New().Walk([]string{missing}, nil, func(domain.ClassEntry) error { return nil })
	assert.ErrorIs(t, err, os.ErrNotExist)

	txt := filepath.Join(dir, "notes.txt")
	writeFile(t, txt, []byte("x"))
	err = archive.New().Walk([]string{txt}, nil, func(domain.ClassEntry) error { return nil })
	assert.ErrorContains(t, err, "not a directory, archive, or class file")

	broken := filepath.Join(dir, "broken.jar")
	writeFile(t, broken, []byte("not a zip"))
	err = archive.New().Walk([]string{broken}, nil, func(domain.ClassEntry) error { return nil })
	assert.ErrorContains(t, err, "opening archive")
}
