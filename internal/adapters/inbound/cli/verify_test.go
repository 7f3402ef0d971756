package cli_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkraft/archverify/internal/adapters/outbound/classparser/classtest"
	"github.com/openkraft/archverify/internal/adapters/outbound/history"
	"github.com/openkraft/archverify/internal/domain"
)

func TestVerifyCommand_Passes(t *testing.T) {
	dir := conformingProject(t)

	out, err := run(t, "verify", dir, "--root", "classes")
	require.NoError(t, err)
	assert.Contains(t, out, "PASSED")

	entries, err := history.New().Load(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "runs are recorded by default")
}

func TestVerifyCommand_ViolationFails(t *testing.T) {
	dir := conformingProject(t)
	writeClass(t, dir, "com/acme/util/Helper.class",
		classtest.NewClass("com.acme.util.Helper", "java.lang.Object").Field("o", "Lcom/acme/core/Order;"))

	out, err := run(t, "verify", dir, "--root", "classes", "--no-history")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrArchitectureViolation)
	assert.Contains(t, out, "FAILED")
	assert.NoFileExists(t, filepath.Join(dir, history.File))
}

func TestVerifyCommand_JSON(t *testing.T) {
	dir := conformingProject(t)

	out, err := run(t, "verify", dir, "--root", "classes", "--json", "--no-history")
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report), "output should be valid JSON")
	assert.Equal(t, true, report["passed"])
	assert.EqualValues(t, 2, report["classes_found"])
}

func TestVerifyCommand_ConfigFileAndOverrides(t *testing.T) {
	dir := conformingProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".archverify.yaml"),
		[]byte("roots: [classes]\nhistory: false\nmetrics_file: out/archverify.prom\n"), 0o644))

	_, err := run(t, "verify", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "out", "archverify.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "archverify_runs_total")
	assert.NoFileExists(t, filepath.Join(dir, history.File))

	_, err = run(t, "verify", dir, "--design", "other.yaml")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestVerifyCommand_DefaultFlags(t *testing.T) {
	const flatDesign = `
packages:
  - name: util
    package: com.acme.util
  - name: core
    package: com.acme.core
`
	for _, flag := range []string{"--need-declarations-default=false", "--need-depends-default=false"} {
		t.Run(flag, func(t *testing.T) {
			dir := newProject(t, flatDesign)
			writeClass(t, dir, "com/acme/core/Order.class",
				classtest.NewClass("com.acme.core.Order", "java.lang.Object").Field("m", "Lcom/acme/util/Money;"))
			writeClass(t, dir, "com/acme/util/Money.class",
				classtest.NewClass("com.acme.util.Money", "java.lang.Object"))

			_, err := run(t, "verify", dir, "--root", "classes", "--no-history", "--no-cache")
			require.ErrorIs(t, err, domain.ErrArchitectureViolation, "core declares no dependency on util")

			_, err = run(t, "verify", dir, "--root", "classes", "--no-history", "--no-cache", flag)
			assert.NoError(t, err)
		})
	}
}

func TestVerifyCommand_DeleteFiles(t *testing.T) {
	dir := conformingProject(t)
	bad := writeClass(t, dir, "com/acme/util/Helper.class",
		classtest.NewClass("com.acme.util.Helper", "java.lang.Object").Field("o", "Lcom/acme/core/Order;"))

	out, err := run(t, "verify", dir, "--root", "classes", "--delete-files", "--no-history")
	require.Error(t, err)
	assert.Contains(t, out, "Deleted")
	assert.NoFileExists(t, bad)
}

func TestVerifyCommand_NoClasses(t *testing.T) {
	dir := newProject(t, layeredDesign)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "classes"), 0o755))

	_, err := run(t, "verify", dir, "--root", "classes", "--no-history")
	assert.ErrorIs(t, err, domain.ErrNoClasses)
}

func TestVerifyCommand_InvalidConfig(t *testing.T) {
	dir := conformingProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".archverify.yaml"), []byte("rootz: [classes]\n"), 0o644))

	_, err := run(t, "verify", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".archverify.yaml")
}
