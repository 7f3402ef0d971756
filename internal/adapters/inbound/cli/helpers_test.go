package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openkraft/archverify/internal/adapters/inbound/cli"
	"github.com/openkraft/archverify/internal/adapters/outbound/classparser/classtest"
)

const layeredDesign = `
packages:
  - name: util
    package: com.acme.util
  - name: core
    package: com.acme.core
    depends: [util]
`

// newProject writes the design and returns the project directory.
func newProject(t *testing.T, designYAML string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "design.yaml"), []byte(designYAML), 0o644))
	return dir
}

func writeClass(t *testing.T, dir, rel string, c *classtest.Class) string {
	t.Helper()
	path := filepath.Join(dir, "classes", filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, c.Bytes(), 0o644))
	return path
}

// conformingProject has core depending on util and nothing else.
func conformingProject(t *testing.T) string {
	dir := newProject(t, layeredDesign)
	writeClass(t, dir, "com/acme/core/Order.class",
		classtest.NewClass("com.acme.core.Order", "java.lang.Object").Field("m", "Lcom/acme/util/Money;"))
	writeClass(t, dir, "com/acme/util/Money.class",
		classtest.NewClass("com.acme.util.Money", "java.lang.Object"))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmdForTest()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
