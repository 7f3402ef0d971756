package cli_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCommand(t *testing.T) {
	dir := conformingProject(t)
	for range 3 {
		_, err := run(t, "verify", dir, "--root", "classes")
		require.NoError(t, err)
	}

	out, err := run(t, "history", dir, "--json", "--limit", "2")
	require.NoError(t, err)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, 2)
	assert.Equal(t, true, entries[0]["passed"])

	out, err = run(t, "history", dir)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "archverify dev")
}
