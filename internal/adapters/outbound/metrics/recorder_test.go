package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkraft/archverify/internal/adapters/outbound/metrics"
	"github.com/openkraft/archverify/internal/domain"
)

func TestRecorder_Counters(t *testing.T) {
	r := metrics.New()
	r.ClassScanned(true)
	r.ClassScanned(true)
	r.ClassScanned(false)
	r.ReferenceChecked()
	r.ViolationRecorded(domain.KindUnusedDependency)

	expected := `
# HELP archverify_classes_total Classes read, by whether their references were evaluated.
# TYPE archverify_classes_total counter
archverify_classes_total{evaluated="false"} 1
archverify_classes_total{evaluated="true"} 2
# HELP archverify_violations_total Violations recorded, by kind.
# TYPE archverify_violations_total counter
archverify_violations_total{kind="unused_dependency"} 1
`
	require.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected),
		"archverify_classes_total", "archverify_violations_total"))
	n, err := testutil.GatherAndCount(r.Registry(), "archverify_references_checked_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecorder_RunFinished(t *testing.T) {
	r := metrics.New()
	r.RunFinished(&domain.VerifyReport{Passed: false, StartedAt: time.Unix(1700000000, 0), Duration: time.Second})
	r.RunFinished(&domain.VerifyReport{Passed: true, StartedAt: time.Unix(1700000100, 0), Duration: time.Second})

	expected := `
# HELP archverify_last_run_passed 1 if the most recent run passed, else 0.
# TYPE archverify_last_run_passed gauge
archverify_last_run_passed 1
# HELP archverify_runs_total Verification runs, by result.
# TYPE archverify_runs_total counter
archverify_runs_total{result="failed"} 1
archverify_runs_total{result="passed"} 1
`
	require.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected),
		"archverify_last_run_passed", "archverify_runs_total"))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := metrics.New()
	r.ReferenceChecked()

	path := filepath.Join(t.TempDir(), "out", "archverify.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "archverify_references_checked_total 1")
}
