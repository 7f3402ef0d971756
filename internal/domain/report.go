package domain

import (
	"fmt"
	"strings"
	"time"
)

// VerifyReport is the outcome of one verification run.
type VerifyReport struct {
	RunID             string        `json:"run_id"`
	DesignFile        string        `json:"design_file"`
	Roots             []string      `json:"roots"`
	StartedAt         time.Time     `json:"started_at"`
	Duration          time.Duration `json:"duration_ns"`
	CommitHash        string        `json:"commit_hash,omitempty"`
	ClassesFound      int           `json:"classes_found"`
	ClassesEvaluated  int           `json:"classes_evaluated"`
	ClassesSkipped    int           `json:"classes_skipped"`
	ReferencesChecked int           `json:"references_checked"`
	CacheHits         int           `json:"cache_hits,omitempty"`
	Violations        []*Violation  `json:"violations"`
	DeletedFiles      []string      `json:"deleted_files,omitempty"`
	Passed            bool          `json:"passed"`
}

// CountByKind returns how many violations of each kind were recorded.
func (r *VerifyReport) CountByKind() map[ViolationKind]int {
	counts := make(map[ViolationKind]int)
	for _, v := range r.Violations {
		counts[v.Kind]++
	}
	return counts
}

// Err returns nil for a passing report, otherwise an error whose message
// lists every violation on its own line.
func (r *VerifyReport) Err() error {
	if r.Passed {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "design verification failed: %d violation(s)", len(r.Violations))
	for _, v := range r.Violations {
		b.WriteString("\n")
		b.WriteString(v.Message)
	}
	return &VerifyError{Report: r, msg: b.String()}
}

// VerifyError is returned when a run finished but recorded violations.
type VerifyError struct {
	Report *VerifyReport
	msg    string
}

func (e *VerifyError) Error() string { return e.msg }

// Unwrap exposes the recorded violations to errors.Is.
func (e *VerifyError) Unwrap() []error {
	errs := make([]error, len(e.Report.Violations))
	for i, v := range e.Report.Violations {
		errs[i] = v
	}
	return errs
}

// RunEntry is the persisted summary of a run.
type RunEntry struct {
	RunID      string                `json:"run_id"`
	Timestamp  string                `json:"timestamp"`
	CommitHash string                `json:"commit_hash,omitempty"`
	DesignFile string                `json:"design_file"`
	Classes    int                   `json:"classes"`
	Passed     bool                  `json:"passed"`
	Violations map[ViolationKind]int `json:"violations,omitempty"`
}

// EntryFor summarizes a report for the run history.
func EntryFor(r *VerifyReport) RunEntry {
	return RunEntry{
		RunID:      r.RunID,
		Timestamp:  r.StartedAt.UTC().Format(time.RFC3339),
		CommitHash: r.CommitHash,
		DesignFile: r.DesignFile,
		Classes:    r.ClassesFound,
		Passed:     r.Passed,
		Violations: r.CountByKind(),
	}
}
