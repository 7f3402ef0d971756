package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openkraft/archverify/internal/domain"
	"github.com/openkraft/archverify/internal/domain/registry"
	"github.com/openkraft/archverify/internal/domain/verify"
)

// errStop ends the class walk early in fail-fast mode.
var errStop = errors.New("stop after first violation")

// VerifyService orchestrates a verification run:
// load design → build registry → walk classes → check references → sweep → record.
type VerifyService struct {
	designs  domain.DesignLoader
	source   domain.ClassSource
	analyzer domain.ClassAnalyzer

	cache           domain.CacheStore
	analyzerVersion string

	history domain.RunHistory
	git     domain.GitInfo
	metrics domain.MetricsRecorder
	logger  *zap.Logger
	now     func() time.Time
}

// VerifyOption configures optional collaborators.
type VerifyOption func(*VerifyService)

func WithHistory(h domain.RunHistory) VerifyOption {
	return func(s *VerifyService) { s.history = h }
}

// WithCache reuses analyses stored by earlier runs of the same analyzer
// version.
func WithCache(c domain.CacheStore, analyzerVersion string) VerifyOption {
	return func(s *VerifyService) {
		s.cache = c
		s.analyzerVersion = analyzerVersion
	}
}

func WithGitInfo(g domain.GitInfo) VerifyOption {
	return func(s *VerifyService) { s.git = g }
}

func WithMetrics(m domain.MetricsRecorder) VerifyOption {
	return func(s *VerifyService) { s.metrics = m }
}

func WithLogger(l *zap.Logger) VerifyOption {
	return func(s *VerifyService) { s.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) VerifyOption {
	return func(s *VerifyService) { s.now = now }
}

func NewVerifyService(
	designs domain.DesignLoader,
	source domain.ClassSource,
	analyzer domain.ClassAnalyzer,
	opts ...VerifyOption,
) *VerifyService {
	s := &VerifyService{
		designs:  designs,
		source:   source,
		analyzer: analyzer,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// run is the state of one Verify call.
type run struct {
	*VerifyService
	opts    domain.VerifyOptions
	report  *domain.VerifyReport
	session *verify.Session
	origins []string
	seen    map[string]bool

	prior map[string]*domain.AnalyzedClass
	fresh *domain.AnalysisCache
}

// Verify checks every class under opts.Roots against the design. It returns
// an error only when the run could not be carried out (bad configuration,
// unreadable roots, no classes); violations are reported in the returned
// report, whose Err method turns them into an error.
func (s *VerifyService) Verify(ctx context.Context, opts domain.VerifyOptions) (*domain.VerifyReport, error) {
	start := s.now()
	designPath := projectRel(opts.ProjectPath, opts.DesignFile)
	roots := make([]string, len(opts.Roots))
	for i, r := range opts.Roots {
		roots[i] = projectRel(opts.ProjectPath, r)
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no class roots given", domain.ErrConfiguration)
	}

	design, err := s.designs.Load(designPath)
	if err != nil {
		return nil, fmt.Errorf("loading design: %w", err)
	}
	reg, err := registry.FromDesign(design, opts.Defaults, opts.CircularDesign)
	if err != nil {
		return nil, fmt.Errorf("building design %s: %w", designPath, err)
	}

	r := &run{
		VerifyService: s,
		opts:          opts,
		session:       verify.NewSession(reg),
		seen:          make(map[string]bool),
		report: &domain.VerifyReport{
			RunID:      uuid.NewString(),
			DesignFile: designPath,
			Roots:      roots,
			StartedAt:  start,
		},
	}
	log := s.logger.With(zap.String("run_id", r.report.RunID))
	log.Debug("verification started",
		zap.String("design", designPath),
		zap.Strings("roots", roots),
		zap.Int("packages", len(reg.Packages())),
		zap.Bool("circular", opts.CircularDesign))

	r.loadCache()

	err = s.source.Walk(roots, opts.Exclude, func(e domain.ClassEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return r.visit(e)
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, fmt.Errorf("reading classes: %w", err)
	}

	r.saveCache()

	if r.report.ClassesFound == 0 {
		return nil, fmt.Errorf("%w under %s", domain.ErrNoClasses, strings.Join(roots, ", "))
	}

	if len(r.report.Violations) == 0 {
		for _, v := range r.session.Sweep() {
			r.record(v, "")
		}
	}

	r.report.Passed = len(r.report.Violations) == 0
	if !r.report.Passed && opts.DeleteFiles {
		r.deleteOrigins()
	}
	r.report.Duration = s.now().Sub(start)

	if s.metrics != nil {
		s.metrics.RunFinished(r.report)
	}
	r.recordHistory()

	log.Info("verification finished",
		zap.Bool("passed", r.report.Passed),
		zap.Int("classes", r.report.ClassesFound),
		zap.Int("evaluated", r.report.ClassesEvaluated),
		zap.Int("violations", len(r.report.Violations)),
		zap.Int("cache_hits", r.report.CacheHits),
		zap.Duration("took", r.report.Duration))
	return r.report, nil
}

// visit processes one class. The first violation ends the class; in
// fail-fast mode it ends the walk.
func (r *run) visit(e domain.ClassEntry) error {
	r.report.ClassesFound++

	cls, err := r.analyze(e.Data)
	if err != nil {
		if !errors.Is(err, domain.ErrStructural) {
			return fmt.Errorf("analyzing %s: %w", e.Path, err)
		}
		return r.record(&domain.Violation{
			Kind:    domain.KindStructural,
			File:    e.Path,
			Message: fmt.Sprintf("File=%s could not be read as a class file: %v", e.Path, err),
		}, e.Origin)
	}

	if r.opts.RequireDebugInfo && len(cls.MissingLineNumbers) > 0 {
		return r.record(&domain.Violation{
			Kind:  domain.KindStructural,
			Class: cls.Name,
			File:  e.Path,
			Message: fmt.Sprintf("Class=%s was compiled without line numbers (methods: %s).\n"+
				"  Compile with debug information (javac -g) so every reference can be located.",
				cls.Name, strings.Join(cls.MissingLineNumbers, ", ")),
		}, e.Origin)
	}

	evaluate, err := r.session.BeginClass(cls.Name)
	if err != nil {
		return r.fail(err, e)
	}
	if r.metrics != nil {
		r.metrics.ClassScanned(evaluate)
	}
	if !evaluate {
		r.report.ClassesSkipped++
		return nil
	}
	r.report.ClassesEvaluated++

	clear(r.seen)
	for _, ref := range cls.References {
		if r.seen[ref.Name] {
			continue
		}
		r.seen[ref.Name] = true
		r.report.ReferencesChecked++
		if r.metrics != nil {
			r.metrics.ReferenceChecked()
		}
		if err := r.session.CheckReference(ref.Name); err != nil {
			return r.fail(err, e)
		}
	}
	return nil
}

// fail records a violation, or passes through anything else as fatal.
func (r *run) fail(err error, e domain.ClassEntry) error {
	var v *domain.Violation
	if !errors.As(err, &v) {
		return fmt.Errorf("%s: %w", e.Path, err)
	}
	v.File = e.Path
	return r.record(v, e.Origin)
}

// record appends v and returns errStop in fail-fast mode.
func (r *run) record(v *domain.Violation, origin string) error {
	r.report.Violations = append(r.report.Violations, v)
	if origin != "" {
		r.origins = append(r.origins, origin)
	}
	if r.metrics != nil {
		r.metrics.ViolationRecorded(v.Kind)
	}
	r.logger.Warn("design violation",
		zap.String("kind", string(v.Kind)),
		zap.String("class", v.Class),
		zap.String("reference", v.Reference),
		zap.String("package", v.Package),
		zap.String("file", v.File))

	if !r.opts.CollectAll {
		return errStop
	}
	return nil
}

// analyze consults the cache before parsing. Failed analyses are not cached.
func (r *run) analyze(data []byte) (*domain.AnalyzedClass, error) {
	if r.fresh == nil {
		return r.analyzer.Analyze(data)
	}
	key := domain.ContentKey(data)
	if cls, ok := r.prior[key]; ok {
		r.fresh.Classes[key] = cls
		r.report.CacheHits++
		return cls, nil
	}
	cls, err := r.analyzer.Analyze(data)
	if err == nil {
		r.fresh.Classes[key] = cls
	}
	return cls, err
}

func (r *run) loadCache() {
	if !r.opts.UseCache || r.cache == nil {
		return
	}
	r.fresh = domain.NewAnalysisCache(r.opts.ProjectPath, r.analyzerVersion)
	prior, err := r.cache.Load(r.opts.ProjectPath)
	switch {
	case err != nil:
		r.logger.Warn("ignoring unreadable analysis cache", zap.Error(err))
	case prior == nil:
	case prior.IsInvalidated(r.analyzerVersion):
		r.logger.Debug("analysis cache invalidated",
			zap.String("cached", prior.AnalyzerVersion), zap.String("current", r.analyzerVersion))
	default:
		r.prior = prior.Classes
	}
}

// saveCache keeps only the classes seen in this run.
func (r *run) saveCache() {
	if r.fresh == nil {
		return
	}
	if err := r.cache.Save(r.fresh); err != nil {
		r.logger.Warn("saving analysis cache", zap.Error(err))
	}
}

func (r *run) deleteOrigins() {
	done := make(map[string]bool)
	for _, origin := range r.origins {
		if done[origin] {
			continue
		}
		done[origin] = true
		if err := os.Remove(origin); err != nil {
			r.logger.Warn("deleting offending file", zap.String("file", origin), zap.Error(err))
			continue
		}
		r.report.DeletedFiles = append(r.report.DeletedFiles, origin)
	}
}

func (r *run) recordHistory() {
	if !r.opts.RecordHistory || r.history == nil {
		return
	}
	if r.git != nil && r.git.IsGitRepo(r.opts.ProjectPath) {
		if hash, err := r.git.CommitHash(r.opts.ProjectPath); err == nil {
			r.report.CommitHash = hash
		}
	}
	if err := r.history.Save(r.opts.ProjectPath, domain.EntryFor(r.report)); err != nil {
		r.logger.Warn("saving run history", zap.Error(err))
	}
}

func projectRel(projectPath, p string) string {
	if p == "" || filepath.IsAbs(p) || projectPath == "" {
		return p
	}
	return filepath.Join(projectPath, p)
}
