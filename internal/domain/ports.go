package domain

// DesignLoader reads and writes architecture descriptions.
type DesignLoader interface {
	Load(path string) (*Design, error)
	Save(path string, d *Design) error
}

// ConfigLoader reads the project configuration.
type ConfigLoader interface {
	Load(projectPath string) (ProjectConfig, error)
}

// ClassEntry is one class payload found under a root. Path is the display
// location (archive entries use "archive.jar!/path/Foo.class"); Origin is the
// file on disk that would be deleted on failure.
type ClassEntry struct {
	Path   string
	Origin string
	Data   []byte
}

// ClassSource enumerates class payloads under the given roots in a
// deterministic order, skipping paths that match an exclude pattern.
// Returning an error from fn stops the walk.
type ClassSource interface {
	Walk(roots, exclude []string, fn func(ClassEntry) error) error
}

// TypeRef is one referenced type name found in a class, with the structure
// it came from (e.g. "superclass", "checkcast", "constant_pool").
type TypeRef struct {
	Name   string `json:"name"`
	Origin string `json:"origin"`
}

// AnalyzedClass holds the structural facts extracted from one class file.
type AnalyzedClass struct {
	Name       string    `json:"name"`
	Super      string    `json:"super,omitempty"`
	References []TypeRef `json:"references"`
	// MissingLineNumbers lists methods with code but no LineNumberTable.
	MissingLineNumbers []string `json:"missing_line_numbers,omitempty"`
}

// ClassAnalyzer parses a class file.
type ClassAnalyzer interface {
	Analyze(data []byte) (*AnalyzedClass, error)
}

// RunHistory persists run summaries.
type RunHistory interface {
	Save(projectPath string, entry RunEntry) error
	Load(projectPath string) ([]RunEntry, error)
}

// GitInfo provides version control details for a project.
type GitInfo interface {
	IsGitRepo(projectPath string) bool
	CommitHash(projectPath string) (string, error)
}

// MetricsRecorder receives run counters.
type MetricsRecorder interface {
	ClassScanned(evaluated bool)
	ReferenceChecked()
	ViolationRecorded(kind ViolationKind)
	RunFinished(report *VerifyReport)
}

// CacheStore persists the analysis cache of a project.
type CacheStore interface {
	Load(projectPath string) (*AnalysisCache, error)
	Save(cache *AnalysisCache) error
	Invalidate(projectPath string) error
}
