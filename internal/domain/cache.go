package domain

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// AnalysisCache maps class file contents to what the analyzer extracted from
// them, so unchanged classes are not parsed again on the next run.
type AnalysisCache struct {
	ProjectPath     string                    `json:"project_path"`
	AnalyzerVersion string                    `json:"analyzer_version"`
	Classes         map[string]*AnalyzedClass `json:"classes"`
}

// NewAnalysisCache returns an empty cache for projectPath.
func NewAnalysisCache(projectPath, analyzerVersion string) *AnalysisCache {
	return &AnalysisCache{
		ProjectPath:     projectPath,
		AnalyzerVersion: analyzerVersion,
		Classes:         make(map[string]*AnalyzedClass),
	}
}

// IsInvalidated reports whether the cache was written by another analyzer
// version.
func (c *AnalysisCache) IsInvalidated(analyzerVersion string) bool {
	return c.AnalyzerVersion != analyzerVersion
}

// ContentKey identifies a class file by its bytes.
func ContentKey(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16) + "-" + strconv.Itoa(len(data))
}
