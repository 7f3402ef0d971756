package domain

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ProjectConfig holds project-level configuration loaded from .archverify.yaml.
// Pointer types distinguish "not specified" from false.
type ProjectConfig struct {
	Design                  string   `yaml:"design"                    json:"design,omitempty"`
	Roots                   []string `yaml:"roots"                     json:"roots,omitempty"`
	Exclude                 []string `yaml:"exclude"                   json:"exclude,omitempty"`
	CircularDesign          bool     `yaml:"circular_design"           json:"circular_design,omitempty"`
	DeleteFiles             bool     `yaml:"delete_files"              json:"delete_files,omitempty"`
	CollectAll              *bool    `yaml:"collect_all"               json:"collect_all,omitempty"`
	NeedDeclarationsDefault *bool    `yaml:"need_declarations_default" json:"need_declarations_default,omitempty"`
	NeedDependsDefault      *bool    `yaml:"need_depends_default"      json:"need_depends_default,omitempty"`
	RequireDebugInfo        *bool    `yaml:"require_debug_info"        json:"require_debug_info,omitempty"`
	History                 *bool    `yaml:"history"                   json:"history,omitempty"`
	Cache                   *bool    `yaml:"cache"                     json:"cache,omitempty"`
	MetricsFile             string   `yaml:"metrics_file"              json:"metrics_file,omitempty"`
}

// DefaultDesignFile is used when neither config nor flags name a design.
const DefaultDesignFile = "design.yaml"

// DefaultConfig returns a zero-value config that changes nothing.
func DefaultConfig() ProjectConfig {
	return ProjectConfig{}
}

// Validate checks the config for invalid values and returns a descriptive error.
func (c ProjectConfig) Validate() error {
	for _, r := range c.Roots {
		if strings.TrimSpace(r) == "" {
			return fmt.Errorf("roots must not contain empty entries")
		}
	}
	for _, p := range c.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	if c.MetricsFile != "" && strings.HasSuffix(c.MetricsFile, "/") {
		return fmt.Errorf("metrics_file must name a file, not a directory (got %q)", c.MetricsFile)
	}
	return nil
}

// VerifyOptions is the full input of one verification run.
type VerifyOptions struct {
	ProjectPath      string
	DesignFile       string
	Roots            []string
	Exclude          []string
	CircularDesign   bool
	DeleteFiles      bool
	CollectAll       bool
	Defaults         DesignDefaults
	RequireDebugInfo bool
	RecordHistory    bool
	UseCache         bool
}

// Options converts the config into run options. Unset values take the
// verifier's defaults: collect all errors, require declarations and
// dependencies, require line numbers, record history, use the analysis cache.
func (c ProjectConfig) Options(projectPath string) VerifyOptions {
	opts := VerifyOptions{
		ProjectPath:      projectPath,
		DesignFile:       c.Design,
		Roots:            c.Roots,
		Exclude:          c.Exclude,
		CircularDesign:   c.CircularDesign,
		DeleteFiles:      c.DeleteFiles,
		CollectAll:       true,
		Defaults:         DefaultDesignDefaults(),
		RequireDebugInfo: true,
		RecordHistory:    true,
		UseCache:         true,
	}
	if opts.DesignFile == "" {
		opts.DesignFile = DefaultDesignFile
	}
	if c.CollectAll != nil {
		opts.CollectAll = *c.CollectAll
	}
	if c.NeedDeclarationsDefault != nil {
		opts.Defaults.NeedDeclarations = *c.NeedDeclarationsDefault
	}
	if c.NeedDependsDefault != nil {
		opts.Defaults.NeedDepends = *c.NeedDependsDefault
	}
	if c.RequireDebugInfo != nil {
		opts.RequireDebugInfo = *c.RequireDebugInfo
	}
	if c.History != nil {
		opts.RecordHistory = *c.History
	}
	if c.Cache != nil {
		opts.UseCache = *c.Cache
	}
	return opts
}
