package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/openkraft/archverify/internal/domain"
)

// FileName is the project configuration file.
const FileName = ".archverify.yaml"

// YAMLLoader implements domain.ConfigLoader by reading .archverify.yaml.
type YAMLLoader struct{}

// New creates a YAMLLoader.
func New() *YAMLLoader { return &YAMLLoader{} }

// Load reads .archverify.yaml from projectPath.
// Returns DefaultConfig if the file does not exist.
func (l *YAMLLoader) Load(projectPath string) (domain.ProjectConfig, error) {
	data, err := os.ReadFile(filepath.Join(projectPath, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultConfig(), nil
		}
		return domain.ProjectConfig{}, err
	}

	var cfg domain.ProjectConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return domain.ProjectConfig{}, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	if err := cfg.Validate(); err != nil {
		return domain.ProjectConfig{}, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return cfg, nil
}

// Starter is the commented configuration written by `archverify init`.
const Starter = `# archverify project configuration.
# Flags given on the command line override these values.

# Architecture description (.yaml or legacy .xml).
design: design.yaml

# Directories, jars, wars, or class files to verify.
roots:
  - build/classes

# Doublestar patterns for files and archive entries to skip.
exclude: []

# Allow packages to depend on packages declared after them.
circular_design: false

# Delete class files and archives that produced violations.
delete_files: false

# Report every violation instead of stopping at the first one.
collect_all: true

# Defaults for packages that omit needdeclarations / needdepends.
need_declarations_default: true
need_depends_default: true

# Reject classes whose methods were compiled without line numbers.
require_debug_info: true

# Record runs under .archverify/history.
history: true

# Reuse analyses of unchanged class files from .archverify/cache.
cache: true

# Write Prometheus metrics in textfile format after each run.
# metrics_file: build/archverify.prom
`

// WriteStarter writes Starter to projectPath. An existing config is only
// replaced when force is set.
func WriteStarter(projectPath string, force bool) (string, error) {
	path := filepath.Join(projectPath, FileName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%s already exists (use --force to overwrite)", FileName)
		}
	}
	if err := os.WriteFile(path, []byte(Starter), 0o644); err != nil {
		return path, fmt.Errorf("writing %s: %w", FileName, err)
	}
	return path, nil
}
