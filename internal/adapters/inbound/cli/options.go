package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openkraft/archverify/internal/adapters/outbound/config"
	"github.com/openkraft/archverify/internal/domain"
)

// designFlags are shared by every command that reads a design.
type designFlags struct {
	design           string
	circular         bool
	needDeclarations bool
	needDepends      bool
}

func (f *designFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.design, "design", "", "Architecture description (default from .archverify.yaml, else design.yaml)")
	cmd.Flags().BoolVar(&f.circular, "circular", false, "Allow packages to depend on packages declared after them")
	cmd.Flags().BoolVar(&f.needDeclarations, "need-declarations-default", true,
		"Require a declared dependency to use packages that omit needdeclarations")
	cmd.Flags().BoolVar(&f.needDepends, "need-depends-default", true,
		"Check the references of packages that omit needdepends")
}

// loadOptions reads .archverify.yaml from projectPath and applies the
// design flags that were set explicitly.
func (f *designFlags) loadOptions(cmd *cobra.Command, projectPath string) (domain.VerifyOptions, domain.ProjectConfig, error) {
	cfg, err := config.New().Load(projectPath)
	if err != nil {
		return domain.VerifyOptions{}, cfg, err
	}
	opts := cfg.Options(projectPath)
	if cmd.Flags().Changed("design") {
		opts.DesignFile = f.design
	}
	if cmd.Flags().Changed("circular") {
		opts.CircularDesign = f.circular
	}
	if cmd.Flags().Changed("need-declarations-default") {
		opts.Defaults.NeedDeclarations = f.needDeclarations
	}
	if cmd.Flags().Changed("need-depends-default") {
		opts.Defaults.NeedDepends = f.needDepends
	}
	return opts, cfg, nil
}

func projectDir(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return absPath, nil
}

func renderJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
