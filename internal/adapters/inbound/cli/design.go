package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openkraft/archverify/internal/adapters/outbound/design"
	"github.com/openkraft/archverify/internal/adapters/outbound/tui"
	"github.com/openkraft/archverify/internal/application"
	"github.com/openkraft/archverify/internal/domain"
)

func newResolveCmd(a *app) *cobra.Command {
	var (
		df         designFlags
		path       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <namespace>",
		Short: "Show which declared package owns a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := projectDir([]string{path})
			if err != nil {
				return err
			}
			opts, _, err := df.loadOptions(cmd, absPath)
			if err != nil {
				return err
			}

			namespace := args[0]
			p, ok, err := application.NewDesignService(design.New()).Resolve(opts, namespace)
			if err != nil {
				return err
			}
			a.log().Debug("resolved namespace", zap.String("namespace", namespace), zap.Bool("found", ok))

			if jsonOutput {
				return renderJSON(cmd, resolveJSON{Namespace: namespace, Resolved: ok, Package: p})
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderResolution(namespace, p, ok))
			if !ok {
				return fmt.Errorf("%w: namespace %s is not defined in the architecture",
					domain.ErrUndeclaredPackage, namespace)
			}
			return nil
		},
	}

	df.register(cmd)
	cmd.Flags().StringVar(&path, "path", ".", "Project path")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

type resolveJSON struct {
	Namespace string                 `json:"namespace"`
	Resolved  bool                   `json:"resolved"`
	Package   *domain.LogicalPackage `json:"package,omitempty"`
}

func newGraphCmd(a *app) *cobra.Command {
	var (
		df         designFlags
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "graph [path]",
		Short: "Show the declared packages and their dependencies",
		Long:  "Render the design: every logical package with its namespace and flags, the declared dependency edges, and, in circular mode, the dependency cycles.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := projectDir(args)
			if err != nil {
				return err
			}
			opts, _, err := df.loadOptions(cmd, absPath)
			if err != nil {
				return err
			}

			reg, err := application.NewDesignService(design.New()).Registry(opts)
			if err != nil {
				return err
			}
			designFile := projectPath(opts, opts.DesignFile)

			if jsonOutput {
				cycles := reg.Cycles()
				if cycles == nil {
					cycles = [][]string{}
				}
				return renderJSON(cmd, graphJSON{
					DesignFile: designFile,
					Circular:   reg.Circular(),
					Edges:      reg.EdgeCount(),
					Packages:   reg.Packages(),
					Cycles:     cycles,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderDesign(reg, shortPath(absPath, designFile)))
			return nil
		},
	}

	df.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the design as JSON")
	return cmd
}

type graphJSON struct {
	DesignFile string                   `json:"design_file"`
	Circular   bool                     `json:"circular"`
	Edges      int                      `json:"edges"`
	Packages   []*domain.LogicalPackage `json:"packages"`
	Cycles     [][]string               `json:"cycles"`
}

func newConvertCmd(a *app) *cobra.Command {
	var circular bool

	cmd := &cobra.Command{
		Use:   "convert <src> <dst>",
		Short: "Convert a design between YAML and the legacy XML form",
		Long:  "Read a design and write it in the format implied by the destination extension (.xml or .yaml). The design is validated first.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := application.NewDesignService(design.New()).Convert(args[0], args[1], circular)
			if err != nil {
				return err
			}
			a.log().Debug("converted design", zap.String("src", args[0]), zap.String("dst", args[1]))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d packages, %s)\n",
				args[1], len(d.Packages), design.FormatOf(args[1]))
			return nil
		},
	}

	cmd.Flags().BoolVar(&circular, "circular", false, "Validate as a circular design")
	return cmd
}

func shortPath(base, p string) string {
	if rel, err := filepath.Rel(base, p); err == nil && !filepath.IsAbs(rel) && rel != "" && rel[0] != '.' {
		return rel
	}
	return p
}
