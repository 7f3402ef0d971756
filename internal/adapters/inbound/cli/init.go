package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openkraft/archverify/internal/adapters/outbound/config"
	"github.com/openkraft/archverify/internal/adapters/outbound/design"
	"github.com/openkraft/archverify/internal/application"
	"github.com/openkraft/archverify/internal/domain"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Generate .archverify.yaml and a starter design",
		Long:  "Create a commented .archverify.yaml and, unless one exists, a starter design.yaml to edit.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := projectDir(args)
			if err != nil {
				return err
			}

			if _, err := config.WriteStarter(absPath, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", config.FileName)

			designPath := filepath.Join(absPath, domain.DefaultDesignFile)
			err = application.NewDesignService(design.New()).WriteStarter(designPath, force)
			switch {
			case errors.Is(err, os.ErrExist):
				fmt.Fprintf(cmd.OutOrStdout(), "Kept existing %s\n", domain.DefaultDesignFile)
			case err != nil:
				return err
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", domain.DefaultDesignFile)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}
