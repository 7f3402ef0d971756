package cli

import (
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	mcpadapter "github.com/openkraft/archverify/internal/adapters/inbound/mcp"
)

func newMCPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the archverify MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd(a))
	return cmd
}

func newMCPServeCmd(a *app) *cobra.Command {
	var projectPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start archverify MCP server (stdio)",
		Long:  "Start the archverify MCP server using stdio transport. AI coding assistants can verify the project, resolve namespaces, and read the design and run history.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectPath == "" {
				projectPath = "."
			}
			absPath, err := filepath.Abs(projectPath)
			if err != nil {
				return err
			}
			s := mcpadapter.NewArchverifyMCPServer(absPath, a.log())
			return server.ServeStdio(s)
		},
	}

	cmd.Flags().StringVar(&projectPath, "path", "", "Project path (defaults to current working directory)")

	return cmd
}
