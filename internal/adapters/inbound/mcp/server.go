package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// NewArchverifyMCPServer creates an MCP server with all archverify tools and
// resources registered. projectPath is the directory holding
// .archverify.yaml and the design.
func NewArchverifyMCPServer(projectPath string, logger *zap.Logger) *server.MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := server.NewMCPServer(
		"archverify",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	h := &handlers{projectPath: projectPath, logger: logger}
	registerTools(s, h)
	registerResources(s, h)

	return s
}
