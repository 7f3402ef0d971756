package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	designURI  = "archverify://design"
	historyURI = "archverify://history"
)

func registerResources(s *server.MCPServer, h *handlers) {
	s.AddResource(
		mcplib.NewResource(
			designURI,
			"Design",
			mcplib.WithResourceDescription("Declared packages, dependency edges, and cycles"),
			mcplib.WithMIMEType("application/json"),
		),
		h.designResource,
	)

	s.AddResource(
		mcplib.NewResource(
			historyURI,
			"Run History",
			mcplib.WithResourceDescription("Recent verification runs with pass/fail and commit"),
			mcplib.WithMIMEType("application/json"),
		),
		h.historyResource,
	)
}

func (h *handlers) designResource(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	view, err := h.loadDesign()
	if err != nil {
		return nil, err
	}
	return jsonContents(designURI, view)
}

func (h *handlers) historyResource(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	entries, err := h.loadHistory(defaultHistoryLimit)
	if err != nil {
		return nil, err
	}
	return jsonContents(historyURI, entries)
}

func jsonContents(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
