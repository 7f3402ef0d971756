package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/openkraft/archverify/internal/adapters/outbound/archive"
	"github.com/openkraft/archverify/internal/adapters/outbound/cache"
	"github.com/openkraft/archverify/internal/adapters/outbound/classparser"
	"github.com/openkraft/archverify/internal/adapters/outbound/config"
	"github.com/openkraft/archverify/internal/adapters/outbound/design"
	"github.com/openkraft/archverify/internal/adapters/outbound/gitinfo"
	"github.com/openkraft/archverify/internal/adapters/outbound/history"
	"github.com/openkraft/archverify/internal/application"
	"github.com/openkraft/archverify/internal/domain"
)

// handlers serves one project.
type handlers struct {
	projectPath string
	logger      *zap.Logger
}

func registerTools(s *server.MCPServer, h *handlers) {
	s.AddTool(
		mcplib.NewTool("archverify_verify",
			mcplib.WithDescription("Verify the project's compiled classes against its design and return the report as JSON"),
			mcplib.WithString("design", mcplib.Description("Design file relative to the project (default from .archverify.yaml)")),
			mcplib.WithBoolean("circular", mcplib.Description("Allow packages to depend on packages declared after them")),
			mcplib.WithBoolean("fail_fast", mcplib.Description("Stop at the first violation")),
		),
		h.verifyTool,
	)

	s.AddTool(
		mcplib.NewTool("archverify_resolve",
			mcplib.WithDescription("Return the declared logical package that owns a namespace"),
			mcplib.WithString("namespace",
				mcplib.Required(),
				mcplib.Description("Dotted namespace, e.g. com.example.service"),
			),
		),
		h.resolveTool,
	)

	s.AddTool(
		mcplib.NewTool("archverify_get_design",
			mcplib.WithDescription("Return the declared packages, dependency edges, and cycles of the design"),
		),
		h.designTool,
	)

	s.AddTool(
		mcplib.NewTool("archverify_history",
			mcplib.WithDescription("Return recent verification runs, oldest first"),
			mcplib.WithNumber("limit", mcplib.Description("Maximum number of runs (default 20)")),
		),
		h.historyTool,
	)
}

// options loads .archverify.yaml and applies tool arguments over it.
func (h *handlers) options(args map[string]any) (domain.VerifyOptions, error) {
	cfg, err := config.New().Load(h.projectPath)
	if err != nil {
		return domain.VerifyOptions{}, err
	}
	opts := cfg.Options(h.projectPath)
	if d, ok := args["design"].(string); ok && d != "" {
		opts.DesignFile = d
	}
	if c, ok := args["circular"].(bool); ok {
		opts.CircularDesign = c
	}
	if f, ok := args["fail_fast"].(bool); ok {
		opts.CollectAll = !f
	}
	return opts, nil
}

func (h *handlers) verifyTool(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	opts, err := h.options(request.GetArguments())
	if err != nil {
		return errorResult(err.Error()), nil
	}
	// Tool calls never delete files.
	opts.DeleteFiles = false

	svc := application.NewVerifyService(
		design.New(),
		archive.New(archive.WithLogger(h.logger)),
		classparser.New(),
		application.WithHistory(history.New()),
		application.WithGitInfo(gitinfo.New()),
		application.WithCache(cache.New(), classparser.Version),
		application.WithLogger(h.logger),
	)
	report, err := svc.Verify(ctx, opts)
	if err != nil {
		return errorResult(fmt.Sprintf("verification failed: %v", err)), nil
	}
	return jsonResult(report)
}

func (h *handlers) resolveTool(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	namespace, err := request.RequireString("namespace")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	opts, err := h.options(nil)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	p, ok, err := application.NewDesignService(design.New()).Resolve(opts, namespace)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(resolution{Namespace: namespace, Resolved: ok, Package: p})
}

type resolution struct {
	Namespace string                 `json:"namespace"`
	Resolved  bool                   `json:"resolved"`
	Package   *domain.LogicalPackage `json:"package,omitempty"`
}

// designView is the JSON shape of a loaded design.
type designView struct {
	DesignFile string                   `json:"design_file"`
	Circular   bool                     `json:"circular"`
	Edges      int                      `json:"edges"`
	Packages   []*domain.LogicalPackage `json:"packages"`
	Cycles     [][]string               `json:"cycles"`
}

func (h *handlers) loadDesign() (*designView, error) {
	opts, err := h.options(nil)
	if err != nil {
		return nil, err
	}
	reg, err := application.NewDesignService(design.New()).Registry(opts)
	if err != nil {
		return nil, err
	}
	cycles := reg.Cycles()
	if cycles == nil {
		cycles = [][]string{}
	}
	return &designView{
		DesignFile: opts.DesignFile,
		Circular:   reg.Circular(),
		Edges:      reg.EdgeCount(),
		Packages:   reg.Packages(),
		Cycles:     cycles,
	}, nil
}

func (h *handlers) designTool(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	view, err := h.loadDesign()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(view)
}

const defaultHistoryLimit = 20

func (h *handlers) loadHistory(limit int) ([]domain.RunEntry, error) {
	entries, err := history.New().Load(h.projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	if entries == nil {
		entries = []domain.RunEntry{}
	}
	return entries, nil
}

func (h *handlers) historyTool(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	limit := request.GetInt("limit", defaultHistoryLimit)
	entries, err := h.loadHistory(limit)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(entries)
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
