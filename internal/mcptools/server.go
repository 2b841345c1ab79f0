package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is set by the linker at build time.
var Version = "dev"

// NewMCPServer creates an MCP server with all archmap tools registered.
func NewMCPServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "archmap",
		Version: Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_repository",
		Description: "Analyze a repository: extract per-file structure, resolve imports into a dependency graph, find hot spots and cycles, and group files into labelled architectural clusters. Returns summary statistics.",
	}, svc.AnalyzeRepository)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_hot_spots",
		Description: "Return the files whose dependency degree exceeds the hot-spot threshold, with in/out degrees, plus the most connected files.",
	}, svc.GetHotSpots)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cycles",
		Description: "Return the dependency cycles found in an analyzed repository. Each cycle starts at its lexically smallest file.",
	}, svc.GetCycles)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_clusters",
		Description: "Return the labelled file clusters of an analyzed repository and the architecture summary.",
	}, svc.GetClusters)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_dependencies",
		Description: "Traverse the dependency graph upstream or downstream from a file. Returns dependency chains up to the specified depth.",
	}, svc.GetDependencies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "assess_impact",
		Description: "Compute the blast radius of modifying a set of files. Returns directly and transitively affected files with a risk score.",
	}, svc.AssessImpact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_external_dependencies",
		Description: "List the imports that do not resolve to a repository file (third-party or standard library), with the files using each.",
	}, svc.GetExternalDependencies)

	return server
}

// RunMCPServer starts an HTTP server exposing the archmap MCP tools.
func RunMCPServer(ctx context.Context, svc *Service, addr string) error {
	server := NewMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// RunMCPServerStdio runs the MCP server on stdio transport, blocking until
// stdin is closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, svc *Service) error {
	return NewMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}
