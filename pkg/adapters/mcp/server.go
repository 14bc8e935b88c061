// Package mcp exposes the engine's inspection surface as an MCP server, so
// agent tooling can query catalogs, registry contents, and node history.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CatalogsResponse lists the registered type names per capability family.
type CatalogsResponse struct {
	Behaviors  []string `json:"behaviors" jsonschema_description:"Registered visual-behavior type names"`
	Components []string `json:"components" jsonschema_description:"Registered exclusive-interaction type names"`
}

// NodeResponse describes one managed node.
type NodeResponse struct {
	NodeID        string   `json:"node_id" jsonschema_description:"Case-normalized node identity"`
	Types         []string `json:"types" jsonschema_description:"Attached type names"`
	Subscriptions int      `json:"subscriptions" jsonschema_description:"Live subscription count"`
}

// Engine defines the inspection surface the MCP server needs. The root
// espalier.Engine satisfies it.
type Engine interface {
	Behaviors() []string
	Components() []string
	Snapshot() []registry.NodeSnapshot
	Journal() ports.Journal
}

// Server wraps the engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("espalier-mcp", strings.TrimSpace(espalier.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: list_types
	listTool := mcp.NewTool("list_types",
		mcp.WithDescription("List the registered type names in both capability catalogs."),
		mcp.WithOutputSchema[CatalogsResponse](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleListTypes))

	// TOOL: inspect_registry
	s.mcpServer.AddTool(mcp.NewTool("inspect_registry",
		mcp.WithDescription("List every managed node identity with its attached types and live subscription count."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.engine.Snapshot())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: node_bindings
	bindingsTool := mcp.NewTool("node_bindings",
		mcp.WithDescription("Show the attached types and subscription count for one node identity."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node identity (case-insensitive)")),
		mcp.WithOutputSchema[NodeResponse](),
	)
	s.mcpServer.AddTool(bindingsTool, mcp.NewStructuredToolHandler(s.handleNodeBindings))

	// TOOL: node_history
	s.mcpServer.AddTool(mcp.NewTool("node_history",
		mcp.WithDescription("Read the attachment journal for one node identity, in append order."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node identity (case-insensitive)")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		journal := s.engine.Journal()
		if journal == nil {
			return mcp.NewToolResultError("no journal configured"), nil
		}

		nodeID, err := request.RequireString("node_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		entries, err := journal.Entries(ctx, nodeID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("journal read failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(entries)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleListTypes(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CatalogsResponse, error) {
	return CatalogsResponse{
		Behaviors:  s.engine.Behaviors(),
		Components: s.engine.Components(),
	}, nil
}

func (s *Server) handleNodeBindings(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (NodeResponse, error) {
	nodeID, _ := args["node_id"].(string)
	if nodeID == "" {
		return NodeResponse{}, fmt.Errorf("node_id is required")
	}

	key := strings.ToLower(strings.TrimSpace(nodeID))
	for _, snap := range s.engine.Snapshot() {
		if snap.NodeID == key {
			return NodeResponse{
				NodeID:        snap.NodeID,
				Types:         snap.Types,
				Subscriptions: snap.Subscriptions,
			}, nil
		}
	}
	return NodeResponse{}, fmt.Errorf("node %q is not managed", nodeID)
}

func (s *Server) registerResources() {
	// EXPOSE: espalier://registry
	s.mcpServer.AddResource(mcp.NewResource("espalier://registry", "Managed Node Registry",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("failed to serialize registry: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "espalier://registry",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
