package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/espalier"
	mcpAdapter "github.com/aretw0/espalier/pkg/adapters/mcp"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [file]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the engine's inspection surface as an MCP Server.
This allows AI agents to query catalogs, the node registry, and journal history as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		if err := runMCP(documentPath(cmd, args), transport, port); err != nil {
			slog.Error("MCP Server execution failed", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}

func runMCP(path, transport string, port int) error {
	doc, err := memory.LoadDocument(path)
	if err != nil {
		return err
	}

	eng, err := espalier.New(doc,
		espalier.WithName(path),
		espalier.WithJournal(memory.NewJournal()),
	)
	if err != nil {
		return err
	}
	if err := registerDeclared(eng, collectDeclarations(doc.Root())); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.Enhance(ctx, doc.Root()); err != nil {
		return err
	}
	if err := eng.Observe(ctx); err != nil {
		return err
	}
	defer eng.Stop()

	srv := mcpAdapter.NewServer(eng)

	switch transport {
	case "stdio":
		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)
		slog.Info("Starting Espalier MCP Server (Stdio)...")
		return srv.ServeStdio()
	case "sse":
		slog.Info("Starting Espalier MCP Server (SSE)", "port", port)
		if err := srv.ServeSSE(ctx, port); err != nil && err != http.ErrServerClosed {
			return err
		}
		slog.Info("MCP Server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", transport)
	}
}
