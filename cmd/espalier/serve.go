package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/logging"
	httpAdapter "github.com/aretw0/espalier/pkg/adapters/http"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Serve a document's inspection API over HTTP",
	Long: `Enhances the document with generic bindings, starts the teardown
pipeline, and exposes the registry, catalogs, journal, and metrics as a JSON
API over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		level, _ := cmd.Flags().GetString("log-level")

		if err := runServe(documentPath(cmd, args), port, level); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
}

func runServe(path, port, level string) error {
	doc, err := memory.LoadDocument(path)
	if err != nil {
		return err
	}

	eng, err := espalier.New(doc,
		espalier.WithName(path),
		espalier.WithLogger(logging.New(logging.ParseLevel(level))),
		espalier.WithJournal(memory.NewJournal()),
	)
	if err != nil {
		return err
	}
	if err := registerDeclared(eng, collectDeclarations(doc.Root())); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.Enhance(ctx, doc.Root()); err != nil {
		return err
	}
	if err := eng.Observe(ctx); err != nil {
		return err
	}
	defer eng.Stop()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: httpAdapter.NewHandler(eng),
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		fmt.Printf("Starting Espalier Server on %s\n", srv.Addr)
		fmt.Printf("Serving document: %s\n", path)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err

	case <-ctx.Done():
		fmt.Println("\nStart shutdown...")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		fmt.Println("Espalier Server stopped gracefully")
		return nil
	}
}
