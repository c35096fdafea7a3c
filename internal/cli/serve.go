package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/thierrypdamiba/claude-memory-kit/internal/config"
	"github.com/thierrypdamiba/claude-memory-kit/internal/mcp"
	"github.com/thierrypdamiba/claude-memory-kit/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	eng, done, err := openEngine()
	if err != nil {
		return err
	}
	defer done()

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           server.New(eng, VersionString()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "memkit listening on http://%s\n", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-sig:
		fmt.Fprintln(os.Stderr, "shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP tool surface over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, done, err := openEngine()
		if err != nil {
			return err
		}
		defer done()

		return mcp.New(eng, tenantFlag, Version).ServeStdio()
	},
}
