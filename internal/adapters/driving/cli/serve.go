package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/concierge/internal/adapters/driving/mcp"
	"github.com/custodia-labs/concierge/internal/core/ports/driving"
	"github.com/custodia-labs/concierge/internal/logger"
)

var serveHTTP string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve questions over MCP and keep the index current",
	Long: `Build or adopt the vector index, then serve the ask, status and reindex
tools over the Model Context Protocol.

By default the server communicates over stdio using JSON-RPC, for MCP clients
that launch the binary themselves. With --http it listens on the given
address instead and also serves:
  /mcp      - streamable MCP endpoint
  /status   - readiness JSON
  /metrics  - Prometheus metrics

While serving, changes to the documents file trigger a full reindex unless
[documents] watch = false.

Examples:
  # Stdio mode
  concierge serve

  # HTTP mode
  concierge serve --http :8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHTTP, "http", "", "listen address for HTTP mode (empty = stdio)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Index.Initialize(cmd.Context()); err != nil {
		return fmt.Errorf("initialize index: %w", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{Answers: app.Answers, Index: app.Index})
	if err != nil {
		return err
	}

	// The watcher stops when the server does.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if app.Watch != nil {
		g.Go(func() error {
			if err := app.Watch(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("watch files: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer cancel()
		if serveHTTP == "" {
			logger.Info("MCP server listening on stdio")
			return server.Run(ctx)
		}

		routes := map[string]http.Handler{"/status": statusHandler(app.Index)}
		if app.Metrics != nil {
			routes["/metrics"] = app.Metrics
		}
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s/mcp\n", displayAddr(serveHTTP))
		return server.RunHTTP(ctx, serveHTTP, routes)
	})

	err = g.Wait()
	if err != nil && cmd.Context().Err() != nil {
		return nil
	}
	return err
}

// statusHandler serves the readiness payload.
func statusHandler(index driving.IndexService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(mcp.NewStatusOutput(index.Status())); err != nil {
			logger.Warn("Failed to write status: %v", err)
		}
	})
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
