package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/piersdd/things-3-mcp/internal/mcpserver"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		transport string
		host      string
		port      int
		dbPath    string
	)

	cmd := &cobra.Command{
		Use:          "things-mcp",
		Short:        "MCP server for the Things 3 task manager",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Logs go to stderr; stdout belongs to the stdio transport.
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			cfg := mcpserver.Config{
				DBPath:      dbPath,
				Transport:   transport,
				Host:        host,
				Port:        port,
				AuthToken:   os.Getenv("THINGS_AUTH_TOKEN"),
				APIKey:      os.Getenv("THINGS_MCP_API_KEY"),
				BearerToken: os.Getenv("THINGS_MCP_API_TOKEN"),
				Logger:      logger,
			}

			srv, err := mcpserver.New(cfg)
			if err != nil {
				return err
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", envOr("THINGS_MCP_TRANSPORT", "stdio"), "transport to serve on (stdio or http)")
	cmd.Flags().StringVar(&host, "host", envOr("THINGS_MCP_HOST", "127.0.0.1"), "bind host for the http transport")
	cmd.Flags().IntVar(&port, "port", envIntOr("THINGS_MCP_PORT", 8000), "bind port for the http transport")
	cmd.Flags().StringVar(&dbPath, "db", os.Getenv("THINGS_DB"), "path to the Things database (auto-discovered when empty)")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
