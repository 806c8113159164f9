// Package mcpserver registers the Things tool surface and serves it over
// stdio or streamable HTTP. Every tool invocation builds its pipeline
// fresh from the store; nothing is cached between calls because the app
// owns the data and can change it at any moment.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/piersdd/things-3-mcp/internal/resolve"
	"github.com/piersdd/things-3-mcp/internal/store"
	"github.com/piersdd/things-3-mcp/internal/write"
)

// Defaults mirroring the tool parameter documentation.
const (
	DefaultLimit       = 10
	DefaultSampleCount = 5
)

// Config carries everything the server needs at startup.
type Config struct {
	DBPath    string // Things database path, "" for the default location
	Transport string // "stdio" or "http"
	Host      string
	Port      int

	// AuthToken is the Things URL-scheme token used for fallback updates.
	AuthToken string

	// APIKey and BearerToken guard the HTTP transport. When BearerToken
	// is set it takes precedence; when neither is set an API key is
	// generated and logged at startup.
	APIKey      string
	BearerToken string

	Logger *slog.Logger
}

// Server owns the store, the write coordinator, and the tool handlers.
type Server struct {
	cfg      Config
	log      *slog.Logger
	store    *store.Store
	resolver *resolve.Resolver
	coord    *write.Coordinator
	bridge   *write.Bridge
	urls     *write.URLScheme
}

// New opens the Things database and wires the pipelines.
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		return nil, err
	}

	bridge := write.NewBridge(logger)
	urls := write.NewURLScheme(cfg.AuthToken, logger)
	return &Server{
		cfg:      cfg,
		log:      logger,
		store:    st,
		resolver: resolve.New(st),
		coord:    write.NewCoordinator(bridge, urls, st, cfg.AuthToken, logger),
		bridge:   bridge,
		urls:     urls,
	}, nil
}

// Close releases the database handle.
func (s *Server) Close() error { return s.store.Close() }

// Run serves MCP until the transport stops.
func (s *Server) Run(ctx context.Context) error {
	mcpServer := server.NewMCPServer(
		"things3-mcp",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(
			"Things 3 task manager integration. Use concise=true (default) for token efficiency. "+
				"Start with get_random_* or get_summary for overviews before requesting full lists. "+
				"Use limit= to control output size."),
	)
	mcpServer.AddTools(s.defineTools()...)

	if !s.bridge.Ready(ctx) {
		s.log.Warn("Things 3 is not answering AppleScript; writes will go through the url scheme")
	}

	if s.cfg.Transport != "http" {
		s.log.Info("serving MCP over stdio")
		return server.ServeStdio(mcpServer)
	}

	streamServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true),
	)

	auth := s.authenticator()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			s.handleLandingPage(w, r)
			return
		}
		http.NotFound(w, r)
	})
	mux.Handle("/mcp", auth.wrap(streamServer))

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	httpServer := &http.Server{Addr: addr, Handler: mux}
	s.log.Info("serving MCP over http", "addr", addr, "endpoint", "/mcp", "auth", auth.mode())

	errc := make(chan error, 1)
	go func() { errc <- httpServer.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}

// ---------------------------------------------------------------------------
// Tool result helpers
// ---------------------------------------------------------------------------

func textResult(s string) *mcp.CallToolResult {
	return mcp.NewToolResultText(s)
}

func jsonResult(v any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("json marshal: %v", err))
	}
	return mcp.NewToolResultText(string(b))
}

func errResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

// listParams reads the shared read-tool arguments.
func listParams(req mcp.CallToolRequest) (concise bool, limit int, details bool) {
	concise = req.GetBool("concise", true)
	limit = req.GetInt("limit", DefaultLimit)
	details = req.GetBool("include_details", false)
	return concise && !details, limit, details
}
