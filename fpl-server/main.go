package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func main() {
	_ = godotenv.Load()

	var (
		addr         = flag.String("addr", ":8080", "HTTP listen address")
		mcpPath      = flag.String("path", "/mcp", "HTTP path for MCP endpoint")
		rawRoot      = flag.String("raw-root", "data/raw", "root directory for raw JSON")
		derivedRoot  = flag.String("derived-root", "data/derived", "root directory for derived JSON")
		writeDerived = flag.Bool("write-derived", true, "write computed summaries to derived root")
		snapshotDir  = flag.String("snapshot-dir", "", "serve element summaries from the newest collector file here")
		live         = flag.Bool("live", false, "disable cache and disk writes")
		refresh      = flag.Bool("refresh", false, "refetch cached API bodies")
		cacheTTL     = flag.Duration("cache-ttl", 10*time.Minute, "refetch cached API bodies older than this (0 = never)")
		sleepMS      = flag.Int("sleep-ms", 250, "sleep between requests in ms")
		requireAuth  = flag.Bool("require-auth", true, "require API key auth via FPL_MCP_API_KEY")
		authHeader   = flag.String("auth-header", "X-API-Key", "HTTP header to read API key from")
		debug        = flag.Bool("debug", false, "development logging")
	)
	flag.Parse()

	logger := newLogger(*debug)
	defer logger.Sync()

	cfg := ServerConfig{
		RawRoot:      *rawRoot,
		DerivedRoot:  *derivedRoot,
		WriteDerived: *writeDerived && !*live,
		SnapshotDir:  *snapshotDir,
		Live:         *live,
		Refresh:      *refresh,
		CacheTTL:     *cacheTTL,
		SleepMS:      *sleepMS,
	}

	b, err := newBackend(cfg, logger)
	if err != nil {
		logger.Fatal("backend", zap.Error(err))
	}

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "fpl-scorer",
			Version: "0.1.0",
		},
		nil,
	)
	registry := registerTools(server, b)

	apiKey := strings.TrimSpace(os.Getenv("FPL_MCP_API_KEY"))
	if *requireAuth && apiKey == "" {
		logger.Fatal("FPL_MCP_API_KEY is required (set env var or run with --require-auth=false)")
	}

	router := newRouter(server, registry, *mcpPath, apiKey, *authHeader)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(logger.Named("http")),
	}
	logger.Info(fmt.Sprintf("MCP HTTP server listening on %s%s", *addr, *mcpPath))
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("listen", zap.Error(err))
	}
}

func registerTools(server *mcp.Server, b *backend) []toolInfo {
	registry := make([]toolInfo, 0, 8)

	addTool(server, &registry, &mcp.Tool{
		Name:        "score_team",
		Description: "Matchweek points for a squad with automatic substitutions and captain bonus",
		InputSchema: inputSchema[ScoreTeamArgs](),
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ScoreTeamArgs) (*mcp.CallToolResult, any, error) {
		return toolMarshal(buildScoreTeam(ctx, b, args))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "check_lineup",
		Description: "Whether position counts form a legal starting XI",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args CheckLineupArgs) (*mcp.CallToolResult, any, error) {
		return toolMarshal(buildCheckLineup(args), nil)
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "player_history",
		Description: "Per-fixture minutes and points for a player within a matchweek window",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlayerHistoryArgs) (*mcp.CallToolResult, any, error) {
		return toolMarshal(buildPlayerHistory(ctx, b, args))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "num_fixtures",
		Description: "Number of fixtures a player has in a matchweek (0 = blank, 2 = double)",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args NumFixturesArgs) (*mcp.CallToolResult, any, error) {
		return toolMarshal(buildNumFixtures(ctx, b, args))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "positional_averages",
		Description: "Ownership-weighted points-per-game baseline for each position",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args struct{}) (*mcp.CallToolResult, any, error) {
		return toolMarshal(buildPositionalAverages(ctx, b))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "overachievement",
		Description: "Share of played matches where each player beat their positional average",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args OverachievementArgs) (*mcp.CallToolResult, any, error) {
		return toolMarshal(buildOverachievement(ctx, b, args))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "squad_check",
		Description: "Validate a squad against bootstrap-static: positions, counts, formation, captaincy",
		InputSchema: inputSchema[SquadCheckArgs](),
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SquadCheckArgs) (*mcp.CallToolResult, any, error) {
		return toolMarshal(buildSquadCheck(ctx, b, args))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "fixture_difficulty",
		Description: "Upcoming fixtures per player over a horizon, with blanks, doubles and difficulty",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FixtureDifficultyArgs) (*mcp.CallToolResult, any, error) {
		return toolMarshal(buildFixtureDifficulty(ctx, b, args))
	})

	return registry
}

func newRouter(server *mcp.Server, registry []toolInfo, mcpPath, apiKey, authHeader string) *mux.Router {
	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})

	router := mux.NewRouter()
	router.Use(authMiddleware(apiKey, authHeader))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/tools", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		b, _ := json.MarshalIndent(map[string]any{"tools": registry}, "", "  ")
		w.Write(b)
	}).Methods(http.MethodGet)

	router.Handle(mcpPath, handler)
	return router
}

func authMiddleware(apiKey, authHeader string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			key := strings.TrimSpace(r.Header.Get(authHeader))
			if key == "" {
				if authz := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					key = strings.TrimSpace(authz[7:])
				}
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func addTool[T any](server *mcp.Server, registry *[]toolInfo, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	*registry = append(*registry, toolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(server, tool, handler)
}

func newLogger(debug bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

func toolMarshal(v any, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		return toolError(err), nil, nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSONBytes(b), nil, nil
}

func toolJSONBytes(res []byte) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(res)},
		},
	}
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
