// go_prep — Interview Prep Tracker MCP server.
//
// Tracks job applications, interview rounds, study sprints and a question
// bank, and exposes them as MCP tools so an LLM assistant can manipulate
// the same data from chat. Runs as HTTP MCP server or stdio transport.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/dkorolev/go_prep/internal/prepserver"
	"github.com/dkorolev/go_prep/internal/tracker"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	_ = godotenv.Load()
	if err := initTracker(); err != nil {
		slog.Error("tracker init failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting go_prep",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_prep",
		Version: version,
	}, nil)

	prepserver.RegisterTools(server)
	slog.Info("tools registered", slog.Int("count", 10))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_prep",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 120 * time.Second,
		Metrics:      tracker.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initTracker() error {
	c := tracker.Config{
		DBPath:               env.Str("GO_PREP_DB", tracker.DefaultDBPath()),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		LLMAPIKey:            env.Str("LLM_API_KEY", ""),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:             env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", 0.2),
		LLMMaxTokens:         env.Int("LLM_MAX_TOKENS", 8192),
		SprintMaxDays:        env.Int("SPRINT_MAX_DAYS", 30),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 500),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
	}

	if c.LLMAPIKey != "" {
		c.LLMClient = llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
			llm.WithMaxTokens(c.LLMMaxTokens),
			llm.WithTemperature(c.LLMTemperature),
			llm.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
		)
	} else {
		slog.Warn("LLM_API_KEY not set, study sprint generation disabled")
	}

	tracker.Init(c)

	// Store: PostgreSQL when DATABASE_URL is set, SQLite otherwise.
	if c.DatabaseURL != "" {
		pg, err := tracker.ConnectPostgres(context.Background(), c.DatabaseURL)
		if err != nil {
			return err
		}
		tracker.SetStore(pg)
		slog.Info("postgres store initialized")
	} else {
		st, err := tracker.OpenSQLite(c.DBPath)
		if err != nil {
			return err
		}
		tracker.SetStore(st)
		slog.Info("sqlite store initialized", slog.String("path", c.DBPath))
	}

	tracker.InitCache(env.Str("REDIS_URL", ""), env.Duration("CACHE_TTL", 6*time.Hour),
		c.CacheMaxEntries, c.CacheCleanupInterval)
	return nil
}
