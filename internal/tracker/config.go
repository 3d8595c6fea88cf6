package tracker

import (
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// Config holds all tracker configuration, injected from main.
type Config struct {
	DBPath               string // SQLite file path; used when DatabaseURL is empty
	DatabaseURL          string // optional PostgreSQL DSN
	LLMAPIKey            string
	LLMAPIBase           string
	LLMModel             string
	LLMTemperature       float64
	LLMMaxTokens         int
	SprintMaxDays        int
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	LLMClient            *llm.Client // nil = sprint generation disabled
}

var cfg Config

// Cfg exposes the tracker configuration for sub-packages.
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the tracker with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}
