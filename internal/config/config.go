package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode

	Port string

	// Text generation
	GCPProjectID string
	GCPLocation  string
	ModelName    string
	MaxTokens    int
	Temperature  float64
	LLMTimeout   time.Duration
	UseMockLLM   bool // true = use mock even on GCP

	// Storage: "memory", "sqlite" or "firestore"
	StorageBackend string
	SQLitePath     string

	// Persona
	PersonaName    string
	OwnerKeys      []string // avatar keys treated as privileged on first contact
	EndearmentTerm string

	// Engine knobs
	HistoryLimit      int
	IdentityCacheTTL  time.Duration
	MenuTimeout       time.Duration
	MenuCatalogPath   string
	RetentionWindow   time.Duration
	RetentionInterval time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getFloatEnv(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// getListEnv parses a comma-separated env var, trimming blanks.
func getListEnv(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads all env vars and builds the config.
func Load() *Config {
	modeStr := getEnv("CONCIERGE_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	return &Config{
		Mode: mode,

		Port: getEnv("CONCIERGE_PORT", "8080"),

		GCPProjectID: getEnv("CONCIERGE_GCP_PROJECT", ""),
		GCPLocation:  getEnv("CONCIERGE_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("CONCIERGE_MODEL_NAME", "gemini-2.5-flash"),
		MaxTokens:    getIntEnv("CONCIERGE_MAX_TOKENS", 150),
		Temperature:  getFloatEnv("CONCIERGE_TEMPERATURE", 0.7),
		LLMTimeout:   getDurationEnv("CONCIERGE_LLM_TIMEOUT", 20*time.Second),
		UseMockLLM:   getBoolEnv("CONCIERGE_USE_MOCK_LLM", mode == ModeLocal),

		StorageBackend: getEnv("CONCIERGE_STORAGE_BACKEND", "memory"),
		SQLitePath:     getEnv("CONCIERGE_SQLITE_PATH", "concierge.db"),

		PersonaName:    getEnv("CONCIERGE_PERSONA_NAME", "Rose"),
		OwnerKeys:      getListEnv("CONCIERGE_OWNER_KEYS"),
		EndearmentTerm: getEnv("CONCIERGE_ENDEARMENT_TERM", "darling"),

		HistoryLimit:      getIntEnv("CONCIERGE_HISTORY_LIMIT", 10),
		IdentityCacheTTL:  getDurationEnv("CONCIERGE_IDENTITY_CACHE_TTL", 5*time.Minute),
		MenuTimeout:       getDurationEnv("CONCIERGE_MENU_TIMEOUT", 5*time.Minute),
		MenuCatalogPath:   getEnv("CONCIERGE_MENU_CATALOG", ""),
		RetentionWindow:   getDurationEnv("CONCIERGE_RETENTION_WINDOW", 30*24*time.Hour),
		RetentionInterval: getDurationEnv("CONCIERGE_RETENTION_INTERVAL", 12*time.Hour),
	}
}
