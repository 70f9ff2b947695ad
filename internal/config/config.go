// Package config reads service-level configuration from the environment.
package config

import "os"

// Config holds process configuration. Per-session game settings live in
// models.Settings and arrive with the create command instead.
type Config struct {
	ListenAddr        string
	PromptServiceURL  string
	DefaultDifficulty string
	RedisAddr         string
	JournalQueue      string
	PermissiveStart   bool
}

// FromEnv builds a Config from QUIPSET_* environment variables with
// sensible defaults. An empty RedisAddr disables the event journal.
func FromEnv() Config {
	c := Config{}
	c.ListenAddr = getenv("QUIPSET_LISTEN_ADDR", ":8080")
	c.PromptServiceURL = getenv("QUIPSET_PROMPT_SERVICE_URL", "http://localhost:9090")
	c.DefaultDifficulty = getenv("QUIPSET_DIFFICULTY", "normal")
	c.RedisAddr = os.Getenv("QUIPSET_REDIS_ADDR")
	c.JournalQueue = getenv("QUIPSET_JOURNAL_QUEUE", "quipset_events")
	c.PermissiveStart = getenv("QUIPSET_PERMISSIVE_START", "false") == "true"
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
