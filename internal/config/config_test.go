package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Run("Full config", func(t *testing.T) {
		path := writeConfig(t, `{
			"database": {"driver": "postgres", "dsn": "postgres://localhost/app"},
			"llm": {"base_url": "http://localhost:11434", "model": "llama3", "timeout_seconds": 20},
			"security": {"mode": "permissive"},
			"limits": {"max_rows": 50, "schema_ttl_seconds": 300},
			"domain_context": "popular means rating >= 8.0"
		}`)

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)
		require.Equal(t, "postgres", cfg.Database.Driver)
		require.Equal(t, "permissive", cfg.Security.Mode)
		require.Equal(t, 50, cfg.Limits.MaxRows)
		require.Equal(t, 5*time.Minute, cfg.SchemaTTL())
		require.Equal(t, 20*time.Second, cfg.LLMTimeout())
		require.Equal(t, "popular means rating >= 8.0", cfg.DomainContext)
	})

	t.Run("Defaults applied", func(t *testing.T) {
		path := writeConfig(t, `{
			"database": {"driver": "sqlite", "dsn": "app.db"},
			"llm": {"base_url": "http://localhost:11434"}
		}`)

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)
		require.Equal(t, 1000, cfg.Limits.MaxRows)
		require.Equal(t, 12000, cfg.Limits.PromptBudgetChars)
		require.Equal(t, 30*time.Second, cfg.QueryTimeout())
		require.Equal(t, 3, cfg.Limits.SampleRows)
		require.Zero(t, cfg.SchemaTTL())
	})

	t.Run("Env overrides file", func(t *testing.T) {
		t.Setenv("LLM_API_KEY", "sk-env")
		t.Setenv("DATABASE_URL", "postgres://env/db")
		path := writeConfig(t, `{
			"database": {"driver": "postgres", "dsn": "postgres://file/db"},
			"llm": {"base_url": "http://localhost:11434", "api_key": "sk-file"}
		}`)

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)
		require.Equal(t, "sk-env", cfg.LLM.APIKey)
		require.Equal(t, "postgres://env/db", cfg.Database.DSN)
	})

	t.Run("Missing required fields", func(t *testing.T) {
		for name, body := range map[string]string{
			"driver":   `{"database": {"dsn": "x"}, "llm": {"base_url": "x"}}`,
			"dsn":      `{"database": {"driver": "sqlite"}, "llm": {"base_url": "x"}}`,
			"base_url": `{"database": {"driver": "sqlite", "dsn": "x"}, "llm": {}}`,
		} {
			t.Run(name, func(t *testing.T) {
				_, err := LoadFromFile(writeConfig(t, body))
				require.ErrorContains(t, err, "required")
			})
		}
	})

	t.Run("Unreadable file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
		require.ErrorContains(t, err, "failed to read config file")
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		_, err := LoadFromFile(writeConfig(t, "{not json"))
		require.ErrorContains(t, err, "failed to parse config file")
	})
}
