package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("Full File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "espalier.yaml")
		content := `
model: codellama
ollama_url: http://ollama.internal:11434
history_dir: /var/lib/espalier
start_node: intake
max_retries: 5
retry_delay: 2s
redis:
  address: localhost:6379
  db: 2
  ttl: 24h
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "codellama", cfg.Model)
		assert.Equal(t, "http://ollama.internal:11434", cfg.OllamaURL)
		assert.Equal(t, "/var/lib/espalier", cfg.HistoryDir)
		assert.Equal(t, "intake", cfg.StartNode)
		assert.Equal(t, 5, cfg.MaxRetries)
		assert.Equal(t, 2*time.Second, cfg.RetryDelay)
		assert.Equal(t, "localhost:6379", cfg.Redis.Address)
		assert.Equal(t, 2, cfg.Redis.DB)
		assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	})

	t.Run("Partial File Keeps Defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "espalier.yaml")
		require.NoError(t, os.WriteFile(path, []byte("model: llama3\n"), 0644))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "llama3", cfg.Model)
		assert.Equal(t, "conversation_history", cfg.HistoryDir)
	})

	t.Run("Missing Default Path Is Fine", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		cfg, err := config.Load(config.DefaultPath)
		require.NoError(t, err)
		assert.Equal(t, config.Default(), cfg)
	})

	t.Run("Missing Explicit Path Errors", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("Malformed YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "espalier.yaml")
		require.NoError(t, os.WriteFile(path, []byte("model: [unclosed"), 0644))

		_, err := config.Load(path)
		assert.Error(t, err)
	})
}
