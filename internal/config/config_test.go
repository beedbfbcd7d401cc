package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.HTTP.Port)
	assert.Equal(t, "localhost", cfg.Qdrant.Host)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, 20, cfg.OpenAI.BatchSize)
	assert.Equal(t, 20, cfg.Crawl.MaxPages)
	assert.Equal(t, "/support/solutions", cfg.Crawl.PathPrefix)
	assert.Equal(t, `/solutions/articles/\d+`, cfg.Crawl.ArticlePattern)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faqbot.yaml")
	body := `
http:
  port: 9090
qdrant:
  host: qdrant.internal
  port: 7000
crawl:
  max_pages: 50
  path_prefix: /help/articles
tenant:
  default_team_id: "42"
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "qdrant.internal", cfg.Qdrant.Host)
	assert.Equal(t, 7000, cfg.Qdrant.Port)
	assert.Equal(t, 50, cfg.Crawl.MaxPages)
	assert.Equal(t, "/help/articles", cfg.Crawl.PathPrefix)
	assert.Equal(t, "42", cfg.Tenant.DefaultTeamID)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faqbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  port: 9090\n"), 0o644))

	t.Setenv("PORT", "3001")
	t.Setenv("QDRANT_HOST", "qdrant.env")
	t.Setenv("DEFAULT_TEAM_ID", "acme")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.HTTP.Port)
	assert.Equal(t, "qdrant.env", cfg.Qdrant.Host)
	assert.Equal(t, "acme", cfg.Tenant.DefaultTeamID)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faqbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_BadLevel(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	cfg.Logging.Level = "verbose"

	assert.Error(t, cfg.Validate())
}

func TestValidate_BadPort(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	cfg.HTTP.Port = 70000

	assert.Error(t, cfg.Validate())
}
