package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "input-csv", cfg.Paths.InputDir)
	assert.Equal(t, "input-csv/processed", cfg.Paths.OutputDir)
	assert.Equal(t, "Motivos de ter parado de frequentar escola (%)", cfg.Input.Anchor)
	assert.Equal(t, "auto", cfg.Input.Encoding)
	assert.Equal(t, ',', cfg.Delimiter())
	assert.Equal(t, 4, cfg.Processing.Workers)
	assert.False(t, cfg.Processing.Marginals)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 8080, cfg.Server.Port)

	assert.Equal(t, filepath.Join("input-csv", "tabelas-motivos"), cfg.InputPath(cfg.Paths.MotivesDir))
	assert.Equal(t, "/abs/x.csv", cfg.InputPath("/abs/x.csv"))
	assert.Equal(t, filepath.Join("input-csv/processed", "a.csv"), cfg.OutputPath("a.csv"))
}

func TestLoad_EnvAndFile(t *testing.T) {
	t.Setenv("EDUCENSO_PROCESSING_WORKERS", "2")
	t.Setenv("EDUCENSO_INPUT_DELIMITER", ";")
	t.Setenv("EDUCENSO_LOGGING_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "educenso.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
paths:
  input_dir: dados
  sqlite: dados/educenso.db
logging:
  level: warn
processing:
  marginals: true
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Processing.Workers)
	assert.True(t, cfg.Processing.Marginals)
	assert.Equal(t, ';', cfg.Delimiter())
	assert.Equal(t, "dados", cfg.Paths.InputDir)
	assert.Equal(t, "dados/educenso.db", cfg.Paths.SQLite)
	assert.Equal(t, "warn", cfg.Logging.Level, "the file overlays the environment")
	assert.Equal(t, "input-csv/processed", cfg.Paths.OutputDir)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paths: [unterminated"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty anchor", func(c *Config) { c.Input.Anchor = " " }},
		{"unknown encoding", func(c *Config) { c.Input.Encoding = "ebcdic" }},
		{"long delimiter", func(c *Config) { c.Input.Delimiter = ";;" }},
		{"no workers", func(c *Config) { c.Processing.Workers = 0 }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"no input dir", func(c *Config) { c.Paths.InputDir = "" }},
		{"no output dir", func(c *Config) { c.Paths.OutputDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, valid().Validate())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("EDUCENSO_SERVER_PORT=9090\n"), 0644))

	t.Setenv("EDUCENSO_SERVER_PORT", "")
	os.Unsetenv("EDUCENSO_SERVER_PORT")

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "9090", os.Getenv("EDUCENSO_SERVER_PORT"))
	require.NoError(t, loadDotEnv(filepath.Join(dir, "missing.env")))
}
