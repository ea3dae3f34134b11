// Package config loads educenso settings from defaults, the environment
// (prefix EDUCENSO, optionally from a .env file) and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable, e.g. EDUCENSO_INPUT_ANCHOR.
const EnvPrefix = "EDUCENSO"

// DefaultFile is the YAML file read when Load is given no path.
const DefaultFile = "educenso.yaml"

// Config is the full configuration.
type Config struct {
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Input      InputConfig      `yaml:"input" envconfig:"INPUT"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
}

// PathsConfig locates inputs and outputs. Relative input names are taken
// from InputDir.
type PathsConfig struct {
	InputDir              string `yaml:"input_dir" envconfig:"INPUT_DIR" default:"input-csv"`
	OutputDir             string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"input-csv/processed"`
	MotivesDir            string `yaml:"motives_dir" envconfig:"MOTIVES_DIR" default:"tabelas-motivos"`
	MotivesFallback       string `yaml:"motives_fallback" envconfig:"MOTIVES_FALLBACK" default:"Tabela 4.17 (SemEnsinoMedioMotivParar_BR).csv"`
	AnalfabetismoDir      string `yaml:"analfabetismo_dir" envconfig:"ANALFABETISMO_DIR" default:"tabelas-analfabetismo"`
	AnalfabetismoFallback string `yaml:"analfabetismo_fallback" envconfig:"ANALFABETISMO_FALLBACK" default:"Tabela 4.13 (TaxaAnalf_Geo).csv"`
	RendimentoFile        string `yaml:"rendimento_file" envconfig:"RENDIMENTO_FILE" default:"tx_rend_brasil_regioes_ufs_2024.csv"`
	DistorcaoFile         string `yaml:"distorcao_file" envconfig:"DISTORCAO_FILE" default:"TDI_BRASIL_REGIOES_UFS_2024.csv"`
	SQLite                string `yaml:"sqlite" envconfig:"SQLITE"`
}

// InputConfig controls how source tables are read.
type InputConfig struct {
	Anchor    string `yaml:"anchor" envconfig:"ANCHOR" default:"Motivos de ter parado de frequentar escola (%)"`
	Encoding  string `yaml:"encoding" envconfig:"ENCODING" default:"auto"`
	Delimiter string `yaml:"delimiter" envconfig:"DELIMITER" default:","`
}

// ProcessingConfig controls the batch.
type ProcessingConfig struct {
	Workers   int  `yaml:"workers" envconfig:"WORKERS" default:"4"`
	Marginals bool `yaml:"marginals" envconfig:"MARGINALS" default:"false"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"text"`
}

// ServerConfig controls the web dashboard.
type ServerConfig struct {
	Port int `yaml:"port" envconfig:"PORT" default:"8080"`
}

// Load builds the configuration. Variables from a .env file in the working
// directory are added to the environment (without overriding it), the
// environment is read, and the YAML file at path, if any, overlays it. An
// empty path means DefaultFile when it exists. The result is validated.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func loadDotEnv(name string) error {
	if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(name); err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	return nil
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	if c.Paths.InputDir == "" {
		return errors.New("paths.input_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Input.Anchor) == "" {
		return errors.New("input.anchor must be set")
	}
	switch strings.ToLower(c.Input.Encoding) {
	case "auto", "utf-8", "utf8", "latin1", "iso-8859-1", "windows-1252", "cp1252":
	default:
		return fmt.Errorf("unknown input encoding %q", c.Input.Encoding)
	}
	if utf8.RuneCountInString(c.Input.Delimiter) != 1 {
		return fmt.Errorf("input delimiter must be a single character, got %q", c.Input.Delimiter)
	}
	if c.Processing.Workers < 1 {
		return fmt.Errorf("processing.workers must be at least 1, got %d", c.Processing.Workers)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	return nil
}

// Delimiter returns the configured CSV delimiter as a rune.
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Input.Delimiter)
	return r
}

// InputPath resolves name against InputDir unless it is absolute.
func (c *Config) InputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Paths.InputDir, name)
}

// OutputPath resolves name against OutputDir.
func (c *Config) OutputPath(name string) string {
	return filepath.Join(c.Paths.OutputDir, name)
}
