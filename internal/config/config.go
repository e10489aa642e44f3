package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectFileName is the per-directory configuration file.
const ProjectFileName = ".cranir.yaml"

// Backend names accepted by index.backend.
const (
	BackendBleve  = "bleve"
	BackendSQLite = "sqlite"
)

// Config represents the complete cranir configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// IndexConfig configures index construction.
type IndexConfig struct {
	// Backend selects the full-text engine: "bleve" (default) or "sqlite".
	Backend string `yaml:"backend" json:"backend"`

	// Models lists the scoring models materialized at index time.
	// bm25 is always built. Only the bleve backend can add classic.
	Models []string `yaml:"models" json:"models"`

	// Analyzer is the bleve text analyzer ("en" or "standard").
	Analyzer string `yaml:"analyzer" json:"analyzer"`

	// BatchSize is the number of documents per engine batch or transaction.
	BatchSize int `yaml:"batch_size" json:"batch_size"`
}

// SearchConfig configures the query pipeline.
type SearchConfig struct {
	// Model is the ranking model requested at query time.
	// Unknown names fall back to bm25 with a warning rather than failing here.
	Model string `yaml:"model" json:"model"`

	// MaxHits is the number of hits requested per query.
	MaxHits int `yaml:"max_hits" json:"max_hits"`

	// Fields are the index fields every query term is matched against.
	Fields []string `yaml:"fields" json:"fields"`

	// RunTagPrefix prefixes the run tag; empty means the backend name.
	RunTagPrefix string `yaml:"run_tag_prefix" json:"run_tag_prefix"`

	// RenumberQueries replaces query ids with their 1-based position.
	RenumberQueries bool `yaml:"renumber_queries" json:"renumber_queries"`

	// ScorePrecision is the number of fractional digits in run-file scores.
	ScorePrecision int `yaml:"score_precision" json:"score_precision"`

	// CacheSize bounds the stored-field lookup cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// LoggingConfig configures diagnostics.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	File      string `yaml:"file" json:"file"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	// Textfile is written at exit when set.
	Textfile string `yaml:"textfile" json:"textfile"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Index: IndexConfig{
			Backend:   BackendBleve,
			Models:    []string{"classic", "bm25"},
			Analyzer:  "en",
			BatchSize: 100,
		},
		Search: SearchConfig{
			Model:          "bm25",
			MaxHits:        1000,
			Fields:         []string{"content"},
			ScorePrecision: 4,
			CacheSize:      4096,
		},
		Logging: LoggingConfig{
			Level:     "warn",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/cranir/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/cranir/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cranir", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "cranir", "config.yaml")
	}
	return filepath.Join(home, ".config", "cranir", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// Load builds the effective configuration. Precedence, lowest first:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/cranir/config.yaml)
//  3. Project config: explicit when non-empty, else .cranir.yaml in dir
//  4. Environment variables (CRANIR_*)
//
// Command-line flags are applied on top by the caller.
func Load(dir, explicit string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := LoadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if explicit != "" {
		if !fileExists(explicit) {
			return nil, fmt.Errorf("config file not found: %s", explicit)
		}
		if err := cfg.loadYAML(explicit); err != nil {
			return nil, err
		}
	} else if path := ProjectConfigPath(dir); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ProjectConfigPath returns the project config file in dir, or "" if none.
func ProjectConfigPath(dir string) string {
	for _, name := range []string{ProjectFileName, ".cranir.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Index.Backend != "" {
		c.Index.Backend = other.Index.Backend
	}
	if len(other.Index.Models) > 0 {
		c.Index.Models = other.Index.Models
	}
	if other.Index.Analyzer != "" {
		c.Index.Analyzer = other.Index.Analyzer
	}
	if other.Index.BatchSize != 0 {
		c.Index.BatchSize = other.Index.BatchSize
	}

	if other.Search.Model != "" {
		c.Search.Model = other.Search.Model
	}
	if other.Search.MaxHits != 0 {
		c.Search.MaxHits = other.Search.MaxHits
	}
	if len(other.Search.Fields) > 0 {
		c.Search.Fields = other.Search.Fields
	}
	if other.Search.RunTagPrefix != "" {
		c.Search.RunTagPrefix = other.Search.RunTagPrefix
	}
	if other.Search.RenumberQueries {
		c.Search.RenumberQueries = true
	}
	if other.Search.ScorePrecision != 0 {
		c.Search.ScorePrecision = other.Search.ScorePrecision
	}
	if other.Search.CacheSize != 0 {
		c.Search.CacheSize = other.Search.CacheSize
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}

	if other.Metrics.Textfile != "" {
		c.Metrics.Textfile = other.Metrics.Textfile
	}
}

// applyEnvOverrides applies CRANIR_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CRANIR_BACKEND"); v != "" {
		c.Index.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("CRANIR_MODELS"); v != "" {
		c.Index.Models = splitList(v)
	}
	if v := os.Getenv("CRANIR_MODEL"); v != "" {
		c.Search.Model = v
	}
	if v := os.Getenv("CRANIR_MAX_HITS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.MaxHits = n
		}
	}
	if v := os.Getenv("CRANIR_FIELDS"); v != "" {
		c.Search.Fields = splitList(v)
	}
	if v := os.Getenv("CRANIR_RENUMBER_QUERIES"); v != "" {
		c.Search.RenumberQueries = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("CRANIR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CRANIR_METRICS_FILE"); v != "" {
		c.Metrics.Textfile = v
	}
}

// Validate validates the configuration and returns an error if invalid.
// The search model is not checked: an unknown model degrades to bm25 at
// query time.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Index.Backend) {
	case BackendBleve, BackendSQLite:
	default:
		return fmt.Errorf("index.backend must be 'bleve' or 'sqlite', got %s", c.Index.Backend)
	}

	switch c.Index.Analyzer {
	case "en", "standard":
	default:
		return fmt.Errorf("index.analyzer must be 'en' or 'standard', got %s", c.Index.Analyzer)
	}

	if c.Index.BatchSize <= 0 {
		return fmt.Errorf("index.batch_size must be positive, got %d", c.Index.BatchSize)
	}
	if c.Search.MaxHits <= 0 {
		return fmt.Errorf("search.max_hits must be positive, got %d", c.Search.MaxHits)
	}
	if len(c.Search.Fields) == 0 {
		return fmt.Errorf("search.fields must name at least one field")
	}
	if c.Search.ScorePrecision < 1 || c.Search.ScorePrecision > 12 {
		return fmt.Errorf("search.score_precision must be between 1 and 12, got %d", c.Search.ScorePrecision)
	}
	if c.Search.CacheSize <= 0 {
		return fmt.Errorf("search.cache_size must be positive, got %d", c.Search.CacheSize)
	}
	if strings.ContainsAny(c.Search.RunTagPrefix, " \t\n") {
		return fmt.Errorf("search.run_tag_prefix must not contain whitespace, got %q", c.Search.RunTagPrefix)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB <= 0 || c.Logging.MaxFiles <= 0 {
		return fmt.Errorf("logging.max_size_mb and logging.max_files must be positive")
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// JSON renders the configuration as indented JSON.
func (c *Config) JSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
