package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete mydocsmcp configuration.
// It mirrors the schema defined in spec.md Section 6.
type Config struct {
	Version int `yaml:"version" json:"version"`

	// Transport is the MCP transport. Only "stdio" is supported.
	Transport string `yaml:"transport" json:"transport"`

	// DocumentRoot is the base directory for resolving relative file_path
	// arguments and for the filesystem watcher.
	DocumentRoot string `yaml:"document_root" json:"document_root"`

	// DocumentExtensions whitelists which file extensions are eligible
	// for indexing and watching.
	DocumentExtensions []string `yaml:"document_extensions" json:"document_extensions"`

	// DatabasePath is the embedded store location.
	DatabasePath string `yaml:"database_path" json:"database_path"`

	// MaxDocumentBytes caps the size of a document accepted by indexDocument.
	MaxDocumentBytes int64 `yaml:"max_document_bytes" json:"max_document_bytes"`

	// MaxSearchResults caps the number of results searchDocuments returns.
	// Hard cap is 100 regardless of configuration.
	MaxSearchResults int `yaml:"max_search_results" json:"max_search_results"`

	// QueryCacheTTLSeconds is how long a cached search result stays valid.
	QueryCacheTTLSeconds int `yaml:"query_cache_ttl_seconds" json:"query_cache_ttl_seconds"`

	// WatchEnabled toggles the filesystem watcher (C5).
	WatchEnabled bool `yaml:"watch_enabled" json:"watch_enabled"`

	// WatchDebounceMS is the per-file debounce window before an event fires.
	WatchDebounceMS int `yaml:"watch_debounce_ms" json:"watch_debounce_ms"`

	// WatchBatchMS is loaded and validated, but the server does not pass it
	// to the watcher: batches flush on the debounce window alone.
	WatchBatchMS int `yaml:"watch_batch_ms" json:"watch_batch_ms"`

	// ToolTimeoutSeconds bounds a single tool invocation.
	ToolTimeoutSeconds int `yaml:"tool_timeout_seconds" json:"tool_timeout_seconds"`

	// ShutdownDeadlineSeconds bounds graceful shutdown before a forced exit.
	ShutdownDeadlineSeconds int `yaml:"shutdown_deadline_seconds" json:"shutdown_deadline_seconds"`

	// LogLevel is one of DEBUG, INFO, WARNING, ERROR.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// defaultDocumentExtensions are the extensions indexed out of the box.
var defaultDocumentExtensions = []string{".md", ".markdown", ".txt"}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version:                 1,
		Transport:               "stdio",
		DocumentRoot:            defaultDocumentRoot(),
		DocumentExtensions:      append([]string{}, defaultDocumentExtensions...),
		DatabasePath:            defaultDatabasePath(),
		MaxDocumentBytes:        10 * 1024 * 1024,
		MaxSearchResults:        20,
		QueryCacheTTLSeconds:    300,
		WatchEnabled:            true,
		WatchDebounceMS:         500,
		WatchBatchMS:            1000,
		ToolTimeoutSeconds:      30,
		ShutdownDeadlineSeconds: 5,
		LogLevel:                "INFO",
	}
}

// defaultDocumentRoot returns the current working directory, falling back
// to "." if it can't be determined.
func defaultDocumentRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}

// defaultDatabasePath returns the default embedded store location
// (~/.mydocsmcp/store.db).
func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".mydocsmcp", "store.db")
	}
	return filepath.Join(home, ".mydocsmcp", "store.db")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/mydocsmcp/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/mydocsmcp/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mydocsmcp", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "mydocsmcp", "config.yaml")
	}
	return filepath.Join(home, ".config", "mydocsmcp", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist (that's OK).
func loadUserConfig() (*Config, error) {
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

// Load loads configuration from the specified directory, applying
// configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/mydocsmcp/config.yaml)
//  3. Project config (.mydocsmcp.yaml in dir)
//  4. Environment variables (MYDOCSMCP_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .mydocsmcp.yaml or .mydocsmcp.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".mydocsmcp.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".mydocsmcp.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	return nil
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
	if other.Transport != "" {
		c.Transport = other.Transport
	}
	if other.DocumentRoot != "" {
		c.DocumentRoot = other.DocumentRoot
	}
	if len(other.DocumentExtensions) > 0 {
		c.DocumentExtensions = other.DocumentExtensions
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.MaxDocumentBytes != 0 {
		c.MaxDocumentBytes = other.MaxDocumentBytes
	}
	if other.MaxSearchResults != 0 {
		c.MaxSearchResults = other.MaxSearchResults
	}
	if other.QueryCacheTTLSeconds != 0 {
		c.QueryCacheTTLSeconds = other.QueryCacheTTLSeconds
	}
	if other.WatchDebounceMS != 0 {
		c.WatchDebounceMS = other.WatchDebounceMS
	}
	if other.WatchBatchMS != 0 {
		c.WatchBatchMS = other.WatchBatchMS
	}
	if other.ToolTimeoutSeconds != 0 {
		c.ToolTimeoutSeconds = other.ToolTimeoutSeconds
	}
	if other.ShutdownDeadlineSeconds != 0 {
		c.ShutdownDeadlineSeconds = other.ShutdownDeadlineSeconds
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

// applyEnvOverrides applies MYDOCSMCP_* environment variable overrides,
// the highest-precedence configuration layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MYDOCSMCP_TRANSPORT"); v != "" {
		c.Transport = v
	}
	if v := os.Getenv("MYDOCSMCP_DOCUMENT_ROOT"); v != "" {
		c.DocumentRoot = v
	}
	if v := os.Getenv("MYDOCSMCP_DOCUMENT_EXTENSIONS"); v != "" {
		c.DocumentExtensions = strings.Split(v, ",")
	}
	if v := os.Getenv("MYDOCSMCP_DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("MYDOCSMCP_MAX_DOCUMENT_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.MaxDocumentBytes = n
		}
	}
	if v := os.Getenv("MYDOCSMCP_MAX_SEARCH_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxSearchResults = n
		}
	}
	if v := os.Getenv("MYDOCSMCP_QUERY_CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.QueryCacheTTLSeconds = n
		}
	}
	if v := os.Getenv("MYDOCSMCP_WATCH_ENABLED"); v != "" {
		c.WatchEnabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("MYDOCSMCP_WATCH_DEBOUNCE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.WatchDebounceMS = n
		}
	}
	if v := os.Getenv("MYDOCSMCP_WATCH_BATCH_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.WatchBatchMS = n
		}
	}
	if v := os.Getenv("MYDOCSMCP_TOOL_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ToolTimeoutSeconds = n
		}
	}
	if v := os.Getenv("MYDOCSMCP_SHUTDOWN_DEADLINE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ShutdownDeadlineSeconds = n
		}
	}
	if v := os.Getenv("MYDOCSMCP_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// FindProjectRoot finds the project root directory by walking up from
// startDir looking for .git or a .mydocsmcp.yaml/.yml file.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(filepath.Join(currentDir, ".mydocsmcp.yaml")) ||
			fileExists(filepath.Join(currentDir, ".mydocsmcp.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if strings.ToLower(c.Transport) != "stdio" {
		return fmt.Errorf("transport must be 'stdio', got %s", c.Transport)
	}

	if c.MaxDocumentBytes <= 0 {
		return fmt.Errorf("max_document_bytes must be positive, got %d", c.MaxDocumentBytes)
	}
	if c.MaxSearchResults <= 0 {
		return fmt.Errorf("max_search_results must be positive, got %d", c.MaxSearchResults)
	}
	if c.MaxSearchResults > 100 {
		return fmt.Errorf("max_search_results must not exceed the hard cap of 100, got %d", c.MaxSearchResults)
	}
	if c.QueryCacheTTLSeconds < 0 {
		return fmt.Errorf("query_cache_ttl_seconds must be non-negative, got %d", c.QueryCacheTTLSeconds)
	}
	if c.WatchDebounceMS < 0 {
		return fmt.Errorf("watch_debounce_ms must be non-negative, got %d", c.WatchDebounceMS)
	}
	if c.WatchBatchMS < 0 {
		return fmt.Errorf("watch_batch_ms must be non-negative, got %d", c.WatchBatchMS)
	}
	if c.ToolTimeoutSeconds <= 0 {
		return fmt.Errorf("tool_timeout_seconds must be positive, got %d", c.ToolTimeoutSeconds)
	}
	if c.ShutdownDeadlineSeconds <= 0 {
		return fmt.Errorf("shutdown_deadline_seconds must be positive, got %d", c.ShutdownDeadlineSeconds)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log_level must be 'DEBUG', 'INFO', 'WARNING', or 'ERROR', got %s", c.LogLevel)
	}
	if len(c.DocumentExtensions) == 0 {
		return fmt.Errorf("document_extensions must not be empty")
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

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}
