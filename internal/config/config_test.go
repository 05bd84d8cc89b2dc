package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Default Configuration Tests
// =============================================================================

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "stdio", cfg.Transport)
	assert.Contains(t, cfg.DocumentExtensions, ".md")
	assert.Contains(t, cfg.DocumentExtensions, ".txt")
	assert.Equal(t, int64(10*1024*1024), cfg.MaxDocumentBytes)
	assert.Equal(t, 20, cfg.MaxSearchResults)
	assert.Equal(t, 300, cfg.QueryCacheTTLSeconds)
	assert.True(t, cfg.WatchEnabled)
	assert.Equal(t, 500, cfg.WatchDebounceMS)
	assert.Equal(t, 1000, cfg.WatchBatchMS)
	assert.Equal(t, 30, cfg.ToolTimeoutSeconds)
	assert.Equal(t, 5, cfg.ShutdownDeadlineSeconds)
	assert.Equal(t, "INFO", cfg.LogLevel)
}

func TestConfig_VersionDefaultsToOne(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 1, cfg.Version)
}

// =============================================================================
// Configuration File Loading Tests
// =============================================================================

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "stdio", cfg.Transport)
}

func TestLoad_YamlFile_OverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `
version: 1
max_search_results: 50
query_cache_ttl_seconds: 600
watch_debounce_ms: 250
`
	err := os.WriteFile(filepath.Join(tmpDir, ".mydocsmcp.yaml"), []byte(configContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 50, cfg.MaxSearchResults)
	assert.Equal(t, 600, cfg.QueryCacheTTLSeconds)
	assert.Equal(t, 250, cfg.WatchDebounceMS)
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `
version: 1
log_level: DEBUG
`
	err := os.WriteFile(filepath.Join(tmpDir, ".mydocsmcp.yml"), []byte(configContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	tmpDir := t.TempDir()
	yamlContent := "version: 1\nlog_level: WARNING\n"
	ymlContent := "version: 1\nlog_level: ERROR\n"
	err := os.WriteFile(filepath.Join(tmpDir, ".mydocsmcp.yaml"), []byte(yamlContent), 0o644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(tmpDir, ".mydocsmcp.yml"), []byte(ymlContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "WARNING", cfg.LogLevel)
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	invalidContent := "version: 1\nmax_search_results: [invalid yaml syntax\n"
	err := os.WriteFile(filepath.Join(tmpDir, ".mydocsmcp.yaml"), []byte(invalidContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoad_InvalidFieldType_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	invalidContent := `
version: 1
max_search_results: "not-a-number"
`
	err := os.WriteFile(filepath.Join(tmpDir, ".mydocsmcp.yaml"), []byte(invalidContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_MaxSearchResultsAboveHardCap_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := "version: 1\nmax_search_results: 500\n"
	err := os.WriteFile(filepath.Join(tmpDir, ".mydocsmcp.yaml"), []byte(configContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "hard cap")
}

// =============================================================================
// Project Root Discovery Tests
// =============================================================================

func TestFindProjectRoot_GitDirectory_ReturnsGitRoot(t *testing.T) {
	tmpDir := t.TempDir()
	gitDir := filepath.Join(tmpDir, ".git")
	nestedDir := filepath.Join(tmpDir, "src", "internal")
	require.NoError(t, os.Mkdir(gitDir, 0o755))
	require.NoError(t, os.MkdirAll(nestedDir, 0o755))

	root, err := FindProjectRoot(nestedDir)

	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)
}

func TestFindProjectRoot_ConfigFile_ReturnsConfigLocation(t *testing.T) {
	tmpDir := t.TempDir()
	nestedDir := filepath.Join(tmpDir, "src", "internal")
	require.NoError(t, os.MkdirAll(nestedDir, 0o755))
	err := os.WriteFile(filepath.Join(tmpDir, ".mydocsmcp.yaml"), []byte("version: 1"), 0o644)
	require.NoError(t, err)

	root, err := FindProjectRoot(nestedDir)

	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)
}

func TestFindProjectRoot_NoMarkers_ReturnsCurrentDir(t *testing.T) {
	tmpDir := t.TempDir()

	root, err := FindProjectRoot(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)
}

// =============================================================================
// Environment Variable Override Tests
// =============================================================================

func TestLoad_EnvVarOverridesLogLevel(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("MYDOCSMCP_LOG_LEVEL", "DEBUG")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestLoad_EnvVarOverridesMaxSearchResults(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := "version: 1\nmax_search_results: 40\n"
	err := os.WriteFile(filepath.Join(tmpDir, ".mydocsmcp.yaml"), []byte(configContent), 0o644)
	require.NoError(t, err)
	t.Setenv("MYDOCSMCP_MAX_SEARCH_RESULTS", "10")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxSearchResults)
}

func TestLoad_EnvVarOverridesDocumentExtensions(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("MYDOCSMCP_DOCUMENT_EXTENSIONS", ".md,.rst")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, []string{".md", ".rst"}, cfg.DocumentExtensions)
}

func TestLoad_EnvVarOverridesWatchEnabled(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("MYDOCSMCP_WATCH_ENABLED", "false")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.False(t, cfg.WatchEnabled)
}

func TestLoad_EnvVarEmptyString_DoesNotOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("MYDOCSMCP_DATABASE_PATH", "")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, defaultDatabasePath(), cfg.DatabasePath)
}

// =============================================================================
// User/Global Configuration Tests
// =============================================================================

func TestGetUserConfigPath_DefaultsToXDGLocation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	path := GetUserConfigPath()

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	expected := filepath.Join(home, ".config", "mydocsmcp", "config.yaml")
	assert.Equal(t, expected, path)
}

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	customConfig := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", customConfig)

	path := GetUserConfigPath()

	expected := filepath.Join(customConfig, "mydocsmcp", "config.yaml")
	assert.Equal(t, expected, path)
}

func TestGetUserConfigDir_ReturnsParentOfConfigPath(t *testing.T) {
	dir := GetUserConfigDir()
	path := GetUserConfigPath()

	assert.Equal(t, filepath.Dir(path), dir)
}

func TestUserConfigExists_ReturnsFalseWhenMissing(t *testing.T) {
	emptyDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", emptyDir)

	exists := UserConfigExists()

	assert.False(t, exists)
}

func TestUserConfigExists_ReturnsTrueWhenPresent(t *testing.T) {
	configDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)
	mydocsmcpDir := filepath.Join(configDir, "mydocsmcp")
	require.NoError(t, os.MkdirAll(mydocsmcpDir, 0o755))
	configPath := filepath.Join(mydocsmcpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("version: 1"), 0o644))

	exists := UserConfigExists()

	assert.True(t, exists)
}

func TestLoad_UserConfigOverridesDefaults(t *testing.T) {
	configDir := t.TempDir()
	projectDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)

	mydocsmcpDir := filepath.Join(configDir, "mydocsmcp")
	require.NoError(t, os.MkdirAll(mydocsmcpDir, 0o755))
	userConfig := "version: 1\nlog_level: WARNING\n"
	require.NoError(t, os.WriteFile(filepath.Join(mydocsmcpDir, "config.yaml"), []byte(userConfig), 0o644))

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, "WARNING", cfg.LogLevel)
}

func TestLoad_ProjectConfigOverridesUserConfig(t *testing.T) {
	configDir := t.TempDir()
	projectDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)

	mydocsmcpDir := filepath.Join(configDir, "mydocsmcp")
	require.NoError(t, os.MkdirAll(mydocsmcpDir, 0o755))
	userConfig := "version: 1\nlog_level: WARNING\nmax_search_results: 15\n"
	require.NoError(t, os.WriteFile(filepath.Join(mydocsmcpDir, "config.yaml"), []byte(userConfig), 0o644))

	projectConfig := "version: 1\nlog_level: ERROR\n"
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".mydocsmcp.yaml"), []byte(projectConfig), 0o644))

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.LogLevel)
	assert.Equal(t, 15, cfg.MaxSearchResults)
}

func TestLoad_EnvVarOverridesUserAndProjectConfig(t *testing.T) {
	configDir := t.TempDir()
	projectDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)
	t.Setenv("MYDOCSMCP_LOG_LEVEL", "ERROR")

	mydocsmcpDir := filepath.Join(configDir, "mydocsmcp")
	require.NoError(t, os.MkdirAll(mydocsmcpDir, 0o755))
	userConfig := "version: 1\nlog_level: WARNING\n"
	require.NoError(t, os.WriteFile(filepath.Join(mydocsmcpDir, "config.yaml"), []byte(userConfig), 0o644))

	projectConfig := "version: 1\nlog_level: DEBUG\n"
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".mydocsmcp.yaml"), []byte(projectConfig), 0o644))

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.LogLevel)
}

func TestLoad_InvalidUserConfig_ReturnsError(t *testing.T) {
	configDir := t.TempDir()
	projectDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)

	mydocsmcpDir := filepath.Join(configDir, "mydocsmcp")
	require.NoError(t, os.MkdirAll(mydocsmcpDir, 0o755))
	invalidConfig := "version: 1\nlog_level: [invalid yaml\n"
	require.NoError(t, os.WriteFile(filepath.Join(mydocsmcpDir, "config.yaml"), []byte(invalidConfig), 0o644))

	cfg, err := Load(projectDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "user config")
}
