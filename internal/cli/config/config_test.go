package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import source packages to ensure sources are registered via init()
	_ "github.com/leapstack-labs/metabrowse/pkg/sources/duckdb"
	_ "github.com/leapstack-labs/metabrowse/pkg/sources/postgres"
)

// TestTargetConfig_Validate tests the Validate method of TargetConfig.
func TestTargetConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		target    TargetConfig
		wantErr   bool
		errSubstr string
	}{
		{
			name:      "empty type",
			target:    TargetConfig{Type: ""},
			wantErr:   true,
			errSubstr: "target type is required",
		},
		{
			name:    "valid duckdb",
			target:  TargetConfig{Type: "duckdb"},
			wantErr: false,
		},
		{
			name:    "valid duckdb uppercase",
			target:  TargetConfig{Type: "DuckDB"},
			wantErr: false,
		},
		{
			name:    "valid postgres",
			target:  TargetConfig{Type: "postgres"},
			wantErr: false,
		},
		{
			name:      "unknown type mysql",
			target:    TargetConfig{Type: "mysql"},
			wantErr:   true,
			errSubstr: "unknown source type",
		},
		{
			name:      "unknown type oracle",
			target:    TargetConfig{Type: "oracle"},
			wantErr:   true,
			errSubstr: "unknown source type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if tt.wantErr {
				require.Error(t, err, "expected error but got nil")
				if tt.errSubstr != "" {
					assert.Contains(t, err.Error(), tt.errSubstr)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestTargetConfig_Validate_ErrorContainsAvailable verifies that validation
// errors include the list of available sources.
func TestTargetConfig_Validate_ErrorContainsAvailable(t *testing.T) {
	target := TargetConfig{Type: "invalid_db"}
	err := target.Validate()
	require.Error(t, err, "expected error for invalid type")

	errStr := err.Error()
	assert.Contains(t, errStr, "duckdb", "error should list available sources")
	assert.Contains(t, errStr, "metabrowse.yaml", "error should mention config file")
}

func TestTargetConfig_DefaultSchema(t *testing.T) {
	tests := []struct {
		name     string
		target   TargetConfig
		expected string
	}{
		{"explicit schema wins", TargetConfig{Type: "postgres", Schema: "custom"}, "custom"},
		{"duckdb defaults to main", TargetConfig{Type: "duckdb"}, "main"},
		{"postgres defaults to public", TargetConfig{Type: "postgres"}, "public"},
		{"empty type defaults to public", TargetConfig{}, "public"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.target.DefaultSchema())
		})
	}
}

func TestTargetConfig_ToSourceConfig(t *testing.T) {
	target := TargetConfig{
		Type:     "postgres",
		Host:     "db.internal",
		Port:     5433,
		Database: "shop",
		User:     "reader",
		Password: "secret",
		Options:  map[string]string{"sslmode": "require"},
	}

	cfg := target.ToSourceConfig()
	assert.Equal(t, "postgres", cfg.Type)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 5433, cfg.Port)
	assert.Equal(t, "shop", cfg.Database)
	assert.Equal(t, "reader", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "require", cfg.Options["sslmode"])
}

// TestLoadConfig_File tests loading from an explicit config file.
func TestLoadConfig_File(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "metabrowse.yaml")
	cfgContent := `verbose: true
output: json
target:
  type: postgres
  host: db.internal
  port: 5433
  database: shop
  user: reader
  schema: sales
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0600))

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.True(t, cfg.Verbose)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, "postgres", cfg.Target.Type)
	assert.Equal(t, "db.internal", cfg.Target.Host)
	assert.Equal(t, 5433, cfg.Target.Port)
	assert.Equal(t, "shop", cfg.Target.Database)
	assert.Equal(t, "reader", cfg.Target.User)
	assert.Equal(t, "sales", cfg.Target.Schema)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
}

// TestLoadConfig_Defaults tests that defaults apply without a config file.
func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.False(t, cfg.Verbose)
	assert.Equal(t, "table", cfg.OutputFormat)
	assert.Empty(t, GetConfigFileUsed())
}

// TestLoadConfig_EnvPrecedenceOverFile tests that env vars override the
// config file.
func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "metabrowse.yaml")
	cfgContent := `target:
  type: postgres
  database: from_file
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0600))

	t.Setenv("METABROWSE_TARGET_DATABASE", "from_env")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.Target.Database, "env var should override config file")
	assert.Equal(t, "postgres", cfg.Target.Type, "file values without env override survive")
}

// TestLoadConfig_FlagPrecedence tests that flags override env vars and the
// config file.
func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "metabrowse.yaml")
	cfgContent := `target:
  type: postgres
  database: from_file
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0600))

	t.Setenv("METABROWSE_TARGET_DATABASE", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database", "", "database name")
	require.NoError(t, flags.Set("database", "from_flag"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "from_flag", cfg.Target.Database, "flag value should override config file and env var")
}

// TestLoadConfig_FlagNotSetUsesEnv tests that unset flags fall back to env
// vars.
func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "metabrowse.yaml")
	cfgContent := `target:
  type: postgres
  database: from_file
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0600))

	t.Setenv("METABROWSE_TARGET_DATABASE", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database", "", "database name")
	// Note: not calling flags.Set(), so Changed is false

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.Target.Database, "env var should be used when flag is not set")
}

// TestLoadConfig_TopLevelFlags tests that non-connection flags land at the
// config root.
func TestLoadConfig_TopLevelFlags(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("verbose", false, "verbose output")
	flags.String("output", "table", "output format")
	require.NoError(t, flags.Set("verbose", "true"))
	require.NoError(t, flags.Set("output", "csv"))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.True(t, cfg.Verbose)
	assert.Equal(t, "csv", cfg.OutputFormat)
}

// TestFindConfigFile_UpwardSearch tests upward directory search for the
// config file.
func TestFindConfigFile_UpwardSearch(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "metabrowse.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output: json\n"), 0600))

	nested := filepath.Join(tmpDir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.OutputFormat)

	// Symlinked temp dirs resolve differently on some platforms; compare
	// the file name only.
	assert.Equal(t, "metabrowse.yml", filepath.Base(GetConfigFileUsed()))
}
