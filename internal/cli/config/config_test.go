package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/ldmgen/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/ldmgen/pkg/adapters/postgres"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestValidateTarget(t *testing.T) {
	tests := []struct {
		name      string
		target    *TargetConfig
		errSubstr string
	}{
		{name: "nil", target: nil, errSubstr: "target type is required"},
		{name: "empty type", target: &TargetConfig{}, errSubstr: "target type is required"},
		{name: "duckdb", target: &TargetConfig{Type: "duckdb"}},
		{name: "duckdb uppercase", target: &TargetConfig{Type: "DuckDB"}},
		{name: "postgres", target: &TargetConfig{Type: "postgres"}},
		{name: "unknown", target: &TargetConfig{Type: "mysql"}, errSubstr: "unknown adapter type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTarget(tt.target)
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestValidateTarget_ErrorListsAvailable(t *testing.T) {
	err := ValidateTarget(&TargetConfig{Type: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duckdb")
	assert.Contains(t, err.Error(), "ldmgen.yaml")
}

func TestApplyTargetDefaults(t *testing.T) {
	duck := &TargetConfig{Type: "DuckDB"}
	ApplyTargetDefaults(duck)
	assert.Equal(t, "duckdb", duck.Type)
	assert.Equal(t, "main", duck.Schema)

	pg := &TargetConfig{Type: "postgres"}
	ApplyTargetDefaults(pg)
	assert.Equal(t, "public", pg.Schema)
	assert.Equal(t, 5432, pg.Port)

	custom := &TargetConfig{Type: "postgres", Schema: "dwh", Port: 6543}
	ApplyTargetDefaults(custom)
	assert.Equal(t, "dwh", custom.Schema)
	assert.Equal(t, 6543, custom.Port)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LDM_TEST_ONE", "one")
	t.Setenv("LDM_TEST_TWO", "two")

	tests := []struct {
		input    string
		expected string
	}{
		{input: "${LDM_TEST_ONE}", expected: "one"},
		{input: "${LDM_TEST_ONE}/${LDM_TEST_TWO}", expected: "one/two"},
		{input: "${LDM_TEST_UNSET}", expected: "${LDM_TEST_UNSET}"},
		{input: "plain", expected: "plain"},
		{input: "", expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestMergeTargetConfig(t *testing.T) {
	override := &TargetConfig{Type: "duckdb"}
	assert.Same(t, override, MergeTargetConfig(nil, override))
	assert.Same(t, override, MergeTargetConfig(override, nil))
	assert.Nil(t, MergeTargetConfig(nil, nil))

	base := &TargetConfig{
		Type:     "postgres",
		Host:     "localhost",
		Database: "dev",
		Options:  map[string]string{"sslmode": "disable", "a": "1"},
	}
	merged := MergeTargetConfig(base, &TargetConfig{
		Database: "prod",
		Options:  map[string]string{"sslmode": "require"},
	})
	assert.Equal(t, "postgres", merged.Type)
	assert.Equal(t, "localhost", merged.Host)
	assert.Equal(t, "prod", merged.Database)
	assert.Equal(t, map[string]string{"sslmode": "require", "a": "1"}, merged.Options)
	assert.Equal(t, "disable", base.Options["sslmode"], "base is not modified")
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "input: models/warehouse.ldm\n")
	root := filepath.Dir(cfgPath)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, "models", "warehouse.ldm"), cfg.Input)
	assert.Equal(t, filepath.Join(root, DefaultOutputDir), cfg.OutputDir)
	assert.Equal(t, filepath.Join(root, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, DefaultExportFormat, cfg.ExportFormat)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Empty(t, cfg.TemplatesDir)
	require.NotNil(t, cfg.Target)
	assert.Equal(t, "duckdb", cfg.Target.Type)
	assert.Equal(t, "main", cfg.Target.Schema)

	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_ExtractSettings(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, `extract:
  excluded_mappings:
    - Draft
  excluded_collections:
    - c:ExtendedCompositions
`)
	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	opts := cfg.Extract.Options()
	assert.Equal(t, []string{"Draft"}, opts.ExcludedMappings)
	assert.Equal(t, []string{"c:ExtendedCompositions"}, opts.ExcludedCollections)
	assert.NotEmpty(t, opts.TimestampFields, "unset fields keep their defaults")
}

func TestLoadConfig_EnvList(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "export_format: json\n")
	t.Setenv("LDMGEN_EXTRACT__EXCLUDED_MAPPINGS", "Sample,Draft")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sample", "Draft"}, cfg.Extract.ExcludedMappings)
}

func TestLoadConfig_Environments(t *testing.T) {
	content := `target:
  type: duckdb
  database: dev.duckdb
environments:
  prod:
    output_dir: dist
    target:
      type: postgres
      host: db.internal
      database: warehouse
      schema: dwh
`
	t.Run("default environment", func(t *testing.T) {
		ResetConfig()
		cfgPath := writeConfig(t, content)
		cfg, err := LoadConfig(cfgPath, nil)
		require.NoError(t, err)
		assert.Equal(t, "duckdb", cfg.Target.Type)
		assert.Equal(t, filepath.Join(filepath.Dir(cfgPath), "dev.duckdb"), cfg.Target.Database)
	})

	t.Run("override to prod", func(t *testing.T) {
		ResetConfig()
		cfgPath := writeConfig(t, content)
		cfg, err := LoadConfigWithTarget(cfgPath, "prod", nil)
		require.NoError(t, err)
		assert.Equal(t, "prod", cfg.Environment)
		assert.Equal(t, "postgres", cfg.Target.Type)
		assert.Equal(t, "warehouse", cfg.Target.Database)
		assert.Equal(t, "dwh", cfg.Target.Schema)
		assert.Equal(t, 5432, cfg.Target.Port)
		assert.Equal(t, filepath.Join(filepath.Dir(cfgPath), "dist"), cfg.OutputDir)
	})

	t.Run("unknown environment", func(t *testing.T) {
		ResetConfig()
		cfgPath := writeConfig(t, content)
		_, err := LoadConfigWithTarget(cfgPath, "staging", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "staging")
	})
}

func TestLoadConfig_TargetSecretsFromEnv(t *testing.T) {
	ResetConfig()
	t.Setenv("LDM_TEST_PG_PASSWORD", "s3cret")
	cfgPath := writeConfig(t, `target:
  type: postgres
  user: loader
  password: ${LDM_TEST_PG_PASSWORD}
`)
	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Target.Password)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{name: "unknown target", content: "target:\n  type: mysql\n", errSubstr: "invalid target configuration"},
		{name: "export format", content: "export_format: xml\n", errSubstr: "unknown export format"},
		{name: "output mode", content: "output: html\n", errSubstr: "unknown output mode"},
		{name: "log level", content: "log_level: loud\n", errSubstr: "unknown log level"},
		{name: "log format", content: "log_format: xml\n", errSubstr: "unknown log format"},
		{name: "bad yaml", content: "target: [\n", errSubstr: "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	newFlags := func() *pflag.FlagSet {
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("export-format", "", "export format")
		flags.String("output-dir", "", "output directory")
		return flags
	}

	t.Run("env overrides file", func(t *testing.T) {
		ResetConfig()
		cfgPath := writeConfig(t, "export_format: json\n")
		t.Setenv("LDMGEN_EXPORT_FORMAT", "yaml")

		cfg, err := LoadConfig(cfgPath, newFlags())
		require.NoError(t, err)
		assert.Equal(t, "yaml", cfg.ExportFormat, "unset flags fall back to env vars")
	})

	t.Run("flag overrides env and file", func(t *testing.T) {
		ResetConfig()
		cfgPath := writeConfig(t, "export_format: json\n")
		t.Setenv("LDMGEN_EXPORT_FORMAT", "yml")

		flags := newFlags()
		require.NoError(t, flags.Set("export-format", "yaml"))
		cfg, err := LoadConfig(cfgPath, flags)
		require.NoError(t, err)
		assert.Equal(t, "yaml", cfg.ExportFormat)
	})

	t.Run("path flags are relative to the working directory", func(t *testing.T) {
		ResetConfig()
		cfgPath := writeConfig(t, "output_dir: from_file\n")

		flags := newFlags()
		require.NoError(t, flags.Set("output-dir", "from_flag"))
		cfg, err := LoadConfig(cfgPath, flags)
		require.NoError(t, err)

		want, err := filepath.Abs("from_flag")
		require.NoError(t, err)
		assert.Equal(t, want, cfg.OutputDir)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: "info", LogFormat: "json"}
	logger := cfg.NewLogger(&buf)
	logger.Debug("hidden")
	logger.Info("shown", slog.String("k", "v"))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	cfg = &Config{LogLevel: "error", Verbose: true}
	cfg.NewLogger(&buf).Debug("debug on verbose")
	assert.Contains(t, buf.String(), "debug on verbose")
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
