// Package main provides tests for the ldmgen CLI.
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ldmgen/internal/cli"
	"github.com/leapstack-labs/ldmgen/internal/cli/config"
	clitest "github.com/leapstack-labs/ldmgen/internal/cli/testutil"
)

// execute runs the root command against the project config and returns
// what it wrote to stdout. Logs and warnings go to stderr and are dropped.
func execute(t *testing.T, project string, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	if project != "" {
		args = append(args, "--config", filepath.Join(project, "ldmgen.yaml"))
	}
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ldmgen v")
}

func TestHelpCommand(t *testing.T) {
	out, err := execute(t, "", "--help")
	require.NoError(t, err)
	for _, expected := range []string{"extract", "list", "lineage", "generate", "deploy", "history", "dump", "init"} {
		assert.Contains(t, out, expected)
	}
}

func TestExtractCommand(t *testing.T) {
	project := clitest.SetupTestProject(t)

	out, err := execute(t, project, "extract", "--output", "json")
	require.NoError(t, err)

	var result struct {
		RunID   string `json:"run_id"`
		Output  string `json:"output"`
		Summary struct {
			Models   int `json:"models"`
			Entities int `json:"entities"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.Summary.Models)
	assert.Equal(t, 3, result.Summary.Entities)
	assert.Equal(t, filepath.Join(project, "out", "warehouse.json"), result.Output)
	assert.FileExists(t, result.Output)
}

func TestExtractThenHistory(t *testing.T) {
	project := clitest.SetupTestProject(t)

	_, err := execute(t, project, "extract", "--output", "json")
	require.NoError(t, err)
	_, err = execute(t, project, "extract", "--output", "json", "--no-history")
	require.NoError(t, err)

	out, err := execute(t, project, "history", "--output", "json")
	require.NoError(t, err)

	var result struct {
		Runs []struct {
			Status string `json:"status"`
			Source string `json:"source"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Runs, 1, "--no-history runs are not recorded")
	assert.Equal(t, "completed", result.Runs[0].Status)
	assert.Equal(t, filepath.Join(project, "models", "warehouse.ldm"), result.Runs[0].Source)
}

func TestExtractMissingInput(t *testing.T) {
	project := clitest.SetupTestProject(t)

	_, err := execute(t, project, "extract", filepath.Join(project, "models", "missing.ldm"))
	require.Error(t, err)

	out, err := execute(t, project, "history", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "failed"`)
}

func TestListCommand(t *testing.T) {
	project := clitest.SetupTestProject(t)

	out, err := execute(t, project, "list", "--output", "markdown")
	require.NoError(t, err)
	clitest.AssertNoANSI(t, out)
	clitest.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "Warehouse (document model)")
	assert.Contains(t, out, "Sales Source (external)")
	assert.Less(t, strings.Index(out, "Sales Source"), strings.Index(out, "Warehouse ("), "external models come first")
}

func TestLineageCommand(t *testing.T) {
	project := clitest.SetupTestProject(t)

	out, err := execute(t, project, "lineage", "--output", "json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))

	_, err = execute(t, project, "lineage", "--mapping", "nope")
	assert.ErrorContains(t, err, `mapping "nope" not found`)
}

func TestGenerateAndDeploy(t *testing.T) {
	project := clitest.SetupTestProject(t)

	out, err := execute(t, project, "generate", "--output", "json")
	require.NoError(t, err)

	var gen struct {
		Dir     string   `json:"dir"`
		Scripts []string `json:"scripts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &gen))
	assert.Equal(t, filepath.Join(project, "out", "ddl"), gen.Dir)
	require.NotEmpty(t, gen.Scripts)
	assert.Equal(t, "00_wh.sql", gen.Scripts[0])

	out, err = execute(t, project, "deploy", "--output", "json")
	require.NoError(t, err)

	var dep struct {
		Target  string   `json:"target"`
		Applied []string `json:"applied"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &dep))
	assert.Equal(t, "duckdb", dep.Target)
	assert.Equal(t, gen.Scripts, dep.Applied)
}

func TestDeployGenerate(t *testing.T) {
	project := clitest.SetupTestProject(t)

	out, err := execute(t, project, "deploy", "--generate", "--output", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "[x] 00_wh.sql")
}

func TestDumpCommand(t *testing.T) {
	project := clitest.SetupTestProject(t)
	dump := filepath.Join(project, "models", "warehouse.json")

	_, err := execute(t, project, "dump", "--out", dump)
	require.NoError(t, err)

	content, err := os.ReadFile(dump)
	require.NoError(t, err)
	assert.True(t, json.Valid(content))

	// The dump reads back like the original document.
	out, err := execute(t, project, "list", dump, "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Warehouse"`)
}

func TestInitCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "project")

	_, err := execute(t, "", "init", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "ldmgen.yaml"))
	assert.FileExists(t, filepath.Join(dir, ".gitignore"))
	assert.FileExists(t, filepath.Join(dir, "templates", "create_table.sql"))

	_, err = execute(t, "", "init", dir)
	assert.ErrorContains(t, err, "already exists")
}

func TestUnknownEnvironment(t *testing.T) {
	project := clitest.SetupTestProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(project, "ldmgen.yaml"), []byte(`input: models/warehouse.ldm
environments:
  dev: {}
`), 0o600))

	_, err := execute(t, project, "list", "--env", "staging")
	assert.ErrorContains(t, err, "staging")
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, err := execute(t, "", "completion", shell)
			require.NoError(t, err)
			assert.NotEmpty(t, out)
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, "", "unknown-command")
	assert.Error(t, err)
}
