package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ldmgen/internal/cli/config"
	"github.com/leapstack-labs/ldmgen/internal/cli/output"
	"github.com/leapstack-labs/ldmgen/internal/extract"
	"github.com/leapstack-labs/ldmgen/internal/generator"
	"github.com/leapstack-labs/ldmgen/internal/pdxml"
	"github.com/leapstack-labs/ldmgen/internal/state"
	"github.com/leapstack-labs/ldmgen/pkg/adapter"
	"github.com/leapstack-labs/ldmgen/pkg/core"
)

// ErrNoInput is returned when neither an argument nor the input setting
// names a document.
var ErrNoInput = errors.New("no input document: pass a file or set input in ldmgen.yaml")

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	mode, err := output.ParseMode(cfg.OutputFormat)
	if err != nil {
		mode = output.ModeAuto
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}
}

// getConfig returns the current configuration, or the defaults when the
// command runs outside the root command.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		OutputDir:    config.DefaultOutputDir,
		ExportFormat: config.DefaultExportFormat,
		StatePath:    config.DefaultStateFile,
		Environment:  config.DefaultEnv,
		OutputFormat: os.Getenv("LDMGEN_OUTPUT"),
		LogLevel:     config.DefaultLogLevel,
		Target:       &config.TargetConfig{Type: config.DefaultTargetType, Schema: "main"},
	}
}

// InputPath returns the absolute path of the document named by args, else
// the configured input.
func (c *CommandContext) InputPath(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return filepath.Abs(args[0])
	}
	if c.Cfg.Input != "" {
		return c.Cfg.Input, nil
	}
	return "", ErrNoInput
}

// LoadDocument reads and resolves the document at path.
func (c *CommandContext) LoadDocument(ctx context.Context, path string) (*core.Document, error) {
	root, err := pdxml.LoadModel(path)
	if err != nil {
		return nil, err
	}
	opts := c.Cfg.Extract.Options()
	opts.Logger = c.Logger
	doc, err := extract.New(opts).Extract(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// OpenStore opens the run history database, creating its directory and
// schema when needed. The returned cleanup closes the store.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, func(), error) {
	stateDir := filepath.Dir(c.Cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(c.Cfg.StatePath); err != nil {
		return nil, nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to initialize state database: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}

// GenerateScripts resolves the document at path and renders its DDL scripts
// with the configured templates.
func (c *CommandContext) GenerateScripts(ctx context.Context, path string) ([]generator.Script, error) {
	doc, err := c.LoadDocument(ctx, path)
	if err != nil {
		return nil, err
	}
	gen, err := generator.New(generator.Options{TemplatesDir: c.Cfg.TemplatesDir, Logger: c.Logger})
	if err != nil {
		return nil, err
	}
	return gen.Generate(doc)
}

// OpenTarget connects to the configured deployment target. The returned
// cleanup closes the connection.
func (c *CommandContext) OpenTarget(ctx context.Context) (core.Adapter, func(), error) {
	if c.Cfg.Target == nil {
		return nil, nil, fmt.Errorf("no target configured")
	}
	db, err := adapter.NewAdapter(c.Cfg.Target.AdapterConfig(), c.Logger)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Connect(ctx, c.Cfg.Target.AdapterConfig()); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s target: %w", c.Cfg.Target.Type, err)
	}
	return db, func() { _ = db.Close() }, nil
}
