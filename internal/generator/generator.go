// Package generator renders DDL scripts for the document model of a
// resolved document.
//
// Two templates are used: create_schema.sql, rendered once per model, and
// create_table.sql, rendered once per entity. Defaults are embedded; a
// templates directory may override either of them. Script names carry a
// zero-padded sequence number so that lexical order is deployment order.
package generator

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/leapstack-labs/ldmgen/pkg/core"
)

//go:embed templates/*.sql
var defaultTemplates embed.FS

// Template names.
const (
	SchemaTemplate = "create_schema.sql"
	TableTemplate  = "create_table.sql"
)

// ErrNoDocumentModel is returned when a document has nothing to generate.
var ErrNoDocumentModel = errors.New("document has no document model")

// Options configures a Generator.
type Options struct {
	// TemplatesDir overrides the embedded templates with the *.sql files it holds.
	TemplatesDir string
	Logger       *slog.Logger
}

// Generator renders DDL scripts.
type Generator struct {
	tmpl   *template.Template
	logger *slog.Logger
}

// Script is one rendered DDL file.
type Script struct {
	Name string
	SQL  string
}

// Column is a rendered attribute.
type Column struct {
	Name      string
	Type      string
	Mandatory bool
	Attribute *core.Attribute
}

// SchemaData is the data of the schema template.
type SchemaData struct {
	Schema string
	Model  *core.Model
}

// TableData is the data of the table template.
type TableData struct {
	Schema     string
	Table      string
	Entity     *core.Entity
	Columns    []Column
	PrimaryKey []string
}

// New parses the templates.
func New(opts Options) (*Generator, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tmpl, err := template.New("ddl").Funcs(funcs()).ParseFS(defaultTemplates, "templates/*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to parse default templates: %w", err)
	}

	if opts.TemplatesDir != "" {
		dir := os.DirFS(opts.TemplatesDir)
		matches, err := fs.Glob(dir, "*.sql")
		if err != nil {
			return nil, fmt.Errorf("failed to list templates: %w", err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no *.sql templates in %s", opts.TemplatesDir)
		}
		// Same-named templates replace the embedded ones.
		if tmpl, err = tmpl.ParseFS(dir, matches...); err != nil {
			return nil, fmt.Errorf("failed to parse templates in %s: %w", opts.TemplatesDir, err)
		}
		logger.Debug("loaded templates", slog.String("dir", opts.TemplatesDir), slog.Int("count", len(matches)))
	}

	return &Generator{tmpl: tmpl, logger: logger}, nil
}

// Generate renders the scripts of the document model: the schema script
// first, then one script per entity in model order.
func (g *Generator) Generate(doc *core.Document) ([]Script, error) {
	if doc == nil {
		return nil, ErrNoDocumentModel
	}
	model := doc.DocumentModel()
	if model == nil {
		return nil, ErrNoDocumentModel
	}

	schema := Ident(model.Code)
	if schema == "" {
		schema = Ident(model.Name)
	}

	width := max(2, len(strconv.Itoa(len(model.Entities))))
	scripts := make([]Script, 0, len(model.Entities)+1)

	sql, err := g.render(SchemaTemplate, SchemaData{Schema: schema, Model: model})
	if err != nil {
		return nil, err
	}
	scripts = append(scripts, Script{
		Name: fmt.Sprintf("%0*d_%s.sql", width, 0, fileComponent(schema)),
		SQL:  sql,
	})

	for i, e := range model.Entities {
		data := tableData(schema, e)
		sql, err := g.render(TableTemplate, data)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", e.Name, err)
		}
		scripts = append(scripts, Script{
			Name: fmt.Sprintf("%0*d_%s_%s.sql", width, i+1, fileComponent(schema), fileComponent(data.Table)),
			SQL:  sql,
		})
		g.logger.Debug("rendered table", slog.String("entity", e.Name), slog.Int("columns", len(data.Columns)))
	}

	return scripts, nil
}

func (g *Generator) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := g.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

func tableData(schema string, e *core.Entity) TableData {
	data := TableData{
		Schema:  schema,
		Table:   entityName(e),
		Entity:  e,
		Columns: make([]Column, 0, len(e.Attributes)),
	}
	for _, a := range e.Attributes {
		data.Columns = append(data.Columns, Column{
			Name:      attributeName(a),
			Type:      SQLType(a),
			Mandatory: a.Mandatory,
			Attribute: a,
		})
	}
	if pk := e.PrimaryIdentifier(); pk != nil {
		for _, a := range pk.Attributes {
			data.PrimaryKey = append(data.PrimaryKey, attributeName(a))
		}
	}
	return data
}

// fileComponent turns an identifier into a file name part: quotes are
// stripped and path separators become underscores.
func fileComponent(ident string) string {
	name := strings.ReplaceAll(strings.Trim(ident, `"`), `""`, `"`)
	return strings.NewReplacer("/", "_", `\`, "_").Replace(name)
}

func entityName(e *core.Entity) string {
	if e.Code != "" {
		return Ident(e.Code)
	}
	return Ident(e.Name)
}

func attributeName(a *core.Attribute) string {
	if a.Code != "" {
		return Ident(a.Code)
	}
	return Ident(a.Name)
}

// WriteScripts writes scripts into dir, creating it when needed.
func WriteScripts(dir string, scripts []Script) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, s := range scripts {
		path := filepath.Join(dir, s.Name)
		if err := os.WriteFile(path, []byte(s.SQL), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", s.Name, err)
		}
	}
	return nil
}

// CopyDefaults writes the embedded templates into dir for customisation.
// Existing files are kept unless force is set.
func CopyDefaults(dir string, force bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create templates directory: %w", err)
	}

	entries, err := fs.ReadDir(defaultTemplates, "templates")
	if err != nil {
		return nil, err
	}

	var written []string
	for _, entry := range entries {
		target := filepath.Join(dir, entry.Name())
		if !force {
			if _, err := os.Stat(target); err == nil {
				continue
			}
		}
		content, err := defaultTemplates.ReadFile("templates/" + entry.Name())
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(target, content, 0o600); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", target, err)
		}
		written = append(written, target)
	}
	return written, nil
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"lower":   strings.ToLower,
		"upper":   strings.ToUpper,
		"join":    strings.Join,
		"ident":   Ident,
		"sqltype": SQLType,
	}
}
