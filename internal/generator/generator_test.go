package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ldmgen/internal/testutil"
	"github.com/leapstack-labs/ldmgen/pkg/core"
)

func intPtr(n int) *int { return &n }

func testDocument() *core.Document {
	id := &core.Attribute{ID: "a1", Name: "id", Code: "ID", DataType: "I", Mandatory: true}
	name := &core.Attribute{ID: "a2", Name: "name", Code: "NAME", DataType: "VA100", Order: 1}
	customer := &core.Entity{ID: "e1", Name: "Customer", Code: "CUSTOMER", Attributes: []*core.Attribute{id, name}}
	customer.Identifiers = []*core.Identifier{{ID: "i1", IsPrimary: true, Attributes: []*core.Attribute{id}}}

	total := &core.Attribute{ID: "a3", Name: "total amount", DataType: "DC12,2"}
	order := &core.Entity{ID: "e2", Name: "Order", Attributes: []*core.Attribute{total}}

	return &core.Document{Models: []*core.Model{
		{ID: "x1", Name: "Sales", Entities: []*core.Entity{{ID: "s1", Name: "Region"}}},
		{ID: "m1", Name: "Warehouse", Code: "WH", IsDocumentModel: true, Entities: []*core.Entity{customer, order}},
	}}
}

func newTestGenerator(t *testing.T, dir string) *Generator {
	t.Helper()
	g, err := New(Options{TemplatesDir: dir, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	return g
}

func TestGenerate_Defaults(t *testing.T) {
	scripts, err := newTestGenerator(t, "").Generate(testDocument())
	require.NoError(t, err)
	require.Len(t, scripts, 3)

	assert.Equal(t, "00_wh.sql", scripts[0].Name)
	assert.Equal(t, "CREATE SCHEMA IF NOT EXISTS wh;\n", scripts[0].SQL)

	assert.Equal(t, "01_wh_customer.sql", scripts[1].Name)
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS wh.customer (
     id INTEGER NOT NULL
    ,name VARCHAR(100)
    ,PRIMARY KEY (id)
);
`, scripts[1].SQL)

	assert.Equal(t, "02_wh_order.sql", scripts[2].Name, "quotes are stripped from file names")
	assert.Contains(t, scripts[2].SQL, `wh."order" (`)
	assert.Contains(t, scripts[2].SQL, "total_amount DECIMAL(12,2)")
	assert.NotContains(t, scripts[2].SQL, "PRIMARY KEY")
}

func TestGenerate_NoDocumentModel(t *testing.T) {
	g := newTestGenerator(t, "")

	_, err := g.Generate(&core.Document{})
	assert.ErrorIs(t, err, ErrNoDocumentModel)
	_, err = g.Generate(nil)
	assert.ErrorIs(t, err, ErrNoDocumentModel)
}

func TestGenerate_TemplateOverride(t *testing.T) {
	dir := t.TempDir()
	custom := "-- {{ upper .Schema }}.{{ .Table }}: {{ range .Columns }}{{ sqltype .Attribute }} {{ end }}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, TableTemplate), []byte(custom), 0o600))

	scripts, err := newTestGenerator(t, dir).Generate(testDocument())
	require.NoError(t, err)

	assert.Equal(t, "CREATE SCHEMA IF NOT EXISTS wh;\n", scripts[0].SQL, "embedded schema template is kept")
	assert.Equal(t, "-- WH.customer: INTEGER VARCHAR(100) \n", scripts[1].SQL)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Options{TemplatesDir: t.TempDir()})
	assert.ErrorContains(t, err, "no *.sql templates")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, TableTemplate), []byte("{{ .Broken "), 0o600))
	_, err = New(Options{TemplatesDir: dir})
	assert.Error(t, err)
}

func TestGenerate_ManyEntitiesWidenSequence(t *testing.T) {
	entities := make([]*core.Entity, 120)
	for i := range entities {
		entities[i] = &core.Entity{ID: "e", Name: "t" + string(rune('a'+i%26))}
	}
	doc := &core.Document{Models: []*core.Model{{Code: "S", IsDocumentModel: true, Entities: entities}}}

	scripts, err := newTestGenerator(t, "").Generate(doc)
	require.NoError(t, err)
	assert.Equal(t, "000_s.sql", scripts[0].Name)
	assert.Equal(t, "120_s_tp.sql", scripts[120].Name)
}

func TestGenerate_PathSeparatorsInNames(t *testing.T) {
	entity := &core.Entity{ID: "e1", Name: "Sales/Returns", Code: `a/b\c`, Attributes: []*core.Attribute{{ID: "a1", Name: "id", DataType: "I"}}}
	doc := &core.Document{Models: []*core.Model{{Code: "WH", IsDocumentModel: true, Entities: []*core.Entity{entity}}}}

	scripts, err := newTestGenerator(t, "").Generate(doc)
	require.NoError(t, err)
	require.Len(t, scripts, 2)
	assert.Equal(t, "01_wh_a_b_c.sql", scripts[1].Name)
	assert.Contains(t, scripts[1].SQL, `wh."a/b\c"`, "the SQL identifier keeps the separators")

	dir := t.TempDir()
	require.NoError(t, WriteScripts(dir, scripts))
	_, err = os.Stat(filepath.Join(dir, "01_wh_a_b_c.sql"))
	assert.NoError(t, err)
}

func TestWriteScripts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ddl")
	scripts := []Script{{Name: "00_a.sql", SQL: "SELECT 1;"}, {Name: "01_a_b.sql", SQL: "SELECT 2;"}}
	require.NoError(t, WriteScripts(dir, scripts))

	got, err := os.ReadFile(filepath.Join(dir, "01_a_b.sql"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT 2;", string(got))
}

func TestCopyDefaults(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, SchemaTemplate)
	require.NoError(t, os.WriteFile(existing, []byte("keep"), 0o600))

	written, err := CopyDefaults(dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, TableTemplate)}, written)

	kept, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(kept))

	written, err = CopyDefaults(dir, true)
	require.NoError(t, err)
	assert.Len(t, written, 2)
}

func TestSQLType(t *testing.T) {
	tests := []struct {
		name string
		attr *core.Attribute
		want string
	}{
		{name: "nil", attr: nil, want: "VARCHAR"},
		{name: "empty", attr: &core.Attribute{}, want: "VARCHAR"},
		{name: "integer", attr: &core.Attribute{DataType: "I"}, want: "INTEGER"},
		{name: "long integer", attr: &core.Attribute{DataType: "LI"}, want: "BIGINT"},
		{name: "varchar with size", attr: &core.Attribute{DataType: "VA50"}, want: "VARCHAR(50)"},
		{name: "explicit length wins", attr: &core.Attribute{DataType: "VA50", Length: intPtr(80)}, want: "VARCHAR(80)"},
		{name: "decimal", attr: &core.Attribute{DataType: "DC10,2"}, want: "DECIMAL(10,2)"},
		{name: "decimal from fields", attr: &core.Attribute{DataType: "N", Length: intPtr(8), Precision: intPtr(3)}, want: "DECIMAL(8,3)"},
		{name: "money", attr: &core.Attribute{DataType: "MN"}, want: "DECIMAL(19,4)"},
		{name: "char", attr: &core.Attribute{DataType: "A2"}, want: "CHAR(2)"},
		{name: "lower-case code", attr: &core.Attribute{DataType: "dt"}, want: "TIMESTAMP"},
		{name: "boolean", attr: &core.Attribute{DataType: "BL"}, want: "BOOLEAN"},
		{name: "binary", attr: &core.Attribute{DataType: "LBIN"}, want: "BYTEA"},
		{name: "unknown passes through", attr: &core.Attribute{DataType: "GEOGRAPHY"}, want: "GEOGRAPHY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SQLType(tt.attr))
		})
	}
}

func TestIdent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Customer", want: "customer"},
		{in: "Total Amount", want: "total_amount"},
		{in: "sub-total", want: "sub_total"},
		{in: "Order", want: `"order"`},
		{in: "2nd", want: `"2nd"`},
		{in: "a.b", want: `"a.b"`},
		{in: "  ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Ident(tt.in))
		})
	}
}
