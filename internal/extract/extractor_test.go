package extract

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ldmgen/internal/testutil"
	"github.com/leapstack-labs/ldmgen/pkg/core"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	opts := DefaultOptions()
	opts.Logger = testutil.NewTestLogger(t)
	return New(opts)
}

func hasWarning(doc *core.Document, kind core.WarningKind, recordID string) bool {
	for _, w := range doc.Warnings {
		if w.Kind == kind && w.RecordID == recordID {
			return true
		}
	}
	return false
}

func TestExtract_SingleEntityWithPrimaryKey(t *testing.T) {
	doc, err := newTestExtractor(t).Extract(context.Background(), singleEntityModel())
	require.NoError(t, err)

	require.Len(t, doc.Models, 1)
	model := doc.Models[0]
	assert.True(t, model.IsDocumentModel)
	assert.Equal(t, "Warehouse", model.Name)
	assert.Equal(t, "WH", model.Code)
	require.NotNil(t, model.CreationDate)
	assert.Equal(t, time.Unix(1690000000, 0).UTC(), *model.CreationDate)

	require.Len(t, model.Entities, 1)
	customer := model.Entities[0]
	assert.Equal(t, "Customer", customer.Name)
	assert.False(t, customer.IsShortcut)
	require.Len(t, customer.Attributes, 2)

	id, name := customer.Attributes[0], customer.Attributes[1]
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, 0, id.Order)
	assert.Equal(t, 1, name.Order)
	require.NotNil(t, id.Domain)
	assert.Equal(t, "Integer", id.Domain.Name)
	assert.Equal(t, "I", id.DataType)
	require.NotNil(t, name.Domain)
	assert.Equal(t, "Text", name.Domain.Name)
	require.NotNil(t, name.Length)
	assert.Equal(t, 100, *name.Length)

	// Attributes share the domain instance of the domain table.
	assert.Same(t, doc.Domains["o10"], id.Domain)

	require.Len(t, customer.Identifiers, 1)
	pk := customer.Identifiers[0]
	assert.True(t, pk.IsPrimary)
	assert.Equal(t, "o20", pk.EntityID)
	require.Len(t, pk.Attributes, 1)
	assert.Same(t, id, pk.Attributes[0])
	assert.Same(t, pk, customer.PrimaryIdentifier())

	assert.Empty(t, doc.Mappings)
	assert.True(t, hasWarning(doc, core.WarningMissingSection, ""), "absent sections are reported")
}

func TestExtract_ExternalModelShortcut(t *testing.T) {
	doc, err := newTestExtractor(t).Extract(context.Background(), fullDocument())
	require.NoError(t, err)

	external := doc.ExternalModels()
	require.Len(t, external, 1, "model shortcut claiming no entity is dropped")

	m := external[0]
	assert.False(t, m.IsDocumentModel)
	assert.Equal(t, "Sales Source", m.Name)
	assert.Equal(t, "M1", m.TargetID)
	require.Len(t, m.Entities, 1)

	region := m.Entities[0]
	assert.Equal(t, "Region", region.Name)
	assert.True(t, region.IsShortcut)
	require.Len(t, region.Attributes, 2)
	assert.Equal(t, "region_id", region.Attributes[0].Name)
	assert.Equal(t, 1, region.Attributes[1].Order)
}

func TestExtract_RelationshipJoin(t *testing.T) {
	doc, err := newTestExtractor(t).Extract(context.Background(), fullDocument())
	require.NoError(t, err)

	model := doc.DocumentModel()
	require.NotNil(t, model)
	require.Len(t, model.Relationships, 1)

	rel := model.Relationships[0]
	customer, order := model.Entities[0], model.Entities[1]
	assert.Same(t, customer, rel.Entity1)
	assert.Same(t, order, rel.Entity2)

	require.Len(t, rel.Joins, 1)
	assert.Same(t, customer.Attributes[0], rel.Joins[0].Entity1Attribute, "Customer.id")
	assert.Same(t, order.Attributes[1], rel.Joins[0].Entity2Attribute, "Order.customer_id")

	require.Len(t, rel.Identifiers, 1)
	assert.Same(t, customer.Identifiers[0], rel.Identifiers[0])
}

func TestExtract_MappingWithJoin(t *testing.T) {
	doc, err := newTestExtractor(t).Extract(context.Background(), fullDocument())
	require.NoError(t, err)

	require.Len(t, doc.Mappings, 1, "excluded sample mapping is skipped")
	m := doc.Mappings[0]
	model := doc.DocumentModel()
	customer, order, target := model.Entities[0], model.Entities[1], model.Entities[2]

	assert.Equal(t, "Mapping Customer Orders", m.Name)
	assert.Same(t, target, m.Target)
	assert.Equal(t, []*core.Entity{customer, order}, m.Sources)
	assert.Equal(t, "ds-1", m.DataSourceID)

	require.Len(t, m.Compositions, 2)
	from, join := m.Compositions[0], m.Compositions[1]

	assert.Equal(t, core.CompositionFrom, from.Type)
	assert.Equal(t, "FROM", from.Clause)
	assert.Same(t, customer, from.Entity)
	assert.Equal(t, "o81", from.Alias)
	assert.Equal(t, 0, from.Order)
	assert.Empty(t, from.JoinConditions)

	assert.Equal(t, core.CompositionJoin, join.Type)
	assert.Same(t, order, join.Entity)
	assert.Equal(t, 1, join.Order)
	require.Len(t, join.JoinConditions, 1)

	cond := join.JoinConditions[0]
	assert.Equal(t, "=", cond.Operator)
	assert.Nil(t, cond.ParentLiteral)
	assert.Same(t, order.Attributes[1], cond.ChildAttribute)
	assert.Same(t, customer.Attributes[0], cond.ParentAttribute)
	assert.Equal(t, "o81", cond.ParentAlias)

	require.Len(t, m.AttributeMappings, 2)
	am := m.AttributeMappings[0]
	assert.Same(t, target.Attributes[0], am.Target)
	assert.Same(t, target, am.TargetEntity)
	require.NotNil(t, am.Source)
	assert.Same(t, customer.Attributes[1], am.Source.Attribute)
	assert.Same(t, customer, am.Source.Entity)
	assert.Equal(t, "o81", am.Source.EntityAlias)
	assert.Equal(t, "o82", m.AttributeMappings[1].Source.EntityAlias)
}

func TestExtract_ModelOrder(t *testing.T) {
	doc, err := newTestExtractor(t).Extract(context.Background(), fullDocument())
	require.NoError(t, err)

	require.Len(t, doc.Models, 2)
	assert.False(t, doc.Models[0].IsDocumentModel)
	assert.True(t, doc.Models[1].IsDocumentModel, "document model comes last")
}

func TestExtract_Properties(t *testing.T) {
	doc, err := newTestExtractor(t).Extract(context.Background(), fullDocument())
	require.NoError(t, err)

	for _, m := range doc.Models {
		if !m.IsDocumentModel {
			assert.NotEmpty(t, m.Entities, "external model %q is empty", m.Name)
		}
		for _, e := range m.Entities {
			primaries := 0
			for _, id := range e.Identifiers {
				if id.IsPrimary {
					primaries++
				}
			}
			assert.LessOrEqual(t, primaries, 1, "entity %q", e.Name)
		}
		for _, rel := range m.Relationships {
			for _, j := range rel.Joins {
				assert.Contains(t, rel.Entity1.Attributes, j.Entity1Attribute)
				assert.Contains(t, rel.Entity2.Attributes, j.Entity2Attribute)
			}
		}
	}
}

func TestExtract_SingleAndSequenceEquivalent(t *testing.T) {
	single := singleEntityModel()

	wrapped := singleEntityModel()
	entities := wrapped["c:Entities"].(rec)
	entities["o:Entity"] = []any{entities["o:Entity"]}

	x := newTestExtractor(t)
	a, err := x.Extract(context.Background(), single)
	require.NoError(t, err)
	b, err := x.Extract(context.Background(), wrapped)
	require.NoError(t, err)

	assert.Equal(t, a.Models, b.Models)
}

func TestExtract_Warnings(t *testing.T) {
	doc, err := newTestExtractor(t).Extract(context.Background(), fullDocument())
	require.NoError(t, err)

	// CustomerOrders has no identifiers; the join condition is complete.
	assert.False(t, hasWarning(doc, core.WarningIncomplete, "o83"))
	assert.False(t, hasWarning(doc, core.WarningUnused, "o50"), "Region is claimed by Sales Source")
}

func TestExtract_UnclaimedShortcutWarns(t *testing.T) {
	root := fullDocument()
	root["c:TargetModels"] = rec{"o:TargetModel": targetModelRec("o60", "M1", "o99")}

	doc, err := newTestExtractor(t).Extract(context.Background(), withoutMappings(root))
	require.NoError(t, err)

	assert.Empty(t, doc.ExternalModels())
	assert.True(t, hasWarning(doc, core.WarningUnused, "o50"))
}

func TestExtract_WarningsAreLogged(t *testing.T) {
	root := fullDocument()
	root["c:TargetModels"] = rec{"o:TargetModel": targetModelRec("o60", "M1", "o99")}

	logger, logs := testutil.NewCapturingLogger(slog.LevelWarn)
	opts := DefaultOptions()
	opts.Logger = logger
	doc, err := New(opts).Extract(context.Background(), withoutMappings(root))
	require.NoError(t, err)

	lines := logs.Lines("kind=" + string(core.WarningUnused))
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "id=o50")
	assert.Contains(t, lines[0], "level=WARN")
	assert.Len(t, logs.Lines("level="), len(doc.Warnings), "one log line per warning")
}

func TestExtract_DanglingDomain(t *testing.T) {
	root := singleEntityModel()
	root["c:Entities"] = rec{"o:Entity": entityRec("o20", "Customer",
		[]rec{attrRec("o21", "id", "missing-domain")}, nil, "")}

	_, err := newTestExtractor(t).Extract(context.Background(), root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDanglingReference))

	var dErr *DanglingReferenceError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, "attribute", dErr.Stage)
	assert.Equal(t, "o21", dErr.RecordID)
	assert.Equal(t, "id", dErr.RecordName)
	assert.Equal(t, "domain", dErr.Kind)
	assert.Equal(t, "missing-domain", dErr.RefID)
}

func TestExtract_InvalidTimestamp(t *testing.T) {
	root := singleEntityModel()
	root["a:CreationDate"] = "last tuesday"

	_, err := newTestExtractor(t).Extract(context.Background(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a:CreationDate")
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestExtractor(t).Extract(ctx, singleEntityModel())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtract_NilRoot(t *testing.T) {
	_, err := newTestExtractor(t).Extract(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestExtract_ExcludedMappingsConfigurable(t *testing.T) {
	opts := DefaultOptions()
	opts.ExcludedMappings = []string{"Mapping Customer Orders", "Mapping AggrTotalSalesPerCustomer"}

	doc, err := New(opts).Extract(context.Background(), fullDocument())
	require.NoError(t, err)
	assert.Empty(t, doc.Mappings)
}

func withoutMappings(root rec) rec {
	delete(root, "c:Mappings")
	return root
}
