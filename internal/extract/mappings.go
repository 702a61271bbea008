package extract

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/ldmgen/internal/attrtext"
	"github.com/leapstack-labs/ldmgen/internal/document"
	"github.com/leapstack-labs/ldmgen/pkg/core"
)

// Tokens of the extended attribute text of compositions and conditions.
const (
	tokenJoinType      = "mdde_JoinType"
	tokenJoinOperator  = "mdde_JoinOperator"
	tokenParentLiteral = "mdde_ParentLiteralValue"
)

// Object kinds a mapping reference slot may hold.
var (
	entityKinds    = []string{"o:Entity", "o:Shortcut"}
	attributeKinds = []string{"o:Entity", "o:Shortcut", "o:EntityAttribute"}
)

// DefaultExcludedMappings are sample mappings shipped with the modeling
// template. They use constructs the resolver does not decode.
var DefaultExcludedMappings = []string{
	"Mapping Br Custom Business Rule Example",
	"Mapping AggrTotalSalesPerCustomer",
	"Mapping Pivot Orders Per Country Per Date",
}

// DefaultExcludedCollections are composition collections holding examples
// rather than real compositions.
var DefaultExcludedCollections = []string{"mdde_Mapping_Examples"}

// MappingOptions configures ResolveMappings.
type MappingOptions struct {
	// ExcludedMappings lists mapping names to skip.
	ExcludedMappings []string
	// ExcludedCollections lists composition collection names to skip.
	ExcludedCollections []string
}

// MappingStage is the resolution progress of a single mapping.
type MappingStage int

// Mapping stages, in order.
const (
	MappingUnresolved MappingStage = iota
	MappingTargetResolved
	MappingSourcesResolved
	MappingCompositionsResolved
	MappingAttributesResolved
	MappingComplete
)

func (s MappingStage) String() string {
	switch s {
	case MappingUnresolved:
		return "unresolved"
	case MappingTargetResolved:
		return "target resolved"
	case MappingSourcesResolved:
		return "sources resolved"
	case MappingCompositionsResolved:
		return "compositions resolved"
	case MappingAttributesResolved:
		return "attributes resolved"
	case MappingComplete:
		return "complete"
	default:
		return fmt.Sprintf("MappingStage(%d)", int(s))
	}
}

// errorStage names the work done while leaving s, for errors and warnings.
func (s MappingStage) errorStage() string {
	switch s {
	case MappingUnresolved:
		return "mapping target"
	case MappingTargetResolved:
		return "mapping sources"
	case MappingSourcesResolved:
		return "mapping composition"
	case MappingCompositionsResolved:
		return "mapping attribute"
	default:
		return "mapping"
	}
}

// componentKind is the discriminator of a join condition component.
type componentKind int

const (
	componentUnknown componentKind = iota
	componentChildAttribute
	componentParentSource
	componentParentAttribute
)

func parseComponentKind(name string) componentKind {
	switch name {
	case "mdde_ChildAttribute":
		return componentChildAttribute
	case "mdde_ParentSourceObject":
		return componentParentSource
	case "mdde_ParentAttribute":
		return componentParentAttribute
	default:
		return componentUnknown
	}
}

// ResolveMappings resolves the mappings of the document against the
// entities and attributes of every model in lookup.
func ResolveMappings(root document.Record, lookup *Lookup, opts MappingOptions, warn *Warnings) ([]*core.Mapping, error) {
	section, ok := document.ChildRecord(root, "c:Mappings")
	if !ok {
		warn.Add(core.WarningMissingSection, "mapping", "", "", "document declares no mappings")
		return nil, nil
	}

	excluded := toSet(opts.ExcludedMappings)
	collections := toSet(opts.ExcludedCollections)
	logger := warn.Logger()

	var mappings []*core.Mapping
	for _, raw := range document.Records(section["o:DefaultObjectMapping"]) {
		name := document.String(raw, "a:Name")
		if excluded[name] {
			logger.Debug("skipping excluded mapping", "mapping", name)
			continue
		}
		r := &mappingResolver{
			lookup:      lookup,
			collections: collections,
			warn:        warn,
			logger:      logger,
		}
		m, err := r.resolve(raw)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

// mappingResolver resolves one mapping, moving through the MappingStage
// sequence.
type mappingResolver struct {
	lookup      *Lookup
	collections map[string]bool
	warn        *Warnings
	logger      *slog.Logger

	stage   MappingStage
	mapping *core.Mapping
}

func (r *mappingResolver) advance(next MappingStage) {
	r.logger.Debug("mapping stage", "mapping", r.mapping.Name, "from", r.stage.String(), "to", next.String())
	r.stage = next
}

func (r *mappingResolver) resolve(raw document.Record) (*core.Mapping, error) {
	rec := document.CleanRecord(raw)
	r.mapping = &core.Mapping{}
	if err := decodeRecord(rec, r.mapping); err != nil {
		return nil, malformed("mapping", document.String(rec, "Id"), document.String(rec, "Name"), err)
	}

	if err := r.resolveTarget(raw); err != nil {
		return nil, err
	}
	r.advance(MappingTargetResolved)

	if err := r.resolveSources(raw); err != nil {
		return nil, err
	}
	r.advance(MappingSourcesResolved)

	if err := r.resolveCompositions(raw); err != nil {
		return nil, err
	}
	r.advance(MappingCompositionsResolved)

	if err := r.resolveAttributeMappings(raw); err != nil {
		return nil, err
	}
	r.advance(MappingAttributesResolved)
	r.advance(MappingComplete)
	return r.mapping, nil
}

func (r *mappingResolver) dangling(kind, ref string) error {
	return dangling(r.stage.errorStage(), r.mapping.ID, r.mapping.Name, kind, ref)
}

func (r *mappingResolver) malformedf(format string, args ...any) error {
	return malformedf(r.stage.errorStage(), r.mapping.ID, r.mapping.Name, format, args...)
}

func (r *mappingResolver) incomplete(message string) {
	r.warn.Add(core.WarningIncomplete, r.stage.errorStage(), r.mapping.ID, r.mapping.Name, message)
}

// singleRef returns the only reference a slot holds under kinds. An empty
// slot yields "" and a slot with several references is ambiguous.
func (r *mappingResolver) singleRef(slot any, what string, kinds ...string) (string, error) {
	refs := document.KindRefs(slot, kinds...)
	switch len(refs) {
	case 0:
		return "", nil
	case 1:
		return refs[0].ID, nil
	default:
		return "", r.malformedf("%w: %s slot holds %d references", ErrAmbiguousReference, what, len(refs))
	}
}

func (r *mappingResolver) resolveTarget(raw document.Record) error {
	ref, err := r.singleRef(raw["c:Classifier"], "target", entityKinds...)
	if err != nil {
		return err
	}
	if ref == "" {
		r.incomplete("mapping declares no target entity")
		return nil
	}
	e, ok := r.lookup.Entity(ref)
	if !ok {
		return r.dangling("entity", ref)
	}
	r.mapping.Target = e
	return nil
}

func (r *mappingResolver) resolveSources(raw document.Record) error {
	refs := document.KindRefs(raw["c:SourceClassifiers"], entityKinds...)
	if len(refs) == 0 {
		r.incomplete("mapping declares no source entities")
	}
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true
		e, ok := r.lookup.Entity(ref.ID)
		if !ok {
			return r.dangling("entity", ref.ID)
		}
		r.mapping.Sources = append(r.mapping.Sources, e)
	}

	if id, ok := document.Ref(document.Child(raw, "c:DataSource", "o:DefaultDataSource")); ok {
		r.mapping.DataSourceID = id
	} else {
		r.incomplete("mapping declares no data source")
	}
	return nil
}

func (r *mappingResolver) resolveCompositions(raw document.Record) error {
	order := 0
	for _, container := range document.Records(document.Child(raw, "c:ExtendedCompositions", "o:ExtendedComposition")) {
		collection := document.String(container, "a:ExtendedBaseCollection.CollectionName")
		if r.collections[collection] {
			r.logger.Debug("skipping excluded composition collection", "mapping", r.mapping.Name, "collection", collection)
			continue
		}
		for _, sub := range document.Records(document.Child(container, "c:ExtendedComposition.Content", "o:ExtendedSubObject")) {
			c, err := r.resolveComposition(sub, order)
			if err != nil {
				return err
			}
			r.mapping.Compositions = append(r.mapping.Compositions, c)
			order++
		}
	}
	if len(r.mapping.Compositions) == 0 {
		r.incomplete("mapping declares no compositions")
		return nil
	}

	// Parent aliases may point at compositions declared later.
	for _, c := range r.mapping.Compositions {
		for _, jc := range c.JoinConditions {
			if jc.ParentAlias != "" && r.mapping.Composition(jc.ParentAlias) == nil {
				return dangling(r.stage.errorStage(), jc.ID, jc.Name, "composition", jc.ParentAlias)
			}
		}
	}
	return nil
}

func (r *mappingResolver) resolveComposition(raw document.Record, order int) (*core.Composition, error) {
	rec := document.CleanRecord(raw)
	c := &core.Composition{Order: order}
	if err := decodeRecord(rec, c); err != nil {
		return nil, malformed(r.stage.errorStage(), document.String(rec, "Id"), document.String(rec, "Name"), err)
	}
	c.Alias = c.ID

	clause, err := attrtext.Keyword(document.String(rec, "ExtendedAttributesText"), tokenJoinType)
	if err != nil {
		return nil, malformed(r.stage.errorStage(), c.ID, c.Name, fmt.Errorf("composition type: %w", err))
	}
	c.Clause = clause
	c.Type = core.ParseCompositionType(clause)

	var refs []document.KindRef
	for _, coll := range document.Records(document.Child(raw, "c:ExtendedCollections", "o:ExtendedCollection")) {
		refs = append(refs, document.KindRefs(coll["c:Content"], entityKinds...)...)
	}
	switch len(refs) {
	case 0:
		r.warn.Add(core.WarningIncomplete, r.stage.errorStage(), c.ID, c.Name, "composition is bound to no entity")
	case 1:
		e, ok := r.lookup.Entity(refs[0].ID)
		if !ok {
			return nil, dangling(r.stage.errorStage(), c.ID, c.Name, "entity", refs[0].ID)
		}
		c.Entity = e
	default:
		return nil, malformed(r.stage.errorStage(), c.ID, c.Name,
			fmt.Errorf("%w: composition bound to %d entities", ErrAmbiguousReference, len(refs)))
	}

	nested := document.Records(document.Child(raw, "c:ExtendedCompositions", "o:ExtendedComposition"))
	switch c.Type {
	case core.CompositionApply:
		for _, n := range nested {
			c.ApplyConditions = append(c.ApplyConditions, document.CleanRecord(n))
		}
	case core.CompositionJoin:
		if len(nested) == 0 {
			r.warn.Add(core.WarningIncomplete, r.stage.errorStage(), c.ID, c.Name, "join declares no conditions")
		}
		i := 0
		for _, n := range nested {
			for _, cond := range document.Records(document.Child(n, "c:ExtendedComposition.Content", "o:ExtendedSubObject")) {
				jc, err := r.resolveJoinCondition(cond, i)
				if err != nil {
					return nil, err
				}
				c.JoinConditions = append(c.JoinConditions, jc)
				i++
			}
		}
	case core.CompositionFrom:
		if len(nested) > 0 {
			r.logger.Debug("ignoring conditions of FROM composition", "composition", c.Name)
		}
	}
	return c, nil
}

func (r *mappingResolver) resolveJoinCondition(raw document.Record, order int) (*core.JoinCondition, error) {
	const stage = "mapping join condition"

	rec := document.CleanRecord(raw)
	jc := &core.JoinCondition{Order: order, Operator: "="}
	if err := decodeRecord(rec, jc); err != nil {
		return nil, malformed(stage, document.String(rec, "Id"), document.String(rec, "Name"), err)
	}

	text := document.String(rec, "ExtendedAttributesText")
	if op, err := attrtext.Keyword(text, tokenJoinOperator); err == nil && op != "" {
		jc.Operator = op
	}
	if lit, ok := attrtext.Lookup(text, tokenParentLiteral); ok && lit != "" {
		jc.ParentLiteral = &lit
	}

	for _, comp := range document.Records(document.Child(raw, "c:ExtendedCollections", "o:ExtendedCollection")) {
		name := document.String(comp, "a:Name")
		switch parseComponentKind(name) {
		case componentChildAttribute:
			attr, err := r.componentAttribute(stage, jc, comp)
			if err != nil {
				return nil, err
			}
			jc.ChildAttribute = attr
		case componentParentAttribute:
			attr, err := r.componentAttribute(stage, jc, comp)
			if err != nil {
				return nil, err
			}
			jc.ParentAttribute = attr
		case componentParentSource:
			alias, ok := document.Ref(document.Child(comp, "c:Content", "o:ExtendedSubObject"))
			if !ok {
				return nil, malformedf(stage, jc.ID, jc.Name, "parent source component holds no composition reference")
			}
			jc.ParentAlias = alias
		default:
			r.warn.Add(core.WarningUnknownVariant, stage, jc.ID, jc.Name,
				fmt.Sprintf("unhandled join condition component %q", name))
		}
	}

	if jc.ChildAttribute == nil {
		r.warn.Add(core.WarningIncomplete, stage, jc.ID, jc.Name, "join condition has no child attribute")
	}
	if jc.ParentAttribute == nil && jc.ParentLiteral == nil {
		r.warn.Add(core.WarningIncomplete, stage, jc.ID, jc.Name, "join condition has neither parent attribute nor literal")
	}
	return jc, nil
}

func (r *mappingResolver) componentAttribute(stage string, jc *core.JoinCondition, comp document.Record) (*core.Attribute, error) {
	refs := document.KindRefs(comp["c:Content"], attributeKinds...)
	switch len(refs) {
	case 0:
		return nil, malformedf(stage, jc.ID, jc.Name, "attribute component holds no reference")
	case 1:
	default:
		return nil, malformed(stage, jc.ID, jc.Name,
			fmt.Errorf("%w: attribute component holds %d references", ErrAmbiguousReference, len(refs)))
	}
	attr, _, ok := r.lookup.Attribute(refs[0].ID)
	if !ok {
		return nil, dangling(stage, jc.ID, jc.Name, "attribute", refs[0].ID)
	}
	return attr, nil
}

func (r *mappingResolver) resolveAttributeMappings(raw document.Record) error {
	features := document.Records(document.Child(raw, "c:StructuralFeatureMaps", "o:DefaultStructuralFeatureMapping"))
	if len(features) == 0 {
		r.warn.Add(core.WarningMissingSection, r.stage.errorStage(), r.mapping.ID, r.mapping.Name, "mapping declares no attribute mappings")
		return nil
	}

	for i, f := range features {
		am := &core.AttributeMapping{Order: i}

		ref, ok := document.Ref(document.Child(f, "c:BaseStructuralFeatureMapping.Feature", "o:EntityAttribute"))
		if !ok {
			return r.malformedf("%w: attribute mapping %d has no target attribute", ErrMissingSection, i)
		}
		attr, owner, ok := r.lookup.Attribute(ref)
		if !ok {
			return r.dangling("attribute", ref)
		}
		am.Target = attr
		am.TargetEntity = owner

		var aliases []string
		for _, coll := range document.Records(document.Child(f, "c:ExtendedCollections", "o:ExtendedCollection")) {
			aliases = append(aliases, document.Refs(document.Child(coll, "c:Content", "o:ExtendedSubObject"))...)
		}
		var alias string
		switch len(aliases) {
		case 0:
		case 1:
			alias = aliases[0]
			if r.mapping.Composition(alias) == nil {
				return r.dangling("composition", alias)
			}
		default:
			return r.malformedf("%w: attribute mapping %d names %d compositions", ErrAmbiguousReference, i, len(aliases))
		}

		srcRef, err := r.singleRef(f["c:SourceFeatures"], "source feature", attributeKinds...)
		if err != nil {
			return err
		}
		if srcRef == "" {
			r.incomplete(fmt.Sprintf("attribute mapping for %q has no source", attr.Name))
		} else {
			src, srcOwner, ok := r.lookup.Attribute(srcRef)
			if !ok {
				return r.dangling("attribute", srcRef)
			}
			am.Source = &core.SourceAttribute{Attribute: src, Entity: srcOwner, EntityAlias: alias}
		}

		r.mapping.AttributeMappings = append(r.mapping.AttributeMappings, am)
	}
	return nil
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, s := range items {
		out[s] = true
	}
	return out
}
