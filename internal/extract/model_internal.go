package extract

import (
	"fmt"

	"github.com/leapstack-labs/ldmgen/internal/document"
	"github.com/leapstack-labs/ldmgen/pkg/core"
)

// ResolveDocumentModel resolves the model native to the document: its
// header, its entities with their attributes and identifiers, and the
// relationships between those entities. Attribute domain references are
// resolved against domains.
func ResolveDocumentModel(root document.Record, domains map[string]*core.Domain, warn *Warnings) (*core.Model, error) {
	model, err := resolveModelHeader(root, warn)
	if err != nil {
		return nil, err
	}

	entities, ok := document.ChildRecord(root, "c:Entities")
	if !ok || entities["o:Entity"] == nil {
		warn.Add(core.WarningMissingSection, stageModel, model.ID, model.Name, "document model declares no entities")
	}

	seen := make(map[string]bool)
	for _, raw := range document.Records(entities["o:Entity"]) {
		entity, err := resolveEntity(raw, domains, warn)
		if err != nil {
			return nil, err
		}
		if seen[entity.ID] {
			return nil, malformedf(stageEntity, entity.ID, entity.Name, "duplicate entity id")
		}
		seen[entity.ID] = true
		model.Entities = append(model.Entities, entity)
	}

	rels, err := resolveRelationships(root, model.Entities, warn)
	if err != nil {
		return nil, err
	}
	model.Relationships = rels

	warn.Logger().Debug("resolved document model",
		"model", model.Name,
		"entities", len(model.Entities),
		"relationships", len(model.Relationships),
	)
	return model, nil
}

// resolveModelHeader reads the model's own fields from its generation
// origin shortcut when one is declared, otherwise from the root record.
func resolveModelHeader(root document.Record, warn *Warnings) (*core.Model, error) {
	src := root
	origins := document.Records(document.Child(root, "c:GenerationOrigins", "o:Shortcut"))
	if len(origins) > 0 {
		src = origins[0]
		if len(origins) > 1 {
			warn.Add(core.WarningDuplicate, stageModel, document.String(src, "@Id"), document.String(src, "a:Name"),
				fmt.Sprintf("%d generation origins declared, using the first", len(origins)))
		}
	}

	rec := document.CleanRecord(src)
	model := &core.Model{}
	if err := decodeRecord(rec, model); err != nil {
		return nil, malformed(stageModel, document.String(rec, "Id"), document.String(rec, "Name"), err)
	}
	model.IsDocumentModel = true
	return model, nil
}

func resolveEntity(raw document.Record, domains map[string]*core.Domain, warn *Warnings) (*core.Entity, error) {
	rec := document.CleanRecord(raw)
	entity := &core.Entity{}
	if err := decodeRecord(rec, entity); err != nil {
		return nil, malformed(stageEntity, document.String(rec, "Id"), document.String(rec, "Name"), err)
	}
	if entity.ID == "" {
		return nil, malformedf(stageEntity, "", entity.Name, "entity without id")
	}

	attrs := document.Records(document.Child(raw, "c:Attributes", "o:EntityAttribute"))
	if len(attrs) == 0 {
		warn.Add(core.WarningIncomplete, stageEntity, entity.ID, entity.Name, "entity declares no attributes")
	}
	for i, rawAttr := range attrs {
		attr, err := resolveAttribute(rawAttr, i, domains)
		if err != nil {
			return nil, err
		}
		if entity.Attribute(attr.ID) != nil {
			return nil, malformedf(stageAttribute, attr.ID, attr.Name, "duplicate attribute id in entity %q", entity.Name)
		}
		entity.Attributes = append(entity.Attributes, attr)
	}

	identifiers, err := resolveIdentifiers(raw, entity, warn)
	if err != nil {
		return nil, err
	}
	entity.Identifiers = identifiers
	return entity, nil
}

func resolveAttribute(raw document.Record, order int, domains map[string]*core.Domain) (*core.Attribute, error) {
	rec := document.CleanRecord(raw)
	attr := &core.Attribute{}
	if err := decodeRecord(rec, attr); err != nil {
		return nil, malformed(stageAttribute, document.String(rec, "Id"), document.String(rec, "Name"), err)
	}
	if attr.ID == "" {
		return nil, malformedf(stageAttribute, "", attr.Name, "attribute without id")
	}
	attr.Order = order

	slot, ok := raw["c:Domain"]
	if !ok {
		return attr, nil
	}
	ref, ok := document.Ref(document.Child(slot, "o:Domain"))
	if !ok {
		return nil, malformedf(stageAttribute, attr.ID, attr.Name, "domain slot holds no reference")
	}
	domain, ok := domains[ref]
	if !ok {
		return nil, dangling(stageAttribute, attr.ID, attr.Name, "domain", ref)
	}

	attr.Domain = domain
	if attr.DataType == "" {
		attr.DataType = domain.DataType
	}
	if attr.Length == nil {
		attr.Length = domain.Length
	}
	if attr.Precision == nil {
		attr.Precision = domain.Precision
	}
	return attr, nil
}

func resolveIdentifiers(raw document.Record, entity *core.Entity, warn *Warnings) ([]*core.Identifier, error) {
	var primaryRef string
	if slot, ok := raw["c:PrimaryIdentifier"]; ok {
		ref, ok := document.Ref(document.Child(slot, "o:Identifier"))
		if !ok {
			return nil, malformedf(stageEntity, entity.ID, entity.Name, "primary identifier slot holds no reference")
		}
		primaryRef = ref
	}

	var identifiers []*core.Identifier
	primaryFound := false
	for _, rawID := range document.Records(document.Child(raw, "c:Identifiers", "o:Identifier")) {
		rec := document.CleanRecord(rawID)
		id := &core.Identifier{}
		if err := decodeRecord(rec, id); err != nil {
			return nil, malformed(stageIdentifier, document.String(rec, "Id"), document.String(rec, "Name"), err)
		}
		id.EntityID = entity.ID

		members, ok := rawID["c:Identifier.Attributes"]
		if !ok {
			warn.AddError(core.WarningIncomplete, stageIdentifier, id.ID, id.Name,
				fmt.Sprintf("identifier of entity %q includes no attributes", entity.Name))
		}
		for _, ref := range document.Refs(document.Child(members, "o:EntityAttribute")) {
			attr := entity.Attribute(ref)
			if attr == nil {
				return nil, dangling(stageIdentifier, id.ID, id.Name, "attribute", ref)
			}
			id.Attributes = append(id.Attributes, attr)
		}

		if primaryRef != "" && id.ID == primaryRef {
			id.IsPrimary = true
			primaryFound = true
		}
		identifiers = append(identifiers, id)
	}

	if primaryRef != "" && !primaryFound {
		return nil, dangling(stageEntity, entity.ID, entity.Name, "identifier", primaryRef)
	}
	return identifiers, nil
}

func resolveRelationships(root document.Record, entities []*core.Entity, warn *Warnings) ([]*core.Relationship, error) {
	section, ok := document.ChildRecord(root, "c:Relationships")
	if !ok {
		warn.Add(core.WarningMissingSection, stageRelationship, "", "", "document model declares no relationships")
		return nil, nil
	}

	entityByID := make(map[string]*core.Entity, len(entities))
	identifierByID := make(map[string]*core.Identifier)
	for _, e := range entities {
		entityByID[e.ID] = e
		for _, id := range e.Identifiers {
			identifierByID[id.ID] = id
		}
	}

	var rels []*core.Relationship
	for _, raw := range document.Records(section["o:Relationship"]) {
		rel, err := resolveRelationship(raw, entityByID, identifierByID, warn)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

func resolveRelationship(
	raw document.Record,
	entityByID map[string]*core.Entity,
	identifierByID map[string]*core.Identifier,
	warn *Warnings,
) (*core.Relationship, error) {
	rec := document.CleanRecord(raw)
	rel := &core.Relationship{}
	if err := decodeRecord(rec, rel); err != nil {
		return nil, malformed(stageRelationship, document.String(rec, "Id"), document.String(rec, "Name"), err)
	}

	endpoint := func(slot string) (*core.Entity, error) {
		ref, ok := document.Ref(document.Child(raw, slot, "o:Entity"))
		if !ok {
			return nil, malformedf(stageRelationship, rel.ID, rel.Name, "%s holds no entity reference", slot)
		}
		e, ok := entityByID[ref]
		if !ok {
			return nil, dangling(stageRelationship, rel.ID, rel.Name, "entity", ref)
		}
		return e, nil
	}
	var err error
	if rel.Entity1, err = endpoint("c:Object1"); err != nil {
		return nil, err
	}
	if rel.Entity2, err = endpoint("c:Object2"); err != nil {
		return nil, err
	}

	joins := document.Records(document.Child(raw, "c:Joins", "o:RelationshipJoin"))
	if len(joins) == 0 {
		warn.Add(core.WarningIncomplete, stageRelationship, rel.ID, rel.Name, "relationship declares no joins")
	}
	for i, j := range joins {
		a1, err := joinAttribute(j, "c:Object1", rel, rel.Entity1, entityByID)
		if err != nil {
			return nil, err
		}
		a2, err := joinAttribute(j, "c:Object2", rel, rel.Entity2, entityByID)
		if err != nil {
			return nil, err
		}
		rel.Joins = append(rel.Joins, core.RelationshipJoin{Order: i, Entity1Attribute: a1, Entity2Attribute: a2})
	}

	for _, ref := range document.Refs(document.Child(raw, "c:ParentIdentifier", "o:Identifier")) {
		id, ok := identifierByID[ref]
		if !ok {
			return nil, dangling(stageRelationship, rel.ID, rel.Name, "identifier", ref)
		}
		rel.Identifiers = append(rel.Identifiers, id)
	}
	return rel, nil
}

// joinAttribute resolves one side of a relationship join. The attribute
// must belong to the endpoint entity on the same side.
func joinAttribute(
	join document.Record,
	slot string,
	rel *core.Relationship,
	owner *core.Entity,
	entityByID map[string]*core.Entity,
) (*core.Attribute, error) {
	ref, ok := document.Ref(document.Child(join, slot, "o:EntityAttribute"))
	if !ok {
		return nil, malformedf(stageRelationship, rel.ID, rel.Name, "join %s holds no attribute reference", slot)
	}
	if attr := owner.Attribute(ref); attr != nil {
		return attr, nil
	}
	for _, e := range entityByID {
		if e.Attribute(ref) != nil {
			return nil, malformedf(stageRelationship, rel.ID, rel.Name,
				"join attribute %q belongs to %q, not to endpoint %q", ref, e.Name, owner.Name)
		}
	}
	return nil, dangling(stageRelationship, rel.ID, rel.Name, "attribute", ref)
}
