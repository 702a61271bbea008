package export

import (
	"time"

	"github.com/leapstack-labs/ldmgen/pkg/core"
)

type document struct {
	Models   []model   `json:"Models" yaml:"Models"`
	Mappings []mapping `json:"Mappings" yaml:"Mappings"`
}

// ref points at an object written in full elsewhere.
type ref struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Code string `json:"code,omitempty" yaml:"code,omitempty"`
}

// mappedRef points at an entity or attribute used by a mapping, together
// with the objects owning it. Entity is set for attributes only.
type mappedRef struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Code   string `json:"code,omitempty" yaml:"code,omitempty"`
	Entity *ref   `json:"entity,omitempty" yaml:"entity,omitempty"`
	Model  *ref   `json:"model,omitempty" yaml:"model,omitempty"`
}

type model struct {
	ID               string         `json:"id" yaml:"id"`
	ObjectID         string         `json:"object_id,omitempty" yaml:"object_id,omitempty"`
	Name             string         `json:"name" yaml:"name"`
	Code             string         `json:"code,omitempty" yaml:"code,omitempty"`
	TargetID         string         `json:"target_id,omitempty" yaml:"target_id,omitempty"`
	Creator          string         `json:"creator,omitempty" yaml:"creator,omitempty"`
	Modifier         string         `json:"modifier,omitempty" yaml:"modifier,omitempty"`
	Author           string         `json:"author,omitempty" yaml:"author,omitempty"`
	Version          string         `json:"version,omitempty" yaml:"version,omitempty"`
	CreationDate     *time.Time     `json:"creation_date,omitempty" yaml:"creation_date,omitempty"`
	ModificationDate *time.Time     `json:"modification_date,omitempty" yaml:"modification_date,omitempty"`
	IsDocumentModel  bool           `json:"is_document_model" yaml:"is_document_model"`
	Entities         []entity       `json:"entities" yaml:"entities"`
	Relationships    []relationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`
}

type domain struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Code      string `json:"code,omitempty" yaml:"code,omitempty"`
	DataType  string `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	Length    *int   `json:"length,omitempty" yaml:"length,omitempty"`
	Precision *int   `json:"precision,omitempty" yaml:"precision,omitempty"`
}

type attribute struct {
	ID               string     `json:"id" yaml:"id"`
	ObjectID         string     `json:"object_id,omitempty" yaml:"object_id,omitempty"`
	Name             string     `json:"name" yaml:"name"`
	Code             string     `json:"code,omitempty" yaml:"code,omitempty"`
	Stereotype       string     `json:"stereotype,omitempty" yaml:"stereotype,omitempty"`
	Order            int        `json:"order" yaml:"order"`
	DataType         string     `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	Length           *int       `json:"length,omitempty" yaml:"length,omitempty"`
	Precision        *int       `json:"precision,omitempty" yaml:"precision,omitempty"`
	Mandatory        bool       `json:"mandatory" yaml:"mandatory"`
	Domain           *domain    `json:"domain,omitempty" yaml:"domain,omitempty"`
	CreationDate     *time.Time `json:"creation_date,omitempty" yaml:"creation_date,omitempty"`
	ModificationDate *time.Time `json:"modification_date,omitempty" yaml:"modification_date,omitempty"`
}

type identifier struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Code       string `json:"code,omitempty" yaml:"code,omitempty"`
	IsPrimary  bool   `json:"is_primary" yaml:"is_primary"`
	Attributes []ref  `json:"attributes" yaml:"attributes"`
}

type entity struct {
	ID               string       `json:"id" yaml:"id"`
	ObjectID         string       `json:"object_id,omitempty" yaml:"object_id,omitempty"`
	Name             string       `json:"name" yaml:"name"`
	Code             string       `json:"code,omitempty" yaml:"code,omitempty"`
	Stereotype       string       `json:"stereotype,omitempty" yaml:"stereotype,omitempty"`
	TargetID         string       `json:"target_id,omitempty" yaml:"target_id,omitempty"`
	IsShortcut       bool         `json:"is_shortcut" yaml:"is_shortcut"`
	CreationDate     *time.Time   `json:"creation_date,omitempty" yaml:"creation_date,omitempty"`
	ModificationDate *time.Time   `json:"modification_date,omitempty" yaml:"modification_date,omitempty"`
	Attributes       []attribute  `json:"attributes" yaml:"attributes"`
	Identifiers      []identifier `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`
}

type join struct {
	Order            int  `json:"order" yaml:"order"`
	Entity1Attribute *ref `json:"entity1_attribute" yaml:"entity1_attribute"`
	Entity2Attribute *ref `json:"entity2_attribute" yaml:"entity2_attribute"`
}

type relationship struct {
	ID          string `json:"id" yaml:"id"`
	ObjectID    string `json:"object_id,omitempty" yaml:"object_id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Code        string `json:"code,omitempty" yaml:"code,omitempty"`
	Entity1     *ref   `json:"entity1" yaml:"entity1"`
	Entity2     *ref   `json:"entity2" yaml:"entity2"`
	Joins       []join `json:"joins" yaml:"joins"`
	Identifiers []ref  `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`
}

type joinCondition struct {
	ID              string     `json:"id" yaml:"id"`
	Name            string     `json:"name,omitempty" yaml:"name,omitempty"`
	Order           int        `json:"order" yaml:"order"`
	Operator        string     `json:"operator" yaml:"operator"`
	ParentLiteral   *string    `json:"parent_literal,omitempty" yaml:"parent_literal,omitempty"`
	ChildAttribute  *mappedRef `json:"child_attribute,omitempty" yaml:"child_attribute,omitempty"`
	ParentAttribute *mappedRef `json:"parent_attribute,omitempty" yaml:"parent_attribute,omitempty"`
	ParentAlias     string     `json:"parent_alias,omitempty" yaml:"parent_alias,omitempty"`
}

type composition struct {
	ID              string           `json:"id" yaml:"id"`
	Name            string           `json:"name,omitempty" yaml:"name,omitempty"`
	Type            string           `json:"type" yaml:"type"`
	Clause          string           `json:"clause" yaml:"clause"`
	Entity          *mappedRef       `json:"entity" yaml:"entity"`
	Alias           string           `json:"alias" yaml:"alias"`
	Order           int              `json:"order" yaml:"order"`
	JoinConditions  []joinCondition  `json:"join_conditions,omitempty" yaml:"join_conditions,omitempty"`
	ApplyConditions []map[string]any `json:"apply_conditions,omitempty" yaml:"apply_conditions,omitempty"`
}

type sourceAttribute struct {
	Attribute   *mappedRef `json:"attribute" yaml:"attribute"`
	Entity      *mappedRef `json:"entity" yaml:"entity"`
	EntityAlias string     `json:"entity_alias" yaml:"entity_alias"`
}

type attributeMapping struct {
	Order        int              `json:"order" yaml:"order"`
	Target       *mappedRef       `json:"target" yaml:"target"`
	TargetEntity *mappedRef       `json:"target_entity" yaml:"target_entity"`
	Source       *sourceAttribute `json:"source,omitempty" yaml:"source,omitempty"`
}

type mapping struct {
	ID                string             `json:"id" yaml:"id"`
	ObjectID          string             `json:"object_id,omitempty" yaml:"object_id,omitempty"`
	Name              string             `json:"name" yaml:"name"`
	Stereotype        string             `json:"stereotype,omitempty" yaml:"stereotype,omitempty"`
	DataSourceID      string             `json:"data_source_id,omitempty" yaml:"data_source_id,omitempty"`
	Target            *mappedRef         `json:"target" yaml:"target"`
	Sources           []mappedRef        `json:"sources" yaml:"sources"`
	Compositions      []composition      `json:"compositions" yaml:"compositions"`
	AttributeMappings []attributeMapping `json:"attribute_mappings" yaml:"attribute_mappings"`
}

func newDocument(doc *core.Document) document {
	out := document{
		Models:   make([]model, 0, len(doc.Models)),
		Mappings: make([]mapping, 0, len(doc.Mappings)),
	}
	for _, m := range doc.Models {
		out.Models = append(out.Models, newModel(m))
	}
	o := newOwners(doc.Models)
	for _, m := range doc.Mappings {
		out.Mappings = append(out.Mappings, o.newMapping(m))
	}
	return out
}

func newModel(m *core.Model) model {
	out := model{
		ID:               m.ID,
		ObjectID:         m.ObjectID,
		Name:             m.Name,
		Code:             m.Code,
		TargetID:         m.TargetID,
		Creator:          m.Creator,
		Modifier:         m.Modifier,
		Author:           m.Author,
		Version:          m.Version,
		CreationDate:     m.CreationDate,
		ModificationDate: m.ModificationDate,
		IsDocumentModel:  m.IsDocumentModel,
		Entities:         make([]entity, 0, len(m.Entities)),
	}
	for _, e := range m.Entities {
		out.Entities = append(out.Entities, newEntity(e))
	}
	for _, r := range m.Relationships {
		out.Relationships = append(out.Relationships, newRelationship(r))
	}
	return out
}

func newEntity(e *core.Entity) entity {
	out := entity{
		ID:               e.ID,
		ObjectID:         e.ObjectID,
		Name:             e.Name,
		Code:             e.Code,
		Stereotype:       e.Stereotype,
		TargetID:         e.TargetID,
		IsShortcut:       e.IsShortcut,
		CreationDate:     e.CreationDate,
		ModificationDate: e.ModificationDate,
		Attributes:       make([]attribute, 0, len(e.Attributes)),
	}
	for _, a := range e.Attributes {
		out.Attributes = append(out.Attributes, newAttribute(a))
	}
	for _, id := range e.Identifiers {
		ident := identifier{
			ID:         id.ID,
			Name:       id.Name,
			Code:       id.Code,
			IsPrimary:  id.IsPrimary,
			Attributes: make([]ref, 0, len(id.Attributes)),
		}
		for _, a := range id.Attributes {
			ident.Attributes = append(ident.Attributes, *attributeRef(a))
		}
		out.Identifiers = append(out.Identifiers, ident)
	}
	return out
}

func newAttribute(a *core.Attribute) attribute {
	out := attribute{
		ID:               a.ID,
		ObjectID:         a.ObjectID,
		Name:             a.Name,
		Code:             a.Code,
		Stereotype:       a.Stereotype,
		Order:            a.Order,
		DataType:         a.DataType,
		Length:           a.Length,
		Precision:        a.Precision,
		Mandatory:        a.Mandatory,
		CreationDate:     a.CreationDate,
		ModificationDate: a.ModificationDate,
	}
	if d := a.Domain; d != nil {
		out.Domain = &domain{
			ID:        d.ID,
			Name:      d.Name,
			Code:      d.Code,
			DataType:  d.DataType,
			Length:    d.Length,
			Precision: d.Precision,
		}
	}
	return out
}

func newRelationship(r *core.Relationship) relationship {
	out := relationship{
		ID:       r.ID,
		ObjectID: r.ObjectID,
		Name:     r.Name,
		Code:     r.Code,
		Entity1:  entityRef(r.Entity1),
		Entity2:  entityRef(r.Entity2),
		Joins:    make([]join, 0, len(r.Joins)),
	}
	for _, j := range r.Joins {
		out.Joins = append(out.Joins, join{
			Order:            j.Order,
			Entity1Attribute: attributeRef(j.Entity1Attribute),
			Entity2Attribute: attributeRef(j.Entity2Attribute),
		})
	}
	for _, id := range r.Identifiers {
		out.Identifiers = append(out.Identifiers, ref{ID: id.ID, Name: id.Name, Code: id.Code})
	}
	return out
}

func (o owners) newMapping(m *core.Mapping) mapping {
	out := mapping{
		ID:                m.ID,
		ObjectID:          m.ObjectID,
		Name:              m.Name,
		Stereotype:        m.Stereotype,
		DataSourceID:      m.DataSourceID,
		Target:            o.entity(m.Target),
		Sources:           make([]mappedRef, 0, len(m.Sources)),
		Compositions:      make([]composition, 0, len(m.Compositions)),
		AttributeMappings: make([]attributeMapping, 0, len(m.AttributeMappings)),
	}
	for _, s := range m.Sources {
		if r := o.entity(s); r != nil {
			out.Sources = append(out.Sources, *r)
		}
	}
	for _, c := range m.Compositions {
		out.Compositions = append(out.Compositions, o.newComposition(c))
	}
	for _, am := range m.AttributeMappings {
		a := attributeMapping{
			Order:        am.Order,
			Target:       o.attribute(am.Target),
			TargetEntity: o.entity(am.TargetEntity),
		}
		if src := am.Source; src != nil {
			a.Source = &sourceAttribute{
				Attribute:   o.attribute(src.Attribute),
				Entity:      o.entity(src.Entity),
				EntityAlias: src.EntityAlias,
			}
		}
		out.AttributeMappings = append(out.AttributeMappings, a)
	}
	return out
}

func (o owners) newComposition(c *core.Composition) composition {
	out := composition{
		ID:              c.ID,
		Name:            c.Name,
		Type:            c.Type.String(),
		Clause:          c.Clause,
		Entity:          o.entity(c.Entity),
		Alias:           c.Alias,
		Order:           c.Order,
		ApplyConditions: c.ApplyConditions,
	}
	for _, jc := range c.JoinConditions {
		out.JoinConditions = append(out.JoinConditions, joinCondition{
			ID:              jc.ID,
			Name:            jc.Name,
			Order:           jc.Order,
			Operator:        jc.Operator,
			ParentLiteral:   jc.ParentLiteral,
			ChildAttribute:  o.attribute(jc.ChildAttribute),
			ParentAttribute: o.attribute(jc.ParentAttribute),
			ParentAlias:     jc.ParentAlias,
		})
	}
	return out
}

func entityRef(e *core.Entity) *ref {
	if e == nil {
		return nil
	}
	return &ref{ID: e.ID, Name: e.Name, Code: e.Code}
}

func attributeRef(a *core.Attribute) *ref {
	if a == nil {
		return nil
	}
	return &ref{ID: a.ID, Name: a.Name, Code: a.Code}
}

// owners maps entities to their model and attributes to their entity. An
// object listed by several models belongs to the first one.
type owners struct {
	models   map[*core.Entity]*core.Model
	entities map[*core.Attribute]*core.Entity
}

func newOwners(models []*core.Model) owners {
	o := owners{
		models:   make(map[*core.Entity]*core.Model),
		entities: make(map[*core.Attribute]*core.Entity),
	}
	for _, m := range models {
		for _, e := range m.Entities {
			if _, ok := o.models[e]; !ok {
				o.models[e] = m
			}
			for _, a := range e.Attributes {
				if _, ok := o.entities[a]; !ok {
					o.entities[a] = e
				}
			}
		}
	}
	return o
}

func (o owners) entity(e *core.Entity) *mappedRef {
	if e == nil {
		return nil
	}
	return &mappedRef{ID: e.ID, Name: e.Name, Code: e.Code, Model: modelRef(o.models[e])}
}

func (o owners) attribute(a *core.Attribute) *mappedRef {
	if a == nil {
		return nil
	}
	out := &mappedRef{ID: a.ID, Name: a.Name, Code: a.Code}
	if e, ok := o.entities[a]; ok {
		out.Entity = entityRef(e)
		out.Model = modelRef(o.models[e])
	}
	return out
}

func modelRef(m *core.Model) *ref {
	if m == nil {
		return nil
	}
	return &ref{ID: m.ID, Name: m.Name, Code: m.Code}
}
