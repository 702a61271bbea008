package core

import "time"

// Domain is a reusable datatype definition referenced by attributes.
type Domain struct {
	ID               string     `mapstructure:"Id"`
	ObjectID         string     `mapstructure:"ObjectID"`
	Name             string     `mapstructure:"Name"`
	Code             string     `mapstructure:"Code"`
	DataType         string     `mapstructure:"DataType"`
	Length           *int       `mapstructure:"Length"`
	Precision        *int       `mapstructure:"Precision"`
	CreationDate     *time.Time `mapstructure:"CreationDate"`
	ModificationDate *time.Time `mapstructure:"ModificationDate"`
}

// Attribute is a column-like member of an entity.
// For shortcut entities the attributes are the entity's sub-shortcuts.
type Attribute struct {
	ID               string     `mapstructure:"Id"`
	ObjectID         string     `mapstructure:"ObjectID"`
	Name             string     `mapstructure:"Name"`
	Code             string     `mapstructure:"Code"`
	Stereotype       string     `mapstructure:"Stereotype"`
	DataType         string     `mapstructure:"DataType"`
	Length           *int       `mapstructure:"Length"`
	Precision        *int       `mapstructure:"Precision"`
	Mandatory        bool       `mapstructure:"Mandatory"`
	CreationDate     *time.Time `mapstructure:"CreationDate"`
	ModificationDate *time.Time `mapstructure:"ModificationDate"`

	// Order is the declaration position within the owning entity.
	Order int `mapstructure:"-"`
	// Domain is the shared domain the attribute is typed by, if any.
	Domain *Domain `mapstructure:"-"`
}

// Identifier is a named key of an entity.
type Identifier struct {
	ID        string `mapstructure:"Id"`
	ObjectID  string `mapstructure:"ObjectID"`
	Name      string `mapstructure:"Name"`
	Code      string `mapstructure:"Code"`
	IsPrimary bool   `mapstructure:"-"`
	EntityID  string `mapstructure:"-"`

	// Attributes are the owning entity's own attribute instances.
	Attributes []*Attribute `mapstructure:"-"`
}

// Entity is a table-like object of a model.
type Entity struct {
	ID               string     `mapstructure:"Id"`
	ObjectID         string     `mapstructure:"ObjectID"`
	Name             string     `mapstructure:"Name"`
	Code             string     `mapstructure:"Code"`
	Stereotype       string     `mapstructure:"Stereotype"`
	TargetID         string     `mapstructure:"TargetID"`
	CreationDate     *time.Time `mapstructure:"CreationDate"`
	ModificationDate *time.Time `mapstructure:"ModificationDate"`

	// IsShortcut marks entities defined in another model.
	IsShortcut  bool          `mapstructure:"-"`
	Attributes  []*Attribute  `mapstructure:"-"`
	Identifiers []*Identifier `mapstructure:"-"`
}

// PrimaryIdentifier returns the identifier flagged as primary, or nil.
func (e *Entity) PrimaryIdentifier() *Identifier {
	for _, id := range e.Identifiers {
		if id.IsPrimary {
			return id
		}
	}
	return nil
}

// Attribute returns the owned attribute with the given ID, or nil.
func (e *Entity) Attribute(id string) *Attribute {
	for _, a := range e.Attributes {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// RelationshipJoin pairs one attribute of each relationship endpoint.
type RelationshipJoin struct {
	Order            int
	Entity1Attribute *Attribute
	Entity2Attribute *Attribute
}

// Relationship is a foreign-key like link between two entities.
type Relationship struct {
	ID       string `mapstructure:"Id"`
	ObjectID string `mapstructure:"ObjectID"`
	Name     string `mapstructure:"Name"`
	Code     string `mapstructure:"Code"`

	Entity1     *Entity            `mapstructure:"-"`
	Entity2     *Entity            `mapstructure:"-"`
	Joins       []RelationshipJoin `mapstructure:"-"`
	Identifiers []*Identifier      `mapstructure:"-"`
}

// Model is either the model owned by the document or an external model
// whose entities are shortcut-referenced from it.
type Model struct {
	ID               string     `mapstructure:"Id"`
	ObjectID         string     `mapstructure:"ObjectID"`
	Name             string     `mapstructure:"Name"`
	Code             string     `mapstructure:"Code"`
	TargetID         string     `mapstructure:"TargetID"`
	Creator          string     `mapstructure:"Creator"`
	Modifier         string     `mapstructure:"Modifier"`
	Author           string     `mapstructure:"Author"`
	Version          string     `mapstructure:"Version"`
	CreationDate     *time.Time `mapstructure:"CreationDate"`
	ModificationDate *time.Time `mapstructure:"ModificationDate"`

	IsDocumentModel bool            `mapstructure:"-"`
	Entities        []*Entity       `mapstructure:"-"`
	Relationships   []*Relationship `mapstructure:"-"`
}

// Document is the resolved content of one data model document.
type Document struct {
	// Models holds the external models followed by the document model.
	Models   []*Model
	Mappings []*Mapping
	Domains  map[string]*Domain
	Warnings []Warning
}

// DocumentModel returns the model native to the document, or nil.
func (d *Document) DocumentModel() *Model {
	for _, m := range d.Models {
		if m.IsDocumentModel {
			return m
		}
	}
	return nil
}

// ExternalModels returns the models sourced from other documents.
func (d *Document) ExternalModels() []*Model {
	var out []*Model
	for _, m := range d.Models {
		if !m.IsDocumentModel {
			out = append(out, m)
		}
	}
	return out
}
