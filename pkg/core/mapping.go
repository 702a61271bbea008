package core

import "strings"

// CompositionType is the clause kind of a composition.
type CompositionType int

// Composition clause kinds.
const (
	CompositionFrom CompositionType = iota
	CompositionJoin
	CompositionApply
)

// String returns the clause keyword for the type.
func (t CompositionType) String() string {
	switch t {
	case CompositionFrom:
		return "FROM"
	case CompositionJoin:
		return "JOIN"
	case CompositionApply:
		return "APPLY"
	default:
		return "UNKNOWN"
	}
}

// ParseCompositionType classifies a decoded clause such as "FROM",
// "LEFT JOIN" or "CROSS APPLY".
func ParseCompositionType(clause string) CompositionType {
	c := strings.ToUpper(strings.TrimSpace(clause))
	switch {
	case c == "FROM":
		return CompositionFrom
	case strings.Contains(c, "APPLY"):
		return CompositionApply
	default:
		return CompositionJoin
	}
}

// Mapping describes how a target entity is populated from source entities.
type Mapping struct {
	ID           string `mapstructure:"Id"`
	ObjectID     string `mapstructure:"ObjectID"`
	Name         string `mapstructure:"Name"`
	Stereotype   string `mapstructure:"Stereotype"`
	DataSourceID string `mapstructure:"-"`

	Target            *Entity             `mapstructure:"-"`
	Sources           []*Entity           `mapstructure:"-"`
	Compositions      []*Composition      `mapstructure:"-"`
	AttributeMappings []*AttributeMapping `mapstructure:"-"`
}

// Composition returns the composition with the given alias, or nil.
func (m *Mapping) Composition(alias string) *Composition {
	for _, c := range m.Compositions {
		if c.Alias == alias {
			return c
		}
	}
	return nil
}

// Composition is one FROM/JOIN/APPLY clause of a mapping.
type Composition struct {
	ID       string `mapstructure:"Id"`
	ObjectID string `mapstructure:"ObjectID"`
	Name     string `mapstructure:"Name"`

	Type CompositionType `mapstructure:"-"`
	// Clause is the decoded clause text, e.g. "LEFT JOIN".
	Clause string  `mapstructure:"-"`
	Entity *Entity `mapstructure:"-"`
	Alias  string  `mapstructure:"-"`
	Order  int     `mapstructure:"-"`

	JoinConditions []*JoinCondition `mapstructure:"-"`
	// ApplyConditions holds the undecoded condition records of APPLY
	// clauses, with their top-level keys cleaned.
	ApplyConditions []map[string]any `mapstructure:"-"`
}

// JoinCondition is one comparison of a JOIN clause.
type JoinCondition struct {
	ID       string `mapstructure:"Id"`
	ObjectID string `mapstructure:"ObjectID"`
	Name     string `mapstructure:"Name"`

	Order    int    `mapstructure:"-"`
	Operator string `mapstructure:"-"`
	// ParentLiteral replaces the parent attribute when comparing to a constant.
	ParentLiteral   *string    `mapstructure:"-"`
	ChildAttribute  *Attribute `mapstructure:"-"`
	ParentAttribute *Attribute `mapstructure:"-"`
	// ParentAlias is the alias of the composition supplying the parent side.
	ParentAlias string `mapstructure:"-"`
}

// SourceAttribute is an attribute read by a mapping, optionally through a
// composition alias.
type SourceAttribute struct {
	Attribute   *Attribute
	Entity      *Entity
	EntityAlias string
}

// AttributeMapping populates one target attribute.
type AttributeMapping struct {
	Order        int
	Target       *Attribute
	TargetEntity *Entity
	Source       *SourceAttribute
}
