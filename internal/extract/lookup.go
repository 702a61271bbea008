package extract

import (
	"github.com/leapstack-labs/ldmgen/pkg/core"
)

const stageLookup = "lookup"

// Lookup indexes the entities and attributes of every resolved model by ID.
// It is built once, after all models are resolved, and is read-only.
type Lookup struct {
	entities   map[string]*core.Entity
	attributes map[string]ownedAttribute
}

type ownedAttribute struct {
	attr  *core.Attribute
	owner *core.Entity
}

// NewLookup indexes models. An ID held by two different objects is an
// error.
func NewLookup(models []*core.Model) (*Lookup, error) {
	l := &Lookup{
		entities:   make(map[string]*core.Entity),
		attributes: make(map[string]ownedAttribute),
	}
	for _, m := range models {
		for _, e := range m.Entities {
			if prev, ok := l.entities[e.ID]; ok {
				if prev == e {
					continue
				}
				return nil, malformedf(stageLookup, e.ID, e.Name, "entity id also used by %q", prev.Name)
			}
			l.entities[e.ID] = e
			for _, a := range e.Attributes {
				if prev, ok := l.attributes[a.ID]; ok {
					return nil, malformedf(stageLookup, a.ID, a.Name, "attribute id also used in %q", prev.owner.Name)
				}
				l.attributes[a.ID] = ownedAttribute{attr: a, owner: e}
			}
		}
	}
	return l, nil
}

// Entity returns the entity or shortcut entity with the given ID.
func (l *Lookup) Entity(id string) (*core.Entity, bool) {
	e, ok := l.entities[id]
	return e, ok
}

// Attribute returns the attribute with the given ID and the entity that
// owns it.
func (l *Lookup) Attribute(id string) (*core.Attribute, *core.Entity, bool) {
	oa, ok := l.attributes[id]
	return oa.attr, oa.owner, ok
}

// Entities returns the number of indexed entities.
func (l *Lookup) Entities() int { return len(l.entities) }

// Attributes returns the number of indexed attributes.
func (l *Lookup) Attributes() int { return len(l.attributes) }
