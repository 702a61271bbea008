// Package core defines the shared language of the ldmgen system.
//
// This package contains:
//   - Resolved model objects (Model, Entity, Attribute, Domain, Identifier, Relationship)
//   - Resolved lineage objects (Mapping, Composition, JoinCondition, AttributeMapping)
//   - The extraction result (Document) and its non-fatal Warnings
//   - Service interfaces and configuration shared by the outer layers (Adapter, Store, TargetConfig)
//
// Objects are owned by exactly one slice. Every other place that refers to
// an object holds a pointer to that owned instance, never a copy.
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
