package extract

import (
	"fmt"

	"github.com/leapstack-labs/ldmgen/internal/document"
	"github.com/leapstack-labs/ldmgen/pkg/core"
)

// ResolveExternalModels resolves the models that own the shortcut entities
// of the document.
//
// The document never nests a shortcut entity under its owning model. Both
// are linked through a target model record instead:
//
//	shortcut entity  <-  target model (TargetModelID)  <-  model shortcut (TargetID)
//
// Each model shortcut whose target model claims at least one shortcut
// entity becomes an external model holding exactly those entities. Model
// shortcuts that claim nothing are dropped.
func ResolveExternalModels(root document.Record, warn *Warnings) ([]*core.Model, error) {
	shortcuts, order, err := resolveShortcutEntities(root, warn)
	if err != nil {
		return nil, err
	}

	byTarget := claimShortcuts(root, shortcuts, warn)

	candidates, ok := document.ChildRecord(root, "c:SourceModels")
	if !ok {
		warn.Add(core.WarningMissingSection, stageExternalModel, "", "", "document declares no source models")
	}

	var models []*core.Model
	emitted := make(map[string]bool)
	claimed := make(map[string]bool)
	for _, raw := range document.Records(candidates["o:Shortcut"]) {
		rec := document.CleanRecord(raw)
		model := &core.Model{}
		if err := decodeRecord(rec, model); err != nil {
			return nil, malformed(stageExternalModel, document.String(rec, "Id"), document.String(rec, "Name"), err)
		}

		entities := byTarget[model.TargetID]
		if len(entities) == 0 {
			warn.Logger().Debug("dropping external model without shortcut entities",
				"model", model.Name, "target_id", model.TargetID)
			continue
		}
		if emitted[model.TargetID] {
			warn.Add(core.WarningDuplicate, stageExternalModel, model.ID, model.Name,
				fmt.Sprintf("target model %q already emitted", model.TargetID))
			continue
		}
		emitted[model.TargetID] = true

		model.IsDocumentModel = false
		model.Entities = entities
		for _, e := range entities {
			claimed[e.ID] = true
		}
		models = append(models, model)
	}

	for _, id := range order {
		if !claimed[id] {
			e := shortcuts[id]
			warn.Add(core.WarningUnused, stageShortcutEntity, e.ID, e.Name, "shortcut entity belongs to no external model")
		}
	}

	warn.Logger().Debug("resolved external models", "count", len(models), "shortcuts", len(order))
	return models, nil
}

// resolveShortcutEntities returns the shortcut entities keyed by ID, and
// their IDs in declaration order.
func resolveShortcutEntities(root document.Record, warn *Warnings) (map[string]*core.Entity, []string, error) {
	out := make(map[string]*core.Entity)
	var order []string

	for _, raw := range document.Records(document.Child(root, "c:Entities", "o:Shortcut")) {
		rec := document.CleanRecord(raw)
		entity := &core.Entity{IsShortcut: true}
		if err := decodeRecord(rec, entity); err != nil {
			return nil, nil, malformed(stageShortcutEntity, document.String(rec, "Id"), document.String(rec, "Name"), err)
		}
		if entity.ID == "" {
			return nil, nil, malformedf(stageShortcutEntity, "", entity.Name, "shortcut without id")
		}
		if _, dup := out[entity.ID]; dup {
			return nil, nil, malformedf(stageShortcutEntity, entity.ID, entity.Name, "duplicate shortcut id")
		}

		subs := document.Records(document.Child(raw, "c:SubShortcuts", "o:Shortcut"))
		if len(subs) == 0 {
			warn.Add(core.WarningIncomplete, stageShortcutEntity, entity.ID, entity.Name, "shortcut entity declares no attributes")
		}
		for i, sub := range subs {
			subRec := document.CleanRecord(sub)
			attr := &core.Attribute{Order: i}
			if err := decodeRecord(subRec, attr); err != nil {
				return nil, nil, malformed(stageAttribute, document.String(subRec, "Id"), document.String(subRec, "Name"), err)
			}
			if attr.ID == "" {
				return nil, nil, malformedf(stageAttribute, "", attr.Name, "attribute shortcut without id")
			}
			if entity.Attribute(attr.ID) != nil {
				return nil, nil, malformedf(stageAttribute, attr.ID, attr.Name, "duplicate attribute id in shortcut %q", entity.Name)
			}
			entity.Attributes = append(entity.Attributes, attr)
		}

		out[entity.ID] = entity
		order = append(order, entity.ID)
	}
	return out, order, nil
}

// claimShortcuts maps each target model ID to the shortcut entities its
// target model records declare, in declaration order. Target models that
// claim no known shortcut are left out.
func claimShortcuts(root document.Record, shortcuts map[string]*core.Entity, warn *Warnings) map[string][]*core.Entity {
	out := make(map[string][]*core.Entity)

	section, ok := document.ChildRecord(root, "c:TargetModels")
	if !ok {
		warn.Add(core.WarningMissingSection, stageExternalModel, "", "", "document declares no target models")
		return out
	}

	for _, raw := range document.Records(section["o:TargetModel"]) {
		targetID := document.String(raw, "a:TargetModelID")
		seen := make(map[string]bool, len(out[targetID]))
		for _, e := range out[targetID] {
			seen[e.ID] = true
		}
		for _, ref := range document.Refs(document.Child(raw, "c:SessionShortcuts", "o:Shortcut")) {
			e, ok := shortcuts[ref]
			if !ok || seen[ref] {
				continue
			}
			seen[ref] = true
			out[targetID] = append(out[targetID], e)
		}
	}
	return out
}
