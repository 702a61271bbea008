package extract

import (
	"github.com/leapstack-labs/ldmgen/internal/document"
	"github.com/leapstack-labs/ldmgen/pkg/core"
)

// Resolution stages, used in errors and warnings.
const (
	stageDomain         = "domain"
	stageModel          = "model"
	stageEntity         = "entity"
	stageAttribute      = "attribute"
	stageIdentifier     = "identifier"
	stageRelationship   = "relationship"
	stageExternalModel  = "external model"
	stageShortcutEntity = "shortcut entity"
)

// ResolveDomains builds the domain table of a document, keyed by domain ID.
// A document without domains yields an empty table and a warning.
func ResolveDomains(root document.Record, warn *Warnings) (map[string]*core.Domain, error) {
	domains := make(map[string]*core.Domain)

	section, ok := document.ChildRecord(root, "c:Domains")
	if !ok {
		warn.Add(core.WarningMissingSection, stageDomain, "", "", "document declares no domains")
		return domains, nil
	}

	for _, raw := range document.Records(section["o:Domain"]) {
		rec := document.CleanRecord(raw)
		d := &core.Domain{}
		if err := decodeRecord(rec, d); err != nil {
			return nil, malformed(stageDomain, document.String(rec, "Id"), document.String(rec, "Name"), err)
		}
		if d.ID == "" {
			return nil, malformedf(stageDomain, "", d.Name, "domain without id")
		}
		if _, dup := domains[d.ID]; dup {
			return nil, malformedf(stageDomain, d.ID, d.Name, "duplicate domain id")
		}
		domains[d.ID] = d
	}

	warn.Logger().Debug("resolved domains", "count", len(domains))
	return domains, nil
}
