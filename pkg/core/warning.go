package core

import "fmt"

// WarningKind classifies a non-fatal extraction condition.
type WarningKind string

// Warning kinds.
const (
	// WarningMissingSection marks an optional section that is absent.
	WarningMissingSection WarningKind = "missing_section"
	// WarningUnknownVariant marks a discriminator value that is not recognized.
	WarningUnknownVariant WarningKind = "unknown_variant"
	// WarningIncomplete marks a record produced with part of its data missing.
	WarningIncomplete WarningKind = "incomplete"
	// WarningUnused marks a record that nothing in the document refers to.
	WarningUnused WarningKind = "unused"
	// WarningDuplicate marks a record that repeats one already seen.
	WarningDuplicate WarningKind = "duplicate"
)

// Warning is a non-fatal condition met while extracting a document.
type Warning struct {
	Kind       WarningKind
	Stage      string
	RecordID   string
	RecordName string
	Message    string
}

// String returns a single line description of the warning.
func (w Warning) String() string {
	switch {
	case w.RecordName != "" && w.RecordID != "":
		return fmt.Sprintf("[%s] %s %q (%s): %s", w.Kind, w.Stage, w.RecordName, w.RecordID, w.Message)
	case w.RecordID != "":
		return fmt.Sprintf("[%s] %s %s: %s", w.Kind, w.Stage, w.RecordID, w.Message)
	default:
		return fmt.Sprintf("[%s] %s: %s", w.Kind, w.Stage, w.Message)
	}
}
