package extract

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrDanglingReference is matched by every *DanglingReferenceError.
	ErrDanglingReference = errors.New("dangling reference")
	// ErrMalformed is matched by every *MalformedError.
	ErrMalformed = errors.New("malformed document")
	// ErrAmbiguousReference marks a reference slot holding more than one
	// candidate.
	ErrAmbiguousReference = errors.New("ambiguous reference")
	// ErrMissingSection marks a required section that is absent.
	ErrMissingSection = errors.New("missing required section")
)

// location identifies the record being resolved when an error occurred.
type location struct {
	Stage      string
	RecordID   string
	RecordName string
}

func (r location) describe() string {
	switch {
	case r.RecordName != "" && r.RecordID != "":
		return fmt.Sprintf("%s %q (%s)", r.Stage, r.RecordName, r.RecordID)
	case r.RecordID != "":
		return fmt.Sprintf("%s %s", r.Stage, r.RecordID)
	default:
		return r.Stage
	}
}

// DanglingReferenceError is returned when an ID reference matches no
// object of the expected kind.
type DanglingReferenceError struct {
	location
	// Kind is the kind of object the reference should point at.
	Kind  string
	RefID string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("%s: %s: %s %q", e.describe(), ErrDanglingReference, e.Kind, e.RefID)
}

// Is reports whether target is ErrDanglingReference.
func (e *DanglingReferenceError) Is(target error) bool {
	return target == ErrDanglingReference
}

// MalformedError is returned when a record cannot be decoded.
type MalformedError struct {
	location
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.describe(), ErrMalformed, e.Err)
}

// Unwrap returns the underlying cause.
func (e *MalformedError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrMalformed.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

func dangling(stage, recordID, recordName, kind, refID string) *DanglingReferenceError {
	return &DanglingReferenceError{
		location: location{Stage: stage, RecordID: recordID, RecordName: recordName},
		Kind:     kind,
		RefID:    refID,
	}
}

func malformed(stage, recordID, recordName string, err error) *MalformedError {
	return &MalformedError{
		location: location{Stage: stage, RecordID: recordID, RecordName: recordName},
		Err:      err,
	}
}

func malformedf(stage, recordID, recordName, format string, args ...any) *MalformedError {
	return malformed(stage, recordID, recordName, fmt.Errorf(format, args...))
}
