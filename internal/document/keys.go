// Package document provides access helpers for the raw, deserialized data
// model tree: key normalization, single-vs-sequence coercion, reference
// lookup and timestamp coercion.
//
// The raw tree uses the decorations of the XML it came from. Attributes are
// prefixed with "@", scalar fields with "a:", collections with "c:" and
// object kinds with "o:". Collections hold either a single record or a
// sequence of records depending on how many children the source had.
package document

import "strings"

// Record is one node of the raw tree.
type Record = map[string]any

const (
	attrPrefix  = "@"
	fieldPrefix = "a:"
)

// CleanKey strips a leading "@" and then a leading "a:" from key.
func CleanKey(key string) string {
	key = strings.TrimPrefix(key, attrPrefix)
	return strings.TrimPrefix(key, fieldPrefix)
}

// CleanKeys returns a copy of v with the keys of every top-level record
// cleaned by CleanKey. v is a record or a sequence of records; any other
// value is returned unchanged. Nested records are not touched and the input
// is never mutated.
func CleanKeys(v any) any {
	switch t := v.(type) {
	case Record:
		return cleanRecord(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			if rec, ok := item.(Record); ok {
				out[i] = cleanRecord(rec)
				continue
			}
			out[i] = item
		}
		return out
	case []Record:
		out := make([]Record, len(t))
		for i, rec := range t {
			out[i] = cleanRecord(rec)
		}
		return out
	default:
		return v
	}
}

// CleanRecord is CleanKeys for a single record.
func CleanRecord(rec Record) Record {
	if rec == nil {
		return nil
	}
	return cleanRecord(rec)
}

func cleanRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[CleanKey(k)] = v
	}
	return out
}

// Records coerces a collection value to a sequence of records. A single
// record becomes a one-element sequence, nil becomes an empty sequence and
// non-record items of a sequence are skipped.
func Records(v any) []Record {
	switch t := v.(type) {
	case nil:
		return nil
	case Record:
		return []Record{t}
	case []Record:
		return t
	case []any:
		out := make([]Record, 0, len(t))
		for _, item := range t {
			if rec, ok := item.(Record); ok {
				out = append(out, rec)
			}
		}
		return out
	default:
		return nil
	}
}
