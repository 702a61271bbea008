package document

import (
	"fmt"
	"strconv"
)

// Child walks path through nested records and returns the value found at
// its end. It returns nil when a step is missing or is not a record.
func Child(v any, path ...string) any {
	cur := v
	for _, key := range path {
		rec, ok := cur.(Record)
		if !ok {
			return nil
		}
		cur, ok = rec[key]
		if !ok {
			return nil
		}
	}
	return cur
}

// ChildRecord is Child for a value that must be a single record.
func ChildRecord(v any, path ...string) (Record, bool) {
	rec, ok := Child(v, path...).(Record)
	return rec, ok
}

// Has reports whether the record holds key.
func Has(rec Record, key string) bool {
	_, ok := rec[key]
	return ok
}

// Ref returns the ID a reference record points at. Both the raw "@Ref" and
// the cleaned "Ref" spelling are accepted.
func Ref(v any) (string, bool) {
	rec, ok := v.(Record)
	if !ok {
		return "", false
	}
	for _, key := range []string{"@Ref", "Ref"} {
		if id, ok := rec[key].(string); ok && id != "" {
			return id, true
		}
	}
	return "", false
}

// Refs returns the IDs of a collection of reference records, in order.
func Refs(v any) []string {
	var out []string
	for _, rec := range Records(v) {
		if id, ok := Ref(rec); ok {
			out = append(out, id)
		}
	}
	return out
}

// KindRef is a reference found under one object kind key such as
// "o:Entity" or "o:Shortcut".
type KindRef struct {
	Kind string
	ID   string
}

// KindRefs collects the references a container holds under each of the
// given kinds, in kinds order and then in declaration order.
func KindRefs(container any, kinds ...string) []KindRef {
	rec, ok := container.(Record)
	if !ok {
		return nil
	}
	var out []KindRef
	for _, kind := range kinds {
		for _, id := range Refs(rec[kind]) {
			out = append(out, KindRef{Kind: kind, ID: id})
		}
	}
	return out
}

// String returns the scalar at key as a string. Missing and nil values
// yield "".
func String(rec Record, key string) string {
	switch v := rec[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
