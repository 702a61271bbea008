package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultTimestampFields are the raw keys holding Unix epoch timestamps.
var DefaultTimestampFields = []string{"a:CreationDate", "a:ModificationDate"}

// ErrInvalidTimestamp is returned when a timestamp field does not hold a
// Unix epoch value.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// TimestampError reports the location and value of an unparseable
// timestamp field.
type TimestampError struct {
	Path  string
	Value any
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("%s at %s: %v", ErrInvalidTimestamp, e.Path, e.Value)
}

// Unwrap returns ErrInvalidTimestamp.
func (e *TimestampError) Unwrap() error {
	return ErrInvalidTimestamp
}

// ConvertTimestamps replaces, in place, the value of every key named in
// fields with the UTC time it encodes. Every record and sequence of the tree
// is visited. Values that are already time.Time are left as they are; nil
// and blank values are invalid like any other non-epoch value.
func ConvertTimestamps(root any, fields ...string) error {
	if len(fields) == 0 {
		fields = DefaultTimestampFields
	}
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return convert(root, "", set)
}

func convert(v any, path string, fields map[string]struct{}) error {
	switch t := v.(type) {
	case Record:
		for key, val := range t {
			p := joinPath(path, key)
			if _, ok := fields[key]; ok {
				ts, err := ParseEpoch(val)
				if err != nil {
					return &TimestampError{Path: p, Value: val}
				}
				t[key] = ts
				continue
			}
			if err := convert(val, p, fields); err != nil {
				return err
			}
		}
	case []any:
		for i, item := range t {
			if err := convert(item, fmt.Sprintf("%s[%d]", path, i), fields); err != nil {
				return err
			}
		}
	case []Record:
		for i, item := range t {
			if err := convert(item, fmt.Sprintf("%s[%d]", path, i), fields); err != nil {
				return err
			}
		}
	}
	return nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "/" + key
}

// ParseEpoch converts a Unix epoch value to a UTC time.
func ParseEpoch(v any) (time.Time, error) {
	var secs int64
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, ErrInvalidTimestamp
		}
		return *t, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidTimestamp, err)
		}
		secs = n
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidTimestamp, err)
		}
		secs = n
	case float64:
		if t != math.Trunc(t) {
			return time.Time{}, ErrInvalidTimestamp
		}
		secs = int64(t)
	case int:
		secs = int64(t)
	case int64:
		secs = t
	default:
		return time.Time{}, ErrInvalidTimestamp
	}
	return time.Unix(secs, 0).UTC(), nil
}
