// Package attrtext reads values out of extended attribute text blobs.
//
// The blobs hold records of the form
//
//	{GUID},token,N=value
//
// separated by newlines or semicolons. N is the length of the value, so a
// value may itself hold a semicolon. When N does not end on a record
// boundary the value runs to the next separator instead.
package attrtext

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrTokenNotFound is returned when a blob holds no record for a token.
var ErrTokenNotFound = errors.New("token not found")

// TokenError reports a missing token.
type TokenError struct {
	Token string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%s: %q", ErrTokenNotFound, e.Token)
}

// Unwrap returns ErrTokenNotFound.
func (e *TokenError) Unwrap() error {
	return ErrTokenNotFound
}

// Value returns the value of the first record for token. It fails with
// ErrTokenNotFound when no record exists.
func Value(text, token string) (string, error) {
	v, ok := Lookup(text, token)
	if !ok {
		return "", &TokenError{Token: token}
	}
	return v, nil
}

// Keyword is Value with the result upper-cased, for tokens whose values are
// SQL keywords such as join types and operators.
func Keyword(text, token string) (string, error) {
	v, err := Value(text, token)
	if err != nil {
		return "", err
	}
	return cases.Upper(language.Und).String(v), nil
}

// Lookup returns the value of the first record for token and whether one
// was found. The value is returned as written, with surrounding blanks
// trimmed.
func Lookup(text, token string) (string, bool) {
	if token == "" {
		return "", false
	}
	needle := token + ","
	for from := 0; from < len(text); {
		idx := strings.Index(text[from:], needle)
		if idx < 0 {
			return "", false
		}
		start := from + idx
		from = start + len(needle)
		if start > 0 && isIdentByte(text[start-1]) {
			continue
		}

		rest := text[from:]
		header := rest
		if end := strings.IndexAny(header, "\n;"); end >= 0 {
			header = header[:end]
		}
		eq := strings.IndexByte(header, '=')
		if eq < 0 {
			continue
		}
		if v, ok := sized(rest[eq+1:], header[:eq]); ok {
			return strings.TrimSpace(v), true
		}
		return strings.TrimSpace(strings.TrimSuffix(header[eq+1:], "\r")), true
	}
	return "", false
}

// sized cuts the first n bytes of rest, n being the decimal length field,
// when they end at a record boundary.
func sized(rest, length string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(length))
	if err != nil || n < 0 || n > len(rest) {
		return "", false
	}
	if n < len(rest) && !strings.ContainsRune("\r\n;", rune(rest[n])) {
		return "", false
	}
	return rest[:n], true
}

func isIdentByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
