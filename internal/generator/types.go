package generator

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/leapstack-labs/ldmgen/pkg/core"
)

// SQLType maps the data type code of an attribute, such as "VA100" or
// "DC10,2", to a portable SQL type. Explicit Length and Precision on the
// attribute take precedence over the size embedded in the code. Unknown
// codes are returned unchanged.
func SQLType(a *core.Attribute) string {
	if a == nil {
		return "VARCHAR"
	}
	code, length, precision := splitDataType(a.DataType)
	if a.Length != nil {
		length = a.Length
	}
	if a.Precision != nil {
		precision = a.Precision
	}

	switch code {
	case "":
		return "VARCHAR"
	case "I":
		return "INTEGER"
	case "SI", "BT":
		return "SMALLINT"
	case "LI":
		return "BIGINT"
	case "N", "NO", "DC":
		return sized("DECIMAL", length, precision)
	case "MN":
		if length == nil {
			return "DECIMAL(19,4)"
		}
		return sized("DECIMAL", length, precision)
	case "F", "LF":
		return "DOUBLE PRECISION"
	case "SF":
		return "REAL"
	case "BL":
		return "BOOLEAN"
	case "A", "MBT":
		return sized("CHAR", length, nil)
	case "VA", "VMBT", "LA", "LVA":
		return sized("VARCHAR", length, nil)
	case "TXT", "MTXT":
		return "TEXT"
	case "D":
		return "DATE"
	case "T":
		return "TIME"
	case "DT", "TS":
		return "TIMESTAMP"
	case "BIN", "VBIN", "LBIN", "PIC", "BMP", "OLE":
		return "BYTEA"
	default:
		return a.DataType
	}
}

func sized(name string, length, precision *int) string {
	switch {
	case length == nil:
		return name
	case precision == nil:
		return fmt.Sprintf("%s(%d)", name, *length)
	default:
		return fmt.Sprintf("%s(%d,%d)", name, *length, *precision)
	}
}

// splitDataType splits "DC10,2" into "DC", 10 and 2.
func splitDataType(dt string) (code string, length, precision *int) {
	dt = strings.ToUpper(strings.TrimSpace(dt))
	i := strings.IndexFunc(dt, unicode.IsDigit)
	if i < 0 {
		return dt, nil, nil
	}
	code = dt[:i]
	size, scale, hasScale := strings.Cut(dt[i:], ",")
	if n, err := strconv.Atoi(size); err == nil {
		length = &n
	}
	if hasScale {
		if n, err := strconv.Atoi(scale); err == nil {
			precision = &n
		}
	}
	return code, length, precision
}

var reservedWords = map[string]bool{
	"user": true, "order": true, "group": true, "table": true,
	"select": true, "from": true, "where": true, "index": true,
	"key": true, "column": true, "default": true, "check": true,
	"limit": true, "primary": true, "references": true, "to": true,
}

// Ident turns a model name or code into a lower-case SQL identifier.
// Blanks and dashes become underscores; reserved words and names with
// other special characters are double-quoted.
func Ident(name string) string {
	safe := strings.TrimSpace(strings.ToLower(name))
	if safe == "" {
		return ""
	}
	safe = strings.NewReplacer(" ", "_", "-", "_").Replace(safe)

	plain := true
	for _, r := range safe {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			plain = false
			break
		}
	}
	if !plain || reservedWords[safe] || unicode.IsDigit(rune(safe[0])) {
		return `"` + strings.ReplaceAll(safe, `"`, `""`) + `"`
	}
	return safe
}
