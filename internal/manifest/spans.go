package manifest

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2/unstable"
)

// span is the byte range of a string token, delimiters included.
type span struct {
	start int
	end   int
}

const pathSep = "\x1f"

func joinPath(path []string) string {
	return strings.Join(path, pathSep)
}

// indexStrings records the raw span of every string value reachable through table
// headers, dotted keys and inline tables. Values inside arrays, including arrays of
// tables, are skipped.
func indexStrings(data []byte) (map[string]span, error) {
	spans := make(map[string]span)

	var p unstable.Parser
	p.Reset(data)

	var table []string
	addressable := true
	for p.NextExpression() {
		e := p.Expression()
		switch e.Kind {
		case unstable.Table:
			table = keyParts(e.Key())
			addressable = true
		case unstable.ArrayTable:
			table = nil
			addressable = false
		case unstable.KeyValue:
			if addressable {
				indexKeyValue(spans, table, e)
			}
		}
	}
	if err := p.Error(); err != nil {
		return nil, err
	}
	return spans, nil
}

func indexKeyValue(spans map[string]span, prefix []string, kv *unstable.Node) {
	path := append(append([]string(nil), prefix...), keyParts(kv.Key())...)

	value := kv.Value()
	switch value.Kind {
	case unstable.String:
		start := int(value.Raw.Offset)
		spans[joinPath(path)] = span{start: start, end: start + int(value.Raw.Length)}
	case unstable.InlineTable:
		children := value.Children()
		for children.Next() {
			if child := children.Node(); child.Kind == unstable.KeyValue {
				indexKeyValue(spans, path, child)
			}
		}
	}
}

func keyParts(it unstable.Iterator) []string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

// requote renders value with the delimiters found in raw. Literal strings fall back to
// a basic string when value cannot be written literally.
func requote(raw []byte, value string) ([]byte, error) {
	literalOK := !strings.ContainsRune(value, '\'') && !hasControl(value)

	switch {
	case bytes.HasPrefix(raw, []byte(`"""`)):
		return []byte(`"""` + escapeBasic(value) + `"""`), nil
	case bytes.HasPrefix(raw, []byte(`'''`)):
		if literalOK {
			return []byte(`'''` + value + `'''`), nil
		}
		return []byte(`"` + escapeBasic(value) + `"`), nil
	case bytes.HasPrefix(raw, []byte(`"`)):
		return []byte(`"` + escapeBasic(value) + `"`), nil
	case bytes.HasPrefix(raw, []byte(`'`)):
		if literalOK {
			return []byte(`'` + value + `'`), nil
		}
		return []byte(`"` + escapeBasic(value) + `"`), nil
	default:
		return nil, fmt.Errorf("has unrecognized string delimiters %q", raw)
	}
}

func hasControl(s string) bool {
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return true
		}
	}
	return false
}

func escapeBasic(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

var bareKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// DottedPath renders a key path the way it would be written in TOML.
func DottedPath(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		if bareKey.MatchString(p) {
			parts[i] = p
		} else {
			parts[i] = strconv.Quote(p)
		}
	}
	return strings.Join(parts, ".")
}

// TypeName describes a decoded value using TOML's vocabulary.
func TypeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case int64, int:
		return "integer"
	case float64:
		return "float"
	case bool:
		return "boolean"
	case time.Time:
		return "datetime"
	case map[string]any:
		return "table"
	case []map[string]any:
		return "array of tables"
	case []any:
		return "array"
	case nil:
		return "nothing"
	default:
		return fmt.Sprintf("%T", v)
	}
}
