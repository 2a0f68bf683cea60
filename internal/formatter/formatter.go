package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcncl/jsonedit/internal/models"
)

// DefaultIndent is the indentation used for the text pane and exports.
const DefaultIndent = "  "

// Formatter serializes document values to JSON text. Output is stable: the
// same value always yields the same text, which the editor relies on when it
// compares serializations.
type Formatter struct {
	Indent string
}

// NewFormatter creates a Formatter using two-space indentation
func NewFormatter() *Formatter {
	return &Formatter{Indent: DefaultIndent}
}

// NewFormatterWithIndent creates a Formatter indenting by width spaces. A
// width of zero produces compact output.
func NewFormatterWithIndent(width int) *Formatter {
	if width < 0 {
		width = 0
	}
	return &Formatter{Indent: strings.Repeat(" ", width)}
}

// Format returns the pretty-printed JSON text of v
func (f *Formatter) Format(v models.JSONValue) (string, error) {
	compact, err := f.compact(v)
	if err != nil {
		return "", err
	}
	if f.Indent == "" {
		return string(compact), nil
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", f.Indent); err != nil {
		return "", fmt.Errorf("failed to indent JSON: %w", err)
	}
	return out.String(), nil
}

// Compact returns v as single-line JSON text
func (f *Formatter) Compact(v models.JSONValue) (string, error) {
	b, err := f.compact(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (f *Formatter) compact(v models.JSONValue) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v models.JSONValue) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		if !isNumberLiteral(string(t)) {
			return fmt.Errorf("invalid number literal %q", string(t))
		}
		buf.WriteString(string(t))
	case string:
		return writeString(buf, t)
	case models.JSONArray:
		buf.WriteByte('[')
		for i, elem := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case models.JSONObject:
		buf.WriteByte('{')
		for i, m := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeValue(buf, m.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported value of type %T", v)
	}
	return nil
}

// writeString quotes s without HTML escaping, so "<" and "&" stay readable
// in the text pane.
func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1) // Encode appends a newline
	return nil
}

// isNumberLiteral reports whether s matches the JSON number grammar.
func isNumberLiteral(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	switch {
	case i < len(s) && s[i] == '0':
		i++
	case i < len(s) && s[i] >= '1' && s[i] <= '9':
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	default:
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		if i == len(s) || !isDigit(s[i]) {
			return false
		}
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if i == len(s) || !isDigit(s[i]) {
			return false
		}
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
