// Package analyzer infers and coerces the declared types used by the tree
// editor's forms, and summarizes document structure.
package analyzer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/mcncl/jsonedit/internal/errors"
	"github.com/mcncl/jsonedit/internal/formatter"
	"github.com/mcncl/jsonedit/internal/models"
)

// DefaultKind is the declared type preselected when creating a node.
const DefaultKind = models.KindString

// ParseKind validates a declared type name.
func ParseKind(s string) (models.Kind, error) {
	k := models.Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range models.Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", errors.NewValidationError(fmt.Sprintf("unknown type %q", s), errors.ErrInvalidType)
}

// InferKind returns the declared type a form should preselect for a node.
// A present null is KindNull; an absent node falls back to DefaultKind.
func InferKind(v models.JSONValue, present bool) models.Kind {
	if !present {
		return DefaultKind
	}
	if k := models.KindOf(v); k != "" {
		return k
	}
	return DefaultKind
}

// Coerce converts raw form input into a value of the declared kind.
func Coerce(raw string, kind models.Kind) (models.JSONValue, error) {
	switch kind {
	case models.KindString:
		return raw, nil
	case models.KindNumber:
		return coerceNumber(raw)
	case models.KindBoolean:
		return coerceBoolean(raw)
	case models.KindNull:
		return nil, nil
	case models.KindObject:
		return models.JSONObject{}, nil
	case models.KindArray:
		return models.JSONArray{}, nil
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unknown type %q", kind), errors.ErrInvalidType)
	}
}

func coerceNumber(raw string) (models.JSONValue, error) {
	s := strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, errors.NewValidationError(fmt.Sprintf("%q is not a number", raw), errors.ErrInvalidValue)
	}
	return json.Number(FormatNumber(f)), nil
}

// FormatNumber renders f the way JavaScript prints numbers: plain decimals
// for ordinary magnitudes and exponent form for very large or small ones.
func FormatNumber(f float64) string {
	abs := math.Abs(f)
	if f == 0 {
		return "0"
	}
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// strconv pads the exponent to two digits.
		exp := strings.IndexByte(s, 'e') + 2
		if digits := strings.TrimLeft(s[exp:], "0"); digits != "" {
			s = s[:exp] + digits
		}
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func coerceBoolean(raw string) (models.JSONValue, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return nil, errors.NewValidationError(fmt.Sprintf("%q is not a boolean", raw), errors.ErrInvalidValue)
}

// FormValue returns the text an edit form is prefilled with.
func FormValue(v models.JSONValue) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

var literalFormatter = formatter.NewFormatterWithIndent(0)

// Literal returns the JSON text of a leaf as shown in the tree.
func Literal(v models.JSONValue) string {
	s, err := literalFormatter.Compact(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// TypeLabel returns the display label of a declared type, e.g. "Boolean".
func TypeLabel(k models.Kind) string {
	return strcase.ToCamel(string(k))
}

// Summary describes a container for collapsed rows, e.g. "3 keys".
func Summary(v models.JSONValue) string {
	n := models.Len(v)
	switch v.(type) {
	case models.JSONObject:
		return plural(n, "key")
	case models.JSONArray:
		return plural(n, "item")
	default:
		return ""
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
