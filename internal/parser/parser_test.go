package parser

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/mcncl/jsonedit/internal/errors"
	"github.com/mcncl/jsonedit/internal/models"
)

func TestParse_SimpleObject(t *testing.T) {
	jsonStr := `{"name": "John Doe", "age": 30, "isStudent": false, "city": null}`
	root, err := Parse(strings.NewReader(jsonStr))
	if err != nil {
		t.Fatalf("Parse() error = %v, wantErr nil", err)
	}

	expected := models.JSONObject{
		{Key: "name", Value: "John Doe"},
		{Key: "age", Value: json.Number("30")},
		{Key: "isStudent", Value: false},
		{Key: "city", Value: nil},
	}
	if !reflect.DeepEqual(root, expected) {
		t.Errorf("Parse() root = %#v, want %#v", root, expected)
	}
}

func TestParse_SimpleArray(t *testing.T) {
	root, err := Parse(strings.NewReader(`[1, "test", true, null, 3.14]`))
	if err != nil {
		t.Fatalf("Parse() error = %v, wantErr nil", err)
	}

	expected := models.JSONArray{json.Number("1"), "test", true, nil, json.Number("3.14")}
	if !reflect.DeepEqual(root, expected) {
		t.Errorf("Parse() root = %#v, want %#v", root, expected)
	}
}

func TestParse_KeyOrderIsPreserved(t *testing.T) {
	root, err := ParseString(`{"zeta": 1, "alpha": {"y": [], "b": {}}, "mid": "x"}`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	obj := root.(models.JSONObject)
	if got := obj.Keys(); !reflect.DeepEqual(got, []string{"zeta", "alpha", "mid"}) {
		t.Errorf("top-level keys = %v", got)
	}
	nested := obj[1].Value.(models.JSONObject)
	if got := nested.Keys(); !reflect.DeepEqual(got, []string{"y", "b"}) {
		t.Errorf("nested keys = %v", got)
	}
	if _, ok := nested[0].Value.(models.JSONArray); !ok {
		t.Errorf("empty array decoded as %T", nested[0].Value)
	}
}

func TestParse_DuplicateKeys(t *testing.T) {
	root, err := ParseString(`{"a": 1, "b": 2, "a": 3}`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	expected := models.JSONObject{
		{Key: "a", Value: json.Number("3")},
		{Key: "b", Value: json.Number("2")},
	}
	if !reflect.DeepEqual(root, expected) {
		t.Errorf("root = %#v, want %#v", root, expected)
	}
}

func TestParse_Scalars(t *testing.T) {
	tests := map[string]models.JSONValue{
		`"hi"`:  "hi",
		`-1e3`:  json.Number("-1e3"),
		`true`:  true,
		` null`: nil,
	}
	for input, want := range tests {
		got, err := ParseString(input)
		if err != nil {
			t.Errorf("ParseString(%q) error = %v", input, err)
			continue
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ParseString(%q) = %#v, want %#v", input, got, want)
		}
	}
}

func TestParse_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t"} {
		_, err := ParseString(input)
		if !stderrors.Is(err, errors.ErrEmptyInput) {
			t.Errorf("ParseString(%q) err = %v, want ErrEmptyInput", input, err)
		}
	}

	_, err := Parse(strings.NewReader(""))
	if !stderrors.Is(err, errors.ErrEmptyInput) {
		t.Errorf("Parse() with empty reader err = %v, want ErrEmptyInput", err)
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"missing value", `{"a":}`, errors.ErrInvalidJSON},
		{"missing closing brace", `{"name": "John Doe", "age": 30`, errors.ErrUnexpectedEnd},
		{"missing closing bracket", `["item1", "item2",`, errors.ErrUnexpectedEnd},
		{"trailing comma", `[1,]`, errors.ErrInvalidJSON},
		{"bare word", `hello`, errors.ErrInvalidJSON},
		{"two values", `{} {}`, errors.ErrMultipleJSON},
		{"trailing garbage", `{"a": 1} x`, errors.ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input)
			if err == nil {
				t.Fatalf("ParseString(%q) err = nil, want error", tt.input)
			}
			if !stderrors.Is(err, tt.want) {
				t.Errorf("ParseString(%q) err = %v, want %v", tt.input, err, tt.want)
			}
			if errors.TypeOf(err) != errors.ErrorTypeParsing {
				t.Errorf("ParseString(%q) error type = %s, want parsing", tt.input, errors.TypeOf(err))
			}
		})
	}
}

func TestParse_SyntaxErrorMentionsOffset(t *testing.T) {
	_, err := ParseString(`{"a":}`)
	if err == nil || !strings.Contains(err.Error(), "offset 5") {
		t.Errorf("err = %v, want message with offset 5", err)
	}
}

func TestReadFile_Errors(t *testing.T) {
	if _, err := ReadFile(""); !stderrors.Is(err, errors.ErrInvalidFilePath) {
		t.Errorf("ReadFile(\"\") err = %v, want ErrInvalidFilePath", err)
	}
	if _, err := ReadFile("/non/existent/file.json"); !stderrors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("ReadFile(missing) err = %v, want ErrFileNotFound", err)
	}
}

func TestReadFile_KeepsInvalidText(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_invalid_*.json")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpfile.Name())
	_, _ = tmpfile.WriteString(`{"a":}`)
	_ = tmpfile.Close()

	text, err := ReadFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if text != `{"a":}` {
		t.Errorf("ReadFile() = %q", text)
	}
}
