package render

import (
	"fmt"
	"io"

	"github.com/mcncl/jsonedit/internal/analyzer"
	"github.com/mcncl/jsonedit/internal/models"
)

// Text writes doc as an indented outline for terminals:
//
//	{} 2 keys
//	├── name: "jsonedit"
//	└── tags: [] 1 item
//	    └── [0]: "json"
func Text(w io.Writer, doc models.JSONValue) error {
	tw := &textWriter{w: w}
	tw.line("", doc)
	tw.children(doc, "")
	return tw.err
}

type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) line(prefix string, v models.JSONValue) {
	if t.err != nil {
		return
	}
	var body string
	switch v.(type) {
	case models.JSONObject:
		body = "{} " + analyzer.Summary(v)
	case models.JSONArray:
		body = "[] " + analyzer.Summary(v)
	default:
		body = analyzer.Literal(v)
	}
	_, t.err = fmt.Fprintf(t.w, "%s%s\n", prefix, body)
}

func (t *textWriter) children(v models.JSONValue, indent string) {
	n := models.Len(v)
	for i := 0; i < n; i++ {
		var label string
		var child models.JSONValue
		switch c := v.(type) {
		case models.JSONObject:
			label, child = c[i].Key, c[i].Value
		case models.JSONArray:
			label, child = fmt.Sprintf("[%d]", i), c[i]
		}
		branch, next := "├── ", "│   "
		if i == n-1 {
			branch, next = "└── ", "    "
		}
		t.line(indent+branch+label+": ", child)
		t.children(child, indent+next)
	}
}
