package parser

import (
	"github.com/mcncl/jsonedit/internal/errors"
	"github.com/mcncl/jsonedit/internal/models"
)

// Result is the outcome of decoding raw text: either a document value or the
// error that prevented decoding.
type Result struct {
	Value models.JSONValue
	Err   error
}

// OK reports whether decoding succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Message returns the human readable failure, or "" on success.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return errors.UserFriendlyError(r.Err)
}

// Decode converts text into a Result. It never panics and never returns an
// error outside the Result.
func Decode(text string) Result {
	value, err := ParseString(text)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Value: value}
}

// Adapter memoizes Decode on the text value. The zero value is ready to use.
type Adapter struct {
	text   string
	result Result
	primed bool
	calls  int
}

// Decode returns the cached result when text equals the last decoded text.
func (a *Adapter) Decode(text string) Result {
	if a.primed && a.text == text {
		return a.result
	}
	a.calls++
	a.text = text
	a.result = Decode(text)
	a.primed = true
	return a.result
}
