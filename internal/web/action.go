package web

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mcncl/jsonedit/internal/editor"
	"github.com/mcncl/jsonedit/internal/errors"
	"github.com/mcncl/jsonedit/internal/models"
)

// Action names accepted on the form and websocket channels.
const (
	ActionOpenEdit   = "open_edit"
	ActionOpenCreate = "open_create"
	ActionCancel     = "cancel"
	ActionToggle     = "toggle"
	ActionAdd        = "add"
	ActionDelete     = "delete"
	ActionEdit       = "edit"
	ActionSetText    = "set_text"
)

var validate = validator.New()

// message is one user interaction.
type message struct {
	Action string                 `json:"action"`
	Data   map[string]interface{} `json:"data"`
}

func parseMessage(data []byte) (message, error) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return message{}, errors.NewInputError("malformed action message", err)
	}
	if msg.Data == nil {
		msg.Data = make(map[string]interface{})
	}
	return msg, nil
}

// formMessage builds a message from posted form values. Only fields present
// in the form appear in Data, so an absent key stays distinguishable from an
// empty one.
func formMessage(form url.Values) message {
	msg := message{Action: form.Get("action"), Data: make(map[string]interface{})}
	for k, v := range form {
		if k == "action" || len(v) == 0 {
			continue
		}
		msg.Data[k] = v[0]
	}
	return msg
}

type pathInput struct {
	Path string `json:"path" validate:"omitempty,json"`
}

type createInput struct {
	Path     string `json:"path" validate:"omitempty,json"`
	Position string `json:"position" validate:"omitempty,number"`
}

type addInput struct {
	Path     string `json:"path" validate:"omitempty,json"`
	Position string `json:"position" validate:"omitempty,number"`
	Key      string `json:"key" validate:"max=1024"`
	Value    string `json:"value"`
	Type     string `json:"type" validate:"required,oneof=string number boolean null object array"`
}

type deleteInput struct {
	Path    string `json:"path" validate:"omitempty,json"`
	Segment string `json:"segment" validate:"required,json"`
}

type editInput struct {
	Path  string  `json:"path" validate:"omitempty,json"`
	Key   *string `json:"key" validate:"omitempty,max=1024"`
	Value string  `json:"value"`
	Type  string  `json:"type" validate:"required,oneof=string number boolean null object array"`
}

type textInput struct {
	Text string `json:"text"`
}

// bind decodes data into v and validates it. Its errors are bindErrors.
func bind(data map[string]interface{}, v interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return bindError{errors.NewInputError("failed to encode action data", err)}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return bindError{errors.NewValidationError("action data has the wrong shape", err)}
	}
	if err := validate.Struct(v); err != nil {
		return bindError{validationError(err)}
	}
	return nil
}

// validationError turns validator failures into one readable message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewValidationError("invalid action data", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", field, e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, e.Param()))
		case "number":
			msgs = append(msgs, fmt.Sprintf("%s must be a non-negative integer", field))
		case "json":
			msgs = append(msgs, fmt.Sprintf("%s is not a valid path", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return errors.NewValidationError(strings.Join(msgs, "; "), errors.ErrInvalidValue)
}

func position(s string) int {
	if s == "" {
		return -1
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

// dispatch applies msg to ed. Failures inside the editor are already queued
// as notices; failures to bind the message are queued here.
func dispatch(ctx context.Context, ed *editor.Editor, msg message) error {
	err := apply(ctx, ed, msg)
	if err != nil && isBindError(err) {
		ed.Notify(editor.LevelWarning, errors.UserFriendlyError(err))
	}
	return err
}

// bindError marks a message that could not be decoded into an editor call.
type bindError struct{ error }

func (b bindError) Unwrap() error { return b.error }

func isBindError(err error) bool {
	var b bindError
	return stderrors.As(err, &b)
}

func parsePath(s string) (models.Path, error) {
	p, err := models.ParsePath(s)
	if err != nil {
		return nil, bindError{err}
	}
	return p, nil
}

func apply(ctx context.Context, ed *editor.Editor, msg message) error {
	switch msg.Action {
	case ActionOpenEdit, ActionToggle:
		var in pathInput
		if err := bind(msg.Data, &in); err != nil {
			return err
		}
		path, err := parsePath(in.Path)
		if err != nil {
			return err
		}
		if msg.Action == ActionToggle {
			ed.ToggleCollapse(path)
			return nil
		}
		return ed.OpenEdit(path)

	case ActionOpenCreate:
		var in createInput
		if err := bind(msg.Data, &in); err != nil {
			return err
		}
		path, err := parsePath(in.Path)
		if err != nil {
			return err
		}
		return ed.OpenCreate(path, position(in.Position))

	case ActionCancel:
		ed.CancelForm()
		return nil

	case ActionAdd:
		var in addInput
		if err := bind(msg.Data, &in); err != nil {
			return err
		}
		path, err := parsePath(in.Path)
		if err != nil {
			return err
		}
		return ed.Add(ctx, editor.AddInput{
			Path:     path,
			Key:      in.Key,
			Value:    in.Value,
			Kind:     models.Kind(in.Type),
			Position: position(in.Position),
		})

	case ActionDelete:
		var in deleteInput
		if err := bind(msg.Data, &in); err != nil {
			return err
		}
		path, err := parsePath(in.Path)
		if err != nil {
			return err
		}
		seg, err := models.ParseSegment(in.Segment)
		if err != nil {
			return bindError{err}
		}
		return ed.Delete(ctx, path, seg)

	case ActionEdit:
		var in editInput
		if err := bind(msg.Data, &in); err != nil {
			return err
		}
		path, err := parsePath(in.Path)
		if err != nil {
			return err
		}
		return ed.Edit(ctx, editor.EditInput{
			Path:   path,
			Value:  in.Value,
			Kind:   models.Kind(in.Type),
			NewKey: in.Key,
		})

	case ActionSetText:
		var in textInput
		if err := bind(msg.Data, &in); err != nil {
			return err
		}
		return ed.SetText(ctx, in.Text)

	default:
		return bindError{errors.NewInputError(fmt.Sprintf("unknown action %q", msg.Action), errors.ErrUnknownAction)}
	}
}
