package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mcncl/jsonedit/internal/errors"
)

// Segment is one step of a Path: an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Key returns a segment selecting an object member.
func Key(k string) Segment { return Segment{Key: k} }

// Index returns a segment selecting an array element.
func Index(i int) Segment { return Segment{Index: i, IsIndex: true} }

func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// Encode returns the segment as a JSON literal: a quoted key or an index.
func (s Segment) Encode() string {
	enc := Path{s}.String()
	return enc[1 : len(enc)-1]
}

// Path locates a node from the document root. A Path is only meaningful for
// the document it was computed from.
type Path []Segment

// Root is the empty path.
var Root = Path{}

// Child returns a new path extended by seg. The receiver is not modified.
func (p Path) Child(seg Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// Parent splits p into its parent path and last segment.
func (p Path) Parent() (Path, Segment, bool) {
	if len(p) == 0 {
		return nil, Segment{}, false
	}
	return p[:len(p)-1:len(p)-1], p[len(p)-1], true
}

// Equal reports whether p and q name the same node.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether p is prefix or lies below it.
func (p Path) HasPrefix(prefix Path) bool {
	return len(p) >= len(prefix) && p[:len(prefix)].Equal(prefix)
}

// String encodes p as a JSON array, e.g. ["users",0,"name"].
func (p Path) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, seg := range p {
		if i > 0 {
			b.WriteByte(',')
		}
		if seg.IsIndex {
			b.WriteString(strconv.Itoa(seg.Index))
			continue
		}
		key, _ := json.Marshal(seg.Key)
		b.Write(key)
	}
	b.WriteByte(']')
	return b.String()
}

// Display renders p for humans, e.g. $.users[0].name.
func (p Path) Display() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, seg := range p {
		if seg.IsIndex {
			fmt.Fprintf(&b, "[%d]", seg.Index)
		} else {
			fmt.Fprintf(&b, ".%s", seg.Key)
		}
	}
	return b.String()
}

// ParsePath decodes the encoding produced by Path.String. An empty string is
// the root path.
func ParsePath(s string) (Path, error) {
	if strings.TrimSpace(s) == "" {
		return Root, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var raw []interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("path %q is not a JSON array", s), errors.ErrInvalidPath)
	}
	path := make(Path, 0, len(raw))
	for _, elem := range raw {
		switch v := elem.(type) {
		case string:
			path = append(path, Key(v))
		case json.Number:
			i, err := strconv.Atoi(v.String())
			if err != nil || i < 0 {
				return nil, errors.NewInputError(fmt.Sprintf("path index %s is not a non-negative integer", v), errors.ErrInvalidPath)
			}
			path = append(path, Index(i))
		default:
			return nil, errors.NewInputError(fmt.Sprintf("path element %v must be a string or an integer", elem), errors.ErrInvalidPath)
		}
	}
	return path, nil
}

// ParseSegment decodes a single segment: a JSON string or integer literal
// such as "name" or 3.
func ParseSegment(s string) (Segment, error) {
	p, err := ParsePath("[" + s + "]")
	if err != nil {
		return Segment{}, err
	}
	if len(p) != 1 {
		return Segment{}, errors.NewInputError(fmt.Sprintf("segment %q must be a single key or index", s), errors.ErrInvalidPath)
	}
	return p[0], nil
}

// Resolve returns the node at path p in root.
func Resolve(root JSONValue, p Path) (JSONValue, bool) {
	node := root
	for _, seg := range p {
		next, ok := Lookup(node, seg)
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

// Lookup returns the direct child of container selected by seg. An index
// segment only matches arrays and a key segment only matches objects.
func Lookup(container JSONValue, seg Segment) (JSONValue, bool) {
	switch c := container.(type) {
	case JSONObject:
		if seg.IsIndex {
			return nil, false
		}
		return c.Get(seg.Key)
	case JSONArray:
		if !seg.IsIndex || seg.Index < 0 || seg.Index >= len(c) {
			return nil, false
		}
		return c[seg.Index], true
	default:
		return nil, false
	}
}
