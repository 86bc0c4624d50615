// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Value is one answer: a scalar string or, for checkbox questions, a list of
// selected options. It encodes as a plain string or a list in JSON and YAML.
type Value struct {
	text  string
	items []string
	list  bool
}

// Text returns a scalar value.
func Text(s string) Value {
	return Value{text: s}
}

// List returns a list value holding a copy of items.
func List(items ...string) Value {
	return Value{items: slices.Clone(items), list: true}
}

// IsList reports whether v holds a list.
func (v Value) IsList() bool { return v.list }

// Items returns a copy of the list items, or the scalar as a single item
// when it is non-empty.
func (v Value) Items() []string {
	if v.list {
		return slices.Clone(v.items)
	}
	if v.text == "" {
		return nil
	}
	return []string{v.text}
}

// String returns the scalar text, or list items joined with ", ".
func (v Value) String() string {
	if v.list {
		return strings.Join(v.items, ", ")
	}
	return v.text
}

// IsEmpty reports whether the value carries no content once trimmed.
func (v Value) IsEmpty() bool {
	if v.list {
		return strings.TrimSpace(strings.Join(v.items, ",")) == ""
	}
	return strings.TrimSpace(v.text) == ""
}

// Equal reports whether v and o have the same shape and contents.
func (v Value) Equal(o Value) bool {
	if v.list != o.list {
		return false
	}
	if v.list {
		return slices.Equal(v.items, o.items)
	}
	return v.text == o.text
}

// MarshalJSON encodes a scalar as a string and a list as an array.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.list {
		items := v.items
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON accepts a string, an array of strings, a number, or a bool.
// Numbers keep their literal text, so 1500000 stays "1500000".
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out, err := valueFromAny(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// MarshalYAML encodes a scalar as a string and a list as a sequence.
func (v Value) MarshalYAML() (any, error) {
	if v.list {
		items := v.items
		if items == nil {
			items = []string{}
		}
		return items, nil
	}
	return v.text, nil
}

// UnmarshalYAML accepts a scalar node or a sequence of scalars.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*v = Value{}
			return nil
		}
		*v = Text(node.Value)
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(node.Content))
		for _, n := range node.Content {
			if n.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: answer list items must be scalars", n.Line)
			}
			items = append(items, n.Value)
		}
		*v = List(items...)
		return nil
	}
	return fmt.Errorf("line %d: answer must be a scalar or a list", node.Line)
}

func valueFromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Value{}, nil
	case string:
		return Text(x), nil
	case json.Number:
		return Text(x.String()), nil
	case bool:
		return Text(fmt.Sprint(x)), nil
	case []any:
		items := make([]string, 0, len(x))
		for _, it := range x {
			s, ok := it.(string)
			if !ok {
				return Value{}, fmt.Errorf("answer list items must be strings, got %T", it)
			}
			items = append(items, s)
		}
		return List(items...), nil
	}
	return Value{}, fmt.Errorf("unsupported answer value %T", raw)
}

// Answers maps question ids to values for one questionnaire session.
type Answers map[string]Value

// Get returns the value for id and whether it is present.
func (a Answers) Get(id string) (Value, bool) {
	v, ok := a[id]
	return v, ok
}

// Clone returns an independent copy.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		if v.list {
			v = List(v.items...)
		}
		out[k] = v
	}
	return out
}

// Subset returns the entries for ids. Ids without an answer are included
// with an empty value so the subset still names its scope.
func (a Answers) Subset(ids []string) Answers {
	out := make(Answers, len(ids))
	for _, id := range ids {
		out[id] = a[id]
	}
	return out
}
