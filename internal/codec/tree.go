package codec

import (
	"fmt"
	"slices"
)

// treeElement is the map-shaped form of an Element used by the JSON, YAML
// and binary codecs.
type treeElement struct {
	Name     string            `json:"element" yaml:"element" msgpack:"element"`
	Attrs    map[string]string `json:"attrs,omitempty" yaml:"attrs,omitempty" msgpack:"attrs,omitempty"`
	Children []*treeElement    `json:"children,omitempty" yaml:"children,omitempty" msgpack:"children,omitempty"`
}

func toTree(e *Element) *treeElement {
	t := &treeElement{Name: e.Name}
	if len(e.Attrs) > 0 {
		t.Attrs = make(map[string]string, len(e.Attrs))
		for _, a := range e.Attrs {
			t.Attrs[a.Name] = a.Value
		}
	}
	for _, c := range e.Children {
		t.Children = append(t.Children, toTree(c))
	}
	return t
}

// fromTree converts back to an Element. Attribute order follows the sorted
// key order the encoders produce.
func fromTree(t *treeElement) (*Element, error) {
	if t == nil || t.Name == "" {
		return nil, fmt.Errorf("element without name")
	}
	e := NewElement(t.Name)
	for _, k := range sortedKeys(t.Attrs) {
		e.Attrs = append(e.Attrs, Attr{Name: k, Value: t.Attrs[k]})
	}
	for _, c := range t.Children {
		child, err := fromTree(c)
		if err != nil {
			return nil, err
		}
		e.Children = append(e.Children, child)
	}
	return e, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
