package codec

import "strconv"

// Attr is a single named attribute of an element.
type Attr struct {
	Name  string
	Value string
}

// Element is a node of a hierarchical attributed document. Graph entities
// are persisted as one element each, nested by containment.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
}

// NewElement creates an element with no attributes or children.
func NewElement(name string) *Element {
	return &Element{Name: name}
}

// Set assigns an attribute, replacing any existing value. It returns e for
// chaining.
func (e *Element) Set(name, value string) *Element {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// SetBool assigns a boolean attribute.
func (e *Element) SetBool(name string, v bool) *Element {
	return e.Set(name, strconv.FormatBool(v))
}

// SetFloat assigns a floating point attribute.
func (e *Element) SetFloat(name string, v float64) *Element {
	return e.Set(name, strconv.FormatFloat(v, 'g', -1, 64))
}

// SetInt assigns an integer attribute.
func (e *Element) SetInt(name string, v int) *Element {
	return e.Set(name, strconv.Itoa(v))
}

// Attr returns an attribute value.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns an attribute value, or def when it is absent.
func (e *Element) AttrOr(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// Add appends children and returns e.
func (e *Element) Add(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Child returns the first child with the given name, or nil.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns every direct child with the given name.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy of e.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	c := &Element{Name: e.Name}
	if e.Attrs != nil {
		c.Attrs = append([]Attr(nil), e.Attrs...)
	}
	for _, child := range e.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}
