package dom

import "strings"

// Element is a snapshot of one DOM element as captured by the beacon.
type Element struct {
	Tag     string            `json:"tag"`
	Classes []string          `json:"classes,omitempty"`
	Data    map[string]string `json:"data,omitempty"` // dataset: data-foo-bar → fooBar
}

// Path is the composed event path: the click target first, then each ancestor.
type Path []Element

// Attr returns a data attribute and whether it was present at all.
// Keys use dataset form ("category", not "data-category").
func (e Element) Attr(key string) (string, bool) {
	if e.Data == nil {
		return "", false
	}
	v, ok := e.Data[key]
	return v, ok
}

// HasClass reports whether the element carries class c.
func (e Element) HasClass(c string) bool {
	if c == "" {
		return false
	}
	for _, cl := range e.Classes {
		if cl == c {
			return true
		}
	}
	return false
}

// IsAnchor reports whether the element is a plain link.
func (e Element) IsAnchor() bool {
	return strings.EqualFold(e.Tag, "a")
}

// Closest walks the path from the target outward and returns the first element
// that is an anchor or carries markerClass. The target itself is a candidate.
func (p Path) Closest(markerClass string) (Element, bool) {
	for _, el := range p {
		if el.IsAnchor() || el.HasClass(markerClass) {
			return el, true
		}
	}
	return Element{}, false
}

// Target returns the element the event was dispatched to.
func (p Path) Target() (Element, bool) {
	if len(p) == 0 {
		return Element{}, false
	}
	return p[0], true
}
