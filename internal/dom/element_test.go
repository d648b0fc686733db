package dom

import "testing"

func TestPathClosest(t *testing.T) {
	span := Element{Tag: "span"}
	link := Element{Tag: "A", Data: map[string]string{"category": "nav"}}
	button := Element{Tag: "button", Classes: []string{"btn", "js-track"}}
	body := Element{Tag: "body"}

	cases := []struct {
		name    string
		path    Path
		marker  string
		wantTag string
		wantOK  bool
	}{
		{name: "target is anchor", path: Path{link, body}, marker: "js-track", wantTag: "A", wantOK: true},
		{name: "descendant of anchor", path: Path{span, link, body}, marker: "js-track", wantTag: "A", wantOK: true},
		{name: "marked button", path: Path{span, button, body}, marker: "js-track", wantTag: "button", wantOK: true},
		{name: "nearest wins", path: Path{button, link, body}, marker: "js-track", wantTag: "button", wantOK: true},
		{name: "marker not configured", path: Path{span, button, body}, marker: "", wantOK: false},
		{name: "nothing trackable", path: Path{span, body}, marker: "js-track", wantOK: false},
		{name: "empty path", path: nil, marker: "js-track", wantOK: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			el, ok := tc.path.Closest(tc.marker)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && el.Tag != tc.wantTag {
				t.Errorf("tag = %q, want %q", el.Tag, tc.wantTag)
			}
		})
	}
}

func TestElementAttr(t *testing.T) {
	el := Element{Data: map[string]string{"category": "", "label": "x"}}
	if v, ok := el.Attr("category"); !ok || v != "" {
		t.Errorf("category = %q,%v; want empty,true", v, ok)
	}
	if _, ok := el.Attr("value"); ok {
		t.Error("value should be absent")
	}
	if _, ok := (Element{}).Attr("label"); ok {
		t.Error("nil data should report absent")
	}
}
