package forwarder

import (
	"math"
	"strconv"
	"strings"

	"github.com/gyaneshwarpardhi/beacon/internal/dom"
)

// Record is the payload extracted from a tracked element.
// Empty strings and a nil Value mean "absent".
type Record struct {
	Category string   `json:"category,omitempty"`
	Action   string   `json:"action"`
	Label    string   `json:"label,omitempty"`
	Value    *float64 `json:"value,omitempty"`
}

// Trackable reports whether the element opted into tracking.
func (r Record) Trackable() bool { return r.Category != "" }

// ExtractRecord reads data-category, data-action, data-label and data-value
// off el. Action falls back to defaultAction; a value that is not a number is
// dropped. It never fails.
func ExtractRecord(el dom.Element, defaultAction string) Record {
	category, _ := el.Attr("category")
	action, _ := el.Attr("action")
	label, _ := el.Attr("label")
	if action == "" {
		action = defaultAction
	}
	rec := Record{Category: category, Action: action, Label: label}
	if raw, ok := el.Attr("value"); ok {
		rec.Value = coerceNumber(raw)
	}
	return rec
}

// coerceNumber follows browser Number() for decimal and 0x/0o/0b integer
// input: blank strings are 0 and anything unparsable is dropped. Infinity is
// also dropped since hit values are sent as integers.
func coerceNumber(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		zero := 0.0
		return &zero
	}
	if len(s) > 2 && s[0] == '0' {
		if base, ok := radixPrefix[s[1]]; ok {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return nil
			}
			f := float64(n)
			return &f
		}
	}
	// ParseFloat also takes Go-only spellings that Number() rejects.
	if strings.ContainsAny(s, "_xXpP") {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

var radixPrefix = map[byte]int{'x': 16, 'X': 16, 'o': 8, 'O': 8, 'b': 2, 'B': 2}
