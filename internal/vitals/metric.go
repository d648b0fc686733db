package vitals

import (
	"encoding/json"
	"fmt"
	"math"
)

// Kind names one of the six web-vitals metrics.
type Kind string

const (
	CLS  Kind = "CLS"
	FCP  Kind = "FCP"
	FID  Kind = "FID"
	INP  Kind = "INP"
	LCP  Kind = "LCP"
	TTFB Kind = "TTFB"
)

// Kinds lists every metric kind in a stable order.
var Kinds = []Kind{CLS, FCP, FID, INP, LCP, TTFB}

// Valid reports whether k is one of the six known kinds.
func (k Kind) Valid() bool {
	switch k {
	case CLS, FCP, FID, INP, LCP, TTFB:
		return true
	}
	return false
}

// UnmarshalJSON rejects names outside the closed set.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if !Kind(s).Valid() {
		return fmt.Errorf("unknown metric name %q", s)
	}
	*k = Kind(s)
	return nil
}

// Attribution carries the debug detail web-vitals reports alongside a metric.
// Only the field relevant to the metric's kind is populated.
type Attribution struct {
	LargestShiftTarget string `json:"largest_shift_target,omitempty"`
	EventTarget        string `json:"event_target,omitempty"`
	Element            string `json:"element,omitempty"`
}

// Metric is one metric callback invocation.
type Metric struct {
	Name           Kind        `json:"name"`
	Value          float64     `json:"value"`
	Delta          float64     `json:"delta"`
	ID             string      `json:"id"`
	NavigationType string      `json:"navigation_type"`
	Attribution    Attribution `json:"attribution"`
}

// clsScale keeps three decimals of layout-shift precision once rounded.
const clsScale = 1000

// RoundedDelta returns the delta as an integer event value.
// CLS deltas are unitless fractions, so they are scaled before rounding.
func (m Metric) RoundedDelta() int64 {
	d := m.Delta
	if m.Name == CLS {
		d *= clsScale
	}
	return int64(math.Round(d))
}
