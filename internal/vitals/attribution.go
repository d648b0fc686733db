package vitals

// NotSet is the label used when a metric kind has no attribution selector.
const NotSet = "(not set)"

// Selector picks the debug target out of a metric's attribution.
type Selector func(Attribution) string

var selectors = map[Kind]Selector{
	CLS: func(a Attribution) string { return a.LargestShiftTarget },
	FID: func(a Attribution) string { return a.EventTarget },
	INP: func(a Attribution) string { return a.EventTarget },
	LCP: func(a Attribution) string { return a.Element },
}

// DebugTarget returns the attribution-derived label for m.
// Kinds without a selector (FCP, TTFB) yield NotSet.
func DebugTarget(m Metric) string {
	sel, ok := selectors[m.Name]
	if !ok {
		return NotSet
	}
	return sel(m.Attribution)
}
