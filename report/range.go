package report

import "math"

// Range is a half-open interval of day indexes [Start, End).
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether day falls inside the range.
func (r Range) Contains(day int) bool {
	return day >= r.Start && day < r.End
}

// Absolute builds a range from two day indexes, rounded half-up. The
// arguments may be given in either order and both days are included.
func Absolute(a, b float64) Range {
	return span(round(a), round(b))
}

// Relative builds a range from two "days ago" offsets measured back from
// today. Both days are included.
func Relative(today int, agoA, agoB float64) Range {
	t := float64(today)
	return span(round(t-agoA), round(t-agoB))
}

func span(a, b int) Range {
	return Range{Start: min(a, b), End: max(a, b) + 1}
}

func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
