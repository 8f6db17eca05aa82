package scheduling

import "sort"

// interval is a half-open [Start, End) span of hours within one day.
type interval struct {
	Start float64
	End   float64
}

func (iv interval) overlaps(start, end float64) bool {
	return !(iv.End <= start+eps || end <= iv.Start+eps)
}

// moldCalendar records, per (mold, day), the spans during which the mold
// is physically occupied. Only CHANGE_MOLD and PRODUCE events reserve
// spans; queries are linear scans over ordered lists, which is plenty at
// production sizes (tens of molds x tens of days x tens of intervals).
type moldCalendar struct {
	busy map[string]map[int][]interval
}

func newMoldCalendar() *moldCalendar {
	return &moldCalendar{busy: map[string]map[int][]interval{}}
}

// reserve inserts [start, end) for the mold on the given day, keeping the
// per-day list ordered by start hour.
func (c *moldCalendar) reserve(moldID string, day int, start, end float64) {
	if end-start <= eps {
		return
	}
	days, ok := c.busy[moldID]
	if !ok {
		days = map[int][]interval{}
		c.busy[moldID] = days
	}
	ivs := append(days[day], interval{Start: start, End: end})
	sort.Slice(ivs, func(a, b int) bool { return ivs[a].Start < ivs[b].Start })
	days[day] = ivs
}

// isFree reports whether [start, end) does not overlap any reserved span
// of the mold on the given day.
func (c *moldCalendar) isFree(moldID string, day int, start, end float64) bool {
	for _, iv := range c.busy[moldID][day] {
		if iv.overlaps(start, end) {
			return false
		}
	}
	return true
}

// conflictEnd returns the latest end hour among reserved spans overlapping
// [start, end), or false when the span is free. Sliding a blocked task to
// this hour clears every current conflict at once.
func (c *moldCalendar) conflictEnd(moldID string, day int, start, end float64) (float64, bool) {
	latest, found := 0.0, false
	for _, iv := range c.busy[moldID][day] {
		if iv.overlaps(start, end) && iv.End > latest {
			latest, found = iv.End, true
		}
	}
	return latest, found
}

// nextBusyStart returns the start of the first reserved span beginning at
// or after the given hour, or false when none exists. Production runs are
// clipped here so they never grow over a reservation made by another
// machine later in the day.
func (c *moldCalendar) nextBusyStart(moldID string, day int, after float64) (float64, bool) {
	best, found := 0.0, false
	for _, iv := range c.busy[moldID][day] {
		if iv.Start >= after-eps && (!found || iv.Start < best) {
			best, found = iv.Start, true
		}
	}
	return best, found
}
