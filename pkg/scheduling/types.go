// Package scheduling implements the monthly production scheduler: a
// genetic search over component priority permutations on top of a
// deterministic constraint-respecting decoder. The decoder honors mold
// exclusivity across machines, group/tonnage compatibility, prerequisite
// dependencies with partial same-day waits, per-day calendar capacity and
// changeover overheads.
package scheduling

import (
	v1 "github.com/taskalign/taskalign/pkg/apis/v1"
)

// eps absorbs floating-point drift in capacity and interval arithmetic.
const eps = 1e-9

// secondsPerHour converts component cycle times to fractional hours.
const secondsPerHour = 3600.0

// MachineSpec is the validated view of a machine.
type MachineSpec struct {
	ID          string
	Name        string
	Group       v1.Group
	Tonnage     float64
	HoursPerDay float64
	Efficiency  float64
}

// Capacity returns the effective daily capacity in hours.
func (m *MachineSpec) Capacity() float64 {
	return m.HoursPerDay * m.Efficiency
}

// Admits reports whether this machine can run the given mold.
func (m *MachineSpec) Admits(mold *MoldSpec) bool {
	return m.Group == mold.Group && mold.Tonnage <= m.Tonnage
}

// MoldSpec is the validated view of a mold.
type MoldSpec struct {
	ID      string
	Name    string
	Group   v1.Group
	Tonnage float64
}

// ComponentSpec is the validated view of one demand line. Prerequisites
// are stored as indices into Problem.Components.
type ComponentSpec struct {
	ID           string
	Name         string
	MoldID       string
	Color        string
	CycleTimeSec float64
	Quantity     int
	DueDay       int
	LeadTimeDays int

	// Level is the topological level: 0 for components without
	// prerequisites, otherwise 1 + max level of the prerequisites.
	Level int

	// RequiredFinishDay is DueDay - LeadTimeDays, the day by which the
	// component should finish to leave its downstream lead time intact.
	RequiredFinishDay int

	prereqs []int
}

// PieceHours returns the hours needed to mold a single piece.
func (c *ComponentSpec) PieceHours() float64 {
	return c.CycleTimeSec / secondsPerHour
}

// PrereqIndices returns the prerequisite component indices.
func (c *ComponentSpec) PrereqIndices() []int {
	return c.prereqs
}

// Schedule is a fully decoded timeline plus its residuals and the summary
// figures the fitness evaluator consumes.
type Schedule struct {
	Assignments []v1.Assignment

	// Unmet maps component id to pieces not produced within the month.
	// Fully produced components are absent.
	Unmet map[string]int

	UsedHours    float64
	WaitHours    float64
	MoldChanges  int
	ColorChanges int

	// finishDay holds, per component index, the day its demand completed.
	// Components with residuals are absent.
	finishDay map[int]int
}
