// Package v1 defines the request/response contract of the TaskAlign
// scheduler. These types are the only surface shared between the core
// (pkg/scheduling) and its adapters (HTTP server, CLI).
package v1

// Group classifies machines and molds by physical size class. A machine
// admits a mold only when their groups match.
type Group string

const (
	GroupSmall  Group = "small"
	GroupMedium Group = "medium"
	GroupLarge  Group = "large"
)

// TaskType identifies a single timeline atom on a (day, machine) pair.
type TaskType string

const (
	TaskProduce     TaskType = "PRODUCE"
	TaskChangeMold  TaskType = "CHANGE_MOLD"
	TaskChangeColor TaskType = "CHANGE_COLOR"
	TaskWait        TaskType = "WAIT"
)

// NoneSentinel is emitted as from_mold_id / from_color on the first-ever
// mold or color transition of a machine. Downstream viewers rely on it.
const NoneSentinel = "none"

// Machine is an injection-molding machine. Effective daily capacity in
// hours is HoursPerDay * Efficiency.
type Machine struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Group       Group   `json:"group"`
	Tonnage     float64 `json:"tonnage"`
	HoursPerDay float64 `json:"hours_per_day"`
	Efficiency  float64 `json:"efficiency"`
}

// Mold is a tool mounted on a machine. A machine admits a mold iff the
// groups match and the mold tonnage does not exceed the machine tonnage.
type Mold struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Group   Group   `json:"group"`
	Tonnage float64 `json:"tonnage"`
}

// Component is one demand line: produce Quantity pieces with the given
// mold and color before DueDay, after all Prerequisites completed.
type Component struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MoldID       string   `json:"mold_id"`
	Color        string   `json:"color"`
	CycleTimeSec float64  `json:"cycle_time_sec"`
	Quantity     int      `json:"quantity"`
	DueDay       int      `json:"due_day"`
	LeadTimeDays *int     `json:"lead_time_days,omitempty"`
	Prerequisites []string `json:"prerequisites,omitempty"`
}

// Weights overrides the fitness weights. Nil fields keep the defaults.
type Weights struct {
	Unmet *float64 `json:"unmet,omitempty"`
	Tardy *float64 `json:"tardy,omitempty"`
	Setup *float64 `json:"setup,omitempty"`
	Wait  *float64 `json:"wait,omitempty"`
}

// ScheduleRequest is the logical JSON body of POST /schedule.
type ScheduleRequest struct {
	MonthDays            int     `json:"month_days"`
	MoldChangeTimeHours  float64 `json:"mold_change_time_hours"`
	ColorChangeTimeHours float64 `json:"color_change_time_hours"`

	Machines   []Machine   `json:"machines"`
	Molds      []Mold      `json:"molds"`
	Components []Component `json:"components"`

	PopSize      int      `json:"pop_size"`
	NGenerations int      `json:"n_generations"`
	MutationRate *float64 `json:"mutation_rate,omitempty"`

	Seed              *int64   `json:"seed,omitempty"`
	Weights           *Weights `json:"weights,omitempty"`
	TimeBudgetSeconds float64  `json:"time_budget_seconds,omitempty"`
}

// Assignment is one schedule entry. The conditional fields are populated
// according to TaskType (see the field comments).
type Assignment struct {
	Day           int      `json:"day"`
	MachineID     string   `json:"machine_id"`
	MachineName   string   `json:"machine_name"`
	SequenceInDay int      `json:"sequence_in_day"`
	TaskType      TaskType `json:"task_type"`
	StartHour     float64  `json:"start_hour"`
	EndHour       float64  `json:"end_hour"`
	UsedHours     float64  `json:"used_hours"`
	Utilization   float64  `json:"utilization"`

	// PRODUCE only.
	ComponentID   string `json:"component_id,omitempty"`
	ComponentName string `json:"component_name,omitempty"`
	MoldID        string `json:"mold_id,omitempty"`
	Color         string `json:"color,omitempty"`
	ProducedQty   int    `json:"produced_qty,omitempty"`

	// CHANGE_COLOR only. FromColor is NoneSentinel on the first transition.
	FromColor string `json:"from_color,omitempty"`
	ToColor   string `json:"to_color,omitempty"`

	// CHANGE_MOLD only. FromMoldID is NoneSentinel on the first transition.
	FromMoldID string `json:"from_mold_id,omitempty"`
	ToMoldID   string `json:"to_mold_id,omitempty"`
}

// ScheduleResponse is the logical JSON body returned by the scheduler.
type ScheduleResponse struct {
	Assignments []Assignment   `json:"assignments"`
	Unmet       map[string]int `json:"unmet"`
	Score       float64        `json:"score"`

	// Partial reports that the search stopped early on cancellation or an
	// exhausted time budget and Assignments is the best-so-far draft.
	Partial bool `json:"partial,omitempty"`
}

// ErrorResponse is the body of 4xx/5xx responses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
