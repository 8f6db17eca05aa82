package v1

import "github.com/samber/lo"

// Planning defaults carried over from the original backend models. They are
// applied to absent (zero-valued) fields before validation; explicit values
// are never touched.
const (
	DefaultMonthDays    = 30
	DefaultPopSize      = 30
	DefaultNGenerations = 80
	DefaultMutationRate = 0.25
	DefaultHoursPerDay  = 21.0
	DefaultEfficiency   = 0.85
	DefaultLeadTimeDays = 2
)

// Default fills absent request fields in place. Pointer fields distinguish
// "absent" from a legitimate zero (mutation_rate 0, lead_time_days 0).
func (r *ScheduleRequest) Default() {
	if r.MonthDays == 0 {
		r.MonthDays = DefaultMonthDays
	}
	if r.PopSize == 0 {
		r.PopSize = DefaultPopSize
	}
	if r.NGenerations == 0 {
		r.NGenerations = DefaultNGenerations
	}
	if r.MutationRate == nil {
		r.MutationRate = lo.ToPtr(DefaultMutationRate)
	}
	for i := range r.Machines {
		if r.Machines[i].HoursPerDay == 0 {
			r.Machines[i].HoursPerDay = DefaultHoursPerDay
		}
		if r.Machines[i].Efficiency == 0 {
			r.Machines[i].Efficiency = DefaultEfficiency
		}
	}
	for i := range r.Components {
		if r.Components[i].LeadTimeDays == nil {
			r.Components[i].LeadTimeDays = lo.ToPtr(DefaultLeadTimeDays)
		}
	}
}
