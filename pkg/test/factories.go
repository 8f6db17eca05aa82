// Package test provides fixture builders for scheduler tests. Builders
// take override structs applied in order with last-write-wins semantics.
package test

import (
	"fmt"

	"github.com/imdario/mergo"
	"github.com/samber/lo"

	v1 "github.com/taskalign/taskalign/pkg/apis/v1"
)

func merge[T any](overrides ...T) T {
	var override T
	for _, opts := range overrides {
		if err := mergo.Merge(&override, opts, mergo.WithOverride); err != nil {
			panic(fmt.Sprintf("failed to merge: %v", err))
		}
	}
	return override
}

// Machine creates a test machine with defaults that can be overridden.
func Machine(overrides ...v1.Machine) v1.Machine {
	override := merge(overrides...)
	if override.ID == "" {
		override.ID = "m1"
	}
	if override.Name == "" {
		override.Name = "machine-" + override.ID
	}
	if override.Group == "" {
		override.Group = v1.GroupSmall
	}
	if override.Tonnage == 0 {
		override.Tonnage = 120
	}
	if override.HoursPerDay == 0 {
		override.HoursPerDay = 12
	}
	if override.Efficiency == 0 {
		override.Efficiency = 1.0
	}
	return override
}

// Mold creates a test mold with defaults that can be overridden.
func Mold(overrides ...v1.Mold) v1.Mold {
	override := merge(overrides...)
	if override.ID == "" {
		override.ID = "mo1"
	}
	if override.Name == "" {
		override.Name = "mold-" + override.ID
	}
	if override.Group == "" {
		override.Group = v1.GroupSmall
	}
	if override.Tonnage == 0 {
		override.Tonnage = 80
	}
	return override
}

// Component creates a test component with defaults that can be overridden.
func Component(overrides ...v1.Component) v1.Component {
	override := merge(overrides...)
	if override.ID == "" {
		override.ID = "c1"
	}
	if override.Name == "" {
		override.Name = "component-" + override.ID
	}
	if override.MoldID == "" {
		override.MoldID = "mo1"
	}
	if override.Color == "" {
		override.Color = "red"
	}
	if override.CycleTimeSec == 0 {
		override.CycleTimeSec = 40
	}
	if override.Quantity == 0 {
		override.Quantity = 100
	}
	if override.DueDay == 0 {
		override.DueDay = 3
	}
	if override.LeadTimeDays == nil {
		override.LeadTimeDays = lo.ToPtr(0)
	}
	return override
}

// ScheduleRequest creates a request with small deterministic GA settings
// suitable for fast tests; fleet and demand come from overrides.
func ScheduleRequest(overrides ...v1.ScheduleRequest) *v1.ScheduleRequest {
	override := merge(overrides...)
	if override.MonthDays == 0 {
		override.MonthDays = 3
	}
	if override.PopSize == 0 {
		override.PopSize = 8
	}
	if override.NGenerations == 0 {
		override.NGenerations = 10
	}
	if override.MutationRate == nil {
		override.MutationRate = lo.ToPtr(0.25)
	}
	if override.Seed == nil {
		override.Seed = lo.ToPtr(int64(42))
	}
	if override.Machines == nil {
		override.Machines = []v1.Machine{Machine()}
	}
	if override.Molds == nil {
		override.Molds = []v1.Mold{Mold()}
	}
	if override.Components == nil {
		override.Components = []v1.Component{Component()}
	}
	return &override
}
