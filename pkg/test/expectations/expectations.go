// Package expectations holds gomega helpers that assert the structural
// invariants every valid schedule must satisfy, independent of which
// genome the search happened to converge on.
package expectations

import (
	"sort"

	. "github.com/onsi/ginkgo/v2" //nolint:staticcheck
	. "github.com/onsi/gomega"    //nolint:staticcheck
	"github.com/samber/lo"

	v1 "github.com/taskalign/taskalign/pkg/apis/v1"
)

const tolerance = 1e-6

type machineDay struct {
	machineID string
	day       int
}

type span struct {
	machineID  string
	start, end float64
}

type finishAt struct {
	day  int
	hour float64
}

// ExpectValidSchedule asserts every invariant that must hold for any
// response produced from req: per-machine-day ordering and capacity, mold
// exclusivity across machines, admission rules, and demand conservation.
func ExpectValidSchedule(req *v1.ScheduleRequest, resp *v1.ScheduleResponse) {
	GinkgoHelper()
	Expect(resp).ToNot(BeNil())

	machines := lo.KeyBy(req.Machines, func(m v1.Machine) string { return m.ID })
	molds := lo.KeyBy(req.Molds, func(m v1.Mold) string { return m.ID })

	byDay := map[machineDay][]v1.Assignment{}
	for _, a := range resp.Assignments {
		Expect(a.Day).To(And(BeNumerically(">=", 1), BeNumerically("<=", req.MonthDays)),
			"assignment day out of range: %+v", a)
		Expect(machines).To(HaveKey(a.MachineID), "assignment on unknown machine %q", a.MachineID)
		key := machineDay{machineID: a.MachineID, day: a.Day}
		byDay[key] = append(byDay[key], a)
	}

	for key, day := range byDay {
		expectOrderedDay(machines[key.machineID], day)
	}
	expectMoldExclusivity(resp.Assignments)
	expectAdmission(machines, molds, resp.Assignments)
	expectDemandConserved(req, resp)
	expectPrerequisitesHonored(req, resp)
}

// expectOrderedDay checks one (machine, day) timeline: sequence numbers
// 1..k in emission order, contiguous intervals starting at hour zero, and
// the last task ending within effective capacity.
func expectOrderedDay(machine v1.Machine, assignments []v1.Assignment) {
	GinkgoHelper()
	capacity := machine.HoursPerDay * machine.Efficiency
	cursor := 0.0
	for i, a := range assignments {
		Expect(a.SequenceInDay).To(Equal(i+1), "sequence gap on %s day %d", machine.ID, a.Day)
		Expect(a.StartHour).To(BeNumerically("~", cursor, tolerance),
			"gap or overlap before task %d on %s day %d", i+1, machine.ID, a.Day)
		Expect(a.EndHour).To(BeNumerically(">=", a.StartHour-tolerance))
		Expect(a.EndHour).To(BeNumerically("<=", capacity+tolerance),
			"capacity exceeded on %s day %d", machine.ID, a.Day)
		cursor = a.EndHour
	}
}

// expectMoldExclusivity checks that no mold is claimed by two machines at
// overlapping times of the same day. CHANGE_MOLD and PRODUCE both occupy
// the mold; WAIT and CHANGE_COLOR do not.
func expectMoldExclusivity(assignments []v1.Assignment) {
	GinkgoHelper()
	occupied := map[string]map[int][]span{}
	for _, a := range assignments {
		moldID := moldOf(a)
		if moldID == "" {
			continue
		}
		if occupied[moldID] == nil {
			occupied[moldID] = map[int][]span{}
		}
		occupied[moldID][a.Day] = append(occupied[moldID][a.Day],
			span{machineID: a.MachineID, start: a.StartHour, end: a.EndHour})
	}
	for moldID, days := range occupied {
		for day, spans := range days {
			sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
			for i := 1; i < len(spans); i++ {
				prev, cur := spans[i-1], spans[i]
				if prev.machineID == cur.machineID {
					continue
				}
				Expect(cur.start).To(BeNumerically(">=", prev.end-tolerance),
					"mold %s double-booked on day %d between %s and %s",
					moldID, day, prev.machineID, cur.machineID)
			}
		}
	}
}

// expectAdmission checks group and tonnage compatibility for every task
// that mounts or runs a mold.
func expectAdmission(machines map[string]v1.Machine, molds map[string]v1.Mold, assignments []v1.Assignment) {
	GinkgoHelper()
	for _, a := range assignments {
		moldID := moldOf(a)
		if moldID == "" {
			continue
		}
		machine := machines[a.MachineID]
		mold, ok := molds[moldID]
		Expect(ok).To(BeTrue(), "assignment references unknown mold %q", moldID)
		Expect(mold.Group).To(Equal(machine.Group),
			"mold %s group mismatch on machine %s", moldID, machine.ID)
		Expect(mold.Tonnage).To(BeNumerically("<=", machine.Tonnage+tolerance),
			"mold %s tonnage exceeds machine %s", moldID, machine.ID)
	}
}

// expectDemandConserved checks that produced plus unmet equals quantity
// for every component, with no negative or phantom entries.
func expectDemandConserved(req *v1.ScheduleRequest, resp *v1.ScheduleResponse) {
	GinkgoHelper()
	produced := map[string]int{}
	for _, a := range resp.Assignments {
		if a.TaskType != v1.TaskProduce {
			continue
		}
		Expect(a.ProducedQty).To(BeNumerically(">", 0), "empty production run for %s", a.ComponentID)
		produced[a.ComponentID] += a.ProducedQty
	}
	known := map[string]bool{}
	for _, c := range req.Components {
		known[c.ID] = true
		total := produced[c.ID] + resp.Unmet[c.ID]
		Expect(total).To(Equal(c.Quantity),
			"produced %d + unmet %d != quantity %d for %s",
			produced[c.ID], resp.Unmet[c.ID], c.Quantity, c.ID)
	}
	for id, qty := range resp.Unmet {
		Expect(known[id]).To(BeTrue(), "unmet entry for unknown component %q", id)
		Expect(qty).To(BeNumerically(">", 0), "zero unmet entry for %q must be omitted", id)
	}
}

// expectPrerequisitesHonored checks the prerequisite law: a component with
// production runs requires every prerequisite fully produced, and its first
// run may not start before the latest prerequisite completion instant.
// Same-day pre-setting is fine because the decoder bridges the gap with a
// WAIT, so production itself still begins at or after the completion hour.
func expectPrerequisitesHonored(req *v1.ScheduleRequest, resp *v1.ScheduleResponse) {
	GinkgoHelper()
	runs := map[string][]v1.Assignment{}
	for _, a := range resp.Assignments {
		if a.TaskType == v1.TaskProduce {
			runs[a.ComponentID] = append(runs[a.ComponentID], a)
		}
	}
	for id := range runs {
		sort.SliceStable(runs[id], func(i, j int) bool {
			a, b := runs[id][i], runs[id][j]
			return a.Day < b.Day || (a.Day == b.Day && a.StartHour < b.StartHour)
		})
	}
	completion := map[string]finishAt{}
	for _, c := range req.Components {
		rs := runs[c.ID]
		total := 0
		for _, r := range rs {
			total += r.ProducedQty
		}
		if total == c.Quantity && len(rs) > 0 {
			last := rs[len(rs)-1]
			completion[c.ID] = finishAt{day: last.Day, hour: last.EndHour}
		}
	}
	for _, c := range req.Components {
		if len(runs[c.ID]) == 0 {
			continue
		}
		first := runs[c.ID][0]
		for _, pr := range c.Prerequisites {
			done, ok := completion[pr]
			Expect(ok).To(BeTrue(),
				"%s produced but prerequisite %s never completed", c.ID, pr)
			afterGate := first.Day > done.day ||
				(first.Day == done.day && first.StartHour >= done.hour-tolerance)
			Expect(afterGate).To(BeTrue(),
				"%s starts day %d hour %.3f before prerequisite %s completes day %d hour %.3f",
				c.ID, first.Day, first.StartHour, pr, done.day, done.hour)
		}
	}
}

// ExpectProducedQty asserts the total quantity produced for one component
// across the whole schedule.
func ExpectProducedQty(resp *v1.ScheduleResponse, componentID string, qty int) {
	GinkgoHelper()
	total := 0
	for _, a := range resp.Assignments {
		if a.TaskType == v1.TaskProduce && a.ComponentID == componentID {
			total += a.ProducedQty
		}
	}
	Expect(total).To(Equal(qty), "produced quantity mismatch for %s", componentID)
}

// ExpectTaskSequence asserts the task types emitted on one machine-day, in
// order.
func ExpectTaskSequence(resp *v1.ScheduleResponse, machineID string, day int, types ...v1.TaskType) {
	GinkgoHelper()
	var got []v1.TaskType
	for _, a := range resp.Assignments {
		if a.MachineID == machineID && a.Day == day {
			got = append(got, a.TaskType)
		}
	}
	Expect(got).To(Equal(types), "task sequence mismatch on %s day %d", machineID, day)
}

func moldOf(a v1.Assignment) string {
	switch a.TaskType {
	case v1.TaskProduce:
		return a.MoldID
	case v1.TaskChangeMold:
		return a.ToMoldID
	default:
		return ""
	}
}
