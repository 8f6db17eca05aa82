package perf_test

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/samber/lo"

	v1 "github.com/taskalign/taskalign/pkg/apis/v1"
	"github.com/taskalign/taskalign/pkg/scheduling"
	"github.com/taskalign/taskalign/pkg/test"
	"github.com/taskalign/taskalign/pkg/test/expectations"
)

// monthRequest builds a production-sized problem: a mixed fleet, one mold
// per handful of components and a sprinkling of prerequisite chains.
func monthRequest(machines, molds, components int) *v1.ScheduleRequest {
	groups := []v1.Group{v1.GroupSmall, v1.GroupMedium, v1.GroupLarge}
	ms := make([]v1.Machine, 0, machines)
	for i := 0; i < machines; i++ {
		ms = append(ms, test.Machine(v1.Machine{
			ID:      fmt.Sprintf("m%02d", i+1),
			Group:   groups[i%len(groups)],
			Tonnage: 100 + float64(i%4)*50,
		}))
	}
	mos := make([]v1.Mold, 0, molds)
	for i := 0; i < molds; i++ {
		mos = append(mos, test.Mold(v1.Mold{
			ID:      fmt.Sprintf("mo%02d", i+1),
			Group:   groups[i%len(groups)],
			Tonnage: 80 + float64(i%3)*20,
		}))
	}
	colors := []string{"red", "blue", "black", "white"}
	cs := make([]v1.Component, 0, components)
	for i := 0; i < components; i++ {
		c := test.Component(v1.Component{
			ID:           fmt.Sprintf("c%03d", i+1),
			MoldID:       mos[i%molds].ID,
			Color:        colors[i%len(colors)],
			CycleTimeSec: 20 + float64(i%5)*10,
			Quantity:     200 + (i%7)*100,
			DueDay:       5 + i%25,
		})
		// Every fifth component depends on the one three before it.
		if i%5 == 4 {
			c.Prerequisites = []string{fmt.Sprintf("c%03d", i-2)}
		}
		cs = append(cs, c)
	}
	return test.ScheduleRequest(v1.ScheduleRequest{
		MonthDays:            30,
		MoldChangeTimeHours:  1,
		ColorChangeTimeHours: 0.5,
		PopSize:              20,
		NGenerations:         25,
		Machines:             ms,
		Molds:                mos,
		Components:           cs,
	})
}

var _ = Describe("Solver at production scale", func() {
	It("solves a full month over a mixed fleet within the invariants", func() {
		req := monthRequest(9, 12, 100)
		start := time.Now()
		resp, err := scheduling.Plan(context.Background(), req, nil)
		Expect(err).ToNot(HaveOccurred())
		GinkgoWriter.Printf("solved 100 components in %s, score %.1f, unmet %d\n",
			time.Since(start), resp.Score, lo.Sum(lo.Values(resp.Unmet)))

		expectations.ExpectValidSchedule(req, resp)
		Expect(resp.Partial).To(BeFalse())
	})

	It("honors a tight time budget by returning a partial best-so-far draft", func() {
		req := monthRequest(9, 12, 100)
		req.NGenerations = 10000
		req.TimeBudgetSeconds = 0.001

		resp, err := scheduling.Plan(context.Background(), req, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.Partial).To(BeTrue())
		expectations.ExpectValidSchedule(req, resp)
	})

	It("stays deterministic at scale for a fixed seed", func() {
		a, err := scheduling.Plan(context.Background(), monthRequest(6, 8, 60), nil)
		Expect(err).ToNot(HaveOccurred())
		b, err := scheduling.Plan(context.Background(), monthRequest(6, 8, 60), nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Assignments).To(Equal(b.Assignments))
		Expect(a.Score).To(Equal(b.Score))
	})
})
