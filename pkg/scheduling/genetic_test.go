package scheduling_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/taskalign/taskalign/pkg/apis/v1"
	"github.com/taskalign/taskalign/pkg/scheduling"
	"github.com/taskalign/taskalign/pkg/test"
	"github.com/taskalign/taskalign/pkg/test/expectations"
)

var _ = Describe("Optimizer", func() {
	var req *v1.ScheduleRequest

	BeforeEach(func() {
		req = test.ScheduleRequest(v1.ScheduleRequest{
			MonthDays:            4,
			MoldChangeTimeHours:  1,
			ColorChangeTimeHours: 0.5,
			Machines: []v1.Machine{
				test.Machine(v1.Machine{ID: "m1"}),
				test.Machine(v1.Machine{ID: "m2"}),
			},
			Molds: []v1.Mold{
				test.Mold(v1.Mold{ID: "mo1"}),
				test.Mold(v1.Mold{ID: "mo2"}),
			},
			Components: []v1.Component{
				test.Component(v1.Component{ID: "c1", MoldID: "mo1", Color: "red", CycleTimeSec: 40, Quantity: 400}),
				test.Component(v1.Component{ID: "c2", MoldID: "mo2", Color: "blue", CycleTimeSec: 30, Quantity: 300, Prerequisites: []string{"c1"}}),
				test.Component(v1.Component{ID: "c3", MoldID: "mo1", Color: "blue", CycleTimeSec: 20, Quantity: 200}),
				test.Component(v1.Component{ID: "c4", MoldID: "mo2", Color: "red", CycleTimeSec: 50, Quantity: 150, Prerequisites: []string{"c3"}}),
			},
		})
	})

	solve := func(seed int64) *scheduling.Solution {
		GinkgoHelper()
		p, err := scheduling.NewProblem(req)
		Expect(err).ToNot(HaveOccurred())
		opts := scheduling.Options{
			PopSize:      req.PopSize,
			NGenerations: req.NGenerations,
			MutationRate: *req.MutationRate,
			Seed:         seed,
			Weights:      scheduling.DefaultWeights(),
		}
		sol, err := scheduling.NewOptimizer(p, opts, nil).Solve(context.Background())
		Expect(err).ToNot(HaveOccurred())
		return sol
	}

	It("returns a schedule satisfying every structural invariant", func() {
		sol := solve(42)
		expectations.ExpectValidSchedule(req, &v1.ScheduleResponse{
			Assignments: sol.Schedule.Assignments,
			Unmet:       sol.Schedule.Unmet,
		})
		Expect(sol.Partial).To(BeFalse())
		Expect(sol.Generations).To(Equal(req.NGenerations))
	})

	It("is deterministic for a fixed seed", func() {
		a, b := solve(42), solve(42)
		Expect(a.Schedule.Assignments).To(Equal(b.Schedule.Assignments))
		Expect(a.Schedule.Unmet).To(Equal(b.Schedule.Unmet))
		Expect(a.Score).To(Equal(b.Score))
	})

	It("treats seed zero as the fixed default seed", func() {
		Expect(solve(0).Score).To(Equal(solve(1).Score))
	})

	It("returns the best-so-far draft when cancelled before the first generation", func() {
		p, err := scheduling.NewProblem(req)
		Expect(err).ToNot(HaveOccurred())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		sol, err := scheduling.NewOptimizer(p, scheduling.Options{
			PopSize:      req.PopSize,
			NGenerations: req.NGenerations,
			MutationRate: *req.MutationRate,
			Seed:         42,
			Weights:      scheduling.DefaultWeights(),
		}, nil).Solve(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(sol.Partial).To(BeTrue())
		Expect(sol.Generations).To(BeZero())
		expectations.ExpectValidSchedule(req, &v1.ScheduleResponse{
			Assignments: sol.Schedule.Assignments,
			Unmet:       sol.Schedule.Unmet,
		})
	})

	It("solves the empty problem to an empty schedule", func() {
		req.Components = nil
		sol := solve(42)
		Expect(sol.Schedule.Assignments).To(BeEmpty())
		Expect(sol.Schedule.Unmet).To(BeEmpty())
		Expect(sol.Score).To(BeZero())
	})
})

var _ = Describe("Plan", func() {
	It("defaults, solves and maps onto the wire response", func() {
		req := test.ScheduleRequest(v1.ScheduleRequest{
			MoldChangeTimeHours:  1,
			ColorChangeTimeHours: 0.5,
		})
		resp, err := scheduling.Plan(context.Background(), req, nil)
		Expect(err).ToNot(HaveOccurred())
		expectations.ExpectValidSchedule(req, resp)
		Expect(resp.Partial).To(BeFalse())
		Expect(resp.Unmet).To(BeEmpty())
	})

	It("propagates validation failures", func() {
		req := test.ScheduleRequest(v1.ScheduleRequest{
			Components: []v1.Component{
				test.Component(v1.Component{ID: "a", Prerequisites: []string{"b"}}),
				test.Component(v1.Component{ID: "b", Prerequisites: []string{"a"}}),
			},
		})
		_, err := scheduling.Plan(context.Background(), req, nil)
		Expect(scheduling.IsUserError(err)).To(BeTrue())
	})
})
