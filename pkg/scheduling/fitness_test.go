package scheduling_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/samber/lo"

	v1 "github.com/taskalign/taskalign/pkg/apis/v1"
	"github.com/taskalign/taskalign/pkg/scheduling"
	"github.com/taskalign/taskalign/pkg/test"
)

var _ = Describe("Fitness", func() {
	Describe("ResolveWeights", func() {
		It("keeps the defaults when no overrides are given", func() {
			Expect(scheduling.ResolveWeights(nil)).To(Equal(scheduling.DefaultWeights()))
		})
		It("overlays only the overridden fields", func() {
			w := scheduling.ResolveWeights(&v1.Weights{Unmet: lo.ToPtr(500.0)})
			Expect(w.Unmet).To(Equal(500.0))
			Expect(w.Tardy).To(Equal(scheduling.DefaultTardyWeight))
			Expect(w.Setup).To(Equal(scheduling.DefaultSetupWeight))
			Expect(w.Wait).To(Equal(scheduling.DefaultWaitWeight))
		})
	})

	Describe("Score", func() {
		score := func(req *v1.ScheduleRequest, genome []int, w scheduling.Weights) float64 {
			GinkgoHelper()
			p, err := scheduling.NewProblem(req)
			Expect(err).ToNot(HaveOccurred())
			sched, err := scheduling.NewDecoder(p).Decode(genome)
			Expect(err).ToNot(HaveOccurred())
			return w.Score(p, sched)
		}

		It("charges only the changeover overhead when demand finishes on time", func() {
			req := test.ScheduleRequest(v1.ScheduleRequest{
				MoldChangeTimeHours:  1,
				ColorChangeTimeHours: 0.5,
				Components: []v1.Component{
					test.Component(v1.Component{Quantity: 90, CycleTimeSec: 40, DueDay: 1}),
				},
			})
			// One mold change plus one color change, nothing else.
			Expect(score(req, []int{0}, scheduling.DefaultWeights())).To(BeNumerically("~", 1.5, 1e-9))
		})

		It("charges tardiness per late day and piece for finished components", func() {
			req := test.ScheduleRequest(v1.ScheduleRequest{
				MoldChangeTimeHours:  1,
				ColorChangeTimeHours: 0.5,
				Components: []v1.Component{
					test.Component(v1.Component{Quantity: 13, CycleTimeSec: 3600, DueDay: 1}),
				},
			})
			// Ten pieces fit on day one after setups, the rest finish a day
			// late: 10 * 1 * 13 tardy plus 1.5 setup.
			Expect(score(req, []int{0}, scheduling.DefaultWeights())).To(BeNumerically("~", 131.5, 1e-9))
		})

		It("charges unmet pieces but not tardiness for unfinished components", func() {
			req := test.ScheduleRequest(v1.ScheduleRequest{
				MonthDays:            1,
				MoldChangeTimeHours:  1,
				ColorChangeTimeHours: 0.5,
				Components: []v1.Component{
					test.Component(v1.Component{Quantity: 20, CycleTimeSec: 3600, DueDay: 1}),
				},
			})
			// 10 pieces fit, 10 remain: 100 * 10 unmet plus 1.5 setup.
			Expect(score(req, []int{0}, scheduling.DefaultWeights())).To(BeNumerically("~", 1001.5, 1e-9))
		})

		It("reproduces exactly across repeated evaluations with fractional weights", func() {
			// Five components starve on one machine-day, leaving five unmet
			// entries. Their terms must always sum in the same order.
			components := make([]v1.Component, 0, 5)
			for _, id := range []string{"a", "b", "c", "d", "e"} {
				components = append(components, test.Component(v1.Component{
					ID: id, CycleTimeSec: 3600, Quantity: 100, DueDay: 1,
				}))
			}
			req := test.ScheduleRequest(v1.ScheduleRequest{
				MonthDays:            1,
				MoldChangeTimeHours:  1,
				ColorChangeTimeHours: 0.5,
				Components:           components,
			})
			p, err := scheduling.NewProblem(req)
			Expect(err).ToNot(HaveOccurred())
			sched, err := scheduling.NewDecoder(p).Decode([]int{0, 1, 2, 3, 4})
			Expect(err).ToNot(HaveOccurred())
			Expect(sched.Unmet).To(HaveLen(5))

			w := scheduling.Weights{Unmet: 0.1, Tardy: 10, Setup: 1, Wait: 0.5}
			first := w.Score(p, sched)
			for i := 0; i < 2000; i++ {
				Expect(w.Score(p, sched)).To(Equal(first))
			}
		})

		It("charges accumulated waiting at the wait weight", func() {
			req := test.ScheduleRequest(v1.ScheduleRequest{
				MonthDays:            3,
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
					test.Component(v1.Component{ID: "c1", MoldID: "mo1", Color: "red", CycleTimeSec: 40, Quantity: 800}),
					test.Component(v1.Component{ID: "c2", MoldID: "mo2", Color: "blue", CycleTimeSec: 30, Quantity: 600, DueDay: 3, Prerequisites: []string{"c1"}}),
				},
			})
			p, err := scheduling.NewProblem(req)
			Expect(err).ToNot(HaveOccurred())
			sched, err := scheduling.NewDecoder(p).Decode([]int{0, 1})
			Expect(err).ToNot(HaveOccurred())
			// c2's machine pre-sets and waits through c1's finish.
			wait := 800.0 / 90.0
			Expect(sched.WaitHours).To(BeNumerically("~", wait, 1e-6))

			base := scheduling.Weights{Unmet: 100, Tardy: 10, Setup: 0, Wait: 0}
			withWait := scheduling.Weights{Unmet: 100, Tardy: 10, Setup: 0, Wait: 2}
			Expect(withWait.Score(p, sched) - base.Score(p, sched)).To(BeNumerically("~", 2*wait, 1e-6))
		})
	})
})
