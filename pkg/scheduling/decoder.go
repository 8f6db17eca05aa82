package scheduling

import (
	v1 "github.com/taskalign/taskalign/pkg/apis/v1"
)

// maxSlideIterations bounds the within-day search for a free mold window.
// Each slide jumps past at least one reserved span, so real inputs finish
// in a handful of iterations; the bound only guards against degenerate
// float behavior.
const maxSlideIterations = 10000

// Decoder turns a component priority permutation into a concrete
// schedule. It is fully deterministic: random choices live only in the GA
// driver, and the entire machine fleet is simulated jointly so a
// low-priority component may still land on an earlier day of an idle
// machine.
type Decoder struct {
	p *Problem
}

func NewDecoder(p *Problem) *Decoder {
	return &Decoder{p: p}
}

// machineState is the per-machine cursor carried across the simulation.
// Tasks on a day are contiguous, so used doubles as the cursor hour.
type machineState struct {
	spec *MachineSpec
	day  int
	used float64
	seq  int

	moldID   string
	color    string
	hasMold  bool
	hasColor bool
}

// completionAt marks the (day, hour) a component's demand fully completed.
type completionAt struct {
	day  int
	hour float64
}

func (c completionAt) after(o completionAt) bool {
	return c.day > o.day || (c.day == o.day && c.hour > o.hour+eps)
}

// placement is the projected cost of placing a component on one machine:
// the earliest (day, produce start) plus the tie-break signals.
type placement struct {
	day          int
	setupStart   float64
	produceStart float64
	needMold     bool
	needColor    bool
	usedAtStart  float64
}

type simulation struct {
	p          *Problem
	cal        *moldCalendar
	states     []*machineState
	remaining  []int
	completion map[int]completionAt
	sched      *Schedule
}

// Decode simulates the fleet day by day following the permutation and
// returns the schedule, the unmet residuals and the summary figures. An
// error reports a decoder invariant violation, never a soft outcome.
func (d *Decoder) Decode(genome []int) (*Schedule, error) {
	if len(genome) != len(d.p.Components) {
		return nil, internalErrorf("genome length %d does not match %d components", len(genome), len(d.p.Components))
	}
	sim := &simulation{
		p:          d.p,
		cal:        newMoldCalendar(),
		remaining:  make([]int, len(d.p.Components)),
		completion: map[int]completionAt{},
		sched: &Schedule{
			Assignments: []v1.Assignment{},
			Unmet:       map[string]int{},
			finishDay:   map[int]int{},
		},
	}
	for _, m := range d.p.Machines {
		sim.states = append(sim.states, &machineState{spec: m, day: 1, seq: 1})
	}
	for i, c := range d.p.Components {
		sim.remaining[i] = c.Quantity
	}

	for _, ci := range genome {
		if err := sim.place(ci); err != nil {
			return nil, err
		}
	}

	for i, rem := range sim.remaining {
		if rem > 0 {
			sim.sched.Unmet[d.p.Components[i].ID] = rem
		}
	}
	return sim.sched, nil
}

// place schedules one component entirely: picks the cheapest admitting
// machine for the first run, then keeps the remainder on that machine
// until the demand is met or the month is exhausted.
func (s *simulation) place(ci int) error {
	c := s.p.Components[ci]

	// Prerequisite gate: production cannot start before every prerequisite
	// has cumulatively produced its full quantity. Permutations are
	// topologically repaired, so prerequisites were already placed; one
	// that ended the month incomplete leaves this component entirely unmet.
	gate := completionAt{day: 1}
	for _, pr := range c.prereqs {
		done, ok := s.completion[pr]
		if !ok {
			return nil
		}
		if done.after(gate) {
			gate = done
		}
	}
	if gate.day > s.p.MonthDays {
		return nil
	}

	st := s.chooseMachine(c, gate)
	if st == nil {
		return nil
	}

	for s.remaining[ci] > 0 {
		plan, ok := s.project(st, c, gate)
		if !ok {
			break
		}
		if err := s.commit(st, ci, plan); err != nil {
			return err
		}
	}
	return nil
}

// chooseMachine projects a tentative placement on every admitting machine
// and returns the lexicographically cheapest one: earliest (day, produce
// start), then no mold change, no color change, tighter remaining capacity
// on the day, ascending machine id. Returns nil when no machine can fit a
// single piece within the month.
func (s *simulation) chooseMachine(c *ComponentSpec, gate completionAt) *machineState {
	var best *machineState
	var bestPlan placement
	for _, m := range s.p.Admitting(c.MoldID) {
		st := s.stateOf(m.ID)
		plan, ok := s.project(st, c, gate)
		if !ok {
			continue
		}
		if best == nil || betterPlacement(plan, st, bestPlan, best) {
			best, bestPlan = st, plan
		}
	}
	return best
}

func betterPlacement(a placement, am *machineState, b placement, bm *machineState) bool {
	if a.day != b.day {
		return a.day < b.day
	}
	if a.produceStart < b.produceStart-eps {
		return true
	}
	if a.produceStart > b.produceStart+eps {
		return false
	}
	if a.needMold != b.needMold {
		return !a.needMold
	}
	if a.needColor != b.needColor {
		return !a.needColor
	}
	// Pack tight: prefer the machine with less capacity left on the day.
	remA := am.spec.Capacity() - a.usedAtStart
	remB := bm.spec.Capacity() - b.usedAtStart
	if remA < remB-eps {
		return true
	}
	if remA > remB+eps {
		return false
	}
	return am.spec.ID < bm.spec.ID
}

func (s *simulation) stateOf(machineID string) *machineState {
	for _, st := range s.states {
		if st.spec.ID == machineID {
			return st
		}
	}
	return nil
}

// project finds the earliest day on which the machine can run setups plus
// at least one piece of the component, honoring the prerequisite gate,
// daily capacity and mold exclusivity. It never mutates state.
func (s *simulation) project(st *machineState, c *ComponentSpec, gate completionAt) (placement, bool) {
	startDay := st.day
	if gate.day > startDay {
		startDay = gate.day
	}
	for day := startDay; day <= s.p.MonthDays; day++ {
		if plan, ok := s.projectDay(st, c, gate, day); ok {
			return plan, true
		}
	}
	return placement{}, false
}

func (s *simulation) projectDay(st *machineState, c *ComponentSpec, gate completionAt, day int) (placement, bool) {
	used0 := 0.0
	if day == st.day {
		used0 = st.used
	}
	cap := st.spec.Capacity()
	needMold := !st.hasMold || st.moldID != c.MoldID
	needColor := !st.hasColor || st.color != c.Color
	setupColor, setupMold := 0.0, 0.0
	if needColor {
		setupColor = s.p.ColorChangeHours
	}
	if needMold {
		setupMold = s.p.MoldChangeHours
	}
	h := c.PieceHours()

	offset := used0
	for iter := 0; iter < maxSlideIterations; iter++ {
		moldStart := offset + setupColor
		produceStart := moldStart + setupMold
		if day == gate.day && gate.hour > produceStart {
			produceStart = gate.hour
		}
		if produceStart+h > cap+eps {
			return placement{}, false
		}

		// Mold exclusivity: both the mold change and the first piece must
		// fall into free windows; otherwise slide past the latest
		// conflicting reservation and retry.
		shift := 0.0
		if setupMold > 0 {
			if end, conflict := s.cal.conflictEnd(c.MoldID, day, moldStart, moldStart+setupMold); conflict {
				if v := end - moldStart; v > shift {
					shift = v
				}
			}
		}
		if end, conflict := s.cal.conflictEnd(c.MoldID, day, produceStart, produceStart+h); conflict {
			if v := end - produceStart; v > shift {
				shift = v
			}
		}
		if shift <= eps {
			return placement{
				day:          day,
				setupStart:   offset,
				produceStart: produceStart,
				needMold:     needMold,
				needColor:    needColor,
				usedAtStart:  used0,
			}, true
		}
		offset += shift
	}
	return placement{}, false
}

// commit applies one projected placement: emits waits and changeovers,
// then a production run drained to the capacity ceiling or the next mold
// reservation, whichever comes first.
func (s *simulation) commit(st *machineState, ci int, plan placement) error {
	c := s.p.Components[ci]
	if plan.day != st.day {
		st.day = plan.day
		st.used = 0
		st.seq = 1
	}

	// Mold-busy slide surfaces as an explicit wait before the setups.
	if plan.setupStart > st.used+eps {
		if err := s.emit(st, v1.Assignment{
			TaskType:  v1.TaskWait,
			StartHour: st.used,
			EndHour:   plan.setupStart,
		}); err != nil {
			return err
		}
	}

	// Color before mold on a double transition; zero-duration changeovers
	// update machine state without emitting a task.
	if plan.needColor {
		if s.p.ColorChangeHours > 0 {
			from := v1.NoneSentinel
			if st.hasColor {
				from = st.color
			}
			if err := s.emit(st, v1.Assignment{
				TaskType:  v1.TaskChangeColor,
				StartHour: st.used,
				EndHour:   st.used + s.p.ColorChangeHours,
				FromColor: from,
				ToColor:   c.Color,
			}); err != nil {
				return err
			}
		}
		st.color = c.Color
		st.hasColor = true
	}
	if plan.needMold {
		if s.p.MoldChangeHours > 0 {
			from := v1.NoneSentinel
			if st.hasMold {
				from = st.moldID
			}
			start := st.used
			if err := s.emit(st, v1.Assignment{
				TaskType:   v1.TaskChangeMold,
				StartHour:  start,
				EndHour:    start + s.p.MoldChangeHours,
				FromMoldID: from,
				ToMoldID:   c.MoldID,
			}); err != nil {
				return err
			}
			s.cal.reserve(c.MoldID, st.day, start, start+s.p.MoldChangeHours)
		}
		st.moldID = c.MoldID
		st.hasMold = true
	}

	// Same-day prerequisite relaxation: pre-setup happened above, now wait
	// through the projected prerequisite finish.
	if plan.produceStart > st.used+eps {
		if err := s.emit(st, v1.Assignment{
			TaskType:  v1.TaskWait,
			StartHour: st.used,
			EndHour:   plan.produceStart,
		}); err != nil {
			return err
		}
	}

	h := c.PieceHours()
	hardEnd := st.spec.Capacity()
	if nb, ok := s.cal.nextBusyStart(c.MoldID, st.day, plan.produceStart); ok && nb < hardEnd {
		hardEnd = nb
	}
	qty := int((hardEnd - plan.produceStart + eps) / h)
	if qty > s.remaining[ci] {
		qty = s.remaining[ci]
	}
	if qty < 1 {
		return internalErrorf("component %q: projected run on machine %q day %d fits no pieces", c.ID, st.spec.ID, st.day)
	}
	end := plan.produceStart + float64(qty)*h
	if err := s.emit(st, v1.Assignment{
		TaskType:      v1.TaskProduce,
		StartHour:     plan.produceStart,
		EndHour:       end,
		ComponentID:   c.ID,
		ComponentName: c.Name,
		MoldID:        c.MoldID,
		Color:         c.Color,
		ProducedQty:   qty,
	}); err != nil {
		return err
	}
	s.cal.reserve(c.MoldID, st.day, plan.produceStart, end)

	s.remaining[ci] -= qty
	if s.remaining[ci] == 0 {
		s.completion[ci] = completionAt{day: st.day, hour: end}
		s.sched.finishDay[ci] = st.day
	}
	return nil
}

// emit appends one assignment, enforcing the schedule invariants at the
// moment of emission: non-negative monotone hours, contiguity with the
// machine cursor and the daily capacity ceiling.
func (s *simulation) emit(st *machineState, a v1.Assignment) error {
	cap := st.spec.Capacity()
	switch {
	case a.StartHour < -eps:
		return internalErrorf("machine %q day %d: negative start hour %v", st.spec.ID, st.day, a.StartHour)
	case a.EndHour < a.StartHour-eps:
		return internalErrorf("machine %q day %d: end hour %v before start hour %v", st.spec.ID, st.day, a.EndHour, a.StartHour)
	case a.EndHour > cap+eps:
		return internalErrorf("machine %q day %d: end hour %v exceeds capacity %v", st.spec.ID, st.day, a.EndHour, cap)
	case a.StartHour > st.used+eps || a.StartHour < st.used-eps:
		return internalErrorf("machine %q day %d: start hour %v not contiguous with cursor %v", st.spec.ID, st.day, a.StartHour, st.used)
	}

	a.Day = st.day
	a.MachineID = st.spec.ID
	a.MachineName = st.spec.Name
	a.SequenceInDay = st.seq
	a.UsedHours = a.EndHour - a.StartHour
	a.Utilization = a.UsedHours / cap

	s.sched.Assignments = append(s.sched.Assignments, a)
	s.sched.UsedHours += a.UsedHours
	switch a.TaskType {
	case v1.TaskWait:
		s.sched.WaitHours += a.UsedHours
	case v1.TaskChangeMold:
		s.sched.MoldChanges++
	case v1.TaskChangeColor:
		s.sched.ColorChanges++
	}

	st.used = a.EndHour
	st.seq++
	return nil
}
