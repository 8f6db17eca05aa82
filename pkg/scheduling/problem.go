package scheduling

import (
	"sort"

	"github.com/samber/lo"

	v1 "github.com/taskalign/taskalign/pkg/apis/v1"
)

// Problem is the validated, normalized view of a schedule request: typed
// entities, lookup tables, and the topological structure of the
// prerequisite graph. It is immutable for the lifetime of a request.
type Problem struct {
	MonthDays        int
	MoldChangeHours  float64
	ColorChangeHours float64

	Machines   []*MachineSpec
	Molds      []*MoldSpec
	Components []*ComponentSpec

	machineByID    map[string]*MachineSpec
	moldByID       map[string]*MoldSpec
	componentIndex map[string]int

	// admitting lists, per mold id, the machines that can run the mold,
	// sorted by ascending tonnage then ascending id.
	admitting map[string][]*MachineSpec

	// topoOrder holds component indices in Kahn order, ties broken by
	// ascending due day then ascending id.
	topoOrder []int
}

func validGroup(g v1.Group) bool {
	return g == v1.GroupSmall || g == v1.GroupMedium || g == v1.GroupLarge
}

// NewProblem validates the raw request and returns the normalized view.
// It fails with a ValidationError on the first offending item and with an
// InfeasibleError when a component's mold cannot run on any machine.
func NewProblem(req *v1.ScheduleRequest) (*Problem, error) {
	if req.MonthDays < 1 {
		return nil, validationErrorf("month_days must be >= 1, got %d", req.MonthDays)
	}
	if req.MoldChangeTimeHours < 0 {
		return nil, validationErrorf("mold_change_time_hours must be >= 0")
	}
	if req.ColorChangeTimeHours < 0 {
		return nil, validationErrorf("color_change_time_hours must be >= 0")
	}
	if req.PopSize < 2 {
		return nil, validationErrorf("pop_size must be >= 2, got %d", req.PopSize)
	}
	if req.NGenerations < 1 {
		return nil, validationErrorf("n_generations must be >= 1, got %d", req.NGenerations)
	}
	if req.MutationRate != nil && (*req.MutationRate < 0 || *req.MutationRate > 1) {
		return nil, validationErrorf("mutation_rate must be in [0, 1], got %v", *req.MutationRate)
	}
	if req.TimeBudgetSeconds < 0 {
		return nil, validationErrorf("time_budget_seconds must be >= 0")
	}

	p := &Problem{
		MonthDays:        req.MonthDays,
		MoldChangeHours:  req.MoldChangeTimeHours,
		ColorChangeHours: req.ColorChangeTimeHours,
		machineByID:      map[string]*MachineSpec{},
		moldByID:         map[string]*MoldSpec{},
		componentIndex:   map[string]int{},
		admitting:        map[string][]*MachineSpec{},
	}

	for _, m := range req.Machines {
		if m.ID == "" {
			return nil, validationErrorf("machine with empty id")
		}
		if _, ok := p.machineByID[m.ID]; ok {
			return nil, validationErrorf("duplicate machine id %q", m.ID)
		}
		if !validGroup(m.Group) {
			return nil, validationErrorf("machine %q: unknown group %q", m.ID, m.Group)
		}
		if m.Tonnage <= 0 {
			return nil, validationErrorf("machine %q: tonnage must be > 0", m.ID)
		}
		if m.HoursPerDay <= 0 {
			return nil, validationErrorf("machine %q: hours_per_day must be > 0", m.ID)
		}
		if m.Efficiency <= 0 || m.Efficiency > 1.5 {
			return nil, validationErrorf("machine %q: efficiency must be in (0, 1.5], got %v", m.ID, m.Efficiency)
		}
		spec := &MachineSpec{
			ID:          m.ID,
			Name:        m.Name,
			Group:       m.Group,
			Tonnage:     m.Tonnage,
			HoursPerDay: m.HoursPerDay,
			Efficiency:  m.Efficiency,
		}
		p.Machines = append(p.Machines, spec)
		p.machineByID[m.ID] = spec
	}

	for _, m := range req.Molds {
		if m.ID == "" {
			return nil, validationErrorf("mold with empty id")
		}
		if _, ok := p.moldByID[m.ID]; ok {
			return nil, validationErrorf("duplicate mold id %q", m.ID)
		}
		if !validGroup(m.Group) {
			return nil, validationErrorf("mold %q: unknown group %q", m.ID, m.Group)
		}
		if m.Tonnage <= 0 {
			return nil, validationErrorf("mold %q: tonnage must be > 0", m.ID)
		}
		spec := &MoldSpec{ID: m.ID, Name: m.Name, Group: m.Group, Tonnage: m.Tonnage}
		p.Molds = append(p.Molds, spec)
		p.moldByID[m.ID] = spec
	}

	for i, c := range req.Components {
		if c.ID == "" {
			return nil, validationErrorf("component with empty id")
		}
		if _, ok := p.componentIndex[c.ID]; ok {
			return nil, validationErrorf("duplicate component id %q", c.ID)
		}
		if _, ok := p.moldByID[c.MoldID]; !ok {
			return nil, validationErrorf("component %q: unknown mold %q", c.ID, c.MoldID)
		}
		if c.CycleTimeSec <= 0 {
			return nil, validationErrorf("component %q: cycle_time_sec must be > 0", c.ID)
		}
		if c.Quantity <= 0 {
			return nil, validationErrorf("component %q: quantity must be > 0", c.ID)
		}
		if c.DueDay < 1 {
			return nil, validationErrorf("component %q: due_day must be >= 1", c.ID)
		}
		lead := lo.FromPtr(c.LeadTimeDays)
		if lead < 0 {
			return nil, validationErrorf("component %q: lead_time_days must be >= 0", c.ID)
		}
		spec := &ComponentSpec{
			ID:                c.ID,
			Name:              c.Name,
			MoldID:            c.MoldID,
			Color:             c.Color,
			CycleTimeSec:      c.CycleTimeSec,
			Quantity:          c.Quantity,
			DueDay:            c.DueDay,
			LeadTimeDays:      lead,
			RequiredFinishDay: c.DueDay - lead,
		}
		p.Components = append(p.Components, spec)
		p.componentIndex[c.ID] = i
	}

	// Prerequisite references resolve after all components are known.
	for i, c := range req.Components {
		for _, pr := range c.Prerequisites {
			if pr == c.ID {
				return nil, validationErrorf("component %q: prerequisite references itself", c.ID)
			}
			j, ok := p.componentIndex[pr]
			if !ok {
				return nil, validationErrorf("component %q: unknown prerequisite %q", c.ID, pr)
			}
			p.Components[i].prereqs = append(p.Components[i].prereqs, j)
		}
	}

	for moldID := range p.moldByID {
		mold := p.moldByID[moldID]
		machines := lo.Filter(p.Machines, func(m *MachineSpec, _ int) bool {
			return m.Admits(mold)
		})
		sort.Slice(machines, func(a, b int) bool {
			if machines[a].Tonnage != machines[b].Tonnage {
				return machines[a].Tonnage < machines[b].Tonnage
			}
			return machines[a].ID < machines[b].ID
		})
		p.admitting[moldID] = machines
	}
	for _, c := range p.Components {
		if len(p.admitting[c.MoldID]) == 0 {
			return nil, infeasibleErrorf("component %q: no machine admits mold %q", c.ID, c.MoldID)
		}
	}

	if err := p.buildTopology(); err != nil {
		return nil, err
	}
	return p, nil
}

// buildTopology runs Kahn's algorithm over the prerequisite graph,
// detecting cycles and assigning topological levels in the same pass.
// Ready components are consumed in (due_day, id) order so the resulting
// order is deterministic.
func (p *Problem) buildTopology() error {
	n := len(p.Components)
	indegree := make([]int, n)
	dependents := make([][]int, n)
	for i, c := range p.Components {
		indegree[i] = len(c.prereqs)
		for _, j := range c.prereqs {
			dependents[j] = append(dependents[j], i)
		}
	}

	ready := lo.Filter(lo.Range(n), func(i int, _ int) bool { return indegree[i] == 0 })
	p.topoOrder = make([]int, 0, n)
	for len(ready) > 0 {
		sort.Slice(ready, func(a, b int) bool {
			ca, cb := p.Components[ready[a]], p.Components[ready[b]]
			if ca.DueDay != cb.DueDay {
				return ca.DueDay < cb.DueDay
			}
			return ca.ID < cb.ID
		})
		i := ready[0]
		ready = ready[1:]
		p.topoOrder = append(p.topoOrder, i)

		level := 0
		for _, j := range p.Components[i].prereqs {
			if p.Components[j].Level+1 > level {
				level = p.Components[j].Level + 1
			}
		}
		p.Components[i].Level = level

		for _, j := range dependents[i] {
			indegree[j]--
			if indegree[j] == 0 {
				ready = append(ready, j)
			}
		}
	}
	if len(p.topoOrder) != n {
		return validationErrorf("prerequisite graph contains a cycle")
	}
	return nil
}

// Mold returns the mold spec for the given id.
func (p *Problem) Mold(id string) *MoldSpec { return p.moldByID[id] }

// Machine returns the machine spec for the given id.
func (p *Problem) Machine(id string) *MachineSpec { return p.machineByID[id] }

// ComponentIndex returns the index of a component id and whether it exists.
func (p *Problem) ComponentIndex(id string) (int, bool) {
	i, ok := p.componentIndex[id]
	return i, ok
}

// Admitting returns the machines admitting the given mold, sorted by
// ascending tonnage then id.
func (p *Problem) Admitting(moldID string) []*MachineSpec { return p.admitting[moldID] }

// TopoOrder returns component indices in topological order.
func (p *Problem) TopoOrder() []int { return p.topoOrder }
