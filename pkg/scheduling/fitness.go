package scheduling

import (
	"github.com/samber/lo"

	v1 "github.com/taskalign/taskalign/pkg/apis/v1"
)

// Fitness weight defaults. Unmet demand dominates, tardiness next,
// changeover overhead and waiting are tie-breakers. Lower score is better.
const (
	DefaultUnmetWeight = 100.0
	DefaultTardyWeight = 10.0
	DefaultSetupWeight = 1.0
	DefaultWaitWeight  = 0.5
)

// Weights parameterize the fitness evaluator.
type Weights struct {
	Unmet float64
	Tardy float64
	Setup float64
	Wait  float64
}

// DefaultWeights returns the recommended defaults.
func DefaultWeights() Weights {
	return Weights{
		Unmet: DefaultUnmetWeight,
		Tardy: DefaultTardyWeight,
		Setup: DefaultSetupWeight,
		Wait:  DefaultWaitWeight,
	}
}

// ResolveWeights overlays non-nil request overrides onto the defaults.
func ResolveWeights(overrides *v1.Weights) Weights {
	w := DefaultWeights()
	if overrides == nil {
		return w
	}
	w.Unmet = lo.FromPtrOr(overrides.Unmet, w.Unmet)
	w.Tardy = lo.FromPtrOr(overrides.Tardy, w.Tardy)
	w.Setup = lo.FromPtrOr(overrides.Setup, w.Setup)
	w.Wait = lo.FromPtrOr(overrides.Wait, w.Wait)
	return w
}

// Score evaluates a decoded schedule: weighted unmet demand, changeover
// overhead, tardiness against due days and accumulated waiting. Tardiness
// counts only components that finished; unfinished ones are already
// dominated by the unmet term. Terms are summed in component index order:
// float addition is not associative, and scores must reproduce exactly for
// a given schedule because they drive selection.
func (w Weights) Score(p *Problem, s *Schedule) float64 {
	score := 0.0
	for ci, c := range p.Components {
		if rem := s.Unmet[c.ID]; rem > 0 {
			score += w.Unmet * float64(rem)
		}
		if day, ok := s.finishDay[ci]; ok && day > c.DueDay {
			score += w.Tardy * float64(day-c.DueDay) * float64(c.Quantity)
		}
	}
	score += w.Setup * (float64(s.MoldChanges)*p.MoldChangeHours + float64(s.ColorChanges)*p.ColorChangeHours)
	score += w.Wait * s.WaitHours
	return score
}
