package scheduling

import (
	"context"
	"time"

	"go.uber.org/zap"

	v1 "github.com/taskalign/taskalign/pkg/apis/v1"
)

// Plan is the request/response contract of the scheduler: it defaults and
// validates the raw request, runs the genetic search and maps the winning
// solution back onto the wire types. It performs no I/O; the HTTP server
// and the CLI are thin wrappers around this function.
func Plan(ctx context.Context, req *v1.ScheduleRequest, log *zap.Logger) (*v1.ScheduleResponse, error) {
	req.Default()
	p, err := NewProblem(req)
	if err != nil {
		return nil, err
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	opts := Options{
		PopSize:      req.PopSize,
		NGenerations: req.NGenerations,
		MutationRate: *req.MutationRate,
		Seed:         seed,
		TimeBudget:   time.Duration(req.TimeBudgetSeconds * float64(time.Second)),
		Weights:      ResolveWeights(req.Weights),
	}

	sol, err := NewOptimizer(p, opts, log).Solve(ctx)
	if err != nil {
		return nil, err
	}
	return &v1.ScheduleResponse{
		Assignments: sol.Schedule.Assignments,
		Unmet:       sol.Schedule.Unmet,
		Score:       sol.Score,
		Partial:     sol.Partial,
	}, nil
}
