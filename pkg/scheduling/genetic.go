package scheduling

import (
	"context"
	"math/rand"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options configure one genetic solver run. Bounds were validated with the
// request; the zero Workers value falls back to GOMAXPROCS.
type Options struct {
	PopSize      int
	NGenerations int
	MutationRate float64
	Seed         int64
	TimeBudget   time.Duration
	Weights      Weights
	Workers      int
}

// Solution is the outcome of a solver run: the best decoded schedule, its
// score, and whether the search stopped early on cancellation or budget.
type Solution struct {
	Schedule    *Schedule
	Score       float64
	Generations int
	Partial     bool
}

// Optimizer drives a population of priority permutations through
// tournament selection, order crossover, swap mutation and elitism. The
// single seeded random stream lives on the driver goroutine; fitness
// evaluation fans out over a worker pool but feeds selection through
// stable genome indexing, so results are deterministic per seed.
type Optimizer struct {
	p    *Problem
	dec  *Decoder
	opts Options
	log  *zap.Logger
}

func NewOptimizer(p *Problem, opts Options, log *zap.Logger) *Optimizer {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Optimizer{p: p, dec: NewDecoder(p), opts: opts, log: log}
}

// Solve runs the configured number of generations and returns the best
// genome's decoded schedule. Cancellation and the optional time budget are
// honored at generation boundaries: the best-so-far solution is returned
// with Partial set rather than an error.
func (o *Optimizer) Solve(ctx context.Context) (*Solution, error) {
	solveID := uuid.NewString()
	log := o.log.With(zap.String("schedule_id", solveID))
	start := time.Now()
	outcome := OutcomeError
	defer func() {
		DurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	n := len(o.p.Components)
	if n == 0 {
		sched, err := o.dec.Decode(nil)
		if err != nil {
			return nil, err
		}
		outcome = OutcomeCompleted
		return &Solution{Schedule: sched, Score: 0}, nil
	}

	log.Info("starting solve",
		zap.Int("components", n),
		zap.Int("machines", len(o.p.Machines)),
		zap.Int("pop_size", o.opts.PopSize),
		zap.Int("n_generations", o.opts.NGenerations),
		zap.Int64("seed", o.opts.Seed),
	)

	var deadline time.Time
	if o.opts.TimeBudget > 0 {
		deadline = start.Add(o.opts.TimeBudget)
	}

	rng := rngFromSeed(o.opts.Seed)
	pop := o.initialPopulation(rng)
	scores, err := o.evaluate(pop)
	if err != nil {
		return nil, err
	}

	bestGenome, bestScore := cloneGenome(pop[bestIndex(scores)]), scores[bestIndex(scores)]
	partial := false
	generations := 0

	for g := 0; g < o.opts.NGenerations; g++ {
		if ctx.Err() != nil || (!deadline.IsZero() && time.Now().After(deadline)) {
			partial = true
			break
		}

		next := make([][]int, 0, o.opts.PopSize)
		next = append(next, cloneGenome(pop[bestIndex(scores)]))
		for len(next) < o.opts.PopSize {
			p1 := pop[o.tournament(rng, scores)]
			p2 := pop[o.tournament(rng, scores)]
			child := orderCrossover(rng, p1, p2)
			o.p.Repair(child)
			if rng.Float64() < o.opts.MutationRate {
				swapMutate(rng, child)
				o.p.Repair(child)
			}
			next = append(next, child)
		}
		pop = next
		if scores, err = o.evaluate(pop); err != nil {
			return nil, err
		}
		if i := bestIndex(scores); scores[i] < bestScore {
			bestGenome, bestScore = cloneGenome(pop[i]), scores[i]
		}
		generations++
		GenerationsTotal.Inc()
		log.Debug("generation complete",
			zap.Int("generation", generations),
			zap.Float64("best_score", bestScore),
		)
	}

	// Final deterministic decode of the winner.
	sched, err := o.dec.Decode(bestGenome)
	if err != nil {
		return nil, err
	}
	score := o.opts.Weights.Score(o.p, sched)

	totalUnmet := 0
	for _, rem := range sched.Unmet {
		totalUnmet += rem
	}
	UnmetPieces.Observe(float64(totalUnmet))

	outcome = OutcomeCompleted
	if partial {
		outcome = OutcomePartial
	}
	log.Info("solve finished",
		zap.Float64("score", score),
		zap.Int("generations", generations),
		zap.Int("unmet_pieces", totalUnmet),
		zap.Bool("partial", partial),
		zap.Duration("duration", time.Since(start)),
	)
	return &Solution{
		Schedule:    sched,
		Score:       score,
		Generations: generations,
		Partial:     partial,
	}, nil
}

// initialPopulation seeds the first half with topologically biased
// shuffles and the second half with repaired uniform permutations.
func (o *Optimizer) initialPopulation(rng *rand.Rand) [][]int {
	pop := make([][]int, 0, o.opts.PopSize)
	for i := 0; i < o.opts.PopSize; i++ {
		if i < o.opts.PopSize/2 {
			pop = append(pop, o.p.BiasedShuffle(rng))
			continue
		}
		g := o.p.RandomGenome(rng)
		o.p.Repair(g)
		pop = append(pop, g)
	}
	return pop
}

// evaluate decodes and scores every genome on a bounded worker pool.
// Scores land in an indexed slice so selection sees a stable order no
// matter which worker finished first.
func (o *Optimizer) evaluate(pop [][]int) ([]float64, error) {
	scores := make([]float64, len(pop))
	var g errgroup.Group
	g.SetLimit(o.opts.Workers)
	for i := range pop {
		g.Go(func() error {
			sched, err := o.dec.Decode(pop[i])
			if err != nil {
				return err
			}
			scores[i] = o.opts.Weights.Score(o.p, sched)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// tournament is a binary tournament with replacement; score ties resolve
// to the lower genome index to keep selection stable.
func (o *Optimizer) tournament(rng *rand.Rand, scores []float64) int {
	a := rng.Intn(len(scores))
	b := rng.Intn(len(scores))
	if scores[b] < scores[a] || (scores[b] == scores[a] && b < a) {
		return b
	}
	return a
}

// bestIndex returns the index of the minimal score, preferring the lower
// index on ties.
func bestIndex(scores []float64) int {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] < scores[best] {
			best = i
		}
	}
	return best
}

// orderCrossover implements OX: a random slice of parent A is copied
// verbatim, the remaining positions fill with parent B's order skipping
// ids already present.
func orderCrossover(rng *rand.Rand, a, b []int) []int {
	n := len(a)
	if n < 2 {
		return cloneGenome(a)
	}
	lo := rng.Intn(n)
	hi := rng.Intn(n - 1)
	if hi >= lo {
		hi++
	} else {
		lo, hi = hi, lo
	}

	child := make([]int, n)
	inSlice := make([]bool, n)
	for i := lo; i < hi; i++ {
		child[i] = a[i]
		inSlice[a[i]] = true
	}
	rest := make([]int, 0, n-(hi-lo))
	for _, id := range b {
		if !inSlice[id] {
			rest = append(rest, id)
		}
	}
	copy(child[:lo], rest[:lo])
	copy(child[hi:], rest[lo:])
	return child
}

// swapMutate exchanges two distinct random positions in place.
func swapMutate(rng *rand.Rand, genome []int) {
	n := len(genome)
	if n < 2 {
		return
	}
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	genome[i], genome[j] = genome[j], genome[i]
}

func cloneGenome(g []int) []int {
	c := make([]int, len(g))
	copy(c, g)
	return c
}
