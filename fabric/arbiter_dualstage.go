package fabric

import "math/rand"

// ClassAggMode controls how per-client metadata is aggregated into a
// per-class metadata value for the two-stage arbiter's first stage.
type ClassAggMode string

const (
	ClassAggNone ClassAggMode = "none"
	ClassAggMin  ClassAggMode = "min"
	ClassAggMax  ClassAggMode = "max"
)

// twoStageArbiter groups N requestors into NumClasses classes (client i
// belongs to class i % NumClasses) and arbitrates in two composed stages:
// stage1 picks a winning class using a per-class aggregate metadata value,
// stage2 picks the winner within that class. Grounded on
// src/arbiter/DualStageClassArbiter.cc.
type twoStageArbiter struct {
	requestState
	numClasses int
	aggMode    ClassAggMode
	stage1     Arbiter // size numClasses
	stage2     Arbiter // size n
	won        bool    // whether the last Arbitrate produced a winner
}

func newTwoStageArbiter(cfg ArbiterConfig, n int, rng *rand.Rand) *twoStageArbiter {
	if cfg.NumClasses <= 0 || cfg.NumClasses > n {
		configErrorf("TwoStageArbiter", "num_classes must be in (0,%d], got %d", n, cfg.NumClasses)
	}
	if cfg.Stage1 == nil || cfg.Stage2 == nil {
		configErrorf("TwoStageArbiter", "stage1 and stage2 arbiter configs are required")
	}
	return &twoStageArbiter{
		requestState: newRequestState(n),
		numClasses:   cfg.NumClasses,
		aggMode:      cfg.Metadata,
		stage1:       NewArbiter(*cfg.Stage1, cfg.NumClasses, rng),
		stage2:       NewArbiter(*cfg.Stage2, n, rng),
	}
}

func (a *twoStageArbiter) classOf(client int) int { return client % a.numClasses }

func (a *twoStageArbiter) Arbitrate() (int, bool) {
	a.won = false
	a.stage1.ClearRequests()
	// Aggregate metadata and presence per class.
	present := make([]bool, a.numClasses)
	agg := make([]uint64, a.numClasses)
	first := make([]bool, a.numClasses)
	for i := 0; i < a.numClasses; i++ {
		first[i] = true
	}
	for c := 0; c < a.n; c++ {
		if !a.request[c] {
			continue
		}
		k := a.classOf(c)
		present[k] = true
		switch a.aggMode {
		case ClassAggMin:
			if first[k] || a.metadata[c] < agg[k] {
				agg[k] = a.metadata[c]
			}
		case ClassAggMax:
			if first[k] || a.metadata[c] > agg[k] {
				agg[k] = a.metadata[c]
			}
		default:
			agg[k] = 0
		}
		first[k] = false
	}
	for k := 0; k < a.numClasses; k++ {
		a.stage1.SetRequest(k, present[k])
		a.stage1.SetMetadata(k, agg[k])
	}
	winningClass, ok := a.stage1.Arbitrate()
	if !ok {
		return NoWinner, false
	}

	a.stage2.ClearRequests()
	for c := 0; c < a.n; c++ {
		asserted := a.request[c] && a.classOf(c) == winningClass
		a.stage2.SetRequest(c, asserted)
		a.stage2.SetMetadata(c, a.metadata[c])
	}
	winner, ok := a.stage2.Arbitrate()
	if !ok {
		return NoWinner, false
	}
	a.won = true
	return winner, true
}

func (a *twoStageArbiter) Latch() {
	if !a.won {
		return
	}
	a.stage1.Latch()
	a.stage2.Latch()
}
