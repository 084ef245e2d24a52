package search

import (
	ystats "github.com/domino14/yomi/stats"
)

// SearchStats are the counters of one engine. They accumulate across
// searches until ResetStats.
type SearchStats struct {
	Nodes       uint64
	QNodes      uint64
	TTCutoffs   uint64
	BetaCutoffs uint64
	// FirstMoveCutoffs counts beta cutoffs produced by the first move
	// searched, a measure of ordering quality.
	FirstMoveCutoffs uint64

	NullMoveTries          uint64
	NullMoveCutoffs        uint64
	NullMoveVerifyFailures uint64

	LMRReductions uint64
	LMRReSearches uint64

	AspirationSearches   uint64
	AspirationFailLows   uint64
	AspirationFailHighs  uint64
	AspirationReSearches uint64
	AspirationFallbacks  uint64
	AspirationDisabled   bool

	DeltaPrunes         uint64
	FutilityPrunes      uint64
	LosingCapturePrunes uint64

	DeferredMoves uint64
	Iterations    uint64
	// NodesPerIteration holds the node count of every completed
	// iteration.
	NodesPerIteration ystats.Statistic
}

// LMREfficiency is the fraction of reductions that did not need a
// full-depth re-search.
func (s SearchStats) LMREfficiency() float64 {
	if s.LMRReductions == 0 {
		return 0
	}
	return 1 - ystats.Ratio(s.LMRReSearches, s.LMRReductions)
}

// AspirationSuccessRate is the fraction of aspiration windows that held.
func (s SearchStats) AspirationSuccessRate() float64 {
	if s.AspirationSearches == 0 {
		return 0
	}
	return 1 - ystats.Ratio(s.AspirationFailLows+s.AspirationFailHighs, s.AspirationSearches)
}

func (s SearchStats) FirstMoveCutoffRate() float64 {
	return ystats.Ratio(s.FirstMoveCutoffs, s.BetaCutoffs)
}

func (s SearchStats) NullMoveCutoffRate() float64 {
	return ystats.Ratio(s.NullMoveCutoffs, s.NullMoveTries)
}
