package search

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/domino14/yomi/config"
)

// lmrTuner computes late move reductions and, when adaptive tuning is
// on, shifts them toward a target re-search rate.
type lmrTuner struct {
	cfg config.LMRConfig
	// adjust is added to every reduction.
	adjust int

	windowReductions uint64
	windowReSearches uint64
}

func newLMRTuner(cfg config.LMRConfig) *lmrTuner {
	return &lmrTuner{cfg: cfg}
}

// eligible returns true if a move at moveIndex may be reduced at depth.
// The caller has already excluded tactical, killer and PV moves.
func (l *lmrTuner) eligible(depth, moveIndex int) bool {
	return l.cfg.Enabled && depth >= l.cfg.MinDepth && moveIndex >= l.cfg.MinMoveIndex
}

func (l *lmrTuner) depthTerm(depth, moveIndex int) float64 {
	return math.Log(float64(depth)) * math.Log(float64(moveIndex+1)) / l.cfg.DepthDivisor
}

func (l *lmrTuner) materialTerm(imbalance int32) float64 {
	return math.Abs(float64(imbalance)) / float64(l.cfg.Advanced.MaterialUnit)
}

// historyTerm is 1 for a move with no history and falls as the history
// score grows, going negative for well-proven moves.
func (l *lmrTuner) historyTerm(history int32) float64 {
	return 1 - float64(history)/float64(l.cfg.Advanced.HistoryUnit)
}

// reduction is the number of plies to cut from a late move's search.
// imbalance is the mover's static evaluation, used as a proxy for how
// lopsided the material is.
func (l *lmrTuner) reduction(depth, moveIndex int, imbalance, history int32) int {
	base := float64(l.cfg.BaseReduction)
	var r float64
	switch l.cfg.Formula {
	case config.LMRStatic:
		r = base
	case config.LMRDepthScaled:
		r = base + l.depthTerm(depth, moveIndex)
	case config.LMRMaterialScaled:
		r = base + math.Min(l.materialTerm(imbalance), 2)
	case config.LMRHistoryScaled:
		r = base + l.historyTerm(history)
	default:
		adv := l.cfg.Advanced
		r = base +
			adv.DepthWeight*l.depthTerm(depth, moveIndex) +
			adv.MaterialWeight*math.Min(l.materialTerm(imbalance), 2) +
			adv.HistoryWeight*l.historyTerm(history)
	}
	red := int(math.Floor(r)) + l.adjust
	return max(0, min(red, l.cfg.MaxReduction))
}

func (l *lmrTuner) recordReduction() {
	l.windowReductions++
}

func (l *lmrTuner) recordReSearch() {
	l.windowReSearches++
}

// tune is called between iterations. A re-search rate above the target
// band means reductions are too aggressive.
func (l *lmrTuner) tune() {
	ad := l.cfg.Adaptive
	if !ad.Enabled || l.windowReductions < uint64(ad.MinSamples) {
		return
	}
	rate := float64(l.windowReSearches) / float64(l.windowReductions)
	prev := l.adjust
	switch {
	case rate > ad.TargetReSearchRate+ad.Tolerance:
		l.adjust--
	case rate < ad.TargetReSearchRate-ad.Tolerance:
		l.adjust++
	}
	l.adjust = max(-ad.MaxAdjustment, min(l.adjust, ad.MaxAdjustment))
	if l.adjust != prev {
		log.Debug().Float64("research-rate", rate).Int("adjust", l.adjust).Msg("lmr-tuned")
	}
	l.windowReductions, l.windowReSearches = 0, 0
}

func (l *lmrTuner) reset() {
	l.adjust = 0
	l.windowReductions, l.windowReSearches = 0, 0
}
