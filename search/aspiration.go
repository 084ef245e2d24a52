package search

import (
	"math"

	"github.com/domino14/yomi/config"
)

// AspirationWindowState tracks the window of one iterative-deepening
// iteration. Alpha < Beta always holds, whatever the inputs.
type AspirationWindowState struct {
	Alpha     int32
	Beta      int32
	PrevScore int32
	Delta     int32

	FailLows   int
	FailHighs  int
	Researches int

	cfg   config.AspirationWindowConfig
	floor int32
	ceil  int32
}

// NewAspirationWindowState starts with the full window [alpha, beta].
// Extreme or inverted bounds degrade to [-Infinity, Infinity].
func NewAspirationWindowState(cfg config.AspirationWindowConfig, alpha, beta int32) *AspirationWindowState {
	cfg = config.NewValidatedAspirationConfig(cfg)
	floor, ceil := normalizeWindow(alpha, beta)
	return &AspirationWindowState{
		Alpha: floor,
		Beta:  ceil,
		cfg:   cfg,
		floor: floor,
		ceil:  ceil,
	}
}

// Center narrows the window around prev for the given iteration depth.
func (a *AspirationWindowState) Center(prev int32, depth int) {
	a.PrevScore = prev
	a.Delta = min(satAdd(a.cfg.InitialWindow, satMul(a.cfg.DepthScale, depth)), a.cfg.MaxWindow)
	if IsMateScore(prev) {
		a.FullWindow()
		return
	}
	a.Alpha = max(satSub(prev, a.Delta), a.floor)
	a.Beta = min(satAdd(prev, a.Delta), a.ceil)
	a.fix()
}

func satMul(a int32, n int) int32 {
	return clamp64(int64(a) * int64(n))
}

func (a *AspirationWindowState) grow() {
	d := float64(a.Delta) * a.cfg.GrowthFactor
	if d > math.MaxInt32 {
		d = math.MaxInt32
	}
	a.Delta = int32(d)
}

// FailLow records a result at or below Alpha and widens the window
// downward. Past the maximum window, alpha opens to the caller's bound.
func (a *AspirationWindowState) FailLow(score int32) {
	a.FailLows++
	a.Researches++
	a.grow()
	if a.Delta > a.cfg.MaxWindow {
		a.Alpha = a.floor
	} else {
		a.Alpha = max(satSub(min(score, a.PrevScore), a.Delta), a.floor)
	}
	a.fix()
}

// FailHigh records a result at or above Beta and widens upward.
func (a *AspirationWindowState) FailHigh(score int32) {
	a.FailHighs++
	a.Researches++
	a.grow()
	if a.Delta > a.cfg.MaxWindow {
		a.Beta = a.ceil
	} else {
		a.Beta = min(satAdd(max(score, a.PrevScore), a.Delta), a.ceil)
	}
	a.fix()
}

// FullWindow opens the window to the caller's bounds.
func (a *AspirationWindowState) FullWindow() {
	a.Alpha, a.Beta = a.floor, a.ceil
}

// IsFull returns true when no aspiration narrowing is in effect.
func (a *AspirationWindowState) IsFull() bool {
	return a.Alpha == a.floor && a.Beta == a.ceil
}

// Exhausted returns true once the re-search budget is spent.
func (a *AspirationWindowState) Exhausted() bool {
	return a.Researches >= a.cfg.MaxResearches
}

// FailedLow returns true if score fell out of the bottom of a narrowed
// window.
func (a *AspirationWindowState) FailedLow(score int32) bool {
	return score <= a.Alpha && a.Alpha > a.floor
}

func (a *AspirationWindowState) FailedHigh(score int32) bool {
	return score >= a.Beta && a.Beta < a.ceil
}

func (a *AspirationWindowState) fix() {
	if a.Alpha >= a.Beta {
		a.FullWindow()
	}
}
