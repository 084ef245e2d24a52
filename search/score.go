package search

import (
	"math"

	"github.com/domino14/yomi/ordering"
)

const (
	// Infinity bounds every window. -Infinity is math.MinInt32+1 so that
	// negating any score is safe.
	Infinity int32 = math.MaxInt32

	// MateScore is the score of mating on the current move. A mate n plies
	// away scores MateScore-n.
	MateScore int32 = 60000
	// MateThreshold separates evaluations from mate scores.
	MateThreshold int32 = 50000

	DrawScore int32 = 0

	MaxPly = ordering.MaxPly
)

func clamp64(v int64) int32 {
	if v > int64(Infinity) {
		return Infinity
	}
	if v < -int64(Infinity) {
		return -Infinity
	}
	return int32(v)
}

func satAdd(a, b int32) int32 {
	return clamp64(int64(a) + int64(b))
}

func satSub(a, b int32) int32 {
	return clamp64(int64(a) - int64(b))
}

func satNeg(a int32) int32 {
	return clamp64(-int64(a))
}

// normalizeWindow clamps a caller's window into [-Infinity, Infinity]
// and replaces an empty window with the full one.
func normalizeWindow(alpha, beta int32) (int32, int32) {
	alpha, beta = clamp64(int64(alpha)), clamp64(int64(beta))
	if alpha >= beta {
		return -Infinity, Infinity
	}
	return alpha, beta
}

func matedIn(ply int) int32 {
	return -MateScore + int32(ply)
}

// IsMateScore returns true for scores that announce a forced mate.
func IsMateScore(s int32) bool {
	return s >= MateThreshold || s <= -MateThreshold
}

// scoreToTT makes mate scores relative to the node being stored, so that
// a table hit reached by a different path reports the right distance.
func scoreToTT(s int32, ply int) int32 {
	switch {
	case s >= MateThreshold && s != Infinity:
		return s + int32(ply)
	case s <= -MateThreshold && s != -Infinity:
		return s - int32(ply)
	}
	return s
}

func scoreFromTT(s int32, ply int) int32 {
	switch {
	case s >= MateThreshold && s != Infinity:
		return s - int32(ply)
	case s <= -MateThreshold && s != -Infinity:
		return s + int32(ply)
	}
	return s
}
