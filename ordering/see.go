package ordering

import (
	"encoding/binary"

	"github.com/cespare/xxhash"

	"github.com/domino14/yomi/board"
	"github.com/domino14/yomi/evaluator"
	"github.com/domino14/yomi/move"
	"github.com/domino14/yomi/tinymove"
)

type cacheEntry struct {
	hash  uint64
	tm    tinymove.TinyMove
	value int32
	used  bool
}

// moveCache is a direct-mapped cache of per-(position, move) values.
type moveCache struct {
	entries []cacheEntry
	mask    uint64
	buf     [12]byte
	hits    uint64
	misses  uint64
}

func newMoveCache(size int) *moveCache {
	if size <= 0 {
		return nil
	}
	n := 1
	for n*2 <= size {
		n *= 2
	}
	return &moveCache{entries: make([]cacheEntry, n), mask: uint64(n - 1)}
}

func (c *moveCache) slot(hash uint64, tm tinymove.TinyMove) *cacheEntry {
	binary.LittleEndian.PutUint64(c.buf[:8], hash)
	binary.LittleEndian.PutUint32(c.buf[8:], uint32(tm))
	return &c.entries[xxhash.Sum64(c.buf[:])&c.mask]
}

func (c *moveCache) get(hash uint64, tm tinymove.TinyMove) (int32, bool) {
	if c == nil {
		return 0, false
	}
	e := c.slot(hash, tm)
	if e.used && e.hash == hash && e.tm == tm {
		c.hits++
		return e.value, true
	}
	c.misses++
	return 0, false
}

func (c *moveCache) put(hash uint64, tm tinymove.TinyMove, value int32) {
	if c == nil {
		return
	}
	*c.slot(hash, tm) = cacheEntry{hash: hash, tm: tm, value: value, used: true}
}

func (c *moveCache) clear() {
	if c == nil {
		return
	}
	clear(c.entries)
	c.hits, c.misses = 0, 0
}

func promotionGain(m move.Move) int32 {
	if !m.IsPromotion() {
		return 0
	}
	return evaluator.Value(m.Landed()) - evaluator.Value(m.Piece())
}

// staticExchange plays out the capture sequence on m's destination square,
// both sides always recapturing with their least valuable attacker, and
// returns the material balance for the side making m. Either side may
// stop capturing when continuing would lose material. pos is restored
// before returning.
func staticExchange(pos *board.Position, m move.Move, maxExchanges int) int32 {
	var gain [32]int32
	maxExchanges = min(maxExchanges, len(gain))
	to := m.To()

	gain[0] = evaluator.Value(m.Captured()) + promotionGain(m)
	onSquare := evaluator.Value(m.Landed())
	pos.Play(m)
	played := 1
	side := m.Player().Opponent()

	d := 0
	for d+1 < maxExchanges {
		capture, ok := pos.LeastValuableAttacker(to, side)
		if !ok {
			break
		}
		if capture.Piece() == move.King && pos.IsAttacked(to, side.Opponent()) {
			break
		}
		d++
		gain[d] = onSquare + promotionGain(capture) - gain[d-1]
		onSquare = evaluator.Value(capture.Landed())
		pos.Play(capture)
		played++
		side = side.Opponent()
	}
	for ; played > 0; played-- {
		pos.Unplay()
	}
	for ; d > 0; d-- {
		gain[d-1] = -max(-gain[d-1], gain[d])
	}
	return gain[0]
}
