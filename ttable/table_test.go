package ttable

import (
	"sync"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/yomi/config"
	"github.com/domino14/yomi/move"
)

func sq(s string) move.Square {
	q, err := move.ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return q
}

var testMove = move.NewBoardMove(sq("7g"), sq("7f"), move.Pawn, move.Sente, move.NoPiece, false)

func TestStoreProbeRoundTrip(t *testing.T) {
	is := is.New(t)
	tt := newWithBuckets(256, config.PolicyHybrid)

	tt.Store(Entry{Hash: 0xdeadbeef12345678, Score: -321, Depth: 7, Bound: LowerBound,
		BestMove: testMove, Source: SourceNullMove})

	e, ok := tt.Probe(0xdeadbeef12345678, 7)
	is.True(ok)
	is.Equal(e.Score, int32(-321))
	is.Equal(e.Depth, 7)
	is.Equal(e.Bound, LowerBound)
	is.Equal(e.BestMove, testMove)
	is.Equal(e.Source, SourceNullMove)

	_, ok = tt.Probe(0xdeadbeef12345678, 8)
	is.True(!ok)
	_, ok = tt.Probe(0x1111, 0)
	is.True(!ok)

	st := tt.Stats()
	is.Equal(st.Hits, uint64(1))
	is.Equal(st.Misses, uint64(2))
	is.Equal(st.Stores, uint64(1))
	assert.InDelta(t, 1.0/3.0, st.HitRate(), 1e-9)
}

func TestNegativeDepthAndExtremeScores(t *testing.T) {
	is := is.New(t)
	tt := newWithBuckets(256, config.PolicyAge)
	tt.Store(Entry{Hash: 42, Score: -2147483647, Depth: -1, Bound: UpperBound})
	e, ok := tt.Lookup(42)
	is.True(ok)
	is.Equal(e.Score, int32(-2147483647))
	is.Equal(e.Depth, -1)
	is.Equal(e.BestMove, move.Null)
}

func TestCorruptedSlotIsMiss(t *testing.T) {
	is := is.New(t)
	tt := newWithBuckets(256, config.PolicyHybrid)
	tt.Store(Entry{Hash: 77, Score: 5, Depth: 3, Bound: Exact})
	b := &tt.buckets[77&tt.sizeMask]
	// a torn write: data updated, key not yet
	b.slots[0].data.Store(b.slots[0].data.Load() ^ 0xff)
	_, ok := tt.Probe(77, 0)
	is.True(!ok)
}

func TestCorruptedSlotIsReused(t *testing.T) {
	is := is.New(t)
	tt := newWithBuckets(256, config.PolicyDepthPreferred)
	tt.Store(Entry{Hash: 77, Score: 5, Depth: 3, Bound: Exact})
	b := &tt.buckets[77&tt.sizeMask]
	b.slots[0].data.Store(b.slots[0].data.Load() ^ 0xff)
	is.True(b.slots[0].valid())

	tt.Store(Entry{Hash: 77, Score: 9, Depth: 4, Bound: Exact})
	e, ok := b.slots[0].load(77)
	is.True(ok)
	is.Equal(e.Score, int32(9))
	is.Equal(e.Depth, 4)
	for i := 1; i < waysPerBucket; i++ {
		is.True(!b.slots[i].valid())
	}
	is.Equal(tt.Stats().Replacements, uint64(0))
}

func TestNullBestMoveKeepsOld(t *testing.T) {
	is := is.New(t)
	tt := newWithBuckets(256, config.PolicyFIFO)
	tt.Store(Entry{Hash: 9, Score: 1, Depth: 2, Bound: Exact, BestMove: testMove})
	tt.Store(Entry{Hash: 9, Score: 2, Depth: 3, Bound: UpperBound})
	e, ok := tt.Lookup(9)
	is.True(ok)
	is.Equal(e.Score, int32(2))
	is.Equal(e.BestMove, testMove)
}

// collide returns n hashes that land in the same bucket.
func collide(tt *Table, n int) []uint64 {
	hs := make([]uint64, n)
	for i := range hs {
		hs[i] = uint64(i+1)*(tt.sizeMask+1) + 5
	}
	return hs
}

func TestFIFOEvictsOldest(t *testing.T) {
	is := is.New(t)
	tt := newWithBuckets(256, config.PolicyFIFO)
	hs := collide(tt, waysPerBucket+1)
	for i, h := range hs {
		tt.Store(Entry{Hash: h, Depth: 10 - i, Bound: Exact})
	}
	_, ok := tt.Lookup(hs[0])
	is.True(!ok)
	for _, h := range hs[1:] {
		_, ok := tt.Lookup(h)
		is.True(ok)
	}
	is.Equal(tt.Stats().Replacements, uint64(1))
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	is := is.New(t)
	tt := newWithBuckets(256, config.PolicyLRU)
	hs := collide(tt, waysPerBucket+1)
	for _, h := range hs[:waysPerBucket] {
		tt.Store(Entry{Hash: h, Depth: 1, Bound: Exact})
	}
	// touch the oldest so the second becomes the victim
	_, ok := tt.Lookup(hs[0])
	is.True(ok)
	tt.Store(Entry{Hash: hs[waysPerBucket], Depth: 1, Bound: Exact})

	_, ok = tt.Lookup(hs[0])
	is.True(ok)
	_, ok = tt.Lookup(hs[1])
	is.True(!ok)
}

func TestDepthPreferred(t *testing.T) {
	is := is.New(t)
	tt := newWithBuckets(256, config.PolicyDepthPreferred)
	hs := collide(tt, waysPerBucket+2)
	for i, h := range hs[:waysPerBucket] {
		tt.Store(Entry{Hash: h, Depth: 5 + i, Bound: Exact})
	}
	// shallower than everything in the bucket: dropped
	tt.Store(Entry{Hash: hs[waysPerBucket], Depth: 2, Bound: Exact})
	_, ok := tt.Lookup(hs[waysPerBucket])
	is.True(!ok)
	is.Equal(tt.Stats().Rejected, uint64(1))

	// deeper: evicts the shallowest
	tt.Store(Entry{Hash: hs[waysPerBucket+1], Depth: 9, Bound: Exact})
	_, ok = tt.Lookup(hs[0])
	is.True(!ok)
	_, ok = tt.Lookup(hs[waysPerBucket+1])
	is.True(ok)

	// same key, shallower bound: kept
	tt.Store(Entry{Hash: hs[3], Score: 99, Depth: 1, Bound: LowerBound})
	e, _ := tt.Lookup(hs[3])
	is.Equal(e.Depth, 8)

	// same key, exact over bound always wins
	tt.Store(Entry{Hash: hs[waysPerBucket+1], Depth: 9, Bound: LowerBound})
	tt.Store(Entry{Hash: hs[waysPerBucket+1], Score: 7, Depth: 4, Bound: Exact})
	e, _ = tt.Lookup(hs[waysPerBucket+1])
	is.Equal(e.Bound, Exact)
	is.Equal(e.Score, int32(7))
}

func TestHybridPrefersStaleEntries(t *testing.T) {
	is := is.New(t)
	tt := newWithBuckets(256, config.PolicyHybrid)
	hs := collide(tt, waysPerBucket+1)
	tt.Store(Entry{Hash: hs[0], Depth: 20, Bound: Exact})
	tt.NewSearch()
	tt.NewSearch()
	tt.NewSearch()
	for _, h := range hs[1:waysPerBucket] {
		tt.Store(Entry{Hash: h, Depth: 4, Bound: Exact})
	}
	tt.Store(Entry{Hash: hs[waysPerBucket], Depth: 1, Bound: UpperBound})
	// 20 - 8*3 < 4, so the deep but stale entry goes
	_, ok := tt.Lookup(hs[0])
	is.True(!ok)
	_, ok = tt.Lookup(hs[waysPerBucket])
	is.True(ok)
}

func TestAgeEvictsOldestGeneration(t *testing.T) {
	is := is.New(t)
	tt := newWithBuckets(256, config.PolicyAge)
	hs := collide(tt, waysPerBucket+1)
	for _, h := range hs[:waysPerBucket] {
		tt.Store(Entry{Hash: h, Depth: 30, Bound: Exact})
		tt.NewSearch()
	}
	tt.Store(Entry{Hash: hs[waysPerBucket], Depth: 1, Bound: Exact})
	_, ok := tt.Lookup(hs[0])
	is.True(!ok)
	_, ok = tt.Lookup(hs[1])
	is.True(ok)
}

func TestClearAndHashfull(t *testing.T) {
	is := is.New(t)
	tt := newWithBuckets(256, config.PolicyHybrid)
	is.Equal(tt.Hashfull(), 0)
	for i := uint64(0); i < 1000; i++ {
		tt.Store(Entry{Hash: i*0x9e3779b97f4a7c15 + 1, Depth: 1, Bound: Exact})
	}
	is.True(tt.Hashfull() > 0)
	tt.Clear()
	is.Equal(tt.Hashfull(), 0)
	is.Equal(tt.Stats(), Stats{})
}

func TestSizing(t *testing.T) {
	is := is.New(t)
	tt := NewWithMB(1, config.PolicyFIFO)
	is.True(uint64(tt.Size()/waysPerBucket)*bucketSize <= 1<<20)
	n := tt.Size() / waysPerBucket
	is.Equal(n&(n-1), 0)
}

func TestConcurrentStoreProbe(t *testing.T) {
	tt := newWithBuckets(1024, config.PolicyHybrid)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 5000; i++ {
				h := uint64(i%300)*0x9e3779b97f4a7c15 + 1
				tt.Store(Entry{Hash: h, Score: int32(h & 0xffff), Depth: w, Bound: Exact})
				if e, ok := tt.Lookup(h); ok {
					// whatever we read must be a consistent entry for h
					if e.Score != int32(h&0xffff) {
						t.Errorf("torn read for %x: %d", h, e.Score)
						return
					}
				}
			}
		}(w)
	}
	wg.Wait()
	st := tt.Stats()
	assert.Greater(t, st.Stores, uint64(0))
	assert.Greater(t, st.Hits, uint64(0))
}
