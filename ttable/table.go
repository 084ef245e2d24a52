// Package ttable is a transposition table that many search goroutines
// can share. Reads never lock; writers use a per-bucket try-gate and drop
// their write instead of waiting when another writer holds it.
package ttable

import (
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/yomi/config"
	"github.com/domino14/yomi/move"
	"github.com/domino14/yomi/tinymove"
)

type Bound uint8

const (
	BoundNone  Bound = 0x00
	Exact      Bound = 0x01
	LowerBound Bound = 0x02
	UpperBound Bound = 0x03
)

func (b Bound) String() string {
	switch b {
	case Exact:
		return "exact"
	case LowerBound:
		return "lower"
	case UpperBound:
		return "upper"
	}
	return "none"
}

// Source tags which part of the search stored an entry.
type Source uint8

const (
	SourceMainSearch Source = iota
	SourceQuiescence
	SourceNullMove
	SourceWorker
)

// Entry is an unpacked table entry.
type Entry struct {
	Hash     uint64
	Score    int32
	Depth    int
	Bound    Bound
	BestMove move.Move
	// Age is the table generation at the time of the store.
	Age    uint8
	Source Source
}

const (
	waysPerBucket = 4
	minBuckets    = 1 << 8

	// data word layout
	depthShift  = 32
	boundShift  = 40
	ageShift    = 42
	sourceShift = 50
	validBit    = 1 << 63
)

// slot stores an entry in three words. The key word holds
// hash ^ data ^ extra, so a slot read while a writer is halfway through
// fails verification and is treated as a miss.
type slot struct {
	key   atomic.Uint64
	data  atomic.Uint64
	extra atomic.Uint64
	// stamp is the insertion tick (FIFO) or last-use tick (LRU).
	stamp atomic.Uint64
}

type bucket struct {
	gate  atomic.Uint32
	slots [waysPerBucket]slot
}

const bucketSize = uint64(unsafe.Sizeof(bucket{}))

// Stats is a snapshot of the table counters.
type Stats struct {
	Hits         uint64
	Misses       uint64
	Stores       uint64
	Replacements uint64
	Rejected     uint64
	Contended    uint64
}

// HitRate is hits/(hits+misses), or 0 before any probe.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

type Table struct {
	buckets    []bucket
	sizeMask   uint64
	policy     config.ReplacementPolicy
	generation atomic.Uint32
	clock      atomic.Uint64

	hits         atomic.Uint64
	misses       atomic.Uint64
	stores       atomic.Uint64
	replacements atomic.Uint64
	rejected     atomic.Uint64
	contended    atomic.Uint64
}

// New allocates a table. The bucket count is the largest power of two
// that fits in the configured size.
func New(cfg config.TranspositionConfig) *Table {
	cfg = config.NewValidatedTranspositionConfig(cfg)
	desiredBytes := float64(uint64(cfg.SizeMB) << 20)
	if cfg.FractionOfMemory > 0 {
		desiredBytes = cfg.FractionOfMemory * float64(memory.TotalMemory())
	}
	return newWithBuckets(desiredBytes/float64(bucketSize), cfg.Policy)
}

// NewWithMB is a shortcut for small private tables.
func NewWithMB(mb int, policy config.ReplacementPolicy) *Table {
	return New(config.TranspositionConfig{SizeMB: mb, Policy: policy})
}

func newWithBuckets(desired float64, policy config.ReplacementPolicy) *Table {
	sizePowerOf2 := 0
	if desired >= 1 {
		sizePowerOf2 = int(math.Log2(desired))
	}
	numBuckets := max(1<<sizePowerOf2, minBuckets)
	t := &Table{
		buckets:  make([]bucket, numBuckets),
		sizeMask: uint64(numBuckets - 1),
		policy:   policy,
	}
	log.Debug().Int("num-buckets", numBuckets).
		Int("num-entries", numBuckets*waysPerBucket).
		Uint64("bytes", uint64(numBuckets)*bucketSize).
		Str("policy", string(policy)).
		Msg("transposition-table-size")
	return t
}

// NewSearch starts a new generation. Entries from older generations are
// preferred victims under the age-aware policies.
func (t *Table) NewSearch() {
	t.generation.Add(1)
}

func (t *Table) generationByte() uint8 {
	return uint8(t.generation.Load())
}

// Clear empties the table and resets the counters.
func (t *Table) Clear() {
	for i := range t.buckets {
		b := &t.buckets[i]
		for j := range b.slots {
			b.slots[j].data.Store(0)
			b.slots[j].extra.Store(0)
			b.slots[j].key.Store(0)
			b.slots[j].stamp.Store(0)
		}
	}
	t.ResetStats()
}

func (t *Table) ResetStats() {
	t.hits.Store(0)
	t.misses.Store(0)
	t.stores.Store(0)
	t.replacements.Store(0)
	t.rejected.Store(0)
	t.contended.Store(0)
}

func (t *Table) Stats() Stats {
	return Stats{
		Hits:         t.hits.Load(),
		Misses:       t.misses.Load(),
		Stores:       t.stores.Load(),
		Replacements: t.replacements.Load(),
		Rejected:     t.rejected.Load(),
		Contended:    t.contended.Load(),
	}
}

// Size is the number of entries the table can hold.
func (t *Table) Size() int {
	return len(t.buckets) * waysPerBucket
}

// Probe returns the entry for hash if it was stored with a depth of at
// least minDepth.
func (t *Table) Probe(hash uint64, minDepth int) (Entry, bool) {
	b := &t.buckets[hash&t.sizeMask]
	for i := range b.slots {
		s := &b.slots[i]
		e, ok := s.load(hash)
		if !ok {
			continue
		}
		if e.Depth < minDepth {
			break
		}
		if t.policy == config.PolicyLRU {
			s.stamp.Store(t.clock.Add(1))
		}
		t.hits.Add(1)
		return e, true
	}
	t.misses.Add(1)
	return Entry{}, false
}

// Lookup returns the entry for hash at any depth.
func (t *Table) Lookup(hash uint64) (Entry, bool) {
	return t.Probe(hash, math.MinInt)
}

// Store writes e into its bucket, subject to the replacement policy.
func (t *Table) Store(e Entry) {
	idx := e.Hash & t.sizeMask
	b := &t.buckets[idx]
	if !b.gate.CompareAndSwap(0, 1) {
		t.contended.Add(1)
		return
	}
	defer b.gate.Store(0)

	gen := t.generationByte()
	e.Age = gen

	free := -1
	for i := range b.slots {
		s := &b.slots[i]
		if old, ok := s.load(e.Hash); ok {
			if t.keepExisting(old, e, gen) {
				t.rejected.Add(1)
				return
			}
			if e.BestMove.IsNull() {
				e.BestMove = old.BestMove
			}
			t.write(s, e)
			return
		}
		if free < 0 && !s.intact(idx, t.sizeMask) {
			free = i
		}
	}
	if free >= 0 {
		t.write(&b.slots[free], e)
		return
	}
	victim := t.victim(b, gen, e.Depth)
	if victim < 0 {
		t.rejected.Add(1)
		return
	}
	t.replacements.Add(1)
	t.write(&b.slots[victim], e)
}

func (t *Table) write(s *slot, e Entry) {
	data := uint64(uint32(e.Score)) |
		uint64(uint8(int8(e.Depth)))<<depthShift |
		uint64(e.Bound&0x3)<<boundShift |
		uint64(e.Age)<<ageShift |
		uint64(e.Source&0x7)<<sourceShift |
		validBit
	extra := uint64(tinymove.FromMove(e.BestMove))
	s.data.Store(data)
	s.extra.Store(extra)
	s.key.Store(e.Hash ^ data ^ extra)
	s.stamp.Store(t.clock.Add(1))
	t.stores.Add(1)
}

// keepExisting decides whether a same-position entry survives a new store.
func (t *Table) keepExisting(old, e Entry, gen uint8) bool {
	switch t.policy {
	case config.PolicyDepthPreferred:
		if e.Bound == Exact && old.Bound != Exact {
			return false
		}
		return old.Depth > e.Depth
	case config.PolicyHybrid:
		return old.Age == gen && e.Bound != Exact && old.Depth > e.Depth+3
	}
	return false
}

// victim picks the slot to evict from a full bucket, or -1 if the
// policy prefers to drop the new entry.
func (t *Table) victim(b *bucket, gen uint8, newDepth int) int {
	best := -1
	bestScore := int64(math.MaxInt64)
	for i := range b.slots {
		s := &b.slots[i]
		d := s.data.Load()
		depth := int64(int8(d >> depthShift))
		ageDiff := int64(gen - uint8(d>>ageShift))
		var score int64
		switch t.policy {
		case config.PolicyFIFO, config.PolicyLRU:
			score = int64(s.stamp.Load())
		case config.PolicyDepthPreferred:
			score = depth
		case config.PolicyAge:
			score = -ageDiff<<8 + depth
		default:
			score = depth - 8*ageDiff
		}
		if score < bestScore {
			best, bestScore = i, score
		}
	}
	if t.policy == config.PolicyDepthPreferred && bestScore > int64(newDepth) {
		return -1
	}
	return best
}

func (s *slot) valid() bool {
	return s.data.Load()&validBit != 0
}

// intact reports whether the slot holds a live entry whose checksum
// resolves to a hash belonging to bucket idx. Empty and torn slots are
// free for reuse.
func (s *slot) intact(idx, mask uint64) bool {
	d := s.data.Load()
	if d&validBit == 0 {
		return false
	}
	return (s.key.Load()^d^s.extra.Load())&mask == idx
}

func (s *slot) load(hash uint64) (Entry, bool) {
	d := s.data.Load()
	x := s.extra.Load()
	k := s.key.Load()
	if d&validBit == 0 || k^d^x != hash {
		return Entry{}, false
	}
	return Entry{
		Hash:     hash,
		Score:    int32(uint32(d)),
		Depth:    int(int8(d >> depthShift)),
		Bound:    Bound(d>>boundShift) & 0x3,
		BestMove: tinymove.TinyMove(uint32(x)).Move(),
		Age:      uint8(d >> ageShift),
		Source:   Source(d>>sourceShift) & 0x7,
	}, true
}

// Hashfull estimates the permille of used entries by sampling the first
// thousand slots, as UCI-style engines report it.
func (t *Table) Hashfull() int {
	n := min(1000, len(t.buckets)*waysPerBucket)
	used := 0
	for i := 0; i < n; i++ {
		if t.buckets[i/waysPerBucket].slots[i%waysPerBucket].valid() {
			used++
		}
	}
	return used * 1000 / n
}
