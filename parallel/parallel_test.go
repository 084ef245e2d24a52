package parallel

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/yomi/board"
	"github.com/domino14/yomi/config"
	"github.com/domino14/yomi/evaluator"
	"github.com/domino14/yomi/move"
	"github.com/domino14/yomi/movegen"
	"github.com/domino14/yomi/search"
	"github.com/domino14/yomi/testhelpers"
	"github.com/domino14/yomi/ttable"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func testConfig(threads int) config.SearchConfig {
	return testhelpers.SearchConfig(threads)
}

func newTestEngine(cfg config.SearchConfig) *Engine {
	return New(cfg, nil, movegen.NewGenerator(), evaluator.New())
}

func units(n int) []*WorkUnit {
	us := make([]*WorkUnit, n)
	for i := range us {
		us[i] = &WorkUnit{Index: i}
	}
	return us
}

func TestDequeOrder(t *testing.T) {
	is := is.New(t)
	d := NewWorkDeque()
	for _, u := range units(3) {
		d.Push(u)
	}
	is.Equal(d.Size(), 3)

	u, ok := d.Pop()
	is.True(ok)
	is.Equal(u.Index, 2)
	u, ok = d.Steal()
	is.True(ok)
	is.Equal(u.Index, 0)
	u, ok = d.Pop()
	is.True(ok)
	is.Equal(u.Index, 1)

	_, ok = d.Pop()
	is.True(!ok)
	_, ok = d.Steal()
	is.True(!ok)
	is.Equal(d.Size(), 0)

	// reusable after draining
	d.Push(&WorkUnit{Index: 7})
	u, ok = d.Pop()
	is.True(ok)
	is.Equal(u.Index, 7)

	st := d.Stats()
	is.Equal(st.Pushes, uint64(4))
	is.Equal(st.Pops, uint64(3))
	is.Equal(st.Steals, uint64(1))
	is.Equal(st.StealAttempts, uint64(2))
}

func TestDequeConcurrentPopSteal(t *testing.T) {
	is := is.New(t)
	const n = 5000
	d := NewWorkDeque()
	for _, u := range units(n) {
		d.Push(u)
	}

	var mu sync.Mutex
	seen := make(map[int]int, n)
	record := func(u *WorkUnit) {
		mu.Lock()
		seen[u.Index]++
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			u, ok := d.Pop()
			if !ok {
				if d.Size() == 0 {
					return
				}
				continue
			}
			record(u)
		}
	}()
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d.Size() > 0 {
				if u, ok := d.Steal(); ok {
					record(u)
				}
			}
		}()
	}
	wg.Wait()

	is.Equal(len(seen), n)
	for i := 0; i < n; i++ {
		is.Equal(seen[i], 1)
	}
	st := d.Stats()
	is.Equal(st.Pushes, st.Pops+st.Steals+uint64(st.Size))
	is.Equal(st.Size, 0)
}

func TestSplitPointCompleted(t *testing.T) {
	is := is.New(t)
	var stop atomic.Bool
	sp := NewSplitPoint(2, 10, &stop)
	go func() {
		sp.MarkComplete(UnitResult{Index: 1, Score: 5, Bound: ttable.UpperBound})
		sp.MarkComplete(UnitResult{Index: 2, Score: 40, Bound: ttable.Exact})
	}()
	wr := sp.WaitForComplete(time.Second)
	is.Equal(wr.Status, Completed)
	is.Equal(len(wr.Results), 2)
	is.Equal(sp.Alpha(), int32(40))
}

func TestSplitPointUpperBoundKeepsAlpha(t *testing.T) {
	is := is.New(t)
	sp := NewSplitPoint(1, 10, nil)
	sp.MarkComplete(UnitResult{Score: 50, Bound: ttable.UpperBound})
	is.Equal(sp.Alpha(), int32(10))
	is.Equal(sp.WaitForComplete(0).Status, Completed)
}

func TestSplitPointTimeout(t *testing.T) {
	is := is.New(t)
	var stop atomic.Bool
	sp := NewSplitPoint(2, 0, &stop)
	sp.MarkComplete(UnitResult{Index: 1})
	wr := sp.WaitForComplete(20 * time.Millisecond)
	is.Equal(wr.Status, Timeout)
	is.Equal(len(wr.Results), 1)
}

func TestSplitPointAborted(t *testing.T) {
	is := is.New(t)
	var stop atomic.Bool
	sp := NewSplitPoint(3, 0, &stop)
	time.AfterFunc(10*time.Millisecond, func() { stop.Store(true) })
	wr := sp.WaitForComplete(0)
	is.Equal(wr.Status, Aborted)
	is.Equal(len(wr.Results), 0)
}

func TestSplitPointAlreadyStopped(t *testing.T) {
	is := is.New(t)
	var stop atomic.Bool
	stop.Store(true)
	sp := NewSplitPoint(2, 0, &stop)
	start := time.Now()
	wr := sp.WaitForComplete(time.Second)
	is.Equal(wr.Status, Aborted)
	is.True(time.Since(start) < pollInterval)

	// a finished split reports completion even once stopped
	done := NewSplitPoint(1, 0, &stop)
	done.MarkComplete(UnitResult{Score: 3, Bound: ttable.Exact})
	is.Equal(done.WaitForComplete(0).Status, Completed)
}

func TestSplitPointNoUnits(t *testing.T) {
	is := is.New(t)
	is.Equal(NewSplitPoint(0, 0, nil).WaitForComplete(time.Millisecond).Status, Completed)
}

func TestThreadsClamped(t *testing.T) {
	for _, tc := range []struct {
		asked, want int
	}{
		{0, 1}, {-3, 1}, {1, 1}, {4, 4}, {32, 32}, {100, 32},
	} {
		cfg := testConfig(tc.asked)
		cfg.Transposition.SizeMB = 1
		e := newTestEngine(cfg)
		assert.Equal(t, tc.want, e.Threads(), "asked for %d", tc.asked)
	}
}

func TestRoundRobinDistribution(t *testing.T) {
	is := is.New(t)
	cfg := testConfig(3)
	cfg.Parallel.Distribution = config.DistributeRoundRobin
	e := newTestEngine(cfg)
	e.distribute(units(7))

	is.Equal(e.workers[0].deque.Size(), 3)
	is.Equal(e.workers[1].deque.Size(), 2)
	is.Equal(e.workers[2].deque.Size(), 2)
	// owners pop their best unit first
	u, _ := e.workers[0].deque.Pop()
	is.Equal(u.Index, 0)
	u, _ = e.workers[0].deque.Steal()
	is.Equal(u.Index, 6)
	u, _ = e.workers[1].deque.Pop()
	is.Equal(u.Index, 1)
}

func TestLeastLoadedDistribution(t *testing.T) {
	is := is.New(t)
	cfg := testConfig(2)
	cfg.Parallel.Distribution = config.DistributeLeastLoaded
	e := newTestEngine(cfg)
	for _, u := range units(3) {
		e.workers[0].deque.Push(u)
	}
	e.distribute(units(5))
	is.Equal(e.workers[0].deque.Size(), 4)
	is.Equal(e.workers[1].deque.Size(), 4)
}

func TestBetterResult(t *testing.T) {
	is := is.New(t)
	exact := UnitResult{Score: 10, Bound: ttable.Exact, Index: 5}
	upper := UnitResult{Score: 10, Bound: ttable.UpperBound, Index: 1}
	is.True(better(exact, upper))
	is.True(!better(upper, exact))
	is.True(better(UnitResult{Score: 11, Bound: ttable.UpperBound}, exact))
	is.True(better(UnitResult{Score: 10, Bound: ttable.Exact, Index: 2}, exact))
}

func TestParallelMatchesSequential(t *testing.T) {
	is := is.New(t)
	seq := newTestEngine(testConfig(1))
	m1, s1, ok := seq.SearchAtDepth(context.Background(), testhelpers.HangingGold(), 4, 0, -search.Infinity, search.Infinity)
	is.True(ok)

	par := newTestEngine(testConfig(4))
	m4, s4, ok := par.SearchAtDepth(context.Background(), testhelpers.HangingGold(), 4, 0, -search.Infinity, search.Infinity)
	is.True(ok)

	is.Equal(m1.String(), "2e2d")
	is.Equal(m4, m1)
	is.True(s4 > 300)
	is.True(s1 > 300)
	is.Equal(par.Stats().Splits, uint64(1))
	is.Equal(seq.Stats().Sequential, uint64(1))
}

func TestParallelMatchesSequentialQuietPosition(t *testing.T) {
	for depth := 3; depth <= 5; depth++ {
		seq := newTestEngine(testConfig(1))
		m1, s1, ok := seq.SearchAtDepth(context.Background(), board.StartingPosition(), depth, 0,
			-search.Infinity, search.Infinity)
		assert.True(t, ok)

		par := newTestEngine(testConfig(4))
		m4, s4, ok := par.SearchAtDepth(context.Background(), board.StartingPosition(), depth, 0,
			-search.Infinity, search.Infinity)
		assert.True(t, ok)

		assert.Equal(t, m1.String(), m4.String(), "depth %d", depth)
		assert.Equal(t, s1, s4, "depth %d", depth)
		assert.Equal(t, uint64(1), par.Stats().Splits, "depth %d", depth)
	}
}

func TestOldestBrotherUnitUsesFullWindow(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(testConfig(2))
	pos := testhelpers.HangingGold()
	m, ok := move.FindUSI(movegen.NewGenerator().GenerateLegalMoves(pos, nil), "2e2d")
	is.True(ok)

	want, err := e.Main().SearchMove(context.Background(), pos.Copy(), m, 2, -search.Infinity, search.Infinity)
	is.NoErr(err)

	u := &WorkUnit{Pos: pos, Move: m, Alpha: -search.Infinity, Beta: search.Infinity, Depth: 2, IsOldestBrother: true}
	r, err := e.searchUnit(context.Background(), e.workers[0], u, nil)
	is.NoErr(err)
	is.Equal(r.Score, want)
	is.Equal(r.Bound, ttable.Exact)

	// a younger brother that cannot beat the split's alpha is only scouted
	sp := NewSplitPoint(1, want+1, nil)
	u.IsOldestBrother = false
	r, err = e.searchUnit(context.Background(), e.workers[1], u, sp)
	is.NoErr(err)
	is.Equal(r.Bound, ttable.UpperBound)
	is.True(r.Score <= want+1)
}

func TestUnitDeadline(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(testConfig(2))
	pos := board.StartingPosition()
	u := &WorkUnit{
		Pos:      pos,
		Move:     movegen.NewGenerator().GenerateLegalMoves(pos, nil)[0],
		Alpha:    -search.Infinity,
		Beta:     search.Infinity,
		Depth:    8,
		Deadline: time.Now().Add(-time.Second),
	}
	_, err := e.searchUnit(context.Background(), e.workers[1], u, NewSplitPoint(1, 0, nil))
	is.True(search.IsAborted(err))
}

func TestEachSearchResetsWorkerHeuristics(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(testConfig(3))
	stale := move.NewDrop(testhelpers.Sq("5e"), move.Gold, move.Sente)
	for _, w := range e.workers {
		w.engine.Orderer().UpdateKiller(stale, 20)
		w.engine.Orderer().UpdateHistory(stale, 10)
	}
	_, _, ok := e.SearchAtDepth(context.Background(), board.StartingPosition(), 3, 0, -search.Infinity, search.Infinity)
	is.True(ok)
	for _, w := range e.workers {
		is.Equal(w.engine.Orderer().Killers().Len(20), 0)
		is.Equal(w.engine.Orderer().HistoryScore(stale), int32(0))
	}
}

func TestParallelStartPosition(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(testConfig(4))
	pos := board.StartingPosition()
	before := pos.SFEN()
	m, score, ok := e.SearchAtDepth(context.Background(), pos, 3, 0, -search.Infinity, search.Infinity)
	is.True(ok)
	is.True(!m.IsNull())
	is.True(!search.IsMateScore(score))
	is.Equal(pos.SFEN(), before)

	legal := movegen.NewGenerator().GenerateLegalMoves(pos, nil)
	_, found := move.FindUSI(legal, m.String())
	is.True(found)

	st := e.Stats()
	is.Equal(len(st.Threads), 4)
	var done uint64
	for _, th := range st.Threads {
		is.Equal(th.Pushes, th.Pops+th.Steals+uint64(th.Size))
		done += th.Units
	}
	// every younger brother was searched
	is.Equal(done, uint64(len(legal)-1))

	var searched int
	for _, n := range e.RootMoveNodes() {
		if n > 0 {
			searched++
		}
	}
	is.Equal(searched, len(legal))
}

func TestParallelTimeLimit(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(testConfig(4))
	start := time.Now()
	m, _, ok := e.SearchAtDepth(context.Background(), board.StartingPosition(), 40, 100*time.Millisecond,
		-search.Infinity, search.Infinity)
	is.True(ok)
	is.True(!m.IsNull())
	is.True(time.Since(start) < 5*time.Second)
}

func TestParallelNoMoves(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(testConfig(4))
	_, _, ok := e.SearchAtDepth(context.Background(), testhelpers.Checkmated(), 4, 0, -search.Infinity, search.Infinity)
	is.True(!ok)
}

func TestParallelFallback(t *testing.T) {
	is := is.New(t)
	pos := board.StartingPosition()
	first := movegen.NewGenerator().GenerateLegalMoves(pos, nil)[0]
	e := newTestEngine(testConfig(2))
	m, score, ok := e.SearchAtDepth(context.Background(), pos, 3, 0, 20000, search.Infinity)
	is.True(ok)
	is.Equal(m, first)
	is.Equal(score, int32(20000))
}
