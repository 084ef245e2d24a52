package parallel

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/domino14/yomi/board"
	"github.com/domino14/yomi/move"
	"github.com/domino14/yomi/ttable"
)

// WorkUnit is one younger brother of a split: a root move to be searched
// on a private copy of the root position.
type WorkUnit struct {
	Pos      *board.Position
	Move     move.Move
	Alpha    int32
	Beta     int32
	Depth    int
	Deadline time.Time
	// IsOldestBrother marks the first ordered move, which is searched
	// before the split fans out.
	IsOldestBrother bool
	// Index is the move's position in generation order.
	Index int
}

// UnitResult is what a worker reports for a finished unit. Score is from
// the root side to move's point of view.
type UnitResult struct {
	Move   move.Move
	Index  int
	Score  int32
	Bound  ttable.Bound
	Worker int
	Nodes  uint64
}

type WaitStatus int

const (
	Completed WaitStatus = iota
	Timeout
	Aborted
)

func (s WaitStatus) String() string {
	switch s {
	case Completed:
		return "completed"
	case Timeout:
		return "timeout"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

type WaitResult struct {
	Status  WaitStatus
	Results []UnitResult
}

// pollInterval is how often WaitForComplete looks at the stop flag.
const pollInterval = 2 * time.Millisecond

// SplitPoint collects the results of one split and tracks the best
// exact score found so far, which younger brothers use as alpha.
type SplitPoint struct {
	mu      sync.Mutex
	results []UnitResult
	pending int
	done    chan struct{}

	alpha atomic.Int32
	stop  *atomic.Bool
}

// NewSplitPoint expects units results. alpha is the score the oldest
// brother established.
func NewSplitPoint(units int, alpha int32, stop *atomic.Bool) *SplitPoint {
	sp := &SplitPoint{
		pending: units,
		done:    make(chan struct{}),
		stop:    stop,
	}
	sp.alpha.Store(alpha)
	if units <= 0 {
		close(sp.done)
	}
	return sp
}

// Alpha is the current lower bound for the split.
func (sp *SplitPoint) Alpha() int32 {
	return sp.alpha.Load()
}

// raiseAlpha lifts alpha to score if that is higher.
func (sp *SplitPoint) raiseAlpha(score int32) {
	for {
		cur := sp.alpha.Load()
		if score <= cur || sp.alpha.CompareAndSwap(cur, score) {
			return
		}
	}
}

// MarkComplete records a finished unit. Extra calls after every expected
// unit reported are recorded but do not signal again.
func (sp *SplitPoint) MarkComplete(r UnitResult) {
	if r.Bound != ttable.UpperBound {
		sp.raiseAlpha(r.Score)
	}
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.results = append(sp.results, r)
	sp.pending--
	if sp.pending == 0 {
		close(sp.done)
	}
}

// Results returns a copy of everything reported so far.
func (sp *SplitPoint) Results() []UnitResult {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return slices.Clone(sp.results)
}

func (sp *SplitPoint) stopped() bool {
	return sp.stop != nil && sp.stop.Load()
}

// WaitForComplete blocks until every unit reported, the timeout passed or
// the stop flag was raised. A timeout <= 0 waits without limit.
func (sp *SplitPoint) WaitForComplete(timeout time.Duration) WaitResult {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	select {
	case <-sp.done:
		return WaitResult{Status: Completed, Results: sp.Results()}
	default:
	}
	if sp.stopped() {
		return WaitResult{Status: Aborted, Results: sp.Results()}
	}
	tick := time.NewTicker(pollInterval)
	defer tick.Stop()
	for {
		select {
		case <-sp.done:
			return WaitResult{Status: Completed, Results: sp.Results()}
		case <-expired:
			return WaitResult{Status: Timeout, Results: sp.Results()}
		case <-tick.C:
			if sp.stopped() {
				return WaitResult{Status: Aborted, Results: sp.Results()}
			}
		}
	}
}
