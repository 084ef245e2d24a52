package parallel

import (
	"sync"
	"sync/atomic"
)

// WorkDeque is a double-ended queue for work stealing. The owner pushes
// and pops at the bottom; other workers steal from the top.
type WorkDeque struct {
	mu     sync.Mutex
	units  []*WorkUnit
	bottom atomic.Int32 // owner end
	top    atomic.Int32 // thief end

	pushes        atomic.Uint64
	pops          atomic.Uint64
	steals        atomic.Uint64
	stealAttempts atomic.Uint64
}

// DequeStats is a snapshot of a deque's counters. Whenever no Pop is in
// flight, Pushes equals Pops + Steals + Size.
type DequeStats struct {
	Pushes        uint64
	Pops          uint64
	Steals        uint64
	StealAttempts uint64
	Size          int
}

func NewWorkDeque() *WorkDeque {
	return &WorkDeque{}
}

// Push adds u at the bottom. Only the owner, or the orchestrator before
// the owner starts, may push.
func (d *WorkDeque) Push(u *WorkUnit) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := d.bottom.Load()
	if int(b) < len(d.units) {
		d.units[b] = u
	} else {
		d.units = append(d.units, u)
	}
	d.bottom.Store(b + 1)
	d.pushes.Add(1)
}

// Pop removes the unit at the bottom. Owner only.
func (d *WorkDeque) Pop() (*WorkUnit, bool) {
	b := d.bottom.Add(-1)
	if b < 0 {
		d.bottom.Store(0)
		return nil, false
	}
	t := d.top.Load()
	if b < t {
		d.bottom.Store(t)
		return nil, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// re-check under the lock
	t = d.top.Load()
	if b < t {
		d.bottom.Store(t)
		return nil, false
	}
	u := d.units[b]
	if b == t {
		// last unit, racing thieves
		if !d.top.CompareAndSwap(t, t+1) {
			d.bottom.Store(t + 1)
			return nil, false
		}
		d.bottom.Store(t + 1)
	}
	d.pops.Add(1)
	return u, true
}

// Steal removes the unit at the top. Safe from any goroutine.
func (d *WorkDeque) Steal() (*WorkUnit, bool) {
	d.stealAttempts.Add(1)
	t := d.top.Load()
	b := d.bottom.Load()
	if t >= b {
		return nil, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	t = d.top.Load()
	b = d.bottom.Load()
	if t >= b {
		return nil, false
	}
	u := d.units[t]
	if !d.top.CompareAndSwap(t, t+1) {
		return nil, false
	}
	d.steals.Add(1)
	return u, true
}

// Size returns the number of units left.
func (d *WorkDeque) Size() int {
	return max(int(d.bottom.Load()-d.top.Load()), 0)
}

func (d *WorkDeque) Stats() DequeStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DequeStats{
		Pushes:        d.pushes.Load(),
		Pops:          d.pops.Load(),
		Steals:        d.steals.Load(),
		StealAttempts: d.stealAttempts.Load(),
		Size:          d.Size(),
	}
}
