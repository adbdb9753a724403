package match

import (
	"sync"
)

const (
	minSlots = 2
	maxSlots = 6
)

// TotalSlots computes the win-slot budget for a roster:
// ceil(n/2) clamped to [2, 6]. Computed once at session start.
func TotalSlots(participants int) int {
	total := (participants + 1) / 2
	if total < minSlots {
		total = minSlots
	}
	if total > maxSlots {
		total = maxSlots
	}
	return total
}

func NewSlotPool(participants int) *SlotPool {
	total := TotalSlots(participants)
	return &SlotPool{
		total:     total,
		remaining: total,
		exhausted: make(chan struct{}),
	}
}

// SlotPool is the scarce shared win counter, the single point of genuine
// cross-participant contention in a session. Claim is an atomic
// check-and-decrement; remaining never goes negative.
type SlotPool struct {
	mtx       sync.Mutex
	total     int
	remaining int
	exhausted chan struct{}
}

func (p *SlotPool) Total() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.total
}

func (p *SlotPool) Remaining() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.remaining
}

// Claim grants a slot if any remain. Losing the race is a normal outcome,
// not an error.
func (p *SlotPool) Claim() (granted bool, remaining int) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.remaining <= 0 {
		return false, p.remaining
	}

	p.remaining--
	if p.remaining == 0 {
		close(p.exhausted)
	}

	return true, p.remaining
}

// Exhausted is closed once the last slot has been claimed.
func (p *SlotPool) Exhausted() <-chan struct{} {
	return p.exhausted
}
