package clock

import (
	"sync"
	"time"
)

// Clock abstracts time for the round scheduler so deadlines and simulated
// participant timing are reproducible under test.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

func NewReal() Real {
	return Real{}
}

type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Fake is a manually advanced clock. After-channels fire when Advance moves
// the current time past their target.
type Fake struct {
	mtx     sync.Mutex
	now     time.Time
	waiters []*fakeWaiter
}

type fakeWaiter struct {
	at time.Time
	ch chan time.Time
}

func (f *Fake) Now() time.Time {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.now
}

func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	ch := make(chan time.Time, 1)
	at := f.now.Add(d)
	if d <= 0 {
		ch <- f.now
		return ch
	}

	f.waiters = append(f.waiters, &fakeWaiter{at: at, ch: ch})
	return ch
}

// Advance moves the clock forward and fires every waiter whose target time
// has been reached.
func (f *Fake) Advance(d time.Duration) {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	f.now = f.now.Add(d)
	remaining := f.waiters[:0]
	for _, w := range f.waiters {
		if !w.at.After(f.now) {
			w.ch <- f.now
			continue
		}
		remaining = append(remaining, w)
	}
	f.waiters = remaining
}

// Waiters reports how many After-channels are still pending.
func (f *Fake) Waiters() int {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return len(f.waiters)
}
