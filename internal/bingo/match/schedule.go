package match

import (
	"container/heap"
	"time"
)

// decisionQueue orders scheduled simulated clicks by fire time. The session
// loop drains it against the injected clock, which keeps AI timing
// deterministic and replayable.
type decisionQueue struct {
	items decisionHeap
}

type scheduledDecision struct {
	fireAt   time.Time
	decision Decision
}

func newDecisionQueue() *decisionQueue {
	return &decisionQueue{}
}

func (q *decisionQueue) push(fireAt time.Time, d Decision) {
	heap.Push(&q.items, scheduledDecision{fireAt: fireAt, decision: d})
}

func (q *decisionQueue) peek() (scheduledDecision, bool) {
	if len(q.items) == 0 {
		return scheduledDecision{}, false
	}
	return q.items[0], true
}

func (q *decisionQueue) pop() (scheduledDecision, bool) {
	if len(q.items) == 0 {
		return scheduledDecision{}, false
	}
	return heap.Pop(&q.items).(scheduledDecision), true
}

func (q *decisionQueue) len() int {
	return len(q.items)
}

type decisionHeap []scheduledDecision

func (h decisionHeap) Len() int { return len(h) }

func (h decisionHeap) Less(i, j int) bool { return h[i].fireAt.Before(h[j].fireAt) }

func (h decisionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *decisionHeap) Push(x interface{}) {
	*h = append(*h, x.(scheduledDecision))
}

func (h *decisionHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
