package fabric

import (
	"container/heap"

	"github.com/sirupsen/logrus"
)

// eventQueue is a (time, epsilon)-ordered priority queue of Events,
// implemented on container/heap exactly as the teacher's event queue is,
// extended with the epsilon tie-breaker spec.md §5 requires.
type eventQueue struct {
	items []Event
	seq   []int64 // insertion sequence, for stable ordering within (time,epsilon)
	next  int64
}

func (q *eventQueue) Len() int { return len(q.items) }

func (q *eventQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.Timestamp() != b.Timestamp() {
		return a.Timestamp() < b.Timestamp()
	}
	if a.Epsilon() != b.Epsilon() {
		return a.Epsilon() < b.Epsilon()
	}
	return q.seq[i] < q.seq[j]
}

func (q *eventQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.seq[i], q.seq[j] = q.seq[j], q.seq[i]
}

func (q *eventQueue) Push(x interface{}) {
	q.items = append(q.items, x.(Event))
	q.seq = append(q.seq, q.next)
	q.next++
}

func (q *eventQueue) Pop() interface{} {
	n := len(q.items)
	item := q.items[n-1]
	q.items = q.items[:n-1]
	q.seq = q.seq[:n-1]
	return item
}

// Simulator drives the single-threaded cooperative discrete-event loop
// described in SPEC_FULL §5. It owns the event queue, the simulation clock,
// and the partitioned RNG; every fabric component is constructed with a
// reference to a Simulator instead of reaching into a global.
type Simulator struct {
	queue *eventQueue
	now   int64
	RNG   *PartitionedRNG

	// Metrics is not read by any fabric component; a Router records
	// metrics only when its RouterConfig.MetricsEnabled is set.
	Metrics *Metrics
}

// NewSimulator creates a Simulator seeded for reproducible runs.
func NewSimulator(seed SimulationSeed) *Simulator {
	return &Simulator{
		queue: &eventQueue{},
		RNG:   NewPartitionedRNG(seed),
	}
}

// Now returns the current simulated time. Only valid to call from within
// Execute or before the loop starts (where it reads as 0).
func (s *Simulator) Now() int64 { return s.now }

// Schedule enqueues an event for future dispatch. Events scheduled for a
// time earlier than Now() are a caller bug (the simulator never rewinds).
func (s *Simulator) Schedule(e Event) {
	if e.Timestamp() < s.now {
		invariantf("Simulator", "event %T scheduled at %d before current time %d", e, e.Timestamp(), s.now)
	}
	heap.Push(s.queue, e)
}

// Run drains the event queue until empty or until horizon is reached
// (horizon < 0 means "run to exhaustion").
func (s *Simulator) Run(horizon int64) {
	for s.queue.Len() > 0 {
		e := s.queue.items[0]
		if horizon >= 0 && e.Timestamp() > horizon {
			return
		}
		heap.Pop(s.queue)
		s.now = e.Timestamp()
		logrus.Debugf("[cycle %07d eps=%d] executing %T", s.now, e.Epsilon(), e)
		e.Execute(s)
	}
}

// Pending reports whether any event remains queued.
func (s *Simulator) Pending() bool { return s.queue.Len() > 0 }
