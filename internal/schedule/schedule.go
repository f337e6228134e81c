// Package schedule holds continuations resumed on a later tick. Each entry
// carries a validity guard checked right before it runs; a stale entry is
// dropped without side effects.
package schedule

import "container/heap"

// #region task
// Task is one scheduled continuation.
type Task struct {
	Name  string
	Due   uint64      // deadline on the owner's monotonic clock
	Valid func() bool // nil means always valid
	Run   func()

	seq uint64
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].Due != h[j].Due {
		return h[i].Due < h[j].Due
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(*Task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// #endregion task

// #region queue
// Queue orders tasks by due time, then by insertion.
type Queue struct {
	tasks taskHeap
	seq   uint64
}

// Result counts what one Run call did.
type Result struct {
	Ran     []string
	Aborted []string
}

// Schedule adds a task. A nil Run is ignored.
func (q *Queue) Schedule(t Task) {
	if t.Run == nil {
		return
	}
	q.seq++
	t.seq = q.seq
	heap.Push(&q.tasks, &t)
}

// Run executes every task due at or before now in order. Tasks whose guard
// reports false are dropped. Tasks scheduled by a running task for a time
// already reached run in the same call.
func (q *Queue) Run(now uint64) Result {
	var res Result
	for len(q.tasks) > 0 && q.tasks[0].Due <= now {
		t := heap.Pop(&q.tasks).(*Task)
		if t.Valid != nil && !t.Valid() {
			res.Aborted = append(res.Aborted, t.Name)
			continue
		}
		t.Run()
		res.Ran = append(res.Ran, t.Name)
	}
	return res
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int { return len(q.tasks) }

// Next returns the due time of the earliest task.
func (q *Queue) Next() (uint64, bool) {
	if len(q.tasks) == 0 {
		return 0, false
	}
	return q.tasks[0].Due, true
}

// Clear drops every pending task.
func (q *Queue) Clear() { q.tasks = nil }

// #endregion queue
