package schedule

import "testing"

func TestRunsInDueOrder(t *testing.T) {
	var q Queue
	var order []string
	add := func(name string, due uint64) {
		q.Schedule(Task{Name: name, Due: due, Run: func() { order = append(order, name) }})
	}
	add("c", 5)
	add("a", 2)
	add("b", 2)
	add("d", 9)

	res := q.Run(5)
	if len(res.Ran) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("order = %v", order)
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 pending, got %d", q.Len())
	}
	if next, ok := q.Next(); !ok || next != 9 {
		t.Fatalf("next = %d %v", next, ok)
	}
}

func TestStaleTaskAborts(t *testing.T) {
	var q Queue
	epoch := 1
	ran := false
	captured := epoch
	q.Schedule(Task{
		Name:  "penalty",
		Due:   3,
		Valid: func() bool { return epoch == captured },
		Run:   func() { ran = true },
	})
	epoch++
	res := q.Run(10)
	if ran || len(res.Aborted) != 1 || res.Aborted[0] != "penalty" {
		t.Fatalf("stale task ran: %+v", res)
	}
}

func TestChainedTaskRunsSameTick(t *testing.T) {
	var q Queue
	count := 0
	q.Schedule(Task{Name: "first", Due: 1, Run: func() {
		count++
		q.Schedule(Task{Name: "second", Due: 1, Run: func() { count++ }})
	}})
	q.Run(1)
	if count != 2 {
		t.Fatalf("expected both stages, got %d", count)
	}
	q.Schedule(Task{Name: "nil-run", Due: 1})
	if q.Len() != 0 {
		t.Fatal("task without Run should be ignored")
	}
}
