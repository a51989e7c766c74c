package asyncio

import (
	"github.com/brickingsoft/asyncio/pkg/vfs"
	"testing"
	"time"
)

func TestCalcPriority(t *testing.T) {
	sys := newTestSubsystem(t)
	cases := []struct {
		conf  ReadConfig
		frame int64
		want  int64
	}{
		{ReadConfig{NeedFrame: 10}, 0, 90*100 + 90},
		{ReadConfig{NeedFrame: 50}, 0, 50*100 + 50},
		{ReadConfig{NeedFrame: 200}, 0, 0},
		{ReadConfig{}, 0, 40*100 + 40},
		{ReadConfig{NeedFrame: 10}, 15, 105*100 + 105},
		{ReadConfig{WantFrame: 20, NeedFrame: 150}, 0, 80},
		{ReadConfig{WantFrame: 20}, 10, 40*100 + 90},
	}
	for i, c := range cases {
		op := newTestOperation(t, sys, vfs.NewMemFile("p", pattern(10)), nil, 0, nil)
		op.conf = c.conf
		if got := op.calcPriority(c.frame); got != c.want {
			t.Error(i, "priority", got, "want", c.want)
		}
		op.Drop()
	}
}

func TestSortByPriority(t *testing.T) {
	sys := newTestSubsystem(t)
	needs := []int64{200, 10, 50}
	ops := make([]*Operation, 0, len(needs))
	for _, need := range needs {
		var calls []notification
		sink := &recordingSink{conf: &ReadConfig{NeedFrame: need}, calls: &calls}
		op := newTestOperation(t, sys, vfs.NewMemFile("s", pattern(10)), nil, 0, sink)
		op.updateConfig()
		op.calcPriority(0)
		ops = append(ops, op)
	}
	sortByPriority(ops)
	for i, want := range []int64{10, 50, 200} {
		if ops[i].conf.NeedFrame != want {
			t.Fatal("order", i, ops[i].conf.NeedFrame)
		}
	}
	for _, op := range ops {
		op.Drop()
	}
}

func newTestWorker(t *testing.T, sys *Subsystem) *worker {
	t.Helper()
	sys.stopped = false
	sys.closed = false
	return newWorker(sys)
}

func submitTestOperation(sys *Subsystem, op *Operation) {
	sys.register(op)
	op.Grab()
	sys.submit.pushBack(op)
}

func TestWorker_Reprioritize(t *testing.T) {
	sys := newTestSubsystem(t)
	w := newTestWorker(t, sys)
	var calls []notification
	for _, need := range []int64{200, 10, 50} {
		sink := &recordingSink{name: "n", conf: &ReadConfig{NeedFrame: need, RequestBytes: 1}, calls: &calls}
		op := newTestOperation(t, sys, vfs.NewMemFile("n", pattern(4)), nil, 0, sink)
		submitTestOperation(sys, op)
		op.Drop()
	}
	w.drain()
	if w.pending.len != 3 || !sys.submit.empty() {
		t.Fatal("drain", w.pending.len)
	}
	w.reprioritize()
	got := make([]int64, 0, 3)
	for _, op := range w.pending.slice() {
		got = append(got, op.conf.NeedFrame)
	}
	if got[0] != 10 || got[1] != 50 || got[2] != 200 {
		t.Fatal("order", got)
	}
	for op := w.pending.popFront(); op != nil; op = w.pending.popFront() {
		w.retire(op)
	}
	sys.purge()
}

func TestWorker_RoundRobin(t *testing.T) {
	sys := newTestSubsystem(t)
	w := newTestWorker(t, sys)
	var calls []notification
	names := []string{"a", "b", "c"}
	for _, name := range names {
		sink := &recordingSink{name: name, conf: &ReadConfig{NeedFrame: 10, RequestBytes: 1}, calls: &calls}
		op := newTestOperation(t, sys, vfs.NewMemFile(name, pattern(10)), nil, 0, sink)
		submitTestOperation(sys, op)
		op.Drop()
	}
	w.drain()
	w.reprioritize()
	for round := 0; round < 3; round++ {
		seen := map[string]int{}
		for i := 0; i < len(names); i++ {
			w.service()
		}
		for _, c := range calls[round*3 : round*3+3] {
			seen[c.name]++
		}
		for _, name := range names {
			if seen[name] != 1 {
				t.Fatal("round", round, "serviced", seen)
			}
		}
	}
	for op := w.pending.popFront(); op != nil; op = w.pending.popFront() {
		op.Cancel()
		w.retire(op)
	}
	sys.purge()
}

func TestWorker_BackoffDelay(t *testing.T) {
	clock := &fakeClock{now: 1000}
	sys := newTestSubsystem(t, WithClock(clock.Clock()), WithBackoffPollInterval(time.Millisecond))
	w := newTestWorker(t, sys)
	for i := 0; i < 2; i++ {
		file := &stallFile{MemFile: vfs.NewMemFile("stall", pattern(10)), stalls: 1 << 30}
		op := newTestOperation(t, sys, file, nil, 0, nil)
		submitTestOperation(sys, op)
		op.Drop()
	}
	w.drain()
	w.service()
	clock.now += 10
	w.service()
	if w.deferred != w.pending.len {
		t.Fatal("every operation must be deferred", w.deferred, w.pending.len)
	}
	if d := w.backoffDelay(); d != 15*time.Millisecond {
		t.Fatal("delay must reach the earliest retry", d)
	}
	clock.now += 14
	if d := w.backoffDelay(); d != time.Millisecond {
		t.Fatal("delay", d)
	}
	clock.now += 100
	if d := w.backoffDelay(); d != time.Millisecond {
		t.Fatal("overdue retry must use the poll interval", d)
	}
	for op := w.pending.popFront(); op != nil; op = w.pending.popFront() {
		op.Cancel()
		w.retire(op)
	}
	sys.purge()
	if n := sys.Stats().Live; n != 0 {
		t.Fatal("live", n)
	}
}

func TestWorker_ReferenceLifecycle(t *testing.T) {
	sys := newTestSubsystem(t)
	w := newTestWorker(t, sys)
	file := vfs.NewMemFile("ref", pattern(10))
	op := newTestOperation(t, sys, file, nil, 0, nil)
	submitTestOperation(sys, op)
	w.drain()

	sys.Close(op)
	if op.refs.Count() != 1 || !sys.trashList.empty() {
		t.Fatal("operation held by the worker must not be trashed")
	}
	w.service()
	if !w.pending.empty() {
		t.Fatal("aborted operation must leave the pending list")
	}
	if sys.trashList.len != 1 || file.Refs() != 2 {
		t.Fatal("operation must wait in trash", sys.trashList.len, file.Refs())
	}
	sys.purge()
	if !sys.trashList.empty() || file.Refs() != 1 {
		t.Fatal("purge must destroy", file.Refs())
	}
}

func TestWorker_Shutdown(t *testing.T) {
	sys := newTestSubsystem(t)
	w := newTestWorker(t, sys)
	files := make([]*vfs.MemFile, 0, 4)
	ops := make([]*Operation, 0, 4)
	for i := 0; i < 4; i++ {
		file := vfs.NewMemFile("sd", pattern(10))
		op := newTestOperation(t, sys, file, nil, 0, nil)
		submitTestOperation(sys, op)
		files = append(files, file)
		ops = append(ops, op)
		if i == 1 {
			w.drain()
		}
	}
	w.shutdown()
	if !sys.closed || !w.pending.empty() || !sys.submit.empty() {
		t.Fatal("shutdown must drain both lists")
	}
	for _, op := range ops {
		if op.Status() != Aborted {
			t.Fatal("status", op.Status())
		}
		sys.Close(op)
	}
	sys.purge()
	for _, file := range files {
		if file.Refs() != 1 {
			t.Fatal("leaked file reference", file.Refs())
		}
	}
	if n := sys.Stats().Live; n != 0 {
		t.Fatal("live", n)
	}
}

func TestOpList_DoubleLink(t *testing.T) {
	sys := newTestSubsystem(t)
	op := newTestOperation(t, sys, vfs.NewMemFile("dl", nil), nil, 0, nil)
	l := newOpList(listPending)
	l.pushBack(op)
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic")
		}
		l.remove(op)
		op.Drop()
	}()
	sys.submit.pushBack(op)
}
