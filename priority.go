package asyncio

import (
	"cmp"
	"slices"
)

const (
	priorityHorizon     = 100
	priorityNeedWeight  = 100
	defaultNeedDistance = 60
)

// calcPriority scores urgency relative to frame. Higher runs first.
func (op *Operation) calcPriority(frame int64) int64 {
	need := int64(defaultNeedDistance)
	if op.conf.NeedFrame != 0 {
		need = op.conf.NeedFrame - frame
	}
	want := need
	if op.conf.WantFrame != 0 {
		want = op.conf.WantFrame - frame
	}
	priority := int64(0)
	if need <= priorityHorizon {
		priority = (priorityHorizon - need) * priorityNeedWeight
	}
	if want <= priorityHorizon {
		priority += priorityHorizon - want
	}
	op.priority = priority
	return priority
}

func sortByPriority(ops []*Operation) {
	slices.SortStableFunc(ops, func(a, b *Operation) int {
		return cmp.Compare(b.priority, a.priority)
	})
}
