package asyncio

type listID uint8

const (
	listNone listID = iota
	listSubmit
	listPending
	listTrash
)

func (id listID) String() string {
	switch id {
	case listNone:
		return "none"
	case listSubmit:
		return "submit"
	case listPending:
		return "pending"
	case listTrash:
		return "trash"
	default:
		return "unknown"
	}
}

type link struct {
	prev  *Operation
	next  *Operation
	owner listID
}

// opList is an intrusive doubly linked list over Operation.link.
// An operation belongs to at most one list; pushBack panics otherwise.
type opList struct {
	id   listID
	head *Operation
	tail *Operation
	len  int
}

func newOpList(id listID) opList {
	return opList{id: id}
}

func (l *opList) empty() bool {
	return l.head == nil
}

func (l *opList) pushBack(op *Operation) {
	if op.link.owner != listNone {
		panic("asyncio: operation " + op.name + " already linked into " + op.link.owner.String() + " list")
	}
	op.link.owner = l.id
	op.link.prev = l.tail
	op.link.next = nil
	if l.tail != nil {
		l.tail.link.next = op
	} else {
		l.head = op
	}
	l.tail = op
	l.len++
}

func (l *opList) remove(op *Operation) {
	if op.link.owner != l.id {
		panic("asyncio: operation " + op.name + " is not linked into " + l.id.String() + " list")
	}
	if op.link.prev != nil {
		op.link.prev.link.next = op.link.next
	} else {
		l.head = op.link.next
	}
	if op.link.next != nil {
		op.link.next.link.prev = op.link.prev
	} else {
		l.tail = op.link.prev
	}
	op.link = link{}
	l.len--
}

func (l *opList) popFront() *Operation {
	op := l.head
	if op != nil {
		l.remove(op)
	}
	return op
}

// reorder relinks the members of l in the order of ops.
func (l *opList) reorder(ops []*Operation) {
	if len(ops) != l.len {
		panic("asyncio: reorder with foreign operations")
	}
	l.head, l.tail, l.len = nil, nil, 0
	for _, op := range ops {
		op.link = link{}
		l.pushBack(op)
	}
}

// spliceFrom moves every operation of src onto the tail of l.
func (l *opList) spliceFrom(src *opList) int {
	n := 0
	for op := src.popFront(); op != nil; op = src.popFront() {
		l.pushBack(op)
		n++
	}
	return n
}

func (l *opList) slice() []*Operation {
	ops := make([]*Operation, 0, l.len)
	for op := l.head; op != nil; op = op.link.next {
		ops = append(ops, op)
	}
	return ops
}
