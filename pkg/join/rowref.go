package join

// RowRef is a stable, non-owning back-reference into StoredBlockList: the
// index of the stored block plus the row within it (spec §3). It never
// owns the data it points to; its validity is tied to the engine's
// lifetime, which keeps StoredBlockList immutable once probing starts.
type RowRef struct {
	Block int32
	Row   uint32
}

// rowRefNode is one link of a RowRefList tail, allocated from a rowRefArena.
type rowRefNode struct {
	ref  RowRef
	next *rowRefNode
}

// RowRefList is a singly-linked chain of RowRef: the head is held inline
// (no allocation for the common single-match case), the tail grows in
// arena-allocated nodes (spec §3, §4.2 MapsAll).
type RowRefList struct {
	head   RowRef
	hasHead bool
	tail   *rowRefNode
	last   *rowRefNode
}

// Append adds ref to the end of the chain, in O(1), allocating tail
// storage from a.
func (l *RowRefList) Append(a *rowRefArena, ref RowRef) {
	if !l.hasHead {
		l.head = ref
		l.hasHead = true
		return
	}
	node := a.alloc()
	node.ref = ref
	if l.tail == nil {
		l.tail = node
	} else {
		l.last.next = node
	}
	l.last = node
}

// ForEach walks the chain in insertion order, stopping early if fn returns
// false.
func (l *RowRefList) ForEach(fn func(RowRef) bool) {
	if !l.hasHead {
		return
	}
	if !fn(l.head) {
		return
	}
	for n := l.tail; n != nil; n = n.next {
		if !fn(n.ref) {
			return
		}
	}
}

// Len returns the number of RowRefs in the chain.
func (l *RowRefList) Len() int {
	if !l.hasHead {
		return 0
	}
	n := 1
	for node := l.tail; node != nil; node = node.next {
		n++
	}
	return n
}

// rowRefArena is a bump allocator for rowRefNode, amortizing allocation
// across many RowRefList.Append calls during build (spec §9: "avoid raw
// dangling pointers... alternatively keep raw pointers if the arena
// guarantees address stability"). Nodes are never freed individually; the
// whole arena is dropped with the engine.
type rowRefArena struct {
	chunks  [][]rowRefNode
	current []rowRefNode
}

const rowRefArenaChunkSize = 1024

func newRowRefArena() *rowRefArena {
	return &rowRefArena{}
}

func (a *rowRefArena) alloc() *rowRefNode {
	if len(a.current) == cap(a.current) {
		a.current = make([]rowRefNode, 0, rowRefArenaChunkSize)
		a.chunks = append(a.chunks, a.current)
	}
	a.current = append(a.current, rowRefNode{})
	a.chunks[len(a.chunks)-1] = a.current
	return &a.current[len(a.current)-1]
}
