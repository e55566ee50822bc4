package ring

// Cursors is the mutable state of an Arena. It is kept apart from the slot
// bytes so that a file-backed header can hold it.
type Cursors struct {
	Capacity int64
	Head     int64
	Tail     int64
	Count    int64
}

// Arena is a ring of fixed-size byte slots laid out back to back in one
// contiguous buffer of Capacity*itemSize bytes.
type Arena struct {
	data     []byte
	itemSize int64
	cur      *Cursors
}

// NewArena wraps data as a ring of itemSize slots. The capacity is taken
// from cur, and data must be at least Capacity*itemSize bytes long.
func NewArena(data []byte, itemSize int, cur *Cursors) *Arena {
	if itemSize <= 0 {
		panic("ring: item size must be positive")
	}

	if cur.Capacity <= 0 || int64(len(data)) < cur.Capacity*int64(itemSize) {
		panic("ring: arena buffer smaller than its capacity")
	}

	return &Arena{
		data:     data,
		itemSize: int64(itemSize),
		cur:      cur,
	}
}

func (a *Arena) Len() int {
	return int(a.cur.Count)
}

func (a *Arena) Cap() int {
	return int(a.cur.Capacity)
}

func (a *Arena) ItemSize() int {
	return int(a.itemSize)
}

func (a *Arena) Empty() bool {
	return a.cur.Count == 0
}

func (a *Arena) Full() bool {
	return a.cur.Count == a.cur.Capacity
}

// Push copies value into the tail slot. The arena must not be full and
// value must be exactly one item long.
func (a *Arena) Push(value []byte) {
	if a.Full() {
		panic("ring: push on full arena")
	}

	if int64(len(value)) != a.itemSize {
		panic("ring: value length does not match item size")
	}

	copy(a.Slot(a.cur.Tail), value)
	a.cur.Tail = a.wrap(a.cur.Tail + 1)
	a.cur.Count++
}

// Pop copies the head slot into dst and advances the head. The arena must
// not be empty and dst must be exactly one item long.
func (a *Arena) Pop(dst []byte) {
	if a.Empty() {
		panic("ring: pop on empty arena")
	}

	if int64(len(dst)) != a.itemSize {
		panic("ring: destination length does not match item size")
	}

	copy(dst, a.Slot(a.cur.Head))
	a.cur.Head = a.wrap(a.cur.Head + 1)
	a.cur.Count--
}

// Slot returns the bytes of slot idx.
func (a *Arena) Slot(idx int64) []byte {
	if idx < 0 || idx >= a.cur.Capacity {
		panic("ring: cursor out of range")
	}

	off := idx * a.itemSize
	return a.data[off : off+a.itemSize : off+a.itemSize]
}

// CopyOrdered writes the queued items into dst in FIFO order and returns the
// number of bytes written. When the queue wraps, the slots [head, cap) come
// before [0, tail).
func (a *Arena) CopyOrdered(dst []byte) int {
	if a.cur.Count == 0 {
		return 0
	}

	head := a.cur.Head * a.itemSize
	tail := a.cur.Tail * a.itemSize
	end := a.cur.Capacity * a.itemSize

	if a.cur.Head < a.cur.Tail {
		return copy(dst, a.data[head:tail])
	}

	n := copy(dst, a.data[head:end])
	return n + copy(dst[n:], a.data[:tail])
}

// Rebase switches the arena to data, which must already hold the queue in
// FIFO order from slot 0 (see CopyOrdered), and sets the new capacity.
func (a *Arena) Rebase(data []byte, capacity int) {
	if int64(capacity) < a.cur.Count || int64(len(data)) < int64(capacity)*a.itemSize {
		panic("ring: rebase target too small")
	}

	a.data = data
	a.cur.Capacity = int64(capacity)
	a.cur.Head = 0
	a.cur.Tail = a.wrap(a.cur.Count)
}

func (a *Arena) wrap(idx int64) int64 {
	return idx % a.cur.Capacity
}
