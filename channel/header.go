package channel

import (
	"fmt"
	"unsafe"

	"github.com/webbmaffian/go-chan/internal/ring"
)

const headerMagic = 0x6e616863 // "chan"

func newHeader(mode Mode, capacity int, itemSize int) *header {
	h := &header{
		magic:    headerMagic,
		itemSize: int64(itemSize),
		mode:     int64(mode),
	}
	h.headSize = int64(unsafe.Sizeof(*h))
	h.cursors.Capacity = int64(capacity)

	return h
}

// header sits at the start of a mapped channel file, followed by
// capacity*itemSize bytes of slots.
type header struct {
	magic    int64
	headSize int64
	itemSize int64
	mode     int64
	closed   int64
	cursors  ring.Cursors
	cnt      counters
}

func (h *header) fileSize() int64 {
	return h.headSize + h.cursors.Capacity*h.itemSize
}

func (h *header) validate(fileSize int64) error {
	if h.magic != headerMagic {
		return fmt.Errorf("%w: bad magic", ErrCorrupt)
	}

	if h.headSize != int64(unsafe.Sizeof(*h)) {
		return fmt.Errorf("%w: header size %d", ErrCorrupt, h.headSize)
	}

	if h.itemSize < 1 {
		return fmt.Errorf("%w: invalid item size", ErrCorrupt)
	}

	if Mode(h.mode) != Bounded && Mode(h.mode) != Unbounded {
		return fmt.Errorf("%w: invalid mode", ErrCorrupt)
	}

	c := h.cursors

	if c.Capacity < 1 {
		return fmt.Errorf("%w: invalid capacity", ErrCorrupt)
	}

	// Cursors must lie within the ring
	if c.Head < 0 || c.Head >= c.Capacity || c.Tail < 0 || c.Tail >= c.Capacity {
		return fmt.Errorf("%w: cursor out of range", ErrCorrupt)
	}

	// A capacity can never be less than the count
	if c.Count < 0 || c.Count > c.Capacity {
		return fmt.Errorf("%w: invalid count", ErrCorrupt)
	}

	if (c.Head+c.Count)%c.Capacity != c.Tail {
		return fmt.Errorf("%w: cursors disagree with count", ErrCorrupt)
	}

	if fileSize != h.fileSize() {
		return fmt.Errorf("%w: file size %d, expected %d", ErrCorrupt, fileSize, h.fileSize())
	}

	return nil
}
