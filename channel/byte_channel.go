package channel

import (
	"context"
	"fmt"

	"github.com/webbmaffian/go-chan/internal/ring"
	"github.com/webbmaffian/go-chan/internal/utils"
)

// ByteChannel is a blocking FIFO queue of fixed-size byte items held in one
// contiguous in-memory buffer. Every value passed in or out must be exactly
// ItemSize bytes long; the channel copies bytes and never inspects them.
type ByteChannel struct {
	m        monitor[[]byte]
	itemSize int
}

// NewByteChannel creates a channel of itemSize-byte items. Capacity follows
// the same rules as New.
func NewByteChannel(itemSize int, capacity int, opts ...Option) (*ByteChannel, error) {
	if itemSize < 1 {
		return nil, ErrItemSize
	}

	if capacity < 0 {
		return nil, ErrCapacity
	}

	o := newOptions(opts)
	slots := o.slots(capacity)

	if utils.MulOverflows(slots, itemSize) {
		return nil, errorf(ErrAllocation, ring.ErrAlloc)
	}

	data, err := ring.Alloc[byte](slots * itemSize)

	if err != nil {
		return nil, errorf(ErrAllocation, err)
	}

	buf := &arenaBuffer{
		cursors: ring.Cursors{Capacity: int64(slots)},
	}
	buf.Arena = ring.NewArena(data, itemSize, &buf.cursors)

	ch := &ByteChannel{
		itemSize: itemSize,
	}
	ch.m.init(buf, modeOf(capacity), o)
	return ch, nil
}

// Send copies value into the channel. See Channel.Send.
func (ch *ByteChannel) Send(value []byte) bool {
	ch.checkLen(value)
	return ch.m.send(value)
}

// SendContext copies value into the channel. See Channel.SendContext.
func (ch *ByteChannel) SendContext(ctx context.Context, value []byte) error {
	ch.checkLen(value)
	return ch.m.sendContext(ctx, value)
}

// Receive copies the oldest item into dst. On false, dst is untouched. See
// Channel.Receive.
func (ch *ByteChannel) Receive(dst []byte) bool {
	ch.checkLen(dst)
	return ch.m.receive(&dst)
}

// ReceiveContext copies the oldest item into dst. See Channel.ReceiveContext.
func (ch *ByteChannel) ReceiveContext(ctx context.Context, dst []byte) error {
	ch.checkLen(dst)
	return ch.m.receiveContext(ctx, &dst)
}

func (ch *ByteChannel) Close() {
	ch.m.close()
}

// Destroy releases the buffer. The same precondition as Channel.Destroy
// applies.
func (ch *ByteChannel) Destroy() {
	ch.m.destroy()
}

func (ch *ByteChannel) Len() int {
	return ch.m.length()
}

func (ch *ByteChannel) Cap() int {
	return ch.m.capacity()
}

func (ch *ByteChannel) ItemSize() int {
	return ch.itemSize
}

func (ch *ByteChannel) Mode() Mode {
	return ch.m.mode
}

func (ch *ByteChannel) State() State {
	return ch.m.currentState()
}

func (ch *ByteChannel) Closed() bool {
	return ch.m.currentState() == Closed
}

func (ch *ByteChannel) Stats() Stats {
	s := ch.m.stats()
	s.ItemSize = ch.itemSize
	return s
}

func (ch *ByteChannel) checkLen(b []byte) {
	if len(b) != ch.itemSize {
		panic(fmt.Sprintf("channel: got %d bytes, item size is %d", len(b), ch.itemSize))
	}
}

// arenaBuffer keeps the slots in a heap-allocated byte arena.
type arenaBuffer struct {
	*ring.Arena
	cursors ring.Cursors
	cnt     counters
}

func (b *arenaBuffer) put(v []byte) {
	b.Push(v)
}

func (b *arenaBuffer) take(dst *[]byte) {
	b.Pop(*dst)
}

func (b *arenaBuffer) grow(newCap int) error {
	if utils.MulOverflows(newCap, b.ItemSize()) {
		return ring.ErrAlloc
	}

	data, err := ring.Alloc[byte](newCap * b.ItemSize())

	if err != nil {
		return err
	}

	b.CopyOrdered(data)
	b.Rebase(data, newCap)
	return nil
}

func (b *arenaBuffer) counters() *counters {
	return &b.cnt
}
