// Package channel implements blocking FIFO channels shared between any
// number of sending and receiving goroutines.
//
// A channel is either bounded, where Send blocks while the channel is full,
// or unbounded, where the storage doubles instead. Close stops further sends
// and wakes every blocked goroutine; items queued before Close are still
// delivered to receivers, and Receive reports false only once the channel is
// both closed and drained.
//
// Items sent by one goroutine are received in the order they were sent.
// Sends racing from different goroutines are ordered only by who takes the
// lock first, and there is no fairness among goroutines blocked in Send or
// Receive: which one wakes first is up to the scheduler.
package channel

import (
	"context"

	"github.com/webbmaffian/go-chan/internal/ring"
	"github.com/webbmaffian/go-chan/internal/utils"
)

// Channel is a blocking FIFO queue of T values.
type Channel[T any] struct {
	m monitor[T]
}

// New creates a channel. A capacity of 0 creates an unbounded channel
// starting at DefaultInitialCapacity slots (see WithInitialCapacity); a
// positive capacity creates a bounded channel of exactly that size.
func New[T any](capacity int, opts ...Option) (*Channel[T], error) {
	if capacity < 0 {
		return nil, ErrCapacity
	}

	o := newOptions(opts)
	r, err := ring.New[T](o.slots(capacity))

	if err != nil {
		return nil, errorf(ErrAllocation, err)
	}

	ch := new(Channel[T])
	ch.m.init(&ringBuffer[T]{Ring: r}, modeOf(capacity), o)
	return ch, nil
}

// Send enqueues v. On a full bounded channel it blocks until a receiver
// frees a slot or the channel is closed. It returns false if the channel is
// closed, or if an unbounded channel failed to grow; v is not queued then.
func (ch *Channel[T]) Send(v T) bool {
	return ch.m.send(v)
}

// SendContext is Send with cancellation. It returns ErrClosed, ErrAllocation
// or the context's error when v was not queued. A done context only matters
// while SendContext has to wait for space.
func (ch *Channel[T]) SendContext(ctx context.Context, v T) error {
	return ch.m.sendContext(ctx, v)
}

// Receive dequeues the oldest item, blocking while the channel is empty and
// open. It returns false once the channel is closed and drained.
func (ch *Channel[T]) Receive() (v T, ok bool) {
	ok = ch.m.receive(&v)
	return
}

// ReceiveContext is Receive with cancellation. It returns ErrClosed once the
// channel is closed and drained, or the context's error if it gave up
// waiting.
func (ch *Channel[T]) ReceiveContext(ctx context.Context) (v T, err error) {
	err = ch.m.receiveContext(ctx, &v)
	return
}

// Close rejects all further sends and wakes every blocked goroutine. Queued
// items stay receivable. Closing twice is a no-op.
func (ch *Channel[T]) Close() {
	ch.m.close()
}

// Destroy releases the channel's storage. No goroutine may be inside, or
// later call, any method of the channel; doing so is undefined and may
// crash the process.
func (ch *Channel[T]) Destroy() {
	ch.m.destroy()
}

func (ch *Channel[T]) Len() int {
	return ch.m.length()
}

func (ch *Channel[T]) Cap() int {
	return ch.m.capacity()
}

func (ch *Channel[T]) Mode() Mode {
	return ch.m.mode
}

func (ch *Channel[T]) State() State {
	return ch.m.currentState()
}

func (ch *Channel[T]) Closed() bool {
	return ch.m.currentState() == Closed
}

// ItemSize returns the in-memory size of one T.
func (ch *Channel[T]) ItemSize() int {
	return utils.SizeOf[T]()
}

func (ch *Channel[T]) Stats() Stats {
	s := ch.m.stats()
	s.ItemSize = ch.ItemSize()
	return s
}

type ringBuffer[T any] struct {
	*ring.Ring[T]
	cnt counters
}

func (b *ringBuffer[T]) put(v T) {
	b.Push(v)
}

func (b *ringBuffer[T]) take(dst *T) {
	*dst = b.Pop()
}

func (b *ringBuffer[T]) grow(newCap int) error {
	if utils.MulOverflows(newCap, utils.SizeOf[T]()) {
		return ring.ErrAlloc
	}

	return b.Grow(newCap)
}

func (b *ringBuffer[T]) counters() *counters {
	return &b.cnt
}
