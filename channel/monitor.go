package channel

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// buffer is the storage a monitor guards. Implementations are not safe for
// concurrent use.
type buffer[T any] interface {
	Len() int
	Cap() int
	Full() bool
	Empty() bool
	put(v T)
	take(dst *T)
	grow(newCap int) error
	counters() *counters
}

// stateMarker is implemented by buffers that persist the channel state.
type stateMarker interface {
	markClosed()
}

// monitor is the blocking queue shared by all channel flavors: one mutex and
// two conditions bound to it.
type monitor[T any] struct {
	buf       buffer[T]
	cnt       *counters
	readCond  sync.Cond // Awaited by receivers, notified by senders.
	writeCond sync.Cond // Awaited by senders, notified by receivers.
	mu        sync.Mutex
	log       *zap.Logger
	maxCap    int
	mode      Mode
	state     State
}

func (m *monitor[T]) init(buf buffer[T], mode Mode, o options) {
	m.buf = buf
	m.cnt = buf.counters()
	m.mode = mode
	m.maxCap = o.maxCapacity
	m.log = o.logger
	m.readCond.L = &m.mu
	m.writeCond.L = &m.mu
}

func (m *monitor[T]) send(v T) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Closed {
		m.cnt.rejected++
		return false
	}

	if m.mode == Bounded {
		for m.buf.Full() {
			// Wait until there is space in the buffer
			m.writeCond.Wait()

			if m.state == Closed {
				m.cnt.rejected++
				return false
			}
		}
	} else if m.buf.Full() && !m.grow() {
		m.cnt.rejected++
		return false
	}

	m.put(v)
	return true
}

func (m *monitor[T]) sendContext(ctx context.Context, v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Closed {
		m.cnt.rejected++
		return ErrClosed
	}

	if m.mode == Unbounded {
		if m.buf.Full() && !m.grow() {
			m.cnt.rejected++
			return ErrAllocation
		}

		m.put(v)
		return nil
	}

	var stop func() bool

	for m.buf.Full() {
		if err := ctx.Err(); err != nil {
			m.cnt.rejected++
			return err
		}

		if stop == nil {
			stop = m.wakeOnDone(ctx, &m.writeCond)
			defer stop()
		}

		m.writeCond.Wait()

		if m.state == Closed {
			m.cnt.rejected++
			return ErrClosed
		}
	}

	m.put(v)
	return nil
}

// put stores v and wakes one receiver. The buffer must have room.
func (m *monitor[T]) put(v T) {
	m.buf.put(v)
	m.cnt.itemsSent++
	m.readCond.Signal()
}

// grow doubles the storage of a full unbounded channel. On failure the
// buffer is left as it was.
func (m *monitor[T]) grow() bool {
	from := m.buf.Cap()
	to := from * 2

	if to <= from || (m.maxCap > 0 && to > m.maxCap) {
		m.cnt.growFailures++
		m.log.Warn("channel growth exceeds limit", zap.Int("from", from), zap.Int("to", to), zap.Int("max", m.maxCap))
		return false
	}

	if err := m.buf.grow(to); err != nil {
		m.cnt.growFailures++
		m.log.Warn("channel growth failed", zap.Int("from", from), zap.Int("to", to), zap.Error(err))
		return false
	}

	// A file-backed buffer moves its counters along with the new mapping.
	m.cnt = m.buf.counters()
	m.cnt.grows++
	m.log.Debug("channel grew", zap.Int("from", from), zap.Int("to", to), zap.Int("len", m.buf.Len()))
	return true
}

func (m *monitor[T]) receive(dst *T) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Wait until there is data in the buffer to read
	for m.buf.Empty() {

		// If the channel is closed, there will never be any more to read
		if m.state == Closed {
			return false
		}

		m.readCond.Wait()
	}

	m.take(dst)
	return true
}

func (m *monitor[T]) receiveContext(ctx context.Context, dst *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stop func() bool

	for m.buf.Empty() {
		if m.state == Closed {
			return ErrClosed
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if stop == nil {
			stop = m.wakeOnDone(ctx, &m.readCond)
			defer stop()
		}

		m.readCond.Wait()
	}

	m.take(dst)
	return nil
}

// take removes the oldest item and wakes one sender. The buffer must not be
// empty.
func (m *monitor[T]) take(dst *T) {
	m.buf.take(dst)
	m.cnt.itemsReceived++
	m.writeCond.Signal()
}

// wakeOnDone broadcasts on cond once ctx is done. The broadcast takes the
// lock, so a waiter that saw a live context under the lock cannot miss it.
func (m *monitor[T]) wakeOnDone(ctx context.Context, cond *sync.Cond) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		cond.Broadcast()
	})
}

func (m *monitor[T]) close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Closed {
		return
	}

	m.state = Closed

	if sm, ok := m.buf.(stateMarker); ok {
		sm.markClosed()
	}

	m.readCond.Broadcast()
	m.writeCond.Broadcast()
	m.log.Debug("channel closed", zap.Int("backlog", m.buf.Len()))
}

func (m *monitor[T]) stats() (s Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.Mode = m.mode
	s.State = m.state
	s.Len = m.buf.Len()
	s.Cap = m.buf.Cap()
	m.cnt.fill(&s)
	return
}

func (m *monitor[T]) length() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.buf.Len()
}

func (m *monitor[T]) capacity() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.buf.Cap()
}

func (m *monitor[T]) currentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// destroy detaches and returns the buffer. The counters move to the monitor
// first, since a mapped buffer keeps them in memory that is about to be
// unmapped. A Send after destroy then only reports false; other calls panic.
// See the Destroy methods for the caller's obligations.
func (m *monitor[T]) destroy() (buf buffer[T]) {
	m.mu.Lock()
	defer m.mu.Unlock()

	detached := *m.cnt
	m.cnt = &detached
	m.state = Closed
	buf, m.buf = m.buf, nil
	return
}
