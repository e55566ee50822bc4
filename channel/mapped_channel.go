package channel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/edsrzf/mmap-go"
	"go.uber.org/zap"

	"github.com/webbmaffian/go-chan/internal/ring"
	"github.com/webbmaffian/go-chan/internal/utils"
)

// growSuffix names the file an unbounded channel grows into before it
// replaces the original.
const growSuffix = ".grow"

// MappedChannel is a ByteChannel whose slots live in a memory-mapped file.
// The queue outlives the process: opening an existing file resumes its
// backlog, which is always reopened as Open.
type MappedChannel struct {
	m        monitor[[]byte]
	buf      *mappedBuffer
	itemSize int
}

// NewMappedChannel opens the channel file at path, creating it when missing.
// Capacity follows the same rules as New. An existing file must match
// itemSize and mode, and for bounded channels also capacity; an unbounded
// file keeps whatever size it has grown to.
func NewMappedChannel(path string, itemSize int, capacity int, opts ...Option) (ch *MappedChannel, err error) {
	if itemSize < 1 {
		return nil, ErrItemSize
	}

	if capacity < 0 {
		return nil, ErrCapacity
	}

	o := newOptions(opts)
	mode := modeOf(capacity)

	// A leftover from an interrupted growth; the original file is intact.
	if err = os.Remove(path + growSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
		return
	}

	buf, err := openMapped(path, newHeader(mode, o.slots(capacity), itemSize))

	if err != nil {
		return
	}

	buf.log = o.logger.With(zap.String("path", path))

	ch = &MappedChannel{
		buf:      buf,
		itemSize: itemSize,
	}
	ch.m.init(buf, mode, o)
	return
}

func openMapped(path string, want *header) (b *mappedBuffer, err error) {
	info, err := os.Stat(path)

	if errors.Is(err, os.ErrNotExist) {
		file, data, err := createMapping(path, want)

		if err != nil {
			return nil, err
		}

		return newMappedBuffer(path, file, data), nil
	} else if err != nil {
		return
	}

	file, err := os.OpenFile(path, os.O_RDWR, 0)

	if err != nil {
		return
	}

	defer func() {
		if err != nil {
			file.Close()
		}
	}()

	h, err := readHeader(file, info.Size())

	if err != nil {
		return
	}

	if h.itemSize != want.itemSize {
		return nil, fmt.Errorf("%w: item size %d, expected %d", ErrCorrupt, h.itemSize, want.itemSize)
	}

	if h.mode != want.mode {
		return nil, fmt.Errorf("%w: file is %s", ErrCorrupt, Mode(h.mode))
	}

	if Mode(h.mode) == Bounded && h.cursors.Capacity != want.cursors.Capacity {
		return nil, fmt.Errorf("%w: capacity %d, expected %d", ErrCorrupt, h.cursors.Capacity, want.cursors.Capacity)
	}

	data, err := mmap.Map(file, mmap.RDWR, 0)

	if err != nil {
		return nil, errorf(ErrAllocation, err)
	}

	b = newMappedBuffer(path, file, data)
	b.head.closed = 0
	return
}

// createMapping creates the file at path sized for h, maps it and writes h
// to its start.
func createMapping(path string, h *header) (file *os.File, data mmap.MMap, err error) {
	if h.cursors.Capacity > (math.MaxInt64-h.headSize)/h.itemSize {
		return nil, nil, errorf(ErrAllocation, ring.ErrAlloc)
	}

	if file, err = os.Create(path); err != nil {
		return nil, nil, errorf(ErrAllocation, err)
	}

	defer func() {
		if err != nil {
			if data != nil {
				data.Unmap()
			}

			file.Close()
			os.Remove(path)
			file, data = nil, nil
		}
	}()

	if err = file.Truncate(h.fileSize()); err != nil {
		return file, nil, errorf(ErrAllocation, err)
	}

	if data, err = mmap.Map(file, mmap.RDWR, 0); err != nil {
		return file, nil, errorf(ErrAllocation, err)
	}

	if s := int(h.headSize); copy(data[:s], utils.PointerToBytes(h)) != s {
		return file, data, errors.New("failed to write header")
	}

	if err = data.Flush(); err != nil {
		return file, data, fmt.Errorf("flush header: %w", err)
	}

	return
}

func readHeader(file *os.File, fileSize int64) (h header, err error) {
	b := utils.PointerToBytes(&h)

	if fileSize < int64(len(b)) {
		return h, fmt.Errorf("%w: file too small", ErrCorrupt)
	}

	if _, err = file.Seek(0, io.SeekStart); err != nil {
		return
	}

	if _, err = io.ReadFull(file, b); err != nil {
		return
	}

	err = h.validate(fileSize)
	return
}

// Send copies value into the channel. See Channel.Send. Growing an unbounded
// mapped channel rewrites the whole file, so it is far slower than growing
// an in-memory one.
func (ch *MappedChannel) Send(value []byte) bool {
	ch.checkLen(value)
	return ch.m.send(value)
}

func (ch *MappedChannel) SendContext(ctx context.Context, value []byte) error {
	ch.checkLen(value)
	return ch.m.sendContext(ctx, value)
}

// Receive copies the oldest item into dst. See Channel.Receive.
func (ch *MappedChannel) Receive(dst []byte) bool {
	ch.checkLen(dst)
	return ch.m.receive(&dst)
}

func (ch *MappedChannel) ReceiveContext(ctx context.Context, dst []byte) error {
	ch.checkLen(dst)
	return ch.m.receiveContext(ctx, &dst)
}

// Close marks the channel closed in memory and in the file header.
func (ch *MappedChannel) Close() {
	ch.m.close()
}

// Flush writes the mapped pages back to the file.
func (ch *MappedChannel) Flush() error {
	ch.m.mu.Lock()
	defer ch.m.mu.Unlock()

	return ch.buf.data.Flush()
}

// Destroy flushes and unmaps the file and closes it. The backlog stays on
// disk. The same precondition as Channel.Destroy applies: touching the
// unmapped slots faults, which is not a recoverable panic.
func (ch *MappedChannel) Destroy() error {
	ch.m.destroy()
	return ch.buf.release()
}

// Remove destroys the channel and deletes its file.
func (ch *MappedChannel) Remove() error {
	if err := ch.Destroy(); err != nil {
		return err
	}

	return os.Remove(ch.buf.path)
}

func (ch *MappedChannel) Path() string {
	return ch.buf.path
}

func (ch *MappedChannel) Len() int {
	return ch.m.length()
}

func (ch *MappedChannel) Cap() int {
	return ch.m.capacity()
}

func (ch *MappedChannel) ItemSize() int {
	return ch.itemSize
}

func (ch *MappedChannel) Mode() Mode {
	return ch.m.mode
}

func (ch *MappedChannel) State() State {
	return ch.m.currentState()
}

func (ch *MappedChannel) Closed() bool {
	return ch.m.currentState() == Closed
}

func (ch *MappedChannel) Stats() Stats {
	s := ch.m.stats()
	s.ItemSize = ch.itemSize
	return s
}

func (ch *MappedChannel) checkLen(b []byte) {
	if len(b) != ch.itemSize {
		panic(fmt.Sprintf("channel: got %d bytes, item size is %d", len(b), ch.itemSize))
	}
}

// mappedBuffer keeps the header and slots in one mapped file.
type mappedBuffer struct {
	*ring.Arena
	path string
	file *os.File
	data mmap.MMap
	head *header
	log  *zap.Logger
}

func newMappedBuffer(path string, file *os.File, data mmap.MMap) *mappedBuffer {
	b := &mappedBuffer{
		path: path,
		log:  zap.NewNop(),
	}
	b.attach(file, data)
	return b
}

func (b *mappedBuffer) attach(file *os.File, data mmap.MMap) {
	b.file = file
	b.data = data
	b.head = utils.BytesToPointer[header](data)
	b.Arena = ring.NewArena(data[b.head.headSize:], int(b.head.itemSize), &b.head.cursors)
}

func (b *mappedBuffer) put(v []byte) {
	b.Push(v)
}

func (b *mappedBuffer) take(dst *[]byte) {
	b.Pop(*dst)
}

// grow builds a larger file next to the current one, copies the queue into
// it in order and renames it over the original. Until the rename succeeds
// the current mapping is untouched.
func (b *mappedBuffer) grow(newCap int) (err error) {
	h := *b.head
	h.cursors = ring.Cursors{
		Capacity: int64(newCap),
		Tail:     b.head.cursors.Count,
		Count:    b.head.cursors.Count,
	}

	tmp := b.path + growSuffix
	file, data, err := createMapping(tmp, &h)

	if err != nil {
		return
	}

	b.CopyOrdered(data[h.headSize:])

	if err = data.Flush(); err == nil {
		err = os.Rename(tmp, b.path)
	}

	if err != nil {
		data.Unmap()
		file.Close()
		os.Remove(tmp)
		return errorf(ErrAllocation, err)
	}

	if err := b.release(); err != nil {
		b.log.Warn("release of replaced mapping failed", zap.Error(err))
	}

	b.attach(file, data)
	return nil
}

func (b *mappedBuffer) release() (err error) {
	if err = b.data.Flush(); err != nil {
		return
	}

	if err = b.data.Unmap(); err != nil {
		return
	}

	return b.file.Close()
}

func (b *mappedBuffer) counters() *counters {
	return &b.head.cnt
}

func (b *mappedBuffer) markClosed() {
	b.head.closed = 1
}
