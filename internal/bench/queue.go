package bench

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/webbmaffian/go-chan/channel"
)

// ErrPathExists refuses a mapped run on a file that is already there.
var ErrPathExists = errors.New("mapped channel file already exists")

// queue is the common surface the runner drives; one adapter per Kind.
type queue interface {
	channel.StatsProvider
	send(seq uint64) bool
	receive() (seq uint64, ok bool)
	Close()
	destroy() error
}

func open(cfg Config, opts []channel.Option) (queue, error) {
	switch cfg.Kind {
	case KindBytes:
		ch, err := channel.NewByteChannel(cfg.ItemSize, cfg.Capacity, opts...)

		if err != nil {
			return nil, err
		}

		return &byteQueue{rw: ch, in: make([]byte, cfg.ItemSize), out: make([]byte, cfg.ItemSize), destroyFn: func() error {
			ch.Destroy()
			return nil
		}}, nil
	case KindMapped:
		// The run deletes its file afterwards, and a resumed backlog would
		// break the count, so only a fresh file will do.
		if _, err := os.Lstat(cfg.Path); err == nil {
			return nil, fmt.Errorf("%s: %w", cfg.Path, ErrPathExists)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}

		ch, err := channel.NewMappedChannel(cfg.Path, cfg.ItemSize, cfg.Capacity, opts...)

		if err != nil {
			return nil, err
		}

		return &byteQueue{rw: ch, in: make([]byte, cfg.ItemSize), out: make([]byte, cfg.ItemSize), destroyFn: ch.Remove}, nil
	default:
		ch, err := channel.New[uint64](cfg.Capacity, opts...)

		if err != nil {
			return nil, err
		}

		return genericQueue{ch}, nil
	}
}

type genericQueue struct {
	*channel.Channel[uint64]
}

func (q genericQueue) send(seq uint64) bool {
	return q.Send(seq)
}

func (q genericQueue) receive() (uint64, bool) {
	return q.Receive()
}

func (q genericQueue) destroy() error {
	q.Destroy()
	return nil
}

type byteChannel interface {
	channel.StatsProvider
	Send(value []byte) bool
	Receive(dst []byte) bool
	Close()
}

// byteQueue serializes the sequence number into the first 8 bytes of an
// item. A byteQueue is used by one goroutine per direction: each producer
// and consumer gets its own via clone.
type byteQueue struct {
	rw        byteChannel
	in, out   []byte
	destroyFn func() error
}

func (q *byteQueue) clone() *byteQueue {
	return &byteQueue{
		rw:        q.rw,
		in:        make([]byte, len(q.in)),
		out:       make([]byte, len(q.out)),
		destroyFn: q.destroyFn,
	}
}

func (q *byteQueue) send(seq uint64) bool {
	binary.LittleEndian.PutUint64(q.in, seq)
	return q.rw.Send(q.in)
}

func (q *byteQueue) receive() (uint64, bool) {
	if !q.rw.Receive(q.out) {
		return 0, false
	}

	return binary.LittleEndian.Uint64(q.out), true
}

func (q *byteQueue) Stats() channel.Stats {
	return q.rw.Stats()
}

func (q *byteQueue) Close() {
	q.rw.Close()
}

func (q *byteQueue) destroy() error {
	return q.destroyFn()
}

// forWorker returns a queue safe to use from one more goroutine.
func forWorker(q queue) queue {
	if bq, ok := q.(*byteQueue); ok {
		return bq.clone()
	}

	return q
}
