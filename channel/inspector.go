package channel

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/webbmaffian/go-chan/internal/utils"
)

// Inspector is a read-only view of a mapped channel file, meant for watching
// a channel owned by another process. It takes no locks, so its readings may
// be torn while the owner is writing.
type Inspector struct {
	data mmap.MMap
	file *os.File
	info os.FileInfo
	head *header
	path string
}

func OpenInspector(path string) (in *Inspector, err error) {
	in = &Inspector{
		path: path,
	}

	if in.info, err = os.Stat(path); err != nil {
		return nil, err
	}

	if in.file, err = os.Open(path); err != nil {
		return nil, err
	}

	if _, err = readHeader(in.file, in.info.Size()); err != nil {
		in.file.Close()
		return nil, err
	}

	if in.data, err = mmap.Map(in.file, mmap.RDONLY, 0); err != nil {
		in.file.Close()
		return nil, err
	}

	in.head = utils.BytesToPointer[header](in.data)
	return
}

// Stale reports whether the file at the inspected path has been replaced,
// which happens each time an unbounded mapped channel grows.
func (in *Inspector) Stale() bool {
	info, err := os.Stat(in.path)
	return err != nil || !os.SameFile(info, in.info)
}

func (in *Inspector) Stats() (s Stats) {
	s.Mode = Mode(in.head.mode)
	s.State = Open

	if in.head.closed != 0 {
		s.State = Closed
	}

	s.Len = int(in.head.cursors.Count)
	s.Cap = int(in.head.cursors.Capacity)
	s.ItemSize = int(in.head.itemSize)
	in.head.cnt.fill(&s)
	return
}

// Head returns the receive and send cursors.
func (in *Inspector) Head() (recv, send int64) {
	return in.head.cursors.Head, in.head.cursors.Tail
}

// Peek returns a copy of the i-th queued item, counted from the oldest.
func (in *Inspector) Peek(i int) ([]byte, error) {
	c := in.head.cursors

	if i < 0 || int64(i) >= c.Count {
		return nil, fmt.Errorf("peek %d: only %d items queued", i, c.Count)
	}

	off := in.head.headSize + ((c.Head+int64(i))%c.Capacity)*in.head.itemSize
	b := make([]byte, in.head.itemSize)
	copy(b, in.data[off:off+in.head.itemSize])
	return b, nil
}

func (in *Inspector) Close() (err error) {
	if err = in.data.Unmap(); err != nil {
		return
	}

	return in.file.Close()
}
