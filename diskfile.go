package bptree

import (
	"io"
	"os"

	"github.com/dsnet/golib/memfile"
)

// diskFile is the narrow random-access file contract DiskManager needs:
// read/write at an absolute offset, know the current extent, grow or
// shrink it, and close. Both a real *os.File and an in-memory test
// double satisfy it, which is what lets DiskManager run against a
// memfile-backed buffer in tests without touching the filesystem.
type diskFile interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
	Truncate(size int64) error
	Size() (int64, error)
}

// osFile adapts *os.File to diskFile.
type osFile struct {
	f *os.File
}

func (o osFile) ReadAt(p []byte, off int64) (int, error)  { return o.f.ReadAt(p, off) }
func (o osFile) WriteAt(p []byte, off int64) (int, error) { return o.f.WriteAt(p, off) }
func (o osFile) Close() error                             { return o.f.Close() }
func (o osFile) Truncate(size int64) error                { return o.f.Truncate(size) }
func (o osFile) Size() (int64, error) {
	info, err := o.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// openOSFile opens the index file for ordinary buffered random access,
// creating it if absent.
func openOSFile(path string) (diskFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	return osFile{f: f}, nil
}

// memDiskFile backs a DiskManager with an in-memory buffer via
// github.com/dsnet/golib/memfile, so unit tests can exercise page
// eviction, splits and recycling without doing real file I/O.
type memDiskFile struct {
	mf *memfile.File
}

func newMemDiskFile() diskFile {
	return &memDiskFile{mf: memfile.New(make([]byte, 0))}
}

func (m *memDiskFile) ReadAt(p []byte, off int64) (int, error)  { return m.mf.ReadAt(p, off) }
func (m *memDiskFile) WriteAt(p []byte, off int64) (int, error) { return m.mf.WriteAt(p, off) }
func (m *memDiskFile) Close() error                             { return nil }

func (m *memDiskFile) Truncate(size int64) error {
	if size < 0 {
		size = 0
	}
	return m.mf.Truncate(size)
}

func (m *memDiskFile) Size() (int64, error) {
	return int64(len(m.mf.Bytes())), nil
}
