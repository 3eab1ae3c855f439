package bptree

import (
	"encoding/binary"
	"fmt"
)

// DiskManager owns one flat index file: a fixed-size info header
// followed by an array of fixed-size records, addressed by byte
// offset (diskpos). It recycles erased records through an in-memory
// freeList, persisting that list into the header's spare slots (or,
// if it overflows them, a side file) so reuse survives a restart.
//
// The header schema is fixed at:
//
//	slot 1: root page offset
//	slot 2: free-list size
//	slot 3..infoLen: inline free-list entries, oldest first
type DiskManager[T any] struct {
	store    diskFile
	path     string
	sidePath string
	codec    Codec[T]

	infoLen int
	recSize int
	reuse   bool
	free    freeList
	closed  bool
}

const (
	infoRootSlot     = 1
	infoFreeSizeSlot = 2
)

// NewDiskManager builds a DiskManager for records serialized by codec,
// with infoLen 8-byte header slots. reuse controls whether the free
// list is persisted across Close/Initialise cycles; when false, erased
// records are abandoned and the file only ever grows.
func NewDiskManager[T any](codec Codec[T], infoLen int, reuse bool) *DiskManager[T] {
	if infoLen < freeListBase {
		infoLen = freeListBase
	}
	return &DiskManager[T]{
		codec:   codec,
		infoLen: infoLen,
		recSize: codec.Size(),
		reuse:   reuse,
	}
}

// Initialise opens (creating if absent) the file at path for ordinary
// buffered random access and, when reuse is set, restores any
// persisted free list.
func (d *DiskManager[T]) Initialise(path string) error {
	store, err := openOSFile(path)
	if err != nil {
		return fmt.Errorf("bptree: open %q: %w", path, err)
	}
	d.path = path
	d.sidePath = path + ".free_list.dat"
	return d.initWithStore(store)
}

// InitialiseMemory is initWithStore against an in-memory backing
// file, for tests that want DiskManager's exact record/header
// behavior without touching the filesystem. Any free-list overflow
// past the inline header slots is simply discarded, since there is no
// side file for a memory-backed manager.
func (d *DiskManager[T]) InitialiseMemory() error {
	return d.initWithStore(newMemDiskFile())
}

func (d *DiskManager[T]) initWithStore(store diskFile) error {
	d.store = store
	size, err := store.Size()
	if err != nil {
		return err
	}
	headerSize := int64(d.infoLen * infoSlotSize)
	if size < headerSize {
		if err := store.Truncate(headerSize); err != nil {
			return err
		}
	}
	if d.reuse {
		if err := d.restoreFreeList(); err != nil {
			return err
		}
	}
	return nil
}

func (d *DiskManager[T]) headerSize() int64 {
	return int64(d.infoLen * infoSlotSize)
}

// GetInfo reads header slot idx (1-indexed). An out-of-range idx is a
// silent no-op returning 0.
func (d *DiskManager[T]) GetInfo(idx int) int64 {
	if idx < 1 || idx > d.infoLen {
		return 0
	}
	var buf [infoSlotSize]byte
	off := int64(idx-1) * infoSlotSize
	if _, err := d.store.ReadAt(buf[:], off); err != nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

// WriteInfo writes header slot idx (1-indexed). An out-of-range idx is
// silently ignored rather than returning an error, matching GetInfo.
func (d *DiskManager[T]) WriteInfo(idx int, val int64) {
	if idx < 1 || idx > d.infoLen {
		return
	}
	var buf [infoSlotSize]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(val))
	off := int64(idx-1) * infoSlotSize
	d.store.WriteAt(buf[:], off)
}

// GetRootPos and SetRootPos are the named accessors BufferManager uses
// for the header's root slot.
func (d *DiskManager[T]) GetRootPos() diskpos    { return diskpos(d.GetInfo(infoRootSlot)) }
func (d *DiskManager[T]) SetRootPos(pos diskpos) { d.WriteInfo(infoRootSlot, int64(pos)) }

// Read loads the record at pos.
func (d *DiskManager[T]) Read(pos diskpos) (T, error) {
	var zero T
	buf := make([]byte, d.recSize)
	n, err := d.store.ReadAt(buf, int64(pos))
	if err != nil {
		return zero, fmt.Errorf("bptree: read at %d: %w", pos, err)
	}
	if n != d.recSize {
		return zero, ErrShortRead
	}
	return d.codec.Decode(buf), nil
}

// Update overwrites the record already stored at pos.
func (d *DiskManager[T]) Update(pos diskpos, v T) error {
	buf := make([]byte, d.recSize)
	d.codec.Encode(v, buf)
	n, err := d.store.WriteAt(buf, int64(pos))
	if err != nil {
		return fmt.Errorf("bptree: update at %d: %w", pos, err)
	}
	if n != d.recSize {
		return ErrShortWrite
	}
	return nil
}

// Write appends v to a free slot (recycled from the free list when
// reuse is enabled and one is available, otherwise to the end of the
// file) and returns the offset it was written at.
func (d *DiskManager[T]) Write(v T) (diskpos, error) {
	var pos diskpos
	if d.reuse && !d.free.empty() {
		pos = d.free.pop()
	} else {
		size, err := d.store.Size()
		if err != nil {
			return 0, err
		}
		if size < d.headerSize() {
			size = d.headerSize()
		}
		pos = diskpos(size)
	}
	if err := d.Update(pos, v); err != nil {
		return 0, err
	}
	return pos, nil
}

// Erase returns pos to the free list (if reuse is enabled; otherwise
// it is simply forgotten and the backing space is never reclaimed).
func (d *DiskManager[T]) Erase(pos diskpos) {
	if d.reuse {
		d.free.push(pos)
	}
}

// Clear truncates the file back to an empty header and discards the
// free list.
func (d *DiskManager[T]) Clear() error {
	d.free.clear()
	if err := d.store.Truncate(d.headerSize()); err != nil {
		return err
	}
	for i := 1; i <= d.infoLen; i++ {
		d.WriteInfo(i, 0)
	}
	return nil
}

// Close persists the free list (when reuse is enabled) and releases
// the backing store.
func (d *DiskManager[T]) Close() error {
	if d.closed {
		return nil
	}
	if d.reuse {
		if err := d.flushFreeList(); err != nil {
			return err
		}
	}
	d.closed = true
	return d.store.Close()
}
