package bptree

import (
	"encoding/binary"
	"os"
)

// inlineFreeCapacity is how many free-list entries fit directly in the
// header, in slots freeListBase..infoLen.
func (d *DiskManager[T]) inlineFreeCapacity() int {
	return d.infoLen - freeListBase + 1
}

// flushFreeList writes the current free list into the header, falling
// over into the side file <path>.free_list.dat for whatever does not
// fit inline. A memory-backed manager (empty sidePath) has nowhere to
// put an overflow and simply drops it, so a huge free list on an
// in-memory test double is only ever recovered up to inline capacity.
func (d *DiskManager[T]) flushFreeList() error {
	n := d.free.size()
	d.WriteInfo(infoFreeSizeSlot, int64(n))

	cap := d.inlineFreeCapacity()
	inline := n
	if inline > cap {
		inline = cap
	}
	for i := 0; i < cap; i++ {
		var v int64
		if i < inline {
			v = int64(d.free.offsets[i])
		}
		d.WriteInfo(freeListBase+i, v)
	}

	overflow := d.free.offsets[inline:]
	if len(overflow) == 0 {
		if d.sidePath != "" {
			os.Remove(d.sidePath)
		}
		return nil
	}
	if d.sidePath == "" {
		return nil
	}
	buf := make([]byte, len(overflow)*infoSlotSize)
	for i, pos := range overflow {
		binary.LittleEndian.PutUint64(buf[i*infoSlotSize:], uint64(pos))
	}
	return os.WriteFile(d.sidePath, buf, 0644)
}

// restoreFreeList reloads the free list persisted by flushFreeList. A
// side file that is missing or fails to open is treated as "no
// overflow to restore": the inline entries are kept and the rest of
// the free list is silently abandoned.
func (d *DiskManager[T]) restoreFreeList() error {
	n := int(d.GetInfo(infoFreeSizeSlot))
	if n <= 0 {
		d.free.clear()
		return nil
	}
	cap := d.inlineFreeCapacity()
	inline := n
	if inline > cap {
		inline = cap
	}
	offsets := make([]diskpos, 0, n)
	for i := 0; i < inline; i++ {
		offsets = append(offsets, diskpos(d.GetInfo(freeListBase+i)))
	}

	remaining := n - inline
	if remaining > 0 && d.sidePath != "" {
		data, err := os.ReadFile(d.sidePath)
		if err == nil {
			want := remaining * infoSlotSize
			if len(data) > want {
				data = data[:want]
			}
			for off := 0; off+infoSlotSize <= len(data); off += infoSlotSize {
				offsets = append(offsets, diskpos(binary.LittleEndian.Uint64(data[off:])))
			}
		}
	}
	d.free.offsets = offsets
	return nil
}
