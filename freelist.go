package bptree

// freeList is a stack of offsets freed by erase and available for reuse
// by the next allocation. A slice gives LIFO push/pop with no extra
// bookkeeping and persists as a flat array.
type freeList struct {
	offsets []diskpos
}

func (f *freeList) push(pos diskpos) {
	f.offsets = append(f.offsets, pos)
}

func (f *freeList) pop() diskpos {
	n := len(f.offsets)
	pos := f.offsets[n-1]
	f.offsets = f.offsets[:n-1]
	return pos
}

func (f *freeList) empty() bool {
	return len(f.offsets) == 0
}

func (f *freeList) size() int {
	return len(f.offsets)
}

func (f *freeList) clear() {
	f.offsets = f.offsets[:0]
}
