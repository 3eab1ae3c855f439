package bptree

// Page is the in-memory image of one on-disk B+ tree node: a sorted
// KeyPair array plus, for internal nodes, a parallel child-offset
// array. Every page in a given tree is serialized to the same fixed
// byte size, sized for slotCount+2 live slots so a page can briefly
// hold one extra entry before being split.
type Page[K Ordered[K], V Ordered[V]] struct {
	Type PageType

	// Size is the number of live entries in Data (and, for internal
	// pages, in Ch).
	Size int

	// Data holds the page's KeyPair entries, Data[0:Size] sorted
	// ascending by KeyPair.CompareTo.
	Data []KeyPair[K, V]

	// Ch holds child page offsets for internal nodes; unused (but
	// still allocated, for uniform serialization) on leaves.
	Ch []diskpos

	// Parent is the owning internal node's offset, or noFa at the root.
	Parent diskpos

	// Left and Right thread the leaf chain for range iteration. For
	// internal nodes these are maintained best-effort only; routing
	// between internal siblings always goes through Parent.
	Left, Right diskpos
}

// newPage allocates a zeroed page with slot capacity for slotCount+2
// entries, the reserved overflow slot used during insertion-before-split.
func newPage[K Ordered[K], V Ordered[V]](slotCount int) *Page[K, V] {
	return &Page[K, V]{
		Data: make([]KeyPair[K, V], slotCount+2),
		Ch:   make([]diskpos, slotCount+2),
		Left: noPage, Right: noPage, Parent: noFa,
	}
}

// LowerBound returns the smallest index i in Data[0:Size) with
// Data[i] >= kp. When every live entry is less than kp, it returns
// Size-1 (the "max slot" sentinel): callers distinguish "found" from
// "would-insert-after" by comparing Data[i] to kp themselves.
func (p *Page[K, V]) LowerBound(kp KeyPair[K, V]) int {
	lo, hi, ans := 0, p.Size-1, p.Size-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if p.Data[mid].less(kp) {
			lo = mid + 1
		} else {
			ans = mid
			hi = mid - 1
		}
	}
	return ans
}

// LowerBoundKey is LowerBound restricted to comparing the user-key part
// of each slot, used by the read-only descents (find, find_all) that
// never need to touch the value half of the ordering.
func (p *Page[K, V]) LowerBoundKey(key K) int {
	lo, hi, ans := 0, p.Size-1, p.Size-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if p.Data[mid].Key.CompareTo(key) < 0 {
			lo = mid + 1
		} else {
			ans = mid
			hi = mid - 1
		}
	}
	return ans
}

// Front returns the first live KeyPair, or the zero KeyPair if the page
// is empty. Callers must not rely on the zero value meaning anything;
// check Size > 0 first.
func (p *Page[K, V]) Front() KeyPair[K, V] {
	if p.Size == 0 {
		var zero KeyPair[K, V]
		return zero
	}
	return p.Data[0]
}

// Back returns the last live KeyPair (the subtree's maximum), or the
// zero KeyPair if the page is empty.
func (p *Page[K, V]) Back() KeyPair[K, V] {
	if p.Size == 0 {
		var zero KeyPair[K, V]
		return zero
	}
	return p.Data[p.Size-1]
}

func (p *Page[K, V]) overfull(slotCount int) bool {
	return p.Size == slotCount
}

func (p *Page[K, V]) underfull(slotCount int) bool {
	return p.Size < slotCount/2
}

// clone makes an independent deep copy of p, used by BufferManager's
// get_page (read-only handle) so a caller cannot corrupt the cached,
// possibly-pinned copy by mutating through what is meant to be a
// read view.
func (p *Page[K, V]) clone() *Page[K, V] {
	cp := *p
	cp.Data = append([]KeyPair[K, V](nil), p.Data...)
	cp.Ch = append([]diskpos(nil), p.Ch...)
	return &cp
}
