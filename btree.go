package bptree

// BTree is a disk-backed B+ tree over KeyPair[K, V]: it stores
// multiple values per user key by ordering on the full (key, value)
// pair, so Insert/Erase target one specific pair and FindAll walks the
// leaf chain to collect every value under a key. Every internal slot
// holds the maximum KeyPair of the subtree it routes to (not a
// separator/fence key), so insert raises routing keys on its way down
// and erase fixes them on its way back up.
type BTree[K Ordered[K], V Ordered[V]] struct {
	buf       *BufferManager[K, V]
	root      diskpos
	slotCount int
}

// NewBTree opens (or creates) a B+ tree backed by buf, with slotCount
// live entries per page before a split.
func NewBTree[K Ordered[K], V Ordered[V]](buf *BufferManager[K, V], slotCount int) *BTree[K, V] {
	return &BTree[K, V]{
		buf:       buf,
		root:      buf.GetRootPos(),
		slotCount: slotCount,
	}
}

// Close persists the root offset and flushes the buffer manager. The
// tree must not be used afterward.
func (t *BTree[K, V]) Close() error {
	t.buf.SetRootPos(t.root)
	return t.buf.Close()
}

// Find returns the first value stored under key, if any.
func (t *BTree[K, V]) Find(key K) (V, bool) {
	var zero V
	if t.root == noPage {
		return zero, false
	}
	pos := t.root
	cur, err := t.buf.GetPage(pos)
	if err != nil {
		return zero, false
	}
	for cur.Type != PageLeaf {
		k := cur.LowerBoundKey(key)
		pos = cur.Ch[k]
		cur, err = t.buf.GetPage(pos)
		if err != nil {
			return zero, false
		}
	}
	k := cur.LowerBoundKey(key)
	if cur.Size == 0 || cur.Data[k].Key.CompareTo(key) != 0 {
		return zero, false
	}
	return cur.Data[k].Value, true
}

// FindAll returns every value stored under key, in ascending value
// order, by descending to the first matching leaf slot and then
// walking the leaf chain for as long as the key keeps matching.
func (t *BTree[K, V]) FindAll(key K) []V {
	var vals []V
	if t.root == noPage {
		return vals
	}
	pos := t.root
	cur, err := t.buf.GetPage(pos)
	if err != nil {
		return vals
	}
	for cur.Type != PageLeaf {
		k := cur.LowerBoundKey(key)
		pos = cur.Ch[k]
		cur, err = t.buf.GetPage(pos)
		if err != nil {
			return vals
		}
	}
	k := cur.LowerBoundKey(key)
	if cur.Size == 0 || cur.Data[k].Key.CompareTo(key) != 0 {
		return vals
	}
	curk := k
	for curk < cur.Size && cur.Data[curk].Key.CompareTo(key) == 0 {
		vals = append(vals, cur.Data[curk].Value)
		if curk < cur.Size-1 {
			curk++
			continue
		}
		if cur.Right == noPage {
			break
		}
		pos = cur.Right
		cur, err = t.buf.GetPage(pos)
		if err != nil {
			break
		}
		curk = 0
	}
	return vals
}

// Insert adds (key, val) to the tree. A (key, val) pair already
// present is a silent no-op, since the tree is a set of distinct
// KeyPairs, not a multiset.
func (t *BTree[K, V]) Insert(key K, val V) error {
	kp := KeyPair[K, V]{Key: key, Value: val}
	if t.root == noPage {
		newRoot := newPage[K, V](t.slotCount)
		newRoot.Type = PageLeaf
		newRoot.Size = 1
		newRoot.Data[0] = kp
		pos, err := t.buf.InsertPage(newRoot)
		if err != nil {
			return err
		}
		t.root = pos
		return nil
	}

	pos := t.root
	cur, err := t.buf.GetPage(pos)
	if err != nil {
		return err
	}
	for cur.Type != PageLeaf {
		curMut, err := t.buf.GetPageMutable(pos)
		if err != nil {
			return err
		}
		k := curMut.LowerBound(kp)
		if curMut.Data[k].less(kp) {
			curMut.Data[k] = kp
		}
		child := curMut.Ch[k]
		t.buf.FinishUse(pos)
		pos = child
		cur, err = t.buf.GetPage(pos)
		if err != nil {
			return err
		}
	}

	curMut, err := t.buf.GetPageMutable(pos)
	if err != nil {
		return err
	}
	k := curMut.LowerBound(kp)
	if curMut.Size > 0 && curMut.Data[k].equal(kp) {
		t.buf.FinishUse(pos)
		return nil
	}
	if curMut.Size == 0 || curMut.Data[k].less(kp) {
		curMut.Data[k+1] = kp
		curMut.Size++
	} else {
		for i := curMut.Size - 1; i >= k; i-- {
			curMut.Data[i+1] = curMut.Data[i]
		}
		curMut.Data[k] = kp
		curMut.Size++
	}
	needSplit := curMut.Size == t.slotCount
	t.buf.FinishUse(pos)
	if needSplit {
		return t.split(pos)
	}
	return nil
}

// split halves the overfull page at pos, threading the new sibling
// into the leaf chain and raising (or creating) a parent routing
// entry for it. It recurses into the parent when that also overflows.
func (t *BTree[K, V]) split(pos diskpos) error {
	curMut, err := t.buf.GetPageMutable(pos)
	if err != nil {
		return err
	}
	curPos := pos
	parentPos := curMut.Parent

	newp := newPage[K, V](t.slotCount)
	newp.Size = t.slotCount / 2
	newp.Type = curMut.Type
	newp.Parent = parentPos
	newp.Left = curPos
	newp.Right = curMut.Right
	curMut.Size = t.slotCount / 2

	if curMut.Type == PageLeaf {
		for i := 0; i < newp.Size; i++ {
			newp.Data[i] = curMut.Data[i+newp.Size]
		}
	} else {
		for i := 0; i < newp.Size; i++ {
			newp.Data[i] = curMut.Data[i+newp.Size]
			newp.Ch[i] = curMut.Ch[i+newp.Size]
		}
	}
	splitAt := curMut.Back()

	var newpPos diskpos
	if curMut.Type == PageInternal {
		newpPos, err = t.buf.InsertPage(newp)
		if err != nil {
			return err
		}
		for i := 0; i < newp.Size; i++ {
			son, err := t.buf.GetPageMutable(newp.Ch[i])
			if err != nil {
				return err
			}
			son.Parent = newpPos
			t.buf.FinishUse(newp.Ch[i])
		}
	}
	maxPair := newp.Back()

	if parentPos != noFa {
		f, err := t.buf.GetPageMutable(parentPos)
		if err != nil {
			return err
		}
		faPos := f.LowerBound(maxPair)
		for i := f.Size - 1; i >= faPos; i-- {
			f.Data[i+1] = f.Data[i]
			f.Ch[i+1] = f.Ch[i]
		}
		if newpPos == noPage {
			newpPos, err = t.buf.InsertPage(newp)
			if err != nil {
				return err
			}
		}
		f.Data[faPos] = splitAt
		f.Data[faPos+1] = maxPair
		f.Ch[faPos] = curPos
		f.Ch[faPos+1] = newpPos
		f.Size++

		if curMut.Right != noPage {
			rp, err := t.buf.GetPageMutable(curMut.Right)
			if err != nil {
				return err
			}
			rp.Left = newpPos
			t.buf.FinishUse(curMut.Right)
		}
		curMut.Right = newpPos
		needSplitParent := f.Size == t.slotCount
		t.buf.FinishUse(parentPos)
		t.buf.FinishUse(curPos)
		if newpPos != noPage {
			t.buf.FinishUse(newpPos)
		}
		if needSplitParent {
			return t.split(parentPos)
		}
		return nil
	}

	newr := newPage[K, V](t.slotCount)
	newr.Type = PageInternal
	newr.Size = 2
	newr.Data[0] = splitAt
	newr.Data[1] = maxPair
	newr.Ch[0] = curPos
	if newpPos == noPage {
		newpPos, err = t.buf.InsertPage(newp)
		if err != nil {
			return err
		}
	}
	newr.Ch[1] = newpPos
	curMut.Right = newpPos

	rootPos, err := t.buf.InsertPage(newr)
	if err != nil {
		return err
	}
	t.root = rootPos
	curMut.Parent = rootPos

	newpMut, err := t.buf.GetPageMutable(newpPos)
	if err != nil {
		return err
	}
	newpMut.Parent = rootPos
	t.buf.FinishUse(newpPos)
	t.buf.FinishUse(curPos)
	return nil
}

// Erase removes (key, val) from the tree, if present. Fixing the
// routing keys on internal ancestors (they hold the max of their
// subtree, which may have changed) happens on the way back up;
// underflow handling is deferred to balance once the leaf's own size
// is known.
func (t *BTree[K, V]) Erase(key K, val V) error {
	if t.root == noPage {
		return nil
	}
	kp := KeyPair[K, V]{Key: key, Value: val}
	pos := t.root
	cur, err := t.buf.GetPage(pos)
	if err != nil {
		return err
	}
	for cur.Type != PageLeaf {
		k := cur.LowerBound(kp)
		pos = cur.Ch[k]
		cur, err = t.buf.GetPage(pos)
		if err != nil {
			return err
		}
	}

	curMut, err := t.buf.GetPageMutable(pos)
	if err != nil {
		return err
	}
	k := curMut.LowerBound(kp)
	if curMut.Size == 0 || !curMut.Data[k].equal(kp) {
		t.buf.FinishUse(pos)
		return nil
	}
	for i := k; i < curMut.Size-1; i++ {
		curMut.Data[i] = curMut.Data[i+1]
	}
	curMut.Size--
	maxPair := curMut.Back()
	curPos := pos
	fpos := curMut.Parent
	t.buf.FinishUse(curPos)

	for fpos != noFa {
		f, err := t.buf.GetPageMutable(fpos)
		if err != nil {
			return err
		}
		p := f.LowerBound(kp)
		nextParent := f.Parent
		if f.Size > 0 && f.Data[p].equal(kp) {
			f.Data[p] = maxPair
			t.buf.FinishUse(fpos)
			fpos = nextParent
		} else {
			t.buf.FinishUse(fpos)
			break
		}
	}

	checkCur, err := t.buf.GetPage(pos)
	if err != nil {
		return err
	}
	if checkCur.Size < t.slotCount/2 {
		return t.balance(pos)
	}
	return nil
}

// balance restores the minimum-occupancy invariant at pos after an
// erase: collapse the root if it emptied out or dropped to one child,
// otherwise try borrowing a slot from each sibling before finally
// merging with one.
func (t *BTree[K, V]) balance(pos diskpos) error {
	curMut, err := t.buf.GetPageMutable(pos)
	if err != nil {
		return err
	}
	curPos := pos
	if curMut.Parent == noFa {
		if curMut.Size == 0 {
			t.root = noPage
			t.buf.ErasePage(curPos)
			return nil
		}
		if curMut.Type == PageInternal && curMut.Size == 1 {
			child := curMut.Ch[0]
			son, err := t.buf.GetPageMutable(child)
			if err != nil {
				return err
			}
			son.Parent = noFa
			t.buf.FinishUse(child)
			t.root = child
			t.buf.ErasePage(curPos)
			return nil
		}
		t.buf.FinishUse(curPos)
		return nil
	}
	t.buf.FinishUse(curPos)

	ok, err := t.borrowLeft(pos)
	if err != nil || ok {
		return err
	}
	ok, err = t.borrowRight(pos)
	if err != nil || ok {
		return err
	}
	return t.merge(pos)
}

// borrowLeft tries to pull the last entry of pos's left sibling into
// pos. It reports whether the borrow happened.
func (t *BTree[K, V]) borrowLeft(pos diskpos) (bool, error) {
	curMut, err := t.buf.GetPageMutable(pos)
	if err != nil {
		return false, err
	}
	curPos := pos
	if curMut.Parent == noFa || curMut.Size == 0 {
		t.buf.FinishUse(curPos)
		return false, nil
	}
	fpos := curMut.Parent
	maxPair := curMut.Back()
	f, err := t.buf.GetPageMutable(fpos)
	if err != nil {
		return false, err
	}
	k := f.LowerBound(maxPair)
	if k == 0 {
		t.buf.FinishUse(fpos)
		t.buf.FinishUse(curPos)
		return false, nil
	}
	bpos := f.Ch[k-1]
	bro, err := t.buf.GetPageMutable(bpos)
	if err != nil {
		return false, err
	}
	if bro.Size <= t.slotCount/2 {
		t.buf.FinishUse(bpos)
		t.buf.FinishUse(fpos)
		t.buf.FinishUse(curPos)
		return false, nil
	}

	for i := curMut.Size - 1; i >= 0; i-- {
		curMut.Data[i+1] = curMut.Data[i]
		curMut.Ch[i+1] = curMut.Ch[i]
	}
	curMut.Data[0] = bro.Back()
	curMut.Ch[0] = bro.Ch[bro.Size-1]
	curMut.Size++
	bro.Size--

	if curMut.Type == PageInternal {
		son, err := t.buf.GetPageMutable(curMut.Ch[0])
		if err != nil {
			return false, err
		}
		son.Parent = curPos
		t.buf.FinishUse(curMut.Ch[0])
	}
	f.Data[k-1] = bro.Back()
	t.buf.FinishUse(bpos)
	t.buf.FinishUse(fpos)
	t.buf.FinishUse(curPos)
	return true, nil
}

// borrowRight is borrowLeft's mirror image, pulling the first entry of
// pos's right sibling.
func (t *BTree[K, V]) borrowRight(pos diskpos) (bool, error) {
	curMut, err := t.buf.GetPageMutable(pos)
	if err != nil {
		return false, err
	}
	curPos := pos
	if curMut.Parent == noFa || curMut.Size == 0 {
		t.buf.FinishUse(curPos)
		return false, nil
	}
	fpos := curMut.Parent
	maxPair := curMut.Back()
	f, err := t.buf.GetPageMutable(fpos)
	if err != nil {
		return false, err
	}
	k := f.LowerBound(maxPair)
	if k == f.Size-1 {
		t.buf.FinishUse(fpos)
		t.buf.FinishUse(curPos)
		return false, nil
	}
	bpos := f.Ch[k+1]
	bro, err := t.buf.GetPageMutable(bpos)
	if err != nil {
		return false, err
	}
	if bro.Size <= t.slotCount/2 {
		t.buf.FinishUse(bpos)
		t.buf.FinishUse(fpos)
		t.buf.FinishUse(curPos)
		return false, nil
	}

	curMut.Data[curMut.Size] = bro.Data[0]
	curMut.Ch[curMut.Size] = bro.Ch[0]
	curMut.Size++
	for i := 0; i < bro.Size-1; i++ {
		bro.Data[i] = bro.Data[i+1]
		bro.Ch[i] = bro.Ch[i+1]
	}
	bro.Size--

	if curMut.Type == PageInternal {
		son, err := t.buf.GetPageMutable(curMut.Ch[curMut.Size-1])
		if err != nil {
			return false, err
		}
		son.Parent = curPos
		t.buf.FinishUse(curMut.Ch[curMut.Size-1])
	}
	f.Data[k] = curMut.Back()
	t.buf.FinishUse(bpos)
	t.buf.FinishUse(fpos)
	t.buf.FinishUse(curPos)
	return true, nil
}

// merge coalesces pos with a sibling when neither borrow succeeded:
// pos is absorbed into its left sibling when it has one, otherwise pos
// absorbs its right sibling. It then recurses into the parent if
// removing the emptied page's routing entry underflowed it.
func (t *BTree[K, V]) merge(pos diskpos) error {
	curMut, err := t.buf.GetPageMutable(pos)
	if err != nil {
		return err
	}
	curPos := pos
	if curMut.Parent == noFa {
		t.buf.FinishUse(curPos)
		return nil
	}
	maxPair := curMut.Back()
	fpos := curMut.Parent
	f, err := t.buf.GetPageMutable(fpos)
	if err != nil {
		return err
	}
	k := f.LowerBound(maxPair)

	if k != 0 {
		bpos := f.Ch[k-1]
		bro, err := t.buf.GetPageMutable(bpos)
		if err != nil {
			return err
		}
		if curMut.Type == PageInternal {
			for i := 0; i < curMut.Size; i++ {
				son, err := t.buf.GetPageMutable(curMut.Ch[i])
				if err != nil {
					return err
				}
				son.Parent = bpos
				t.buf.FinishUse(curMut.Ch[i])
			}
		}
		for i := 0; i < curMut.Size; i++ {
			bro.Data[bro.Size+i] = curMut.Data[i]
			bro.Ch[bro.Size+i] = curMut.Ch[i]
		}
		bro.Size += curMut.Size
		curMut.Size = 0
		bro.Right = curMut.Right
		if curMut.Right != noPage {
			rp, err := t.buf.GetPageMutable(curMut.Right)
			if err != nil {
				return err
			}
			rp.Left = bpos
			t.buf.FinishUse(curMut.Right)
		}
		for i := k; i < f.Size-1; i++ {
			f.Data[i] = f.Data[i+1]
			f.Ch[i] = f.Ch[i+1]
		}
		f.Size--
		f.Data[k-1] = bro.Back()
		needBalance := f.Size < t.slotCount/2
		t.buf.FinishUse(bpos)
		t.buf.FinishUse(fpos)
		t.buf.ErasePage(curPos)
		if needBalance {
			return t.balance(fpos)
		}
		return nil
	}

	if k != f.Size-1 {
		bpos := f.Ch[k+1]
		bro, err := t.buf.GetPageMutable(bpos)
		if err != nil {
			return err
		}
		if curMut.Type == PageInternal {
			for i := 0; i < bro.Size; i++ {
				son, err := t.buf.GetPageMutable(bro.Ch[i])
				if err != nil {
					return err
				}
				son.Parent = curPos
				t.buf.FinishUse(bro.Ch[i])
			}
		}
		for i := 0; i < bro.Size; i++ {
			curMut.Data[curMut.Size+i] = bro.Data[i]
			curMut.Ch[curMut.Size+i] = bro.Ch[i]
		}
		curMut.Size += bro.Size
		bro.Size = 0
		curMut.Right = bro.Right
		if bro.Right != noPage {
			rp, err := t.buf.GetPageMutable(bro.Right)
			if err != nil {
				return err
			}
			rp.Left = curPos
			t.buf.FinishUse(bro.Right)
		}
		for i := k + 1; i < f.Size-1; i++ {
			f.Data[i] = f.Data[i+1]
			f.Ch[i] = f.Ch[i+1]
		}
		f.Size--
		f.Data[k] = curMut.Back()
		needBalance := f.Size < t.slotCount/2
		t.buf.ErasePage(bpos)
		t.buf.FinishUse(fpos)
		t.buf.FinishUse(curPos)
		if needBalance {
			return t.balance(fpos)
		}
		return nil
	}

	t.buf.FinishUse(fpos)
	t.buf.FinishUse(curPos)
	return nil
}
