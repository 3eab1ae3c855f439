package bptree

import "container/list"

// cacheEntry is one resident page: its live image, whether it has
// been mutated since it was loaded, and the entry's node in the LRU
// list so promote/evict can splice it in O(1).
type cacheEntry[K Ordered[K], V Ordered[V]] struct {
	page  *Page[K, V]
	dirty bool
	lruEl *list.Element
}

// BufferManager is the cache sitting between the B+ tree operations
// and DiskManager: pages are addressed by their on-disk offset, kept
// warm in an LRU list, and written back only when evicted or flushed.
// GetPage hands out an independent clone so a caller can't corrupt the
// cached copy by mutating it; GetPageMutable hands out (and pins) the
// live pointer, already marked dirty, for callers that intend to
// change the page and will call FinishUse themselves.
type BufferManager[K Ordered[K], V Ordered[V]] struct {
	disk     *DiskManager[*Page[K, V]]
	cache    map[diskpos]*cacheEntry[K, V]
	lru      *list.List
	inUse    *pinSet
	capacity int
}

// NewBufferManager wraps disk with an LRU cache of capacity pages; the
// cache grows past capacity only while every resident page is pinned.
func NewBufferManager[K Ordered[K], V Ordered[V]](disk *DiskManager[*Page[K, V]], capacity int) *BufferManager[K, V] {
	if capacity < 1 {
		capacity = DefaultCacheCapacity
	}
	return &BufferManager[K, V]{
		disk:     disk,
		cache:    make(map[diskpos]*cacheEntry[K, V]),
		lru:      list.New(),
		inUse:    newPinSet(),
		capacity: capacity,
	}
}

// evict writes back and drops the least-recently-used page that is
// not currently pinned. If every cached page is pinned, it is a no-op:
// the cache is allowed to temporarily exceed capacity rather than
// evict a page a caller is actively using.
func (b *BufferManager[K, V]) evict() {
	for el := b.lru.Back(); el != nil; el = el.Prev() {
		pos := el.Value.(diskpos)
		if b.inUse.isPinned(pos) {
			continue
		}
		entry := b.cache[pos]
		if entry.dirty {
			b.disk.Update(pos, entry.page)
		}
		b.lru.Remove(el)
		delete(b.cache, pos)
		return
	}
}

func (b *BufferManager[K, V]) promote(pos diskpos, entry *cacheEntry[K, V]) {
	b.lru.MoveToFront(entry.lruEl)
}

func (b *BufferManager[K, V]) load(pos diskpos) (*cacheEntry[K, V], error) {
	page, err := b.disk.Read(pos)
	if err != nil {
		return nil, err
	}
	entry := &cacheEntry[K, V]{page: page}
	entry.lruEl = b.lru.PushFront(pos)
	b.cache[pos] = entry
	return entry, nil
}

// GetPage returns a read-only snapshot of the page at pos, loading it
// from disk (and evicting if the cache is full) on a miss.
func (b *BufferManager[K, V]) GetPage(pos diskpos) (*Page[K, V], error) {
	if entry, ok := b.cache[pos]; ok {
		b.promote(pos, entry)
		return entry.page.clone(), nil
	}
	if len(b.cache) >= b.capacity {
		b.evict()
	}
	entry, err := b.load(pos)
	if err != nil {
		return nil, err
	}
	return entry.page.clone(), nil
}

// GetPageMutable returns the live cached page at pos, pinned against
// eviction and marked dirty. The caller must call FinishUse(pos) once
// it is done mutating the returned page.
func (b *BufferManager[K, V]) GetPageMutable(pos diskpos) (*Page[K, V], error) {
	if entry, ok := b.cache[pos]; ok {
		b.promote(pos, entry)
		entry.dirty = true
		b.inUse.pin(pos)
		return entry.page, nil
	}
	if len(b.cache) >= b.capacity {
		b.evict()
	}
	entry, err := b.load(pos)
	if err != nil {
		return nil, err
	}
	entry.dirty = true
	b.inUse.pin(pos)
	return entry.page, nil
}

// MarkDirty flags the cached page at pos (if resident) to be written
// back on eviction or Flush.
func (b *BufferManager[K, V]) MarkDirty(pos diskpos) {
	if entry, ok := b.cache[pos]; ok {
		entry.dirty = true
	}
}

// InsertPage writes a brand-new page to disk and seeds the cache with
// it, returning its offset.
func (b *BufferManager[K, V]) InsertPage(page *Page[K, V]) (diskpos, error) {
	if len(b.cache) >= b.capacity {
		b.evict()
	}
	pos, err := b.disk.Write(page)
	if err != nil {
		return 0, err
	}
	entry := &cacheEntry[K, V]{page: page}
	entry.lruEl = b.lru.PushFront(pos)
	b.cache[pos] = entry
	return pos, nil
}

// FinishUse releases the pin taken by GetPageMutable, making pos
// eligible for eviction again.
func (b *BufferManager[K, V]) FinishUse(pos diskpos) {
	b.inUse.unpin(pos)
}

// ErasePage drops pos from the cache without writing it back and
// returns its offset to the disk manager's free list, for a page a
// tree operation has just emptied (a merge's absorbed sibling, or a
// root collapsed down to its sole remaining child). The caller must
// hold no further interest in the page's contents.
func (b *BufferManager[K, V]) ErasePage(pos diskpos) {
	if entry, ok := b.cache[pos]; ok {
		b.lru.Remove(entry.lruEl)
		delete(b.cache, pos)
	}
	b.inUse.unpin(pos)
	b.disk.Erase(pos)
}

// Flush writes back every dirty cached page and drops the cache.
func (b *BufferManager[K, V]) Flush() error {
	for pos, entry := range b.cache {
		if entry.dirty {
			if err := b.disk.Update(pos, entry.page); err != nil {
				return err
			}
			entry.dirty = false
		}
	}
	b.cache = make(map[diskpos]*cacheEntry[K, V])
	b.lru.Init()
	b.inUse.reset()
	return nil
}

// GetRootPos and SetRootPos proxy the disk manager's header root slot.
func (b *BufferManager[K, V]) GetRootPos() diskpos    { return b.disk.GetRootPos() }
func (b *BufferManager[K, V]) SetRootPos(pos diskpos) { b.disk.SetRootPos(pos) }

// Close flushes and closes the underlying disk manager.
func (b *BufferManager[K, V]) Close() error {
	if err := b.Flush(); err != nil {
		return err
	}
	return b.disk.Close()
}
