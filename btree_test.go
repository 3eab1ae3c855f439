package bptree

import (
	"fmt"
	"path/filepath"
	"sort"
	"testing"
)

func newTestTree(t *testing.T, slotCount int) *BTree[FixedString, FixedString] {
	t.Helper()
	codec := NewPageCodec[FixedString, FixedString](slotCount, fixedStringCodec{width: 8}, fixedStringCodec{width: 8})
	disk := NewDiskManager[*Page[FixedString, FixedString]](codec, DefaultInfoLen, true)
	if err := disk.InitialiseMemory(); err != nil {
		t.Fatalf("InitialiseMemory: %v", err)
	}
	buf := NewBufferManager[FixedString, FixedString](disk, DefaultCacheCapacity)
	return NewBTree[FixedString, FixedString](buf, slotCount)
}

func fs(s string) FixedString { return NewFixedString(8, s) }

func TestBTreeInsertFind(t *testing.T) {
	tree := newTestTree(t, 4)

	if err := tree.Insert(fs("b"), fs("1")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tree.Insert(fs("a"), fs("1")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if got, ok := tree.Find(fs("a")); !ok || got != fs("1") {
		t.Fatalf("Find(a) = %v, %v; want 1, true", got, ok)
	}
	if _, ok := tree.Find(fs("z")); ok {
		t.Fatalf("Find(z) should miss")
	}
}

func TestBTreeInsertDuplicateIsNoop(t *testing.T) {
	tree := newTestTree(t, 4)
	if err := tree.Insert(fs("a"), fs("1")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tree.Insert(fs("a"), fs("1")); err != nil {
		t.Fatalf("Insert duplicate: %v", err)
	}
	vals := tree.FindAll(fs("a"))
	if len(vals) != 1 {
		t.Fatalf("FindAll(a) = %v, want exactly one value", vals)
	}
}

func TestBTreeFindAllMultipleValuesPerKey(t *testing.T) {
	tree := newTestTree(t, 4)
	for _, v := range []string{"3", "1", "2"} {
		if err := tree.Insert(fs("a"), fs(v)); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	vals := tree.FindAll(fs("a"))
	got := make([]string, len(vals))
	for i, v := range vals {
		got[i] = v.String()
	}
	want := []string{"1", "2", "3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FindAll(a) = %v, want %v", got, want)
		}
	}

	if err := tree.Erase(fs("a"), fs("2")); err != nil {
		t.Fatalf("Erase(a,2): %v", err)
	}
	vals = tree.FindAll(fs("a"))
	if len(vals) != 2 || vals[0] != fs("1") || vals[1] != fs("3") {
		t.Fatalf("FindAll(a) after erasing the middle value = %v, want [1 3]", vals)
	}

	for _, v := range []string{"1", "3"} {
		if err := tree.Erase(fs("a"), fs(v)); err != nil {
			t.Fatalf("Erase(a,%s): %v", v, err)
		}
	}
	if vals := tree.FindAll(fs("a")); len(vals) != 0 {
		t.Fatalf("FindAll(a) after erasing every value = %v, want empty", vals)
	}
}

func TestBTreeSplitsAndKeepsOrderAcrossManyEntries(t *testing.T) {
	tree := newTestTree(t, 4)

	const n = 200
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%04d", i)
		keys = append(keys, k)
		if err := tree.Insert(fs(k), fs("v")); err != nil {
			t.Fatalf("Insert(%s): %v", k, err)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, ok := tree.Find(fs(k)); !ok {
			t.Fatalf("Find(%s) missing after bulk insert", k)
		}
	}
	if _, ok := tree.Find(fs("missing!")); ok {
		t.Fatalf("Find of absent key should miss")
	}
}

func TestBTreeEraseRemovesEntry(t *testing.T) {
	tree := newTestTree(t, 4)
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		if err := tree.Insert(fs(k), fs("1")); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	if err := tree.Erase(fs("c"), fs("1")); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	if _, ok := tree.Find(fs("c")); ok {
		t.Fatalf("Find(c) should miss after Erase")
	}
	for _, k := range []string{"a", "b", "d", "e"} {
		if _, ok := tree.Find(fs(k)); !ok {
			t.Fatalf("Find(%s) should still hit after unrelated erase", k)
		}
	}
}

func TestBTreeEraseMissingIsNoop(t *testing.T) {
	tree := newTestTree(t, 4)
	if err := tree.Insert(fs("a"), fs("1")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tree.Erase(fs("z"), fs("9")); err != nil {
		t.Fatalf("Erase missing: %v", err)
	}
	if _, ok := tree.Find(fs("a")); !ok {
		t.Fatalf("unrelated entry should survive a no-op erase")
	}
}

func TestBTreeEraseTriggersMergeAcrossManyEntries(t *testing.T) {
	tree := newTestTree(t, 4)

	const n = 100
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%04d", i)
		keys = append(keys, k)
		if err := tree.Insert(fs(k), fs("v")); err != nil {
			t.Fatalf("Insert(%s): %v", k, err)
		}
	}

	for i := 0; i < n; i += 2 {
		k := keys[i]
		if err := tree.Erase(fs(k), fs("v")); err != nil {
			t.Fatalf("Erase(%s): %v", k, err)
		}
	}

	for i, k := range keys {
		_, ok := tree.Find(fs(k))
		wantHit := i%2 != 0
		if ok != wantHit {
			t.Fatalf("Find(%s) = %v, want %v", k, ok, wantHit)
		}
	}
}

func TestBTreeMergeRecyclesAbsorbedSiblingPage(t *testing.T) {
	tree := newTestTree(t, 4)

	const n = 100
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%04d", i)
		keys = append(keys, k)
		if err := tree.Insert(fs(k), fs("v")); err != nil {
			t.Fatalf("Insert(%s): %v", k, err)
		}
	}
	if tree.buf.disk.free.size() != 0 {
		t.Fatalf("free list should be empty before any erase")
	}

	for _, k := range keys {
		if err := tree.Erase(fs(k), fs("v")); err != nil {
			t.Fatalf("Erase(%s): %v", k, err)
		}
	}
	if tree.buf.disk.free.size() == 0 {
		t.Fatalf("erasing every entry should have recycled at least one merged-away page")
	}

	fileLenBefore, err := tree.buf.disk.store.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%04d", i)
		if err := tree.Insert(fs(k), fs("v2")); err != nil {
			t.Fatalf("reinsert(%s): %v", k, err)
		}
	}
	fileLenAfter, err := tree.buf.disk.store.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if fileLenAfter > fileLenBefore {
		t.Fatalf("reinsert should reuse recycled pages before growing the file: before=%d after=%d", fileLenBefore, fileLenAfter)
	}
}

func TestBTreeSmallCacheSurvivesEvictionDuringSplits(t *testing.T) {
	// A 4-page cache under a 4-slot page size forces evictions in the
	// middle of multi-level splits and merges: any page a split still
	// holds mutable must be pinned, or its writeback/reload would see
	// stale contents.
	codec := NewPageCodec[FixedString, FixedString](4, fixedStringCodec{width: 8}, fixedStringCodec{width: 8})
	disk := NewDiskManager[*Page[FixedString, FixedString]](codec, DefaultInfoLen, true)
	if err := disk.InitialiseMemory(); err != nil {
		t.Fatalf("InitialiseMemory: %v", err)
	}
	buf := NewBufferManager[FixedString, FixedString](disk, 4)
	tree := NewBTree[FixedString, FixedString](buf, 4)

	const n = 200
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%04d", i)
		if err := tree.Insert(fs(k), fs("v")); err != nil {
			t.Fatalf("Insert(%s): %v", k, err)
		}
	}
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%04d", i)
		if _, ok := tree.Find(fs(k)); !ok {
			t.Fatalf("Find(%s) missing after inserts under a tiny cache", k)
		}
	}
	for i := 0; i < n; i += 2 {
		k := fmt.Sprintf("k%04d", i)
		if err := tree.Erase(fs(k), fs("v")); err != nil {
			t.Fatalf("Erase(%s): %v", k, err)
		}
	}
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%04d", i)
		_, ok := tree.Find(fs(k))
		if want := i%2 != 0; ok != want {
			t.Fatalf("Find(%s) = %v, want %v", k, ok, want)
		}
	}
}

func TestBTreeDurabilityAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.dat")
	codec := NewPageCodec[FixedString, FixedString](4, fixedStringCodec{width: 8}, fixedStringCodec{width: 8})

	open := func() *BTree[FixedString, FixedString] {
		disk := NewDiskManager[*Page[FixedString, FixedString]](codec, DefaultInfoLen, true)
		if err := disk.Initialise(path); err != nil {
			t.Fatalf("Initialise: %v", err)
		}
		buf := NewBufferManager[FixedString, FixedString](disk, DefaultCacheCapacity)
		return NewBTree[FixedString, FixedString](buf, 4)
	}

	tree := open()
	const n = 50
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%04d", i)
		if err := tree.Insert(fs(k), fs("v")); err != nil {
			t.Fatalf("Insert(%s): %v", k, err)
		}
	}
	for _, v := range []string{"1", "2", "3"} {
		if err := tree.Insert(fs("multi"), fs(v)); err != nil {
			t.Fatalf("Insert(multi,%s): %v", v, err)
		}
	}
	if err := tree.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	tree = open()
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%04d", i)
		if got, ok := tree.Find(fs(k)); !ok || got != fs("v") {
			t.Fatalf("Find(%s) after reopen = %v, %v; want v, true", k, got, ok)
		}
	}
	vals := tree.FindAll(fs("multi"))
	if len(vals) != 3 {
		t.Fatalf("FindAll(multi) after reopen = %v, want 3 values", vals)
	}
	if _, ok := tree.Find(fs("absent")); ok {
		t.Fatalf("Find of an absent key should still miss after reopen")
	}
	if err := tree.Close(); err != nil {
		t.Fatalf("Close after reopen: %v", err)
	}
}

func TestBTreeEraseEverythingCollapsesRoot(t *testing.T) {
	tree := newTestTree(t, 4)
	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, k := range keys {
		if err := tree.Insert(fs(k), fs("1")); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	for _, k := range keys {
		if err := tree.Erase(fs(k), fs("1")); err != nil {
			t.Fatalf("Erase(%s): %v", k, err)
		}
	}
	if tree.root != noPage {
		t.Fatalf("root = %v, want noPage after erasing every entry", tree.root)
	}
	for _, k := range keys {
		if _, ok := tree.Find(fs(k)); ok {
			t.Fatalf("Find(%s) should miss on an empty tree", k)
		}
	}
}
