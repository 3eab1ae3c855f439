package bptree

import "testing"

// int64Codec is a minimal Codec[int64] used only to exercise
// DiskManager without dragging in Page/KeyPair machinery.
type int64Codec struct{}

func (int64Codec) Size() int { return 8 }
func (int64Codec) Encode(v int64, dst []byte) {
	for i := 0; i < 8; i++ {
		dst[i] = byte(v >> (8 * i))
	}
}
func (int64Codec) Decode(src []byte) int64 {
	var v int64
	for i := 0; i < 8; i++ {
		v |= int64(src[i]) << (8 * i)
	}
	return v
}

func newTestDiskManager(t *testing.T, reuse bool) *DiskManager[int64] {
	t.Helper()
	d := NewDiskManager[int64](int64Codec{}, DefaultInfoLen, reuse)
	if err := d.InitialiseMemory(); err != nil {
		t.Fatalf("InitialiseMemory: %v", err)
	}
	return d
}

func TestDiskManagerWriteReadUpdate(t *testing.T) {
	d := newTestDiskManager(t, true)

	pos, err := d.Write(42)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := d.Read(pos)
	if err != nil || got != 42 {
		t.Fatalf("Read = %d, %v; want 42, nil", got, err)
	}

	if err := d.Update(pos, 99); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err = d.Read(pos)
	if err != nil || got != 99 {
		t.Fatalf("Read after Update = %d, %v; want 99, nil", got, err)
	}
}

func TestDiskManagerRootInfoSlot(t *testing.T) {
	d := newTestDiskManager(t, true)

	if d.GetRootPos() != noPage {
		t.Fatalf("fresh manager root = %d, want noPage", d.GetRootPos())
	}
	d.SetRootPos(diskpos(123))
	if got := d.GetRootPos(); got != 123 {
		t.Fatalf("GetRootPos = %d, want 123", got)
	}
}

func TestDiskManagerInfoSlotOutOfRangeIsNoop(t *testing.T) {
	d := newTestDiskManager(t, true)

	d.WriteInfo(0, 5)
	d.WriteInfo(d.infoLen+1, 5)
	if got := d.GetInfo(0); got != 0 {
		t.Fatalf("GetInfo(0) = %d, want 0", got)
	}
	if got := d.GetInfo(d.infoLen + 1); got != 0 {
		t.Fatalf("GetInfo(infoLen+1) = %d, want 0", got)
	}
}

func TestDiskManagerEraseRecyclesOffset(t *testing.T) {
	d := newTestDiskManager(t, true)

	pos1, _ := d.Write(1)
	pos2, _ := d.Write(2)
	if pos1 == pos2 {
		t.Fatalf("two writes produced the same offset")
	}

	d.Erase(pos2)
	pos3, err := d.Write(3)
	if err != nil {
		t.Fatalf("Write after Erase: %v", err)
	}
	if pos3 != pos2 {
		t.Fatalf("Write after Erase got offset %d, want recycled %d", pos3, pos2)
	}
}

func TestDiskManagerNoReuseNeverRecycles(t *testing.T) {
	d := newTestDiskManager(t, false)

	pos1, _ := d.Write(1)
	d.Erase(pos1)
	pos2, _ := d.Write(2)
	if pos1 == pos2 {
		t.Fatalf("reuse=false manager recycled an erased offset")
	}
}

func TestDiskManagerFreeListSurvivesFlushAndRestore(t *testing.T) {
	d := newTestDiskManager(t, true)

	pos1, _ := d.Write(1)
	pos2, _ := d.Write(2)
	d.Erase(pos1)
	d.Erase(pos2)

	if err := d.flushFreeList(); err != nil {
		t.Fatalf("flushFreeList: %v", err)
	}

	restored := NewDiskManager[int64](int64Codec{}, DefaultInfoLen, true)
	restored.store = d.store
	if err := restored.restoreFreeList(); err != nil {
		t.Fatalf("restoreFreeList: %v", err)
	}
	if restored.free.size() != 2 {
		t.Fatalf("restored free list size = %d, want 2", restored.free.size())
	}
}

func TestDiskManagerClear(t *testing.T) {
	d := newTestDiskManager(t, true)

	pos, _ := d.Write(1)
	d.SetRootPos(pos)
	d.Erase(pos)

	if err := d.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if d.GetRootPos() != noPage {
		t.Fatalf("root survived Clear")
	}
	if !d.free.empty() {
		t.Fatalf("free list survived Clear")
	}
}
