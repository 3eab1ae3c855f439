package bptree

import "encoding/binary"

// PageCodec serializes a Page[K, V] to a fixed-size little-endian byte
// image: a small header (type, size, parent, left, right) followed by
// the slotCount+2 KeyPair slots and, for uniformity across leaf and
// internal pages, the parallel slotCount+2 child-offset array. Every
// page in one tree file is exactly Size() bytes, which is what lets
// DiskManager read and write any page as one fixed-size record at its
// byte offset.
type PageCodec[K Ordered[K], V Ordered[V]] struct {
	slotCount int
	kpCodec   keyPairCodec[K, V]
}

const pageHeaderSize = 1 + 8 + 8 + 8 + 8 // type + size + parent + left + right

func NewPageCodec[K Ordered[K], V Ordered[V]](slotCount int, keyCodec Codec[K], valCodec Codec[V]) PageCodec[K, V] {
	return PageCodec[K, V]{
		slotCount: slotCount,
		kpCodec:   keyPairCodec[K, V]{keyCodec: keyCodec, valCodec: valCodec},
	}
}

func (c PageCodec[K, V]) Size() int {
	slots := c.slotCount + 2
	return pageHeaderSize + slots*c.kpCodec.Size() + slots*8
}

func (c PageCodec[K, V]) Encode(v *Page[K, V], dst []byte) {
	dst[0] = byte(v.Type)
	binary.LittleEndian.PutUint64(dst[1:9], uint64(v.Size))
	binary.LittleEndian.PutUint64(dst[9:17], uint64(v.Parent))
	binary.LittleEndian.PutUint64(dst[17:25], uint64(v.Left))
	binary.LittleEndian.PutUint64(dst[25:33], uint64(v.Right))

	off := pageHeaderSize
	slots := c.slotCount + 2
	kpSize := c.kpCodec.Size()
	for i := 0; i < slots; i++ {
		c.kpCodec.Encode(v.Data[i], dst[off:off+kpSize])
		off += kpSize
	}
	for i := 0; i < slots; i++ {
		binary.LittleEndian.PutUint64(dst[off:off+8], uint64(v.Ch[i]))
		off += 8
	}
}

func (c PageCodec[K, V]) Decode(src []byte) *Page[K, V] {
	p := &Page[K, V]{
		Type:   PageType(src[0]),
		Size:   int(binary.LittleEndian.Uint64(src[1:9])),
		Parent: diskpos(binary.LittleEndian.Uint64(src[9:17])),
		Left:   diskpos(binary.LittleEndian.Uint64(src[17:25])),
		Right:  diskpos(binary.LittleEndian.Uint64(src[25:33])),
	}
	slots := c.slotCount + 2
	kpSize := c.kpCodec.Size()
	p.Data = make([]KeyPair[K, V], slots)
	p.Ch = make([]diskpos, slots)

	off := pageHeaderSize
	for i := 0; i < slots; i++ {
		p.Data[i] = c.kpCodec.Decode(src[off : off+kpSize])
		off += kpSize
	}
	for i := 0; i < slots; i++ {
		p.Ch[i] = diskpos(binary.LittleEndian.Uint64(src[off : off+8]))
		off += 8
	}
	return p
}
