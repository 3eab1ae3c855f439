package bptree

// KeyPair is the effective ordering key held in every page slot: a
// user-facing Key paired with a Value, ordered lexicographically (Key
// first, Value breaks ties). This is what lets the tree hold many
// values per user-key while keeping a single total order over slots.
type KeyPair[K Ordered[K], V Ordered[V]] struct {
	Key   K
	Value V
}

// CompareTo implements Ordered for KeyPair itself, so a page's slot
// array is just a sorted []KeyPair[K, V].
func (kp KeyPair[K, V]) CompareTo(other KeyPair[K, V]) int {
	if c := kp.Key.CompareTo(other.Key); c != 0 {
		return c
	}
	return kp.Value.CompareTo(other.Value)
}

func (kp KeyPair[K, V]) equal(other KeyPair[K, V]) bool {
	return kp.CompareTo(other) == 0
}

func (kp KeyPair[K, V]) less(other KeyPair[K, V]) bool {
	return kp.CompareTo(other) < 0
}

// Codec is the explicit byte-image encode/decode contract a type needs
// to live inside a Page or be written through a DiskManager. Go gives
// no trivially-copyable layout guarantee across types, so every stored
// type declares its own fixed-width codec, with a pinned little-endian
// layout.
type Codec[T any] interface {
	// Size is the fixed number of bytes T always encodes to.
	Size() int
	// Encode writes T's byte image into dst, which is exactly Size()
	// bytes long.
	Encode(v T, dst []byte)
	// Decode reads a T back out of src, which is exactly Size() bytes.
	Decode(src []byte) T
}

// keyPairCodec composes a key codec and a value codec into a codec for
// the composite KeyPair.
type keyPairCodec[K Ordered[K], V Ordered[V]] struct {
	keyCodec Codec[K]
	valCodec Codec[V]
}

func (c keyPairCodec[K, V]) Size() int {
	return c.keyCodec.Size() + c.valCodec.Size()
}

func (c keyPairCodec[K, V]) Encode(v KeyPair[K, V], dst []byte) {
	ks := c.keyCodec.Size()
	c.keyCodec.Encode(v.Key, dst[:ks])
	c.valCodec.Encode(v.Value, dst[ks:ks+c.valCodec.Size()])
}

func (c keyPairCodec[K, V]) Decode(src []byte) KeyPair[K, V] {
	ks := c.keyCodec.Size()
	return KeyPair[K, V]{
		Key:   c.keyCodec.Decode(src[:ks]),
		Value: c.valCodec.Decode(src[ks : ks+c.valCodec.Size()]),
	}
}
