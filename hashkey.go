package bptree

// HashKey wraps a byte-comparable value that has no natural total order
// of its own. It derives one from two independent rolling polynomial
// hashes of the raw byte image, using the base/modulus pairs
// (10007, 998244353) and (9973, 1000000007).
//
// Comparing the hash pair alone would treat a double collision as
// equality and silently corrupt multimap ordering, so a hash tie is
// broken by comparing the raw byte image directly: HashKey is a total
// order even when two distinct values collide on both hashes.
// raw is a string, not a []byte, so HashKey stays comparable with ==
// and can be used directly as a KeyPair type parameter.
type HashKey struct {
	raw string
	h1  int64
	h2  int64
}

// NewHashKey computes the rolling hashes over raw and returns a HashKey
// wrapping it.
func NewHashKey(raw []byte) HashKey {
	var h1, h2 int64
	for _, b := range raw {
		h1 = (h1*hashBase1 + int64(b)) % hashMod1
		h2 = (h2*hashBase2 + int64(b)) % hashMod2
	}
	return HashKey{raw: string(raw), h1: h1, h2: h2}
}

// Bytes returns the original byte image the hashes were derived from.
func (h HashKey) Bytes() []byte { return []byte(h.raw) }

// CompareTo orders by the first hash, then the second, then (only on a
// double-hash collision) the raw byte image.
func (h HashKey) CompareTo(other HashKey) int {
	if h.h1 != other.h1 {
		if h.h1 < other.h1 {
			return -1
		}
		return 1
	}
	if h.h2 != other.h2 {
		if h.h2 < other.h2 {
			return -1
		}
		return 1
	}
	n := len(h.raw)
	if len(other.raw) < n {
		n = len(other.raw)
	}
	for i := 0; i < n; i++ {
		if h.raw[i] != other.raw[i] {
			if h.raw[i] < other.raw[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(h.raw) < len(other.raw):
		return -1
	case len(h.raw) > len(other.raw):
		return 1
	default:
		return 0
	}
}
