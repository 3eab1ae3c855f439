package bptree

import "strings"

// FixedString is a fixed-width, NUL-padded byte string used as a key or
// value type in the index (20-char usernames and 64-char generic keys
// downstream). Its on-disk image is always exactly Width() bytes, which
// is what makes Page's byte layout a constant size per tree instance.
// data is a string, not a []byte, so FixedString stays comparable
// with == and can sit directly in a Page's Data array alongside other
// comparable key/value types.
type FixedString struct {
	width int
	data  string
}

// NewFixedString builds a FixedString of the given width from s. s is
// truncated if it overflows width and NUL-padded otherwise.
func NewFixedString(width int, s string) FixedString {
	if width <= 0 {
		panic("bptree: FixedString width must be positive")
	}
	if len(s) >= width {
		return FixedString{width: width, data: s[:width]}
	}
	buf := make([]byte, width)
	copy(buf, s)
	return FixedString{width: width, data: string(buf)}
}

// Width reports the fixed byte width of the string.
func (f FixedString) Width() int { return f.width }

// String returns the value with trailing NUL padding trimmed.
func (f FixedString) String() string {
	return strings.TrimRight(f.data, "\x00")
}

// Bytes returns the raw fixed-width byte image, including padding.
func (f FixedString) Bytes() []byte {
	return []byte(f.data)
}

// CompareTo orders FixedStrings lexicographically over their padded
// byte image; '\x00' padding sorts below any printable byte, so a
// short string sorts before every longer string it prefixes.
func (f FixedString) CompareTo(other FixedString) int {
	if f.data < other.data {
		return -1
	}
	if f.data > other.data {
		return 1
	}
	return 0
}

// fixedStringCodec encodes/decodes FixedString values to/from their
// raw byte image for a fixed width chosen when the tree is opened.
type fixedStringCodec struct {
	width int
}

func (c fixedStringCodec) Size() int { return c.width }

func (c fixedStringCodec) Encode(v FixedString, dst []byte) {
	n := copy(dst, v.data)
	for ; n < c.width; n++ {
		dst[n] = 0
	}
}

func (c fixedStringCodec) Decode(src []byte) FixedString {
	return FixedString{width: c.width, data: string(src[:c.width])}
}

// NewFixedStringCodec returns the Codec for FixedStrings of the given
// width, for callers outside this package building a PageCodec over a
// FixedString key or value type.
func NewFixedStringCodec(width int) Codec[FixedString] {
	return fixedStringCodec{width: width}
}
