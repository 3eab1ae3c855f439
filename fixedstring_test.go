package bptree

import "testing"

func TestFixedStringPadAndTruncate(t *testing.T) {
	tests := []struct {
		name  string
		width int
		in    string
		want  string
	}{
		{"short is padded", 8, "abc", "abc"},
		{"exact width kept", 4, "abcd", "abcd"},
		{"overflow truncated", 4, "abcdef", "abcd"},
		{"empty stays empty", 8, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFixedString(tt.width, tt.in)
			if got := f.String(); got != tt.want {
				t.Fatalf("NewFixedString(%d, %q).String() = %q, want %q", tt.width, tt.in, got, tt.want)
			}
			if len(f.Bytes()) != tt.width {
				t.Fatalf("byte image length = %d, want %d", len(f.Bytes()), tt.width)
			}
		})
	}
}

func TestFixedStringCompareTo(t *testing.T) {
	a := NewFixedString(8, "apple")
	b := NewFixedString(8, "banana")
	if a.CompareTo(b) >= 0 {
		t.Fatalf("apple should sort before banana")
	}
	if b.CompareTo(a) <= 0 {
		t.Fatalf("banana should sort after apple")
	}
	if a.CompareTo(NewFixedString(8, "apple")) != 0 {
		t.Fatalf("equal strings should compare equal")
	}
	// A shorter string is a prefix of a longer one under NUL padding,
	// so it must sort first, matching strcmp over the padded buffers.
	if NewFixedString(8, "app").CompareTo(a) >= 0 {
		t.Fatalf("prefix should sort before its extension")
	}
}

func TestFixedStringCodecRoundTrip(t *testing.T) {
	codec := NewFixedStringCodec(8)
	buf := make([]byte, codec.Size())
	orig := NewFixedString(8, "hello")
	codec.Encode(orig, buf)
	if got := codec.Decode(buf); got != orig {
		t.Fatalf("round trip = %v, want %v", got, orig)
	}
}
