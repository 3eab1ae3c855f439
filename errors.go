package bptree

import "errors"

// Sentinel errors of the storage layers. DiskManager returns
// ErrShortRead and ErrShortWrite for a short read or write on a
// record; ErrInfoIndex, ErrClosed and ErrBadPageType are declared but
// no function in this package returns them. The tree's structural
// operations (find/insert/erase and their split/borrow/merge helpers)
// treat malformed keys and missing entries as silent no-ops; the only
// errors they return are DiskManager/BufferManager I/O faults passed
// up unchanged.
var (
	ErrShortRead   = errors.New("bptree: short read at offset")
	ErrShortWrite  = errors.New("bptree: short write at offset")
	ErrInfoIndex   = errors.New("bptree: info slot index out of range")
	ErrClosed      = errors.New("bptree: disk manager is closed")
	ErrBadPageType = errors.New("bptree: page has invalid type")
)
