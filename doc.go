// Package bptree implements a persistent, disk-backed, multi-value
// B+ tree index: a DiskManager doing record-oriented I/O against one
// flat file, a BufferManager caching pages with LRU eviction and a
// pin discipline, and a BTree layering ordered multimap semantics on
// top via composite (key, value) ordering with split, borrow and
// merge rebalancing.
//
// The engine is strictly single-threaded. None of its types are safe
// for concurrent use; callers needing concurrency must serialize
// access themselves.
package bptree
