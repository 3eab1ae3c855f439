package bptree

// pinSet tracks which cached pages are currently held via a mutable
// handle and therefore ineligible for eviction. It replaces the
// multi-mode reader/writer latch table of a concurrent B-link tree:
// this engine is single-threaded (see package doc), so the only hazard
// left to guard against is a buffer eviction reclaiming a page the
// current call chain is still mutating.
//
// Pinning is set membership, not a reference count: a page fetched
// mutably more than once within one call chain is released by the
// first unpin for that offset.
type pinSet struct {
	held map[diskpos]struct{}
}

func newPinSet() *pinSet {
	return &pinSet{held: make(map[diskpos]struct{})}
}

func (p *pinSet) pin(pos diskpos) {
	p.held[pos] = struct{}{}
}

func (p *pinSet) unpin(pos diskpos) {
	delete(p.held, pos)
}

func (p *pinSet) isPinned(pos diskpos) bool {
	_, ok := p.held[pos]
	return ok
}

func (p *pinSet) reset() {
	p.held = make(map[diskpos]struct{})
}
