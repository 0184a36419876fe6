package tracer

import "sync"

// barrier is a reusable rendezvous for a fixed number of parties. Each
// Wait blocks until all parties have called it, then releases them together
// and rearms for the next generation. Crossing it is a happens-before edge
// between every party's writes before Wait and every party's reads after it.
type barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	parties int
	waiting int
	gen     uint64
}

func newBarrier(parties int) *barrier {
	b := &barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks until every party of the current generation has arrived.
func (b *barrier) Wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.gen
	b.waiting++
	if b.waiting == b.parties {
		b.waiting = 0
		b.gen++
		b.cond.Broadcast()
		return
	}
	for gen == b.gen {
		b.cond.Wait()
	}
}
