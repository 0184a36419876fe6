package tracer

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

// pool is a fixed set of worker goroutines, each bound for its lifetime to
// one contiguous band of image rows. A frame is one begin/end barrier cycle;
// the barriers are the only synchronization between the coordinator and the
// workers, since bands never overlap.
type pool struct {
	n     int
	begin *barrier
	end   *barrier
	stop  atomic.Bool
	wg    sync.WaitGroup
}

// rowRange returns the band [y0, y1) owned by worker i of n for height h.
func rowRange(i, n, h int) (y0, y1 int) {
	return i * h / n, min(h, (i+1)*h/n)
}

// startPool spawns n workers. Each gets a private generator seeded from
// (master, worker index), so a fixed master seed reproduces every stream.
func startPool(t *Tracer, n int, master *rand.Rand) *pool {
	p := &pool{
		n:     n,
		begin: newBarrier(n + 1),
		end:   newBarrier(n + 1),
	}
	for i := range n {
		rng := rand.New(rand.NewPCG(master.Uint64(), uint64(i)))
		p.wg.Add(1)
		go p.work(t, i, rng)
	}
	return p
}

func (p *pool) work(t *Tracer, i int, rng *rand.Rand) {
	defer p.wg.Done()
	for {
		p.begin.Wait()
		if p.stop.Load() {
			return
		}
		y0, y1 := rowRange(i, p.n, t.acc.height)
		for y := y0; y < y1; y++ {
			t.renderRow(rng, y)
		}
		p.end.Wait()
	}
}

// frame releases the workers for one sample and blocks until all are done.
func (p *pool) frame() {
	p.begin.Wait()
	p.end.Wait()
}

// shutdown stops every worker. It must only be called between frames: the
// workers are all parked on the begin barrier, so releasing it once lets each
// of them observe the stop flag and return without reaching the end barrier.
func (p *pool) shutdown() {
	p.stop.Store(true)
	p.begin.Wait()
	p.wg.Wait()
}
