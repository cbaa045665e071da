// Package parallel provides the persistent worker pool used for particle and
// interaction loops.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultThreshold is the minimum item count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const DefaultThreshold = 64

// workChunk represents a range of items for a worker to process.
type workChunk struct {
	slot       int
	start, end int
	fn         func(slot, start, end int)
}

// Pool dispatches contiguous chunks to persistent goroutines.
//
// Chunk boundaries depend only on the item count and Slots(), never on
// scheduling, so callers that keep per-slot accumulators and reduce them in
// slot order get identical results on every run.
//
// A nil *Pool runs everything on the calling goroutine.
type Pool struct {
	numWorkers int
	threshold  int

	mu sync.Mutex // one For at a time

	// Worker pool channels
	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

// NewPool creates a pool with the given number of workers.
// workers <= 0 uses GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		numWorkers: workers,
		threshold:  DefaultThreshold,
	}
}

// SetThreshold changes the serial cutoff. Values below 1 are clamped to 1.
func (p *Pool) SetThreshold(n int) {
	if n < 1 {
		n = 1
	}
	p.threshold = n
}

// Slots returns the number of chunks a parallel For splits its range into.
// Per-slot scratch buffers must be at least this long.
func (p *Pool) Slots() int {
	if p == nil {
		return 1
	}
	return p.numWorkers
}

// start launches persistent worker goroutines.
func (p *Pool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Close signals all workers to exit and waits for them.
func (p *Pool) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.slot, chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// For calls fn over [0, n) split into at most Slots() contiguous chunks and
// returns once every chunk is done. Small ranges run serially as slot 0.
func (p *Pool) For(n int, fn func(slot, start, end int)) {
	if n <= 0 {
		return
	}
	if p == nil || p.numWorkers == 1 || n < p.threshold {
		fn(0, 0, n)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.start()

	numWorkers := p.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	dispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{slot: w, start: start, end: end, fn: fn}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}
