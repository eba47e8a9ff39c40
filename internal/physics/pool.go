package physics

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// bufferPool recycles per-worker force buffers between evaluations.
type bufferPool struct {
	pool sync.Pool
}

// Get returns a zeroed buffer of length n.
func (p *bufferPool) Get(n int) []r3.Vec {
	if buf, ok := p.pool.Get().([]r3.Vec); ok && cap(buf) >= n {
		buf = buf[:n]
		for i := range buf {
			buf[i] = r3.Vec{}
		}
		return buf
	}
	return make([]r3.Vec, n)
}

func (p *bufferPool) Put(buf []r3.Vec) {
	p.pool.Put(buf)
}
