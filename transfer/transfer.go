package transfer

import (
	"github.com/pthm-cable/mudokon/grid"
	"github.com/pthm-cable/mudokon/parallel"
	"github.com/pthm-cable/mudokon/shapefn"
	"github.com/pthm-cable/mudokon/simerr"
	"github.com/pthm-cable/mudokon/tensor"
)

// Transfer runs scatter and gather loops on a worker pool.
//
// Scatter gives every pool slot a private node buffer and sums the buffers
// in slot order afterwards, so results are bit-identical for a fixed worker
// count.
type Transfer struct {
	pool *parallel.Pool

	// per-slot node accumulators
	scratch [][]float64
	used    []bool

	// G2P node velocities and gathered particle increments
	nodeVelNT []tensor.Vec3
	nodeDV    []tensor.Vec3
	vPic      []tensor.Vec3
	dv        []tensor.Vec3
}

// New creates a Transfer. A nil pool runs serially.
func New(pool *parallel.Pool) *Transfer {
	return &Transfer{pool: pool}
}

// accumulate calls body for every valid interaction with the slot-private
// buffer of numNodes*comps values, then returns the touched buffers in slot
// order.
func (t *Transfer) accumulate(sf *shapefn.ShapeFunction, g *grid.Grid, comps int, body func(buf []float64, i, p, h int)) [][]float64 {
	slots := t.pool.Slots()
	size := g.NumNodes * comps
	if len(t.scratch) < slots {
		t.scratch = append(t.scratch, make([][]float64, slots-len(t.scratch))...)
		t.used = make([]bool, slots)
	}
	clear(t.used)

	S, sentinel := sf.S, g.Sentinel()
	t.pool.For(sf.NumParticles(), func(slot, start, end int) {
		if cap(t.scratch[slot]) < size {
			t.scratch[slot] = make([]float64, size)
		}
		buf := t.scratch[slot][:size]
		clear(buf)
		t.used[slot] = true

		for p := start; p < end; p++ {
			for k := 0; k < S; k++ {
				i := p*S + k
				h := sf.Hashes[i]
				if h == sentinel {
					continue
				}
				body(buf, i, p, h)
			}
		}
	})

	out := make([][]float64, 0, slots)
	for s := 0; s < slots; s++ {
		if t.used[s] {
			out = append(out, t.scratch[s][:size])
		}
	}
	return out
}

// Scatter adds src[p]·N into dst[hash] for every valid interaction.
// dst is indexed by node and accumulates on top of its current contents.
func (t *Transfer) Scatter(dst, src Field, sf *shapefn.ShapeFunction, g *grid.Grid) error {
	if err := checkFields(dst, src, sf, g); err != nil {
		return err
	}
	C := src.Components()
	bufs := t.accumulate(sf, g, C, func(buf []float64, i, p, h int) {
		w := sf.Weights[i]
		for c := 0; c < C; c++ {
			buf[h*C+c] += src.At(p, c) * w
		}
	})

	for _, buf := range bufs {
		for j, v := range buf {
			if v != 0 {
				dst.Add(j/C, j%C, v)
			}
		}
	}
	return nil
}

// ScatterGradient adds src[p]·∇N into dst[hash] for every valid interaction.
func (t *Transfer) ScatterGradient(dst Vectors, src Scalars, sf *shapefn.ShapeFunction, g *grid.Grid) error {
	if err := checkLengths(len(dst), len(src), sf, g); err != nil {
		return err
	}
	bufs := t.accumulate(sf, g, 3, func(buf []float64, i, p, h int) {
		grad := sf.Grads[i]
		for c := 0; c < 3; c++ {
			buf[h*3+c] += src[p] * grad[c]
		}
	})

	for _, buf := range bufs {
		for j, v := range buf {
			dst[j/3][j%3] += v
		}
	}
	return nil
}

// Gather overwrites dst[p] with Σ_k src[hash]·N over valid interactions.
func (t *Transfer) Gather(dst, src Field, sf *shapefn.ShapeFunction, g *grid.Grid) error {
	if err := checkFields(src, dst, sf, g); err != nil {
		return err
	}
	C := src.Components()
	S, sentinel := sf.S, g.Sentinel()
	t.pool.For(sf.NumParticles(), func(_, start, end int) {
		for p := start; p < end; p++ {
			for c := 0; c < C; c++ {
				var sum float64
				for k := 0; k < S; k++ {
					i := p*S + k
					h := sf.Hashes[i]
					if h == sentinel {
						continue
					}
					sum += src.At(h, c) * sf.Weights[i]
				}
				dst.Set(p, c, sum)
			}
		}
	})
	return nil
}

// GatherGradient overwrites dst[p] with Σ_k src[hash] ⊗ ∇N over valid interactions.
func (t *Transfer) GatherGradient(dst []tensor.Mat3, src []tensor.Vec3, sf *shapefn.ShapeFunction, g *grid.Grid) error {
	if err := checkLengths(len(src), len(dst), sf, g); err != nil {
		return err
	}
	S, sentinel := sf.S, g.Sentinel()
	t.pool.For(sf.NumParticles(), func(_, start, end int) {
		for p := start; p < end; p++ {
			var sum tensor.Mat3
			for k := 0; k < S; k++ {
				i := p*S + k
				h := sf.Hashes[i]
				if h == sentinel {
					continue
				}
				sum = sum.Add(src[h].Outer(sf.Grads[i]))
			}
			dst[p] = sum
		}
	})
	return nil
}

// checkFields verifies node and particle field shapes against the grid and
// shape function.
func checkFields(node, particle Field, sf *shapefn.ShapeFunction, g *grid.Grid) error {
	if err := checkLengths(node.Len(), particle.Len(), sf, g); err != nil {
		return err
	}
	if node.Components() != particle.Components() {
		return simerr.Mismatch("field components", node.Components(), particle.Components())
	}
	return nil
}

func checkLengths(nodeLen, particleLen int, sf *shapefn.ShapeFunction, g *grid.Grid) error {
	if sf.Dim != g.Dim {
		return simerr.Mismatch("grid dim", sf.Dim, g.Dim)
	}
	if nodeLen != g.NumNodes {
		return simerr.Mismatch("node field length", g.NumNodes, nodeLen)
	}
	if particleLen != sf.NumParticles() {
		return simerr.Mismatch("particle field length", sf.NumParticles(), particleLen)
	}
	return nil
}
