package shapefn

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/mudokon/simerr"
)

// Kind selects the basis family.
type Kind uint8

const (
	Linear Kind = iota
	Cubic
)

func (k Kind) String() string {
	switch k {
	case Linear:
		return "linear"
	case Cubic:
		return "cubic"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind maps a config name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return Linear, nil
	case "cubic":
		return Cubic, nil
	}
	return 0, simerr.Config("shape.kind", s, "must be linear or cubic")
}

// axisOffsets lists the per-axis node offsets relative to the particle's base node.
func (k Kind) axisOffsets() []int {
	if k == Cubic {
		return []int{-1, 0, 1, 2}
	}
	return []int{0, 1}
}

// Width is the number of nodes a particle touches along each axis.
func (k Kind) Width() int {
	return len(k.axisOffsets())
}

// StencilSize is the number of interactions per particle, Width()^dim.
func (k Kind) StencilSize(dim int) int {
	s := 1
	for i := 0; i < dim; i++ {
		s *= k.Width()
	}
	return s
}

// Stencil enumerates every offset combination with axis 0 varying fastest,
// matching the node hash layout.
func (k Kind) Stencil(dim int) [][3]int {
	axis := k.axisOffsets()
	w := len(axis)
	out := make([][3]int, k.StencilSize(dim))
	for s := range out {
		rem := s
		for i := 0; i < dim; i++ {
			out[s][i] = axis[rem%w]
			rem /= w
		}
	}
	return out
}
