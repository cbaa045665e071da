package shapefn

import (
	"math"

	"github.com/pthm-cable/mudokon/grid"
	"github.com/pthm-cable/mudokon/tensor"
)

// Evaluator computes the weight and gradient of one particle-node interaction
// from its normalised distance and the node's species.
type Evaluator interface {
	Evaluate(dist tensor.Vec3, species grid.Species, dim int, invSpacing float64) (float64, tensor.Vec3)
}

// NewEvaluator returns the evaluator for k.
func NewEvaluator(k Kind) Evaluator {
	if k == Cubic {
		return cubicEvaluator{}
	}
	return linearEvaluator{}
}

// basisFunc returns the 1D basis value and its derivative with respect to
// the normalised distance.
type basisFunc func(x float64, t grid.NodeType) (n, dn float64)

// tensorProduct folds per-axis bases into a weight and gradient:
// weight = Π N_i, grad_i = N'_i · invSpacing · Π_{j≠i} N_j.
func tensorProduct(basis basisFunc, dist tensor.Vec3, species grid.Species, dim int, invSpacing float64) (float64, tensor.Vec3) {
	var n, dn [3]float64
	w := 1.0
	for i := 0; i < dim; i++ {
		n[i], dn[i] = basis(dist[i], species[i])
		w *= n[i]
	}

	var grad tensor.Vec3
	for i := 0; i < dim; i++ {
		g := dn[i] * invSpacing
		for j := 0; j < dim; j++ {
			if j != i {
				g *= n[j]
			}
		}
		grad[i] = g
	}
	return w, grad
}

type linearEvaluator struct{}

func (linearEvaluator) Evaluate(dist tensor.Vec3, species grid.Species, dim int, invSpacing float64) (float64, tensor.Vec3) {
	return tensorProduct(linearBasis, dist, species, dim, invSpacing)
}

// linearBasis is the tent function 1-|x| on (-1, 1).
func linearBasis(x float64, _ grid.NodeType) (float64, float64) {
	ax := math.Abs(x)
	if !(ax < 1) {
		return 0, 0
	}
	var sign float64
	switch {
	case x > 0:
		sign = 1
	case x < 0:
		sign = -1
	}
	return 1 - ax, -sign
}

type cubicEvaluator struct{}

func (cubicEvaluator) Evaluate(dist tensor.Vec3, species grid.Species, dim int, invSpacing float64) (float64, tensor.Vec3) {
	return tensorProduct(cubicBasis, dist, species, dim, invSpacing)
}

// cubicPiece is one polynomial segment of a cubic B-spline.
type cubicPiece func(x float64) (n, dn float64)

func zeroPiece(float64) (float64, float64) { return 0, 0 }

var (
	middleOuterLow = func(x float64) (float64, float64) {
		return ((1.0/6.0*x+1)*x+2)*x + 4.0/3.0, (0.5*x+2)*x + 2
	}
	middleInnerLow = func(x float64) (float64, float64) {
		return (-0.5*x-1)*x*x + 2.0/3.0, (-1.5*x - 2) * x
	}
	middleInnerHigh = func(x float64) (float64, float64) {
		return (0.5*x-1)*x*x + 2.0/3.0, (1.5*x - 2) * x
	}
	middleOuterHigh = func(x float64) (float64, float64) {
		return ((-1.0/6.0*x+1)*x-2)*x + 4.0/3.0, (-0.5*x+2)*x - 2
	}
)

// cubicPieces is indexed by node type then by interval
// [-2,-1), [-1,0), [0,1), [1,2).
var cubicPieces = [4][4]cubicPiece{
	grid.Interior: {middleOuterLow, middleInnerLow, middleInnerHigh, middleOuterHigh},
	grid.Boundary: {
		middleOuterLow,
		func(x float64) (float64, float64) {
			return (-1.0/6.0*x*x+1)*x + 1, -0.5*x*x + 1
		},
		func(x float64) (float64, float64) {
			return (1.0/6.0*x*x-1)*x + 1, 0.5*x*x - 1
		},
		middleOuterHigh,
	},
	grid.NearLowBoundary: {
		zeroPiece,
		func(x float64) (float64, float64) {
			return (-1.0/3.0*x-1)*x*x + 2.0/3.0, (-x - 2) * x
		},
		middleInnerHigh,
		middleOuterHigh,
	},
	grid.NearHighBoundary: {
		middleOuterLow,
		middleInnerLow,
		func(x float64) (float64, float64) {
			return (1.0/3.0*x-1)*x*x + 2.0/3.0, (x - 2) * x
		},
		zeroPiece,
	},
}

// cubicInterval maps x to its half-open interval index, or -1 outside [-2, 2).
func cubicInterval(x float64) int {
	switch {
	case x >= -2 && x < -1:
		return 0
	case x >= -1 && x < 0:
		return 1
	case x >= 0 && x < 1:
		return 2
	case x >= 1 && x < 2:
		return 3
	}
	return -1
}

func cubicBasis(x float64, t grid.NodeType) (float64, float64) {
	iv := cubicInterval(x)
	if iv < 0 || int(t) >= len(cubicPieces) {
		return 0, 0
	}
	return cubicPieces[t][iv](x)
}
