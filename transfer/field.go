// Package transfer moves quantities between particles and grid nodes using
// precomputed shape-function weights.
package transfer

import "github.com/pthm-cable/mudokon/tensor"

// Field is an indexed quantity with a fixed number of float components,
// e.g. a particle mass array or a node momentum array.
type Field interface {
	Len() int
	Components() int
	At(i, c int) float64
	Set(i, c int, v float64)
	Add(i, c int, v float64)
}

// Scalars adapts a []float64.
type Scalars []float64

func (s Scalars) Len() int                { return len(s) }
func (Scalars) Components() int           { return 1 }
func (s Scalars) At(i, _ int) float64     { return s[i] }
func (s Scalars) Set(i, _ int, v float64) { s[i] = v }
func (s Scalars) Add(i, _ int, v float64) { s[i] += v }

// Vectors adapts a []tensor.Vec3.
type Vectors []tensor.Vec3

func (v Vectors) Len() int                { return len(v) }
func (Vectors) Components() int           { return 3 }
func (v Vectors) At(i, c int) float64     { return v[i][c] }
func (v Vectors) Set(i, c int, x float64) { v[i][c] = x }
func (v Vectors) Add(i, c int, x float64) { v[i][c] += x }

// Tensors adapts a []tensor.Mat3, flattened row-major.
type Tensors []tensor.Mat3

func (m Tensors) Len() int                { return len(m) }
func (Tensors) Components() int           { return 9 }
func (m Tensors) At(i, c int) float64     { return m[i][c/3][c%3] }
func (m Tensors) Set(i, c int, x float64) { m[i][c/3][c%3] = x }
func (m Tensors) Add(i, c int, x float64) { m[i][c/3][c%3] += x }
