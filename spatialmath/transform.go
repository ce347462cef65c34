// Package spatialmath defines the rigid transforms used across the welding
// core: forward kinematics, tool-frame targets and mesh/world conversions all
// speak in the 4x4 homogeneous Transform defined here.
package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Transform is a 4x4 homogeneous rigid transform. Row/column accessors and
// the flat RowMajor form follow the robot convention (row-major, translation
// in the last column); the backing store is an mgl64 matrix.
type Transform struct {
	mat mgl64.Mat4
}

// NewTransform returns an identity transform.
func NewTransform() *Transform {
	return &Transform{mgl64.Ident4()}
}

// NewTransformFromDH builds the standard Denavit-Hartenberg link transform
// from link length a, link twist alpha, link offset d and joint angle theta,
// all in meters/radians.
func NewTransformFromDH(a, alpha, d, theta float64) *Transform {
	ct, st := math.Cos(theta), math.Sin(theta)
	ca, sa := math.Cos(alpha), math.Sin(alpha)

	t := &Transform{}
	t.mat.SetRow(0, mgl64.Vec4{ct, -st * ca, st * sa, a * ct})
	t.mat.SetRow(1, mgl64.Vec4{st, ct * ca, -ct * sa, a * st})
	t.mat.SetRow(2, mgl64.Vec4{0, sa, ca, d})
	t.mat.SetRow(3, mgl64.Vec4{0, 0, 0, 1})
	return t
}

// NewTransformFromRowMajor builds a transform from 16 row-major values.
func NewTransformFromRowMajor(m [16]float64) *Transform {
	t := &Transform{}
	for r := 0; r < 4; r++ {
		t.mat.SetRow(r, mgl64.Vec4{m[r*4], m[r*4+1], m[r*4+2], m[r*4+3]})
	}
	return t
}

// NewTransformFromFrame builds a transform whose rotation columns are the
// given x/y/z frame axes and whose translation is origin. The axes are used
// as passed; callers are responsible for orthonormality.
func NewTransformFromFrame(x, y, z, origin r3.Vector) *Transform {
	t := &Transform{}
	t.mat.SetRow(0, mgl64.Vec4{x.X, y.X, z.X, origin.X})
	t.mat.SetRow(1, mgl64.Vec4{x.Y, y.Y, z.Y, origin.Y})
	t.mat.SetRow(2, mgl64.Vec4{x.Z, y.Z, z.Z, origin.Z})
	t.mat.SetRow(3, mgl64.Vec4{0, 0, 0, 1})
	return t
}

// Mul returns the product t * other.
func (t *Transform) Mul(other *Transform) *Transform {
	return &Transform{t.mat.Mul4(other.mat)}
}

// At returns the element at row r, column c.
func (t *Transform) At(r, c int) float64 {
	return t.mat.At(r, c)
}

// Position returns the translation component.
func (t *Transform) Position() r3.Vector {
	return r3.Vector{X: t.mat.At(0, 3), Y: t.mat.At(1, 3), Z: t.mat.At(2, 3)}
}

// RotationColumn returns column i of the rotation block, i in {0,1,2}.
func (t *Transform) RotationColumn(i int) r3.Vector {
	return r3.Vector{X: t.mat.At(0, i), Y: t.mat.At(1, i), Z: t.mat.At(2, i)}
}

// RowMajor returns the 16 elements in row-major order, the layout the handle
// ABI and the DH literature use.
func (t *Transform) RowMajor() [16]float64 {
	var m [16]float64
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[r*4+c] = t.mat.At(r, c)
		}
	}
	return m
}

// Clone returns a copy of t.
func (t *Transform) Clone() *Transform {
	return &Transform{t.mat}
}
