package math3d

import (
	"fmt"
	"math"
)

// Matrix44 is a homogeneous transform. Vectors are columns, so the rotation
// lives in the upper-left 3x3 block and the translation in the fourth column.
type Matrix44 struct {
	m11 float64 // 0
	m12 float64 // 1
	m13 float64 // 2
	m14 float64 // 3
	m21 float64 // 4
	m22 float64 // 5
	m23 float64 // 6
	m24 float64 // 7
	m31 float64 // 8
	m32 float64 // 9
	m33 float64 // 10
	m34 float64 // 11
	m41 float64 // 12
	m42 float64 // 13
	m43 float64 // 14
	m44 float64 // 15
}

var (
	IdentityMatrix44 = Matrix44{m11: 1, m22: 1, m33: 1, m44: 1}
)

// MakeMatrix44 returns a transform which rotates by ea and then translates by v.
func MakeMatrix44(v Vector3, ea EulerAngles) Matrix44 {
	m := Matrix44{}
	m.SetRotation(ea)
	m.SetTranslation(v)
	return m
}

// Translation returns a transform which only translates by v.
func Translation(v Vector3) Matrix44 {
	return MakeMatrix44(v, IdentityOrientation)
}

// Rotation returns a transform which only rotates by ea.
func Rotation(ea EulerAngles) Matrix44 {
	return MakeMatrix44(ZeroVector3, ea)
}

func (m Matrix44) String() string {
	return fmt.Sprintf(
		"&M44{%+.4f %+.4f %+.4f %+.4f | %+.4f %+.4f %+.4f %+.4f | %+.4f %+.4f %+.4f %+.4f | %+.4f %+.4f %+.4f %+.4f}",
		m.m11, m.m12, m.m13, m.m14,
		m.m21, m.m22, m.m23, m.m24,
		m.m31, m.m32, m.m33, m.m34,
		m.m41, m.m42, m.m43, m.m44)
}

// Elements returns the matrix as a 4x4 array of float64s, row by row.
func (m Matrix44) Elements() [4][4]float64 {
	return [4][4]float64{
		{m.m11, m.m12, m.m13, m.m14},
		{m.m21, m.m22, m.m23, m.m24},
		{m.m31, m.m32, m.m33, m.m34},
		{m.m41, m.m42, m.m43, m.m44},
	}
}

// Inverse returns the inverse of the matrix. Only rigid transforms (rotation
// plus translation) are supported, which is all this package ever builds: the
// rotation block is transposed and the translation rotated back.
func (m Matrix44) Inverse() Matrix44 {
	inv := Matrix44{
		m11: m.m11, m12: m.m21, m13: m.m31,
		m21: m.m12, m22: m.m22, m23: m.m32,
		m31: m.m13, m32: m.m23, m33: m.m33,
		m44: 1,
	}

	t := inv.Rotate(m.Translation())
	inv.m14 = -t.X
	inv.m24 = -t.Y
	inv.m34 = -t.Z

	return inv
}

// MultiplyMatrices returns a*b, i.e. the transform which applies b and then a.
func MultiplyMatrices(a Matrix44, b Matrix44) Matrix44 {
	return Matrix44{
		(a.m11 * b.m11) + (a.m12 * b.m21) + (a.m13 * b.m31) + (a.m14 * b.m41),
		(a.m11 * b.m12) + (a.m12 * b.m22) + (a.m13 * b.m32) + (a.m14 * b.m42),
		(a.m11 * b.m13) + (a.m12 * b.m23) + (a.m13 * b.m33) + (a.m14 * b.m43),
		(a.m11 * b.m14) + (a.m12 * b.m24) + (a.m13 * b.m34) + (a.m14 * b.m44),
		(a.m21 * b.m11) + (a.m22 * b.m21) + (a.m23 * b.m31) + (a.m24 * b.m41),
		(a.m21 * b.m12) + (a.m22 * b.m22) + (a.m23 * b.m32) + (a.m24 * b.m42),
		(a.m21 * b.m13) + (a.m22 * b.m23) + (a.m23 * b.m33) + (a.m24 * b.m43),
		(a.m21 * b.m14) + (a.m22 * b.m24) + (a.m23 * b.m34) + (a.m24 * b.m44),
		(a.m31 * b.m11) + (a.m32 * b.m21) + (a.m33 * b.m31) + (a.m34 * b.m41),
		(a.m31 * b.m12) + (a.m32 * b.m22) + (a.m33 * b.m32) + (a.m34 * b.m42),
		(a.m31 * b.m13) + (a.m32 * b.m23) + (a.m33 * b.m33) + (a.m34 * b.m43),
		(a.m31 * b.m14) + (a.m32 * b.m24) + (a.m33 * b.m34) + (a.m34 * b.m44),
		(a.m41 * b.m11) + (a.m42 * b.m21) + (a.m43 * b.m31) + (a.m44 * b.m41),
		(a.m41 * b.m12) + (a.m42 * b.m22) + (a.m43 * b.m32) + (a.m44 * b.m42),
		(a.m41 * b.m13) + (a.m42 * b.m23) + (a.m43 * b.m33) + (a.m44 * b.m43),
		(a.m41 * b.m14) + (a.m42 * b.m24) + (a.m43 * b.m34) + (a.m44 * b.m44),
	}
}

// Chain multiplies the given transforms left to right.
func Chain(ms ...Matrix44) Matrix44 {
	out := IdentityMatrix44
	for _, m := range ms {
		out = MultiplyMatrices(out, m)
	}
	return out
}

// SetRotation sets the rotation block of the matrix to Rz(yaw)*Ry(pitch)*Rx(roll).
func (m *Matrix44) SetRotation(ea EulerAngles) {

	// precompute
	cr := math.Cos(ea.Roll)
	sr := math.Sin(ea.Roll)
	cp := math.Cos(ea.Pitch)
	sp := math.Sin(ea.Pitch)
	cy := math.Cos(ea.Yaw)
	sy := math.Sin(ea.Yaw)

	m.m11 = cy * cp
	m.m12 = (cy * sp * sr) - (sy * cr)
	m.m13 = (cy * sp * cr) + (sy * sr)
	m.m21 = sy * cp
	m.m22 = (sy * sp * sr) + (cy * cr)
	m.m23 = (sy * sp * cr) - (cy * sr)
	m.m31 = -sp
	m.m32 = cp * sr
	m.m33 = cp * cr
	m.m41 = 0
	m.m42 = 0
	m.m43 = 0
	m.m44 = 1
}

// SetTranslation sets the translation of a matrix by overwriting the fourth
// column. Other cells are left alone.
func (m *Matrix44) SetTranslation(v Vector3) {
	m.m14 = v.X
	m.m24 = v.Y
	m.m34 = v.Z
}

// Translation returns the translation part of the transform.
func (m Matrix44) Translation() Vector3 {
	return Vector3{X: m.m14, Y: m.m24, Z: m.m34}
}

// RotationOnly returns the matrix with its translation removed.
func (m Matrix44) RotationOnly() Matrix44 {
	m.SetTranslation(ZeroVector3)
	return m
}

// EulerAngles decomposes the rotation block back into the angles which
// SetRotation would have been given. Pitch is in [-π/2, π/2].
func (m Matrix44) EulerAngles() EulerAngles {
	return EulerAngles{
		Roll:  math.Atan2(m.m32, m.m33),
		Pitch: math.Asin(math.Max(-1, math.Min(1, -m.m31))),
		Yaw:   math.Atan2(m.m21, m.m11),
	}
}

// Transform applies the whole transform (rotation then translation) to v.
func (m Matrix44) Transform(v Vector3) Vector3 {
	return Vector3{
		X: (m.m11 * v.X) + (m.m12 * v.Y) + (m.m13 * v.Z) + m.m14,
		Y: (m.m21 * v.X) + (m.m22 * v.Y) + (m.m23 * v.Z) + m.m24,
		Z: (m.m31 * v.X) + (m.m32 * v.Y) + (m.m33 * v.Z) + m.m34,
	}
}

// Rotate applies only the rotation block to v.
func (m Matrix44) Rotate(v Vector3) Vector3 {
	return Vector3{
		X: (m.m11 * v.X) + (m.m12 * v.Y) + (m.m13 * v.Z),
		Y: (m.m21 * v.X) + (m.m22 * v.Y) + (m.m23 * v.Z),
		Z: (m.m31 * v.X) + (m.m32 * v.Y) + (m.m33 * v.Z),
	}
}
