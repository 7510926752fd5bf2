package math3d

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeMatrix44(t *testing.T) {
	m := MakeMatrix44(Vector3{X: 1, Y: 2, Z: 3}, EulerAngles{Yaw: math.Pi / 2})
	v := m.Transform(Vector3{X: 1, Y: 0, Z: 0})

	assert.InDelta(t, 1.0, v.X, 1e-9)
	assert.InDelta(t, 3.0, v.Y, 1e-9)
	assert.InDelta(t, 3.0, v.Z, 1e-9)
}

func TestMultiply(t *testing.T) {
	a := Matrix44{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	b := Matrix44{17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32}
	m := MultiplyMatrices(a, b)

	exp := [4][4]float64{
		{250, 260, 270, 280},
		{618, 644, 670, 696},
		{986, 1028, 1070, 1112},
		{1354, 1412, 1470, 1528},
	}

	for r, row := range m.Elements() {
		for c, val := range row {
			if val != exp[r][c] {
				t.Errorf("m%d%d is %v, expected %v", (r + 1), (c + 1), val, exp[r][c])
			}
		}
	}
}

func TestInverse(t *testing.T) {
	m := MakeMatrix44(Vector3{X: 1, Y: 2, Z: 3}, EulerAngles{Roll: 0.1, Pitch: 0.2, Yaw: 0.3})
	id := MultiplyMatrices(m, m.Inverse())

	for r, row := range id.Elements() {
		for c, val := range row {
			exp := 0.0
			if r == c {
				exp = 1.0
			}
			assert.InDelta(t, exp, val, 1e-9, "m%d%d", r+1, c+1)
		}
	}

	v := Vector3{X: -4, Y: 5, Z: 0.5}
	back := m.Inverse().Transform(m.Transform(v))
	assert.InDelta(t, 0, back.Distance(v), 1e-9)
}

func TestEulerAngles(t *testing.T) {
	examples := []EulerAngles{
		{},
		{Roll: 0.1, Pitch: 0.2, Yaw: 0.3},
		{Roll: -0.4, Pitch: 0.7, Yaw: -2.5},
		{Roll: 1.2, Pitch: -1.1, Yaw: 3.0},
	}

	for i, ea := range examples {
		act := Rotation(ea).EulerAngles()
		assert.InDelta(t, ea.Roll, act.Roll, 1e-9, "example %d: roll", i+1)
		assert.InDelta(t, ea.Pitch, act.Pitch, 1e-9, "example %d: pitch", i+1)
		assert.InDelta(t, ea.Yaw, act.Yaw, 1e-9, "example %d: yaw", i+1)
	}
}

func TestChain(t *testing.T) {
	m := Chain(
		Translation(Vector3{Z: 1}),
		Rotation(EulerAngles{Pitch: math.Pi / 2}),
		Translation(Vector3{Z: -1}),
	)

	// Pitching +90° swings -Z onto -X.
	v := m.Transform(ZeroVector3)
	assert.InDelta(t, -1.0, v.X, 1e-9)
	assert.InDelta(t, 0.0, v.Y, 1e-9)
	assert.InDelta(t, 1.0, v.Z, 1e-9)
}
