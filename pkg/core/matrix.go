package core

import "math"

// Matrix4 is a row-major 4x4 affine transform
type Matrix4 struct {
	M [4][4]float64
}

// IdentityMatrix returns the 4x4 identity
func IdentityMatrix() Matrix4 {
	return Matrix4{M: [4][4]float64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}}
}

// Multiply returns the product m * other
func (m Matrix4) Multiply(other Matrix4) Matrix4 {
	var r Matrix4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += m.M[row][k] * other.M[k][col]
			}
			r.M[row][col] = sum
		}
	}
	return r
}

// Transpose returns the transposed matrix
func (m Matrix4) Transpose() Matrix4 {
	var r Matrix4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			r.M[row][col] = m.M[col][row]
		}
	}
	return r
}

// Inverse returns the inverse using Gauss-Jordan elimination with partial pivoting.
// A singular matrix is a caller bug and panics.
func (m Matrix4) Inverse() Matrix4 {
	a := m.M
	inv := IdentityMatrix().M

	for col := 0; col < 4; col++ {
		pivot := col
		for row := col + 1; row < 4; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			panic("core: cannot invert singular matrix")
		}
		a[col], a[pivot] = a[pivot], a[col]
		inv[col], inv[pivot] = inv[pivot], inv[col]

		scale := 1.0 / a[col][col]
		for k := 0; k < 4; k++ {
			a[col][k] *= scale
			inv[col][k] *= scale
		}

		for row := 0; row < 4; row++ {
			if row == col {
				continue
			}
			factor := a[row][col]
			if factor == 0 {
				continue
			}
			for k := 0; k < 4; k++ {
				a[row][k] -= factor * a[col][k]
				inv[row][k] -= factor * inv[col][k]
			}
		}
	}

	return Matrix4{M: inv}
}

// ApplyVector transforms a direction (translation is ignored)
func (m Matrix4) ApplyVector(v Vec3) Vec3 {
	return Vec3{
		X: m.M[0][0]*v.X + m.M[0][1]*v.Y + m.M[0][2]*v.Z,
		Y: m.M[1][0]*v.X + m.M[1][1]*v.Y + m.M[1][2]*v.Z,
		Z: m.M[2][0]*v.X + m.M[2][1]*v.Y + m.M[2][2]*v.Z,
	}
}

// ApplyPoint transforms a point, including translation
func (m Matrix4) ApplyPoint(p Vec3) Vec3 {
	return m.ApplyVector(p).Add(Vec3{X: m.M[0][3], Y: m.M[1][3], Z: m.M[2][3]})
}

// CreateBsdfCoordTransform builds the world-to-local shading transform for a unit normal.
// In the local frame the normal is +Z; the tangent basis follows Duff et al. 2017.
func CreateBsdfCoordTransform(normal Vec3) Matrix4 {
	sign := math.Copysign(1.0, normal.Z)
	a := -1.0 / (sign + normal.Z)
	b := normal.X * normal.Y * a
	tangent := NewVec3(1+sign*normal.X*normal.X*a, sign*b, -sign*normal.X)
	bitangent := NewVec3(b, sign+normal.Y*normal.Y*a, -normal.Y)

	return Matrix4{M: [4][4]float64{
		{tangent.X, tangent.Y, tangent.Z, 0},
		{bitangent.X, bitangent.Y, bitangent.Z, 0},
		{normal.X, normal.Y, normal.Z, 0},
		{0, 0, 0, 1},
	}}
}

// CosTheta returns the cosine between a local-frame direction and the shading normal
func CosTheta(w Vec3) float64 {
	return w.Z
}

// AbsCosTheta returns |cos θ| for a local-frame direction
func AbsCosTheta(w Vec3) float64 {
	return math.Abs(w.Z)
}

// SameHemisphere reports whether two local-frame directions lie on the same side of the surface
func SameHemisphere(a, b Vec3) bool {
	return a.Z*b.Z > 0
}
