package geom

import "math"

// TwoPi is a full turn in radians.
const TwoPi = 2 * math.Pi

// Vec2 is a lightweight 2D vector used by positions, velocities and offsets.
type Vec2 struct {
	X float64
	Y float64
}

// V builds a vector from its components.
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// FromAngle returns the unit vector pointing along the heading.
func FromAngle(angle float64) Vec2 {
	return Vec2{X: math.Cos(angle), Y: math.Sin(angle)}
}

// Add returns the component wise sum of two vectors.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns the difference between two vectors.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Scale multiplies the vector by a scalar.
func (v Vec2) Scale(scalar float64) Vec2 {
	return Vec2{X: v.X * scalar, Y: v.Y * scalar}
}

// Dot returns the scalar dot product of two vectors.
func (v Vec2) Dot(other Vec2) float64 {
	return v.X*other.X + v.Y*other.Y
}

// LengthSquared avoids the square root for distance comparisons.
func (v Vec2) LengthSquared() float64 {
	return v.Dot(v)
}

// Length computes the Euclidean norm of the vector.
func (v Vec2) Length() float64 {
	return math.Sqrt(v.LengthSquared())
}

// Normalized returns the unit vector or the zero vector when the length is zero.
func (v Vec2) Normalized() Vec2 {
	//1.- Zero and non-finite lengths collapse to the neutral vector instead of failing.
	length := v.Length()
	if length == 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return Vec2{}
	}
	inv := 1.0 / length
	return Vec2{X: v.X * inv, Y: v.Y * inv}
}

// Rotated rotates the vector counterclockwise by angle radians.
func (v Vec2) Rotated(angle float64) Vec2 {
	sin, cos := math.Sincos(angle)
	return Vec2{X: v.X*cos - v.Y*sin, Y: v.X*sin + v.Y*cos}
}

// Angle returns the heading of the vector wrapped to [0, 2π).
func (v Vec2) Angle() float64 {
	return WrapAngle(math.Atan2(v.Y, v.X))
}

// DistanceSquared returns the squared distance between two points.
func (v Vec2) DistanceSquared(other Vec2) float64 {
	return v.Sub(other).LengthSquared()
}

// WrapAngle normalizes an angle to the [0, 2π) range.
func WrapAngle(angle float64) float64 {
	//1.- math.Mod keeps the sign of the dividend so negative results are shifted up.
	wrapped := math.Mod(angle, TwoPi)
	if wrapped < 0 {
		wrapped += TwoPi
	}
	//2.- Tiny negative inputs round up to exactly 2π which is outside the range.
	if wrapped >= TwoPi {
		wrapped = 0
	}
	return wrapped
}

// Clamp bounds value to [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
