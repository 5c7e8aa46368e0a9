package model

import "math"

// Vector is a three dimensional vector used for directions and orientations.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec is shorthand for Vector{x, y, z}.
func Vec(x, y, z float64) Vector { return Vector{X: x, Y: y, Z: z} }

func (v Vector) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Normalized returns v scaled to unit length; the zero vector is returned unchanged.
func (v Vector) Normalized() Vector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return Vector{X: v.X / n, Y: v.Y / n, Z: v.Z / n}
}

func (v Vector) Dot(o Vector) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vector) Cross(o Vector) Vector {
	return Vector{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vector) Add(o Vector) Vector    { return Vector{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector) Scale(f float64) Vector { return Vector{v.X * f, v.Y * f, v.Z * f} }
func (v Vector) IsZero() bool           { return v.X == 0 && v.Y == 0 && v.Z == 0 }
func (v Vector) Components() [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
