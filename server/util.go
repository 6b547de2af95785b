package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is the simulation's vector type
type Vec3 = mgl64.Vec3

// Axis indexes into a Vec3
const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Lerp interpolates between a and b by t
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Normalize returns v scaled to unit length, or the zero vector when v has no length
func Normalize(v Vec3) Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) {
		return Vec3{}
	}
	return v.Mul(1 / l)
}

// Distance returns the distance between two points
func Distance(a, b Vec3) float64 {
	return b.Sub(a).Len()
}

// LerpVec interpolates each component of a toward b by t
func LerpVec(a, b Vec3, t float64) Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// finiteVec reports whether every component is a finite number
func finiteVec(v Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// NormalizeAngle wraps angle to [-PI, PI]
func NormalizeAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Color is an RGB triple with components in [0, 1]
type Color struct {
	R, G, B float64
}

// ColorHex builds a Color from 0xRRGGBB
func ColorHex(hex uint32) Color {
	return Color{
		R: float64(hex>>16&0xff) / 255,
		G: float64(hex>>8&0xff) / 255,
		B: float64(hex&0xff) / 255,
	}
}

// Hex packs the color back into 0xRRGGBB
func (c Color) Hex() uint32 {
	r := uint32(math.Round(Clamp(c.R, 0, 1) * 255))
	g := uint32(math.Round(Clamp(c.G, 0, 1) * 255))
	b := uint32(math.Round(Clamp(c.B, 0, 1) * 255))
	return r<<16 | g<<8 | b
}

// LerpColor interpolates each channel of a toward b by t
func LerpColor(a, b Color, t float64) Color {
	return Color{
		R: Lerp(a.R, b.R, t),
		G: Lerp(a.G, b.G, t),
		B: Lerp(a.B, b.B, t),
	}
}

// AABB is an axis-aligned box
type AABB struct {
	Min, Max Vec3
}

// BoxFromCenter builds a box from its center and half-extents
func BoxFromCenter(center, half Vec3) AABB {
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// Shrink pulls every face inward by d on the given axes. Faces never cross.
func (b AABB) Shrink(dx, dy, dz float64) AABB {
	d := Vec3{dx, dy, dz}
	for i := 0; i < 3; i++ {
		if b.Max[i]-b.Min[i] <= 2*d[i] {
			c := (b.Min[i] + b.Max[i]) / 2
			b.Min[i], b.Max[i] = c, c
			continue
		}
		b.Min[i] += d[i]
		b.Max[i] -= d[i]
	}
	return b
}

// Intersects reports whether two boxes overlap; touching faces count
func (b AABB) Intersects(o AABB) bool {
	return b.Min[0] <= o.Max[0] && b.Max[0] >= o.Min[0] &&
		b.Min[1] <= o.Max[1] && b.Max[1] >= o.Min[1] &&
		b.Min[2] <= o.Max[2] && b.Max[2] >= o.Min[2]
}

// Penetration returns how deep a and b overlap on one axis. Zero or less means apart.
func Penetration(a, b AABB, axis int) float64 {
	return math.Min(a.Max[axis], b.Max[axis]) - math.Max(a.Min[axis], b.Min[axis])
}

// round2 trims floats for the wire
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
