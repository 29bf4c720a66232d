// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "math"

// Vec3 is a point or direction in 3-space.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns s * v.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the scalar product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the right-handed vector product v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Size2 is the planar extent of a leaf.
type Size2 struct {
	Width  float64 `json:"width" yaml:"width"`
	Length float64 `json:"length" yaml:"length"`
}

// Branch is a tapered segment emitted by the B command.
type Branch struct {
	// Start is where the turtle stood when the branch was emitted.
	Start Vec3 `json:"start" yaml:"start"`

	// StartRadius is radius * brush width at emission time.
	StartRadius float64 `json:"start_radius" yaml:"start_radius"`

	// End is Start advanced by distance * brush width along forward.
	End Vec3 `json:"end" yaml:"end"`

	// EndRadius is StartRadius scaled by the brush decay coefficient.
	EndRadius float64 `json:"end_radius" yaml:"end_radius"`
}

// Leaf is a flat quad anchored at the turtle position, emitted by L and l.
type Leaf struct {
	Anchor  Vec3  `json:"anchor" yaml:"anchor"`
	Forward Vec3  `json:"forward" yaml:"forward"`
	Left    Vec3  `json:"left" yaml:"left"`
	Size    Size2 `json:"size" yaml:"size"`
}

// Geometry holds the primitives produced by one generation run, in
// emission order. The interpreter appends to it and never rewrites an
// element once appended.
type Geometry struct {
	Branches []Branch `json:"branches" yaml:"branches"`
	Leaves   []Leaf   `json:"leaves" yaml:"leaves"`
}

// Bounds returns the axis-aligned box enclosing every branch endpoint and
// leaf anchor. ok is false when the geometry is empty.
func (g *Geometry) Bounds() (lo, hi Vec3, ok bool) {
	extend := func(p Vec3) {
		if !ok {
			lo, hi, ok = p, p, true
			return
		}
		lo = Vec3{math.Min(lo.X, p.X), math.Min(lo.Y, p.Y), math.Min(lo.Z, p.Z)}
		hi = Vec3{math.Max(hi.X, p.X), math.Max(hi.Y, p.Y), math.Max(hi.Z, p.Z)}
	}
	for _, b := range g.Branches {
		extend(b.Start)
		extend(b.End)
	}
	for _, l := range g.Leaves {
		extend(l.Anchor)
	}
	return lo, hi, ok
}
