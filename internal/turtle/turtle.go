// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package turtle tracks a 3D turtle: a position, an orthonormal
// forward/left/up frame and a brush width, with a stack of saved states
// for branching structures.
package turtle

import (
	"math"

	"github.com/pdiddy/lsystem-engine/pkg/types"
)

// WorldUp is the world's vertical axis.
var WorldUp = types.Vec3{Y: 1}

// Frame is a full snapshot of the turtle state.
type Frame struct {
	Position   types.Vec3 `json:"position" yaml:"position"`
	Forward    types.Vec3 `json:"forward" yaml:"forward"`
	Left       types.Vec3 `json:"left" yaml:"left"`
	Up         types.Vec3 `json:"up" yaml:"up"`
	BrushWidth float64    `json:"brush_width" yaml:"brush_width"`
}

// Origin returns the initial frame: at the origin, heading along +Y with
// left along +Z, up along +X and brush width 1.
func Origin() Frame {
	return Frame{
		Forward:    types.Vec3{Y: 1},
		Left:       types.Vec3{Z: 1},
		Up:         types.Vec3{X: 1},
		BrushWidth: 1,
	}
}

// Agent is a turtle with a save/restore stack. The zero value is not
// ready for use; call New.
type Agent struct {
	cur   Frame
	stack []Frame
}

// New returns an agent at Origin with an empty stack.
func New() *Agent {
	return &Agent{cur: Origin()}
}

// Position returns the current location.
func (a *Agent) Position() types.Vec3 { return a.cur.Position }

// Forward returns the unit heading that Move advances along.
func (a *Agent) Forward() types.Vec3 { return a.cur.Forward }

// Left returns the unit axis that pitch rotations turn about.
func (a *Agent) Left() types.Vec3 { return a.cur.Left }

// Up returns forward × left.
func (a *Agent) Up() types.Vec3 { return a.cur.Up }

// BrushWidth returns the current width multiplier, always positive.
func (a *Agent) BrushWidth() float64 { return a.cur.BrushWidth }

// State returns a copy of the current frame.
func (a *Agent) State() Frame { return a.cur }

// Depth returns the number of saved frames.
func (a *Agent) Depth() int { return len(a.stack) }

// Move advances the position by distance along the normalized forward
// vector. Negative distances move backward.
func (a *Agent) Move(distance float64) {
	a.cur.Position = a.cur.Position.Add(a.cur.Forward.Normalize().Scale(distance))
}

// Rotate turns forward and left by angle radians about the unit axis, then
// re-derives up = forward × left and left = up × forward and normalizes
// all three so the frame stays orthonormal under repeated rotation.
func (a *Agent) Rotate(axis types.Vec3, angle float64) {
	fwd := rotateVec(a.cur.Forward, axis, angle)
	left := rotateVec(a.cur.Left, axis, angle)

	up := fwd.Cross(left)
	left = up.Cross(fwd)

	a.cur.Forward = fwd.Normalize()
	a.cur.Left = left.Normalize()
	a.cur.Up = up.Normalize()
}

// SetBrushWidth sets the brush width when width is positive. It reports
// whether the width was applied; non-positive widths leave state unchanged.
func (a *Agent) SetBrushWidth(width float64) bool {
	if width > 0 {
		a.cur.BrushWidth = width
		return true
	}
	return false
}

// Push saves the current frame.
func (a *Agent) Push() {
	a.stack = append(a.stack, a.cur)
}

// Pop restores the most recently saved frame and discards it. On an empty
// stack Pop does nothing and returns false.
func (a *Agent) Pop() bool {
	n := len(a.stack)
	if n == 0 {
		return false
	}
	a.cur = a.stack[n-1]
	a.stack = a.stack[:n-1]
	return true
}

// rotateVec applies the angle-axis rotation (Rodrigues' formula) to v.
func rotateVec(v, axis types.Vec3, angle float64) types.Vec3 {
	sin, cos := math.Sincos(angle)
	return v.Scale(cos).
		Add(axis.Cross(v).Scale(sin)).
		Add(axis.Scale(axis.Dot(v) * (1 - cos)))
}
