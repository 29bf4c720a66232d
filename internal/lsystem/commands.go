// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lsystem

import (
	"github.com/pdiddy/lsystem-engine/internal/turtle"
	"github.com/pdiddy/lsystem-engine/pkg/types"
)

// Turtle command symbols.
const (
	SymLeaf       = 'L'
	SymLeafAlt    = 'l'
	SymBranch     = 'B'
	SymMove       = 'M'
	SymYawPos     = '+'
	SymYawNeg     = '-'
	SymPitchPos   = '&'
	SymPitchNeg   = '^'
	SymDecayBrush = '*'
	SymPush       = '['
	SymPop        = ']'
)

// Process interprets a single symbol. Symbols without a command are
// ignored.
func (in *Interpreter) Process(symbol byte) {
	in.diag.Commands++

	a := in.agent
	step := in.cfg.Distance * a.BrushWidth()

	switch symbol {
	case SymLeaf, SymLeafAlt:
		size := in.cfg.LeafSize * a.BrushWidth()
		in.out.Leaves = append(in.out.Leaves, types.Leaf{
			Anchor:  a.Position(),
			Forward: a.Forward(),
			Left:    a.Left(),
			Size:    types.Size2{Width: size, Length: size * 2},
		})
		a.Move(step)

	case SymBranch:
		radius := in.cfg.Radius * a.BrushWidth()
		in.out.Branches = append(in.out.Branches, types.Branch{
			Start:       a.Position(),
			StartRadius: radius,
			End:         a.Position().Add(a.Forward().Scale(step)),
			EndRadius:   in.cfg.BrushDecayCoef * radius,
		})
		a.Move(step)

	case SymMove:
		a.Move(step)

	case SymYawPos:
		a.Rotate(turtle.WorldUp, in.cfg.AngleWorldY)
	case SymYawNeg:
		a.Rotate(turtle.WorldUp, -in.cfg.AngleWorldY)

	case SymPitchPos:
		a.Rotate(a.Left().Normalize(), in.cfg.AngleTurtleLeft)
	case SymPitchNeg:
		a.Rotate(a.Left().Normalize(), -in.cfg.AngleTurtleLeft)

	case SymDecayBrush:
		width := in.cfg.BrushDecayCoef * a.BrushWidth()
		if !a.SetBrushWidth(width) {
			in.diag.RejectedWidths++
			in.log.Warn("brush width not positive, keeping current", "width", width, "current", a.BrushWidth())
		}

	case SymPush:
		a.Push()
	case SymPop:
		if !a.Pop() {
			in.diag.UnmatchedPops++
			in.log.Warn("pop with empty state stack ignored")
		}

	default:
		in.diag.IgnoredSymbols++
	}
}
