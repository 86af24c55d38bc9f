// Package stacking derives the stacking layer a window belongs to. The
// layer is a pure function of the window's current flags and type and is
// recomputed after every state transition, never stored independently.
package stacking

import (
	"github.com/1broseidon/winstate/internal/hints"
)

// Layer is one of the eight ordered stacking bands. Windows in a lower
// layer always stack below windows in a higher one.
type Layer int

const (
	LayerIcon       Layer = iota // iconified windows, in any order
	LayerDesktop                 // desktop windows
	LayerBelow                   // normal windows pushed below
	LayerNormal                  // normal windows
	LayerAbove                   // normal windows raised above
	LayerTop                     // always-on-top windows (docks)
	LayerFullscreen              // fullscreen windows
	LayerInternal                // the window manager's own windows
)

func (l Layer) String() string {
	switch l {
	case LayerIcon:
		return "icon"
	case LayerDesktop:
		return "desktop"
	case LayerBelow:
		return "below"
	case LayerNormal:
		return "normal"
	case LayerAbove:
		return "above"
	case LayerTop:
		return "top"
	case LayerFullscreen:
		return "fullscreen"
	case LayerInternal:
		return "internal"
	}
	return "unknown"
}

// Input is the set of facts the layer depends on.
type Input struct {
	Type       hints.WindowType
	Fullscreen bool
	Iconic     bool
	Above      bool
	Below      bool

	// Internal marks windows belonging to the window manager itself; they
	// ignore every other input.
	Internal bool
}

// Compute returns the layer for the given flags. The precedence is
// internal, then fullscreen, then iconic, then the special window types,
// then the above/below user flags.
func Compute(in Input) Layer {
	switch {
	case in.Internal:
		return LayerInternal
	case in.Fullscreen:
		return LayerFullscreen
	case in.Iconic:
		return LayerIcon
	case in.Type == hints.TypeDesktop:
		return LayerDesktop
	case in.Type == hints.TypeDock:
		return LayerTop
	case in.Above:
		return LayerAbove
	case in.Below:
		return LayerBelow
	default:
		return LayerNormal
	}
}
