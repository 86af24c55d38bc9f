// Package deco merges the three sources of decoration and function
// permissions (window type defaults, Motif hints, user disable-mask) into
// the authoritative bitmasks shown to the decoration renderer.
package deco

import (
	"github.com/1broseidon/winstate/internal/hints"
)

// DecorFlags is a bitmask of the chrome elements drawn around a window.
type DecorFlags uint8

const (
	DecorTitlebar DecorFlags = 1 << iota
	DecorHandle
	DecorBorder
	DecorIcon
	DecorIconify
	DecorMaximize
	DecorAllDesktops
	DecorClose
)

// Has reports whether all bits in mask are set.
func (d DecorFlags) Has(mask DecorFlags) bool { return d&mask == mask }

// FuncFlags is a bitmask of the operations the user may perform on a window.
type FuncFlags uint8

const (
	FuncResize FuncFlags = 1 << iota
	FuncMove
	FuncIconify
	FuncMaximize
	FuncShade
	FuncFullscreen
	FuncClose
)

// Has reports whether all bits in mask are set.
func (f FuncFlags) Has(mask FuncFlags) bool { return f&mask == mask }

const allDecor = DecorTitlebar | DecorHandle | DecorBorder | DecorIcon |
	DecorIconify | DecorMaximize | DecorAllDesktops | DecorClose

// Inputs are the three permission sources plus the capability facts that
// gate them.
type Inputs struct {
	Type hints.WindowType
	Mwm  hints.MwmHints

	// Disabled is the user-applied mask of decorations to suppress.
	Disabled DecorFlags

	// Resizable is false when the window's min size exceeds its max size.
	Resizable bool

	// SupportsDelete is true when the window speaks WM_DELETE_WINDOW.
	SupportsDelete bool
}

// Arbitrate computes the final decoration and function masks. The result is
// a pure function of its inputs: recomputing on unchanged inputs yields the
// identical masks.
//
// Order of application: the window type picks the starting set, the Motif
// hint intersects it when its defined-flags are set, capability facts
// (resizability, delete protocol) remove what cannot work, and the user
// disable-mask is subtracted last. A final pass drops decoration buttons
// whose function was taken away.
func Arbitrate(in Inputs) (DecorFlags, FuncFlags) {
	decor := allDecor
	functions := FuncResize | FuncMove | FuncIconify | FuncMaximize | FuncShade

	switch in.Type {
	case hints.TypeNormal:
		functions |= FuncFullscreen
	case hints.TypeDialog:
		// Dialogs keep the standard chrome but never go fullscreen.
	case hints.TypeMenu, hints.TypeToolbar, hints.TypeUtility:
		decor &^= DecorIconify | DecorMaximize | DecorAllDesktops
		functions &^= FuncIconify | FuncMaximize
	case hints.TypeSplash:
		decor = 0
		functions = FuncMove
	case hints.TypeDesktop, hints.TypeDock:
		decor = 0
		functions = 0
	}

	if in.Mwm.DecorationsSet() && in.Mwm.Decorations&hints.MwmDecorAll == 0 {
		allowed := DecorFlags(0)
		if in.Mwm.Decorations&hints.MwmDecorBorder > 0 {
			allowed |= DecorBorder
		}
		if in.Mwm.Decorations&hints.MwmDecorHandle > 0 {
			allowed |= DecorHandle
		}
		if in.Mwm.Decorations&hints.MwmDecorTitle > 0 {
			// The titlebar carries the icon, all-desktops and close
			// buttons, so they follow it.
			allowed |= DecorTitlebar | DecorIcon | DecorAllDesktops | DecorClose
		}
		if in.Mwm.Decorations&hints.MwmDecorIconify > 0 {
			allowed |= DecorIconify
		}
		if in.Mwm.Decorations&hints.MwmDecorMaximize > 0 {
			allowed |= DecorMaximize
		}
		decor &= allowed
	}

	if in.Mwm.FunctionsSet() && in.Mwm.Functions&hints.MwmFuncAll == 0 {
		// Shade, fullscreen and close are not expressible in the Motif
		// hint and pass through untouched.
		allowed := FuncShade | FuncFullscreen | FuncClose
		if in.Mwm.Functions&hints.MwmFuncResize > 0 {
			allowed |= FuncResize
		}
		if in.Mwm.Functions&hints.MwmFuncMove > 0 {
			allowed |= FuncMove
		}
		if in.Mwm.Functions&hints.MwmFuncIconify > 0 {
			allowed |= FuncIconify
		}
		if in.Mwm.Functions&hints.MwmFuncMaximize > 0 {
			allowed |= FuncMaximize
		}
		functions &= allowed
	}

	if !in.Resizable {
		functions &^= FuncResize | FuncMaximize
	}
	if in.SupportsDelete && in.Type != hints.TypeDesktop && in.Type != hints.TypeDock {
		functions |= FuncClose
	} else {
		functions &^= FuncClose
	}

	decor &^= in.Disabled

	// Buttons for operations the user cannot perform make no sense.
	if !functions.Has(FuncResize) {
		decor &^= DecorHandle | DecorMaximize
	}
	if !functions.Has(FuncIconify) {
		decor &^= DecorIconify
	}
	if !functions.Has(FuncMaximize) {
		decor &^= DecorMaximize
	}
	if !functions.Has(FuncClose) {
		decor &^= DecorClose
	}

	return decor, functions
}

// AllowedActions translates a function mask into the _NET_WM_ALLOWED_ACTIONS
// atom list published back onto the window.
func AllowedActions(functions FuncFlags) []string {
	actions := []string{"_NET_WM_ACTION_CHANGE_DESKTOP"}
	if functions.Has(FuncMove) {
		actions = append(actions, "_NET_WM_ACTION_MOVE")
	}
	if functions.Has(FuncResize) {
		actions = append(actions, "_NET_WM_ACTION_RESIZE")
	}
	if functions.Has(FuncIconify) {
		actions = append(actions, "_NET_WM_ACTION_MINIMIZE")
	}
	if functions.Has(FuncShade) {
		actions = append(actions, "_NET_WM_ACTION_SHADE")
	}
	if functions.Has(FuncMaximize) {
		actions = append(actions,
			"_NET_WM_ACTION_MAXIMIZE_HORZ", "_NET_WM_ACTION_MAXIMIZE_VERT")
	}
	if functions.Has(FuncFullscreen) {
		actions = append(actions, "_NET_WM_ACTION_FULLSCREEN")
	}
	if functions.Has(FuncClose) {
		actions = append(actions, "_NET_WM_ACTION_CLOSE")
	}
	return actions
}
