// Package hints normalizes the raw window properties an application (or the
// X server) publishes into the typed fields the client model consumes.
// Every function here is a pure translation from an already-fetched payload;
// fetching lives in the x11 package.
package hints

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/1broseidon/winstate/internal/geometry"
)

// WindowType classifies what a window is for.
type WindowType int

const (
	TypeDesktop WindowType = iota // bottom-most desktop window
	TypeDock                      // panel/dock bar
	TypeToolbar                   // toolbar torn off an application
	TypeMenu                      // unpinned menu
	TypeUtility                   // small palette-style utility window
	TypeSplash                    // splash screen
	TypeDialog                    // dialog window
	TypeNormal                    // regular application window
)

func (t WindowType) String() string {
	switch t {
	case TypeDesktop:
		return "desktop"
	case TypeDock:
		return "dock"
	case TypeToolbar:
		return "toolbar"
	case TypeMenu:
		return "menu"
	case TypeUtility:
		return "utility"
	case TypeSplash:
		return "splash"
	case TypeDialog:
		return "dialog"
	case TypeNormal:
		return "normal"
	}
	return "unknown"
}

// Normal reports whether the window should be treated as a regular window
// for focus and interaction. Desktops, docks and splash screens are not.
func (t WindowType) Normal() bool {
	return !(t == TypeDesktop || t == TypeDock || t == TypeSplash)
}

// AllDesktops is the desktop index sentinel marking a window as present on
// every desktop.
const AllDesktops uint = 0xFFFFFFFF

// ValidDesktop reports whether d is a legal desktop index for a screen with
// count desktops.
func ValidDesktop(d, count uint) bool {
	return d == AllDesktops || d < count
}

// FallbackTitle is used when a window supplies no usable title.
const FallbackTitle = "Unnamed Window"

var windowTypes = map[string]WindowType{
	"_NET_WM_WINDOW_TYPE_DESKTOP": TypeDesktop,
	"_NET_WM_WINDOW_TYPE_DOCK":    TypeDock,
	"_NET_WM_WINDOW_TYPE_TOOLBAR": TypeToolbar,
	"_NET_WM_WINDOW_TYPE_MENU":    TypeMenu,
	"_NET_WM_WINDOW_TYPE_UTILITY": TypeUtility,
	"_NET_WM_WINDOW_TYPE_SPLASH":  TypeSplash,
	"_NET_WM_WINDOW_TYPE_DIALOG":  TypeDialog,
	"_NET_WM_WINDOW_TYPE_NORMAL":  TypeNormal,
}

// DecodeType picks the window type from a _NET_WM_WINDOW_TYPE atom list.
// The first recognized atom wins; a missing or unrecognized list means a
// normal window.
func DecodeType(atoms []string) WindowType {
	for _, a := range atoms {
		if t, ok := windowTypes[a]; ok {
			return t
		}
	}
	return TypeNormal
}

// StateFlags are the boolean states carried by _NET_WM_STATE when a window
// is first managed.
type StateFlags struct {
	Modal       bool
	Shaded      bool
	MaxVert     bool
	MaxHorz     bool
	Fullscreen  bool
	Above       bool
	Below       bool
	SkipTaskbar bool
	SkipPager   bool
	Hidden      bool
	Urgent      bool
}

// DecodeState folds a _NET_WM_STATE atom list into state flags. Unknown
// atoms are ignored.
func DecodeState(atoms []string) StateFlags {
	var s StateFlags
	for _, a := range atoms {
		switch a {
		case "_NET_WM_STATE_MODAL":
			s.Modal = true
		case "_NET_WM_STATE_SHADED":
			s.Shaded = true
		case "_NET_WM_STATE_MAXIMIZED_VERT":
			s.MaxVert = true
		case "_NET_WM_STATE_MAXIMIZED_HORZ":
			s.MaxHorz = true
		case "_NET_WM_STATE_FULLSCREEN":
			s.Fullscreen = true
		case "_NET_WM_STATE_ABOVE":
			s.Above = true
		case "_NET_WM_STATE_BELOW":
			s.Below = true
		case "_NET_WM_STATE_SKIP_TASKBAR":
			s.SkipTaskbar = true
		case "_NET_WM_STATE_SKIP_PAGER":
			s.SkipPager = true
		case "_NET_WM_STATE_HIDDEN":
			s.Hidden = true
		case "_NET_WM_STATE_DEMANDS_ATTENTION":
			s.Urgent = true
		}
	}
	return s
}

// Protocols are the window-manager protocols a window opted into through
// WM_PROTOCOLS. Absence of a protocol is a capability gap, not an error.
type Protocols struct {
	DeleteWindow bool
	TakeFocus    bool
}

// DecodeProtocols scans a WM_PROTOCOLS atom list.
func DecodeProtocols(atoms []string) Protocols {
	var p Protocols
	for _, a := range atoms {
		switch a {
		case "WM_DELETE_WINDOW":
			p.DeleteWindow = true
		case "WM_TAKE_FOCUS":
			p.TakeFocus = true
		}
	}
	return p
}

// DecodeTitle returns the first non-empty candidate title, or the fallback.
func DecodeTitle(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return FallbackTitle
}

// NormalHints is the decoded form of WM_NORMAL_HINTS: the geometry
// constraints plus whether the application asked for its initial position.
type NormalHints struct {
	Constraints geometry.Constraints
	Positioned  bool
}

// DecodeNormalHints normalizes WM_NORMAL_HINTS. A nil payload or unset flag
// falls back to the unconstrained defaults: min 1x1, unbounded max,
// increment 1x1, no aspect bounds, north-west gravity. Increment values
// below 1 are raised to 1; an aspect denominator of 0 disables that bound.
func DecodeNormalHints(nh *icccm.NormalHints) NormalHints {
	c := geometry.Unconstrained()
	c.Gravity = xproto.GravityNorthWest
	if nh == nil {
		return NormalHints{Constraints: c}
	}

	if nh.Flags&icccm.SizeHintPMinSize > 0 {
		c.MinSize = geometry.Size{W: max(int(nh.MinWidth), 1), H: max(int(nh.MinHeight), 1)}
	}
	if nh.Flags&icccm.SizeHintPMaxSize > 0 {
		c.MaxSize = geometry.Size{W: int(nh.MaxWidth), H: int(nh.MaxHeight)}
	}
	if nh.Flags&icccm.SizeHintPResizeInc > 0 {
		c.SizeInc = geometry.Size{W: max(int(nh.WidthInc), 1), H: max(int(nh.HeightInc), 1)}
	}
	if nh.Flags&icccm.SizeHintPBaseSize > 0 {
		c.BaseSize = geometry.Size{W: int(nh.BaseWidth), H: int(nh.BaseHeight)}
	}
	if nh.Flags&icccm.SizeHintPAspect > 0 {
		if nh.MinAspectDen > 0 {
			c.MinRatio = float64(nh.MinAspectNum) / float64(nh.MinAspectDen)
		}
		if nh.MaxAspectDen > 0 {
			c.MaxRatio = float64(nh.MaxAspectNum) / float64(nh.MaxAspectDen)
		}
	}
	if nh.Flags&icccm.SizeHintPWinGravity > 0 {
		c.Gravity = int(nh.WinGravity)
	}

	positioned := nh.Flags&(icccm.SizeHintUSPosition|icccm.SizeHintPPosition) > 0
	return NormalHints{Constraints: c, Positioned: positioned}
}

// WmHints is the decoded form of WM_HINTS.
type WmHints struct {
	// CanFocus is the input model: whether the window accepts input focus.
	// Defaults to true when no hint is present.
	CanFocus        bool
	Urgent          bool
	InitiallyIconic bool
	Group           xproto.Window
	IconPixmap      xproto.Pixmap
	IconMask        xproto.Pixmap
}

// DecodeWmHints normalizes WM_HINTS; a nil payload yields the focusable,
// non-urgent defaults.
func DecodeWmHints(h *icccm.Hints) WmHints {
	out := WmHints{CanFocus: true}
	if h == nil {
		return out
	}

	if h.Flags&icccm.HintInput > 0 {
		out.CanFocus = h.Input == 1
	}
	out.Urgent = h.Flags&icccm.HintUrgency > 0
	if h.Flags&icccm.HintState > 0 {
		out.InitiallyIconic = h.InitialState == icccm.StateIconic
	}
	if h.Flags&icccm.HintWindowGroup > 0 {
		out.Group = h.WindowGroup
	}
	if h.Flags&icccm.HintIconPixmap > 0 {
		out.IconPixmap = h.IconPixmap
	}
	if h.Flags&icccm.HintIconMask > 0 {
		out.IconMask = h.IconMask
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
