package client

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/1broseidon/winstate/internal/geometry"
	"github.com/1broseidon/winstate/internal/hints"
)

// Event is the closed set of notifications a client reacts to. The screen
// package translates raw X events into these and routes them to the owning
// client.
type Event interface{ isEvent() }

// PropertyChanged reports that the named property changed on the window.
type PropertyChanged struct {
	Atom string
}

// ClientMessage is an action request sent on behalf of the window: a state
// change, desktop move, close or activation request.
type ClientMessage struct {
	Type string

	// Data is the raw 32-bit message payload.
	Data [5]uint

	// StateAtoms carries the one or two resolved state atom names of a
	// _NET_WM_STATE message.
	StateAtoms [2]string
}

// ConfigureRequest is the application asking for new geometry.
type ConfigureRequest struct {
	X, Y          int
	Width, Height int
	ValueMask     uint16
}

// Unmap, Destroy, Reparent and MapRequest are structure notifications.
type (
	Unmap      struct{}
	Destroy    struct{}
	Reparent   struct{}
	MapRequest struct{}
)

// ShapeChanged reports the window starting or stopping use of the shape
// extension.
type ShapeChanged struct {
	Shaped bool
}

func (PropertyChanged) isEvent()  {}
func (ClientMessage) isEvent()    {}
func (ConfigureRequest) isEvent() {}
func (Unmap) isEvent()            {}
func (Destroy) isEvent()          {}
func (Reparent) isEvent()         {}
func (MapRequest) isEvent()       {}
func (ShapeChanged) isEvent()     {}

// _NET_WM_STATE client message actions.
const (
	stateRemove = 0
	stateAdd    = 1
	stateToggle = 2
)

// HandleEvent applies one event to the client's state. The return value
// reports whether the window is gone and the client must be unmanaged; the
// screen owns that teardown.
func (c *Client) HandleEvent(ev Event) (unmanage bool) {
	switch e := ev.(type) {
	case PropertyChanged:
		c.handleProperty(e.Atom)
	case ClientMessage:
		c.handleClientMessage(e)
	case ConfigureRequest:
		c.handleConfigureRequest(e)
	case Unmap:
		return !c.consumeIgnoreUnmap()
	case Destroy:
		return true
	case Reparent:
		// The window was reparented away from the root; it is no longer
		// ours to manage.
		return true
	case MapRequest:
		// A map request for an already-managed window is a deiconify
		// request.
		if c.iconic {
			c.Iconify(false, true)
		}
	case ShapeChanged:
		c.shaped = e.Shaped
	}
	return false
}

func (c *Client) handleProperty(atom string) {
	switch atom {
	case "WM_NORMAL_HINTS":
		c.refreshNormalHints()
		c.setupDecorAndFunctions()
	case "WM_HINTS":
		c.refreshWmHints()
	case "WM_TRANSIENT_FOR":
		c.refreshTransientFor()
	case "WM_NAME", "_NET_WM_NAME":
		c.refreshTitle()
		c.refreshIconTitle()
	case "WM_ICON_NAME", "_NET_WM_ICON_NAME":
		c.refreshIconTitle()
	case "WM_CLASS":
		c.refreshClass()
	case "WM_WINDOW_ROLE":
		c.refreshRole()
	case "WM_PROTOCOLS":
		c.refreshProtocols()
		c.setupDecorAndFunctions()
	case "_MOTIF_WM_HINTS":
		c.refreshMwmHints()
		c.setupDecorAndFunctions()
	case "_NET_WM_WINDOW_TYPE":
		c.refreshType()
		c.setupDecorAndFunctions()
		c.calcLayer()
	case "_NET_WM_STRUT", "_NET_WM_STRUT_PARTIAL":
		c.refreshStrut()
	case "_NET_WM_ICON":
		c.refreshIcons()
	}
}

func (c *Client) handleClientMessage(e ClientMessage) {
	switch e.Type {
	case "WM_CHANGE_STATE":
		if e.Data[0] == icccm.StateIconic {
			c.Iconify(true, false)
		}
	case "_NET_WM_DESKTOP":
		c.SetDesktop(e.Data[0])
	case "_NET_CLOSE_WINDOW":
		c.Close()
	case "_NET_WM_STATE":
		action := e.Data[0]
		for _, atom := range e.StateAtoms {
			if atom != "" {
				c.applyStateRequest(action, atom)
			}
		}
	}
}

// applyStateRequest maps one _NET_WM_STATE atom plus add/remove/toggle
// action onto the matching transition.
func (c *Client) applyStateRequest(action uint, atom string) {
	target := func(current bool) bool {
		switch action {
		case stateAdd:
			return true
		case stateRemove:
			return false
		default:
			return !current
		}
	}

	switch atom {
	case "_NET_WM_STATE_SHADED":
		c.Shade(target(c.shaded))
	case "_NET_WM_STATE_MAXIMIZED_HORZ":
		c.Maximize(target(c.maxHorz), AxisHorz, true)
	case "_NET_WM_STATE_MAXIMIZED_VERT":
		c.Maximize(target(c.maxVert), AxisVert, true)
	case "_NET_WM_STATE_FULLSCREEN":
		c.SetFullscreen(target(c.fullscreen), true)
	case "_NET_WM_STATE_ABOVE":
		c.SetAbove(target(c.above))
	case "_NET_WM_STATE_BELOW":
		c.SetBelow(target(c.below))
	case "_NET_WM_STATE_MODAL":
		c.modal = target(c.modal)
		c.changeState()
	case "_NET_WM_STATE_SKIP_TASKBAR":
		c.SetSkipTaskbar(target(c.skipTaskbar))
	case "_NET_WM_STATE_SKIP_PAGER":
		c.SetSkipPager(target(c.skipPager))
	case "_NET_WM_STATE_DEMANDS_ATTENTION":
		if target(c.urgent) {
			c.FireUrgent()
		} else {
			c.urgent = false
			c.changeState()
		}
	}
}

func (c *Client) handleConfigureRequest(e ConfigureRequest) {
	x, y := c.area.X, c.area.Y
	w, h := c.area.Width, c.area.Height

	moved := false
	resized := false
	if e.ValueMask&xproto.ConfigWindowX > 0 {
		x = e.X
		moved = true
	}
	if e.ValueMask&xproto.ConfigWindowY > 0 {
		y = e.Y
		moved = true
	}
	if e.ValueMask&xproto.ConfigWindowWidth > 0 {
		w = e.Width
		resized = true
	}
	if e.ValueMask&xproto.ConfigWindowHeight > 0 {
		h = e.Height
		resized = true
	}

	switch {
	case resized && !c.shaded:
		pos := geometry.Point{X: x, Y: y}
		c.internalResize(geometry.TopLeft, w, h, &pos)
	case moved:
		c.Move(x, y)
	case resized:
		c.log.Debug("rejecting configure-request resize while shaded")
	}
}

// Snapshot is an immutable copy of the externally visible state, handed to
// the decoration renderer and screen manager after each transition.
type Snapshot struct {
	Window      xproto.Window
	ScreenIndex int

	Area        geometry.Rect
	LogicalSize geometry.Size

	Title     string
	IconTitle string
	AppName   string
	AppClass  string
	Role      string
	Type      hints.WindowType
	Desktop   uint

	CanFocus       bool
	FocusNotify    bool
	SupportsDelete bool

	Iconic      bool
	Shaded      bool
	MaxHorz     bool
	MaxVert     bool
	Fullscreen  bool
	Modal       bool
	Urgent      bool
	Focused     bool
	Above       bool
	Below       bool
	SkipPager   bool
	SkipTaskbar bool
	Shaped      bool

	Decorations uint8
	Functions   uint8
	Layer       string

	TransientFor xproto.Window
}

// Snapshot captures the current state.
func (c *Client) Snapshot() Snapshot {
	var parent xproto.Window
	if p, ok := c.graph.Parent(c.win); ok {
		parent = p
	}
	return Snapshot{
		Window:         c.win,
		ScreenIndex:    c.screenIndex,
		Area:           c.area,
		LogicalSize:    c.logicalSize,
		Title:          c.title,
		IconTitle:      c.iconTitle,
		AppName:        c.appName,
		AppClass:       c.appClass,
		Role:           c.role,
		Type:           c.wtype,
		Desktop:        c.desktop,
		CanFocus:       c.canFocus,
		FocusNotify:    c.focusNotify,
		SupportsDelete: c.protocols.DeleteWindow,
		Iconic:         c.iconic,
		Shaded:         c.shaded,
		MaxHorz:        c.maxHorz,
		MaxVert:        c.maxVert,
		Fullscreen:     c.fullscreen,
		Modal:          c.modal,
		Urgent:         c.urgent,
		Focused:        c.focused,
		Above:          c.above,
		Below:          c.below,
		SkipPager:      c.skipPager,
		SkipTaskbar:    c.skipTaskbar,
		Shaped:         c.shaped,
		Decorations:    uint8(c.decorations),
		Functions:      uint8(c.functions),
		Layer:          c.layer.String(),
		TransientFor:   parent,
	}
}
