// Package x11 is the only package that talks to the X server: it owns the
// connection, implements the client display surface, publishes root-window
// properties, and translates raw X events into client events.
package x11

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/winstate/internal/geometry"
)

// Root event mask a window manager must hold. Only one client may select
// SubstructureRedirect on the root; failure means another WM is running.
const rootEventMask = xproto.EventMaskSubstructureRedirect |
	xproto.EventMaskSubstructureNotify |
	xproto.EventMaskPropertyChange

// supported is the _NET_SUPPORTED atom list published at startup.
var supported = []string{
	"_NET_SUPPORTED",
	"_NET_CLIENT_LIST",
	"_NET_NUMBER_OF_DESKTOPS",
	"_NET_DESKTOP_NAMES",
	"_NET_CURRENT_DESKTOP",
	"_NET_WORKAREA",
	"_NET_ACTIVE_WINDOW",
	"_NET_CLOSE_WINDOW",
	"_NET_WM_NAME",
	"_NET_WM_ICON_NAME",
	"_NET_WM_DESKTOP",
	"_NET_WM_WINDOW_TYPE",
	"_NET_WM_STATE",
	"_NET_WM_STATE_MODAL",
	"_NET_WM_STATE_SHADED",
	"_NET_WM_STATE_MAXIMIZED_HORZ",
	"_NET_WM_STATE_MAXIMIZED_VERT",
	"_NET_WM_STATE_FULLSCREEN",
	"_NET_WM_STATE_ABOVE",
	"_NET_WM_STATE_BELOW",
	"_NET_WM_STATE_HIDDEN",
	"_NET_WM_STATE_SKIP_TASKBAR",
	"_NET_WM_STATE_SKIP_PAGER",
	"_NET_WM_STATE_DEMANDS_ATTENTION",
	"_NET_WM_ALLOWED_ACTIONS",
	"_NET_WM_STRUT",
	"_NET_WM_STRUT_PARTIAL",
	"_NET_WM_ICON",
}

// Connection manages the X11 connection and core X resources.
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	hasShape bool
}

// NewConnection connects to the X server and claims window manager
// privileges on the root window.
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}

	c := &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}

	// Claiming SubstructureRedirect fails when another WM holds it.
	err = xproto.ChangeWindowAttributesChecked(
		xu.Conn(), c.Root, xproto.CwEventMask, []uint32{uint32(rootEventMask)},
	).Check()
	if err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("failed to claim window manager selection (another WM running?): %w", err)
	}

	if err := shape.Init(xu.Conn()); err == nil {
		c.hasShape = true
	}

	if err := ewmh.SupportedSet(xu, supported); err != nil {
		return nil, fmt.Errorf("failed to publish _NET_SUPPORTED: %w", err)
	}

	return c, nil
}

// EventLoop starts the main X11 event loop (blocking).
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Quit stops the event loop after the current event.
func (c *Connection) Quit() {
	xevent.Quit(c.XUtil)
}

// Close cleanly disconnects from the X11 server.
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}

// ScreenGeometry returns the root window rectangle.
func (c *Connection) ScreenGeometry() geometry.Rect {
	scr := c.XUtil.Screen()
	return geometry.Rect{
		X:      0,
		Y:      0,
		Width:  int(scr.WidthInPixels),
		Height: int(scr.HeightInPixels),
	}
}

// SetClientList publishes _NET_CLIENT_LIST on the root window.
func (c *Connection) SetClientList(wins []xproto.Window) {
	if err := ewmh.ClientListSet(c.XUtil, wins); err != nil {
		logPropertyError("_NET_CLIENT_LIST", err)
	}
}

// SetNumberOfDesktops publishes _NET_NUMBER_OF_DESKTOPS.
func (c *Connection) SetNumberOfDesktops(n uint) {
	if err := ewmh.NumberOfDesktopsSet(c.XUtil, n); err != nil {
		logPropertyError("_NET_NUMBER_OF_DESKTOPS", err)
	}
}

// SetDesktopNames publishes _NET_DESKTOP_NAMES.
func (c *Connection) SetDesktopNames(names []string) {
	if err := ewmh.DesktopNamesSet(c.XUtil, names); err != nil {
		logPropertyError("_NET_DESKTOP_NAMES", err)
	}
}

// SetCurrentDesktop publishes _NET_CURRENT_DESKTOP.
func (c *Connection) SetCurrentDesktop(d uint) {
	if err := ewmh.CurrentDesktopSet(c.XUtil, d); err != nil {
		logPropertyError("_NET_CURRENT_DESKTOP", err)
	}
}

// SetWorkArea publishes the same work area rectangle for every desktop as
// _NET_WORKAREA.
func (c *Connection) SetWorkArea(desktops uint, area geometry.Rect) {
	was := make([]ewmh.Workarea, desktops)
	for i := range was {
		was[i] = ewmh.Workarea{
			X:      area.X,
			Y:      area.Y,
			Width:  uint(area.Width),
			Height: uint(area.Height),
		}
	}
	if err := ewmh.WorkareaSet(c.XUtil, was); err != nil {
		logPropertyError("_NET_WORKAREA", err)
	}
}

// SetActiveWindow publishes _NET_ACTIVE_WINDOW.
func (c *Connection) SetActiveWindow(w xproto.Window) {
	if err := ewmh.ActiveWindowSet(c.XUtil, w); err != nil {
		logPropertyError("_NET_ACTIVE_WINDOW", err)
	}
}

// Root property writes are advisory; a failed write is logged, never fatal.
func logPropertyError(name string, err error) {
	slog.Warn("failed to set root property", "property", name, "error", err)
}
