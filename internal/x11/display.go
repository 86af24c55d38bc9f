package x11

import (
	"log/slog"

	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/winstate/internal/geometry"
)

// Display reads window properties and applies state-transition side
// effects over the shared connection. It implements client.Display.
type Display struct {
	conn *Connection
	log  *slog.Logger
}

// NewDisplay wraps the connection for per-window property access.
func NewDisplay(conn *Connection, log *slog.Logger) *Display {
	if log == nil {
		log = slog.Default()
	}
	return &Display{conn: conn, log: log}
}

// Geometry returns the window's root-relative rectangle and border width.
func (d *Display) Geometry(w xproto.Window) (geometry.Rect, int, error) {
	geom, err := xproto.GetGeometry(d.conn.XUtil.Conn(), xproto.Drawable(w)).Reply()
	if err != nil {
		return geometry.Rect{}, 0, err
	}

	translate, err := xproto.TranslateCoordinates(
		d.conn.XUtil.Conn(), w, d.conn.Root, 0, 0,
	).Reply()
	if err != nil {
		return geometry.Rect{}, 0, err
	}

	return geometry.Rect{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, int(geom.BorderWidth), nil
}

func (d *Display) NormalHints(w xproto.Window) *icccm.NormalHints {
	nh, err := icccm.WmNormalHintsGet(d.conn.XUtil, w)
	if err != nil {
		return nil
	}
	return nh
}

func (d *Display) WmHints(w xproto.Window) *icccm.Hints {
	wh, err := icccm.WmHintsGet(d.conn.XUtil, w)
	if err != nil {
		return nil
	}
	return wh
}

// MotifHints returns the raw _MOTIF_WM_HINTS payload, nil when absent.
func (d *Display) MotifHints(w xproto.Window) []uint {
	nums, err := xprop.PropValNums(xprop.GetProperty(d.conn.XUtil, w, "_MOTIF_WM_HINTS"))
	if err != nil {
		return nil
	}
	return nums
}

func (d *Display) TypeAtoms(w xproto.Window) []string {
	atoms, err := ewmh.WmWindowTypeGet(d.conn.XUtil, w)
	if err != nil {
		return nil
	}
	return atoms
}

func (d *Display) StateAtoms(w xproto.Window) []string {
	atoms, err := ewmh.WmStateGet(d.conn.XUtil, w)
	if err != nil {
		return nil
	}
	return atoms
}

func (d *Display) Desktop(w xproto.Window) (uint, bool) {
	desk, err := ewmh.WmDesktopGet(d.conn.XUtil, w)
	if err != nil {
		return 0, false
	}
	return desk, true
}

func (d *Display) Protocols(w xproto.Window) []string {
	protocols, err := icccm.WmProtocolsGet(d.conn.XUtil, w)
	if err != nil {
		return nil
	}
	return protocols
}

func (d *Display) Title(w xproto.Window) string {
	if name, err := ewmh.WmNameGet(d.conn.XUtil, w); err == nil && name != "" {
		return name
	}
	name, err := icccm.WmNameGet(d.conn.XUtil, w)
	if err != nil {
		return ""
	}
	return name
}

func (d *Display) IconTitle(w xproto.Window) string {
	if name, err := ewmh.WmIconNameGet(d.conn.XUtil, w); err == nil && name != "" {
		return name
	}
	name, err := icccm.WmIconNameGet(d.conn.XUtil, w)
	if err != nil {
		return ""
	}
	return name
}

func (d *Display) Class(w xproto.Window) (string, string) {
	class, err := icccm.WmClassGet(d.conn.XUtil, w)
	if err != nil {
		return "", ""
	}
	return class.Instance, class.Class
}

func (d *Display) Role(w xproto.Window) string {
	role, err := xprop.PropValStr(xprop.GetProperty(d.conn.XUtil, w, "WM_WINDOW_ROLE"))
	if err != nil {
		return ""
	}
	return role
}

func (d *Display) Icons(w xproto.Window) []ewmh.WmIcon {
	icons, err := ewmh.WmIconGet(d.conn.XUtil, w)
	if err != nil {
		return nil
	}
	return icons
}

func (d *Display) TransientFor(w xproto.Window) xproto.Window {
	parent, err := icccm.WmTransientForGet(d.conn.XUtil, w)
	if err != nil {
		return 0
	}
	return parent
}

// Strut returns the window's screen-edge reservation. Docks that only set
// the legacy _NET_WM_STRUT are widened to full-span partial struts.
func (d *Display) Strut(w xproto.Window) *ewmh.WmStrutPartial {
	if sp, err := ewmh.WmStrutPartialGet(d.conn.XUtil, w); err == nil {
		return sp
	}

	s, err := ewmh.WmStrutGet(d.conn.XUtil, w)
	if err != nil {
		return nil
	}
	scr := d.conn.ScreenGeometry()
	return &ewmh.WmStrutPartial{
		Left: s.Left, Right: s.Right, Top: s.Top, Bottom: s.Bottom,
		LeftStartY: 0, LeftEndY: uint(scr.Height - 1),
		RightStartY: 0, RightEndY: uint(scr.Height - 1),
		TopStartX: 0, TopEndX: uint(scr.Width - 1),
		BottomStartX: 0, BottomEndX: uint(scr.Width - 1),
	}
}

// Shaped reports whether the window uses a non-rectangular bounding shape.
func (d *Display) Shaped(w xproto.Window) bool {
	if !d.conn.hasShape {
		return false
	}
	reply, err := shape.QueryExtents(d.conn.XUtil.Conn(), w).Reply()
	if err != nil {
		return false
	}
	return reply.BoundingShaped
}

// Configure moves and resizes the window in one request.
func (d *Display) Configure(w xproto.Window, area geometry.Rect) {
	xwindow.New(d.conn.XUtil, w).MoveResize(area.X, area.Y, area.Width, area.Height)
}

func (d *Display) SetBorderWidth(w xproto.Window, width int) {
	xproto.ConfigureWindow(d.conn.XUtil.Conn(), w,
		xproto.ConfigWindowBorderWidth, []uint32{uint32(width)})
}

func (d *Display) MapWindow(w xproto.Window)   { xproto.MapWindow(d.conn.XUtil.Conn(), w) }
func (d *Display) UnmapWindow(w xproto.Window) { xproto.UnmapWindow(d.conn.XUtil.Conn(), w) }

func (d *Display) SetWMState(w xproto.Window, state int) {
	err := icccm.WmStateSet(d.conn.XUtil, w, &icccm.WmState{State: uint(state)})
	if err != nil {
		d.log.Warn("failed to set WM_STATE", "window", uint32(w), "error", err)
	}
}

func (d *Display) SetStateAtoms(w xproto.Window, atoms []string) {
	if err := ewmh.WmStateSet(d.conn.XUtil, w, atoms); err != nil {
		d.log.Warn("failed to set _NET_WM_STATE", "window", uint32(w), "error", err)
	}
}

func (d *Display) SetAllowedActions(w xproto.Window, actions []string) {
	if err := ewmh.WmAllowedActionsSet(d.conn.XUtil, w, actions); err != nil {
		d.log.Warn("failed to set _NET_WM_ALLOWED_ACTIONS", "window", uint32(w), "error", err)
	}
}

func (d *Display) SetDesktopProp(w xproto.Window, desktop uint) {
	if err := ewmh.WmDesktopSet(d.conn.XUtil, w, desktop); err != nil {
		d.log.Warn("failed to set _NET_WM_DESKTOP", "window", uint32(w), "error", err)
	}
}

// SendDelete delivers a WM_DELETE_WINDOW protocol message. The message is
// built manually because the xgbutil helpers panic on this library
// version.
func (d *Display) SendDelete(w xproto.Window) {
	d.sendProtocol(w, "WM_DELETE_WINDOW")
}

// SendTakeFocus delivers a WM_TAKE_FOCUS protocol message.
func (d *Display) SendTakeFocus(w xproto.Window) {
	d.sendProtocol(w, "WM_TAKE_FOCUS")
}

func (d *Display) sendProtocol(w xproto.Window, protocol string) {
	wmProtocols, err := xprop.Atm(d.conn.XUtil, "WM_PROTOCOLS")
	if err != nil {
		d.log.Warn("failed to intern WM_PROTOCOLS", "error", err)
		return
	}
	atom, err := xprop.Atm(d.conn.XUtil, protocol)
	if err != nil {
		d.log.Warn("failed to intern protocol atom", "protocol", protocol, "error", err)
		return
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: w,
		Type:   wmProtocols,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			uint32(atom), uint32(d.conn.XUtil.TimeGet()), 0, 0, 0,
		}),
	}

	err = xproto.SendEventChecked(
		d.conn.XUtil.Conn(), false, w, xproto.EventMaskNoEvent, string(ev.Bytes()),
	).Check()
	if err != nil {
		d.log.Warn("failed to send protocol message",
			"window", uint32(w), "protocol", protocol, "error", err)
	}
}

// FocusWindow assigns keyboard input focus directly.
func (d *Display) FocusWindow(w xproto.Window) {
	xproto.SetInputFocus(d.conn.XUtil.Conn(),
		xproto.InputFocusPointerRoot, w, d.conn.XUtil.TimeGet())
}

// Validate syncs with the server and reports whether the window is still
// live: false once a destroy or unmap notification for it is already
// queued.
func (d *Display) Validate(w xproto.Window) bool {
	d.conn.XUtil.Sync()
	xevent.Read(d.conn.XUtil, false)

	for _, ee := range xevent.Peek(d.conn.XUtil) {
		if ee.Err != nil {
			continue
		}
		switch ev := ee.Event.(type) {
		case xproto.DestroyNotifyEvent:
			if ev.Window == w {
				return false
			}
		case xproto.UnmapNotifyEvent:
			if ev.Window == w {
				return false
			}
		}
	}
	return true
}
