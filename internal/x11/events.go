package x11

import (
	"log/slog"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/winstate/internal/client"
)

// Handler receives translated window events. The screen package implements
// it.
type Handler interface {
	Dispatch(w xproto.Window, ev client.Event)
	SetCurrentDesktop(d uint)
}

// Events a managed window is listened for.
const clientEventMask = xproto.EventMaskPropertyChange |
	xproto.EventMaskStructureNotify

// AttachHandler registers the root-window event callbacks and starts
// routing translated events into the handler. Call once before EventLoop.
func (c *Connection) AttachHandler(h Handler, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}

	xevent.MapRequestFun(func(xu *xgbutil.XUtil, ev xevent.MapRequestEvent) {
		c.ListenWindow(ev.Window, h, log)
		h.Dispatch(ev.Window, client.MapRequest{})
	}).Connect(c.XUtil, c.Root)

	xevent.ConfigureRequestFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureRequestEvent) {
		h.Dispatch(ev.Window, client.ConfigureRequest{
			X:         int(ev.X),
			Y:         int(ev.Y),
			Width:     int(ev.Width),
			Height:    int(ev.Height),
			ValueMask: ev.ValueMask,
		})
	}).Connect(c.XUtil, c.Root)

	xevent.UnmapNotifyFun(func(xu *xgbutil.XUtil, ev xevent.UnmapNotifyEvent) {
		h.Dispatch(ev.Window, client.Unmap{})
	}).Connect(c.XUtil, c.Root)

	xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		h.Dispatch(ev.Window, client.Destroy{})
	}).Connect(c.XUtil, c.Root)

	xevent.ReparentNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ReparentNotifyEvent) {
		// Only a reparent away from the root ends management.
		if ev.Parent != c.Root {
			h.Dispatch(ev.Window, client.Reparent{})
		}
	}).Connect(c.XUtil, c.Root)

	xevent.ClientMessageFun(func(xu *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
		c.routeClientMessage(h, ev, log)
	}).Connect(c.XUtil, c.Root)
}

// ListenWindow subscribes to the per-window events a managed client needs
// and wires property-change routing for it.
func (c *Connection) ListenWindow(w xproto.Window, h Handler, log *slog.Logger) {
	if err := xwindow.New(c.XUtil, w).Listen(clientEventMask); err != nil {
		log.Warn("failed to listen on window", "window", uint32(w), "error", err)
		return
	}

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil {
			return
		}
		h.Dispatch(ev.Window, client.PropertyChanged{Atom: name})
	}).Connect(c.XUtil, w)
}

// routeClientMessage resolves the message type atom and forwards the
// request, translating the screen-level desktop switch separately.
func (c *Connection) routeClientMessage(h Handler, ev xevent.ClientMessageEvent, log *slog.Logger) {
	name, err := xprop.AtomName(c.XUtil, ev.Type)
	if err != nil {
		log.Debug("dropping client message with unknown type atom", "error", err)
		return
	}

	data := ev.Data.Data32
	if name == "_NET_CURRENT_DESKTOP" {
		h.SetCurrentDesktop(uint(data[0]))
		return
	}

	msg := client.ClientMessage{Type: name}
	for i := 0; i < len(msg.Data) && i < len(data); i++ {
		msg.Data[i] = uint(data[i])
	}

	// _NET_WM_STATE carries one or two state atoms in data[1] and data[2].
	if name == "_NET_WM_STATE" {
		for i, raw := range []uint32{data[1], data[2]} {
			if raw == 0 {
				continue
			}
			atom, err := xprop.AtomName(c.XUtil, xproto.Atom(raw))
			if err != nil {
				continue
			}
			msg.StateAtoms[i] = atom
		}
	}

	h.Dispatch(ev.Window, msg)
}

// AdoptExisting manages the windows that were already mapped when the
// window manager started. Override-redirect and unmapped windows are
// skipped.
func (c *Connection) AdoptExisting(h Handler, log *slog.Logger) {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		log.Error("failed to query window tree", "error", err)
		return
	}

	for _, w := range tree.Children {
		attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), w).Reply()
		if err != nil {
			continue
		}
		if attrs.OverrideRedirect || attrs.MapState != xproto.MapStateViewable {
			continue
		}
		c.ListenWindow(w, h, log)
		h.Dispatch(w, client.MapRequest{})
	}
}
