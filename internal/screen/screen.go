// Package screen owns the set of managed clients on one X screen: it is
// the only place clients are constructed and destroyed, it tracks the
// current desktop and the strut-adjusted work area, and it routes window
// events to the owning client.
package screen

import (
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/winstate/internal/client"
	"github.com/1broseidon/winstate/internal/config"
	"github.com/1broseidon/winstate/internal/geometry"
	"github.com/1broseidon/winstate/internal/hints"
	"github.com/1broseidon/winstate/internal/relation"
)

// Root publishes screen-wide EWMH properties on the root window. The x11
// package provides the real implementation.
type Root interface {
	ScreenGeometry() geometry.Rect
	SetClientList(wins []xproto.Window)
	SetNumberOfDesktops(n uint)
	SetDesktopNames(names []string)
	SetCurrentDesktop(d uint)
	SetWorkArea(desktops uint, area geometry.Rect)
	SetActiveWindow(w xproto.Window)
}

// Config carries the collaborators and settings a screen needs.
type Config struct {
	Display client.Display
	Root    Root
	Conf    *config.Config
	Logger  *slog.Logger
}

// Screen is the client registry and desktop model for one X screen.
type Screen struct {
	display client.Display
	root    Root
	conf    *config.Config
	graph   *relation.Graph
	log     *slog.Logger

	mu       sync.RWMutex
	clients  map[xproto.Window]*client.Client
	order    []xproto.Window
	internal map[xproto.Window]struct{}

	desktops   uint
	names      []string
	current    uint
	screenArea geometry.Rect
	workArea   geometry.Rect

	focus *client.Client
}

// New sets up the screen model and publishes the initial desktop layout on
// the root window. No windows are managed yet; the caller adopts existing
// windows and then starts the event loop.
func New(cfg Config) *Screen {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Screen{
		display:  cfg.Display,
		root:     cfg.Root,
		conf:     cfg.Conf,
		graph:    relation.New(),
		log:      log,
		clients:  make(map[xproto.Window]*client.Client),
		internal: make(map[xproto.Window]struct{}),
		desktops: cfg.Conf.Desktops.Count,
		names:    cfg.Conf.Desktops.Names,
		current:  0,
	}
	s.screenArea = cfg.Root.ScreenGeometry()
	s.workArea = s.screenArea

	s.root.SetNumberOfDesktops(s.desktops)
	s.root.SetDesktopNames(s.names)
	s.root.SetCurrentDesktop(s.current)
	s.root.SetWorkArea(s.desktops, s.workArea)
	s.root.SetClientList(nil)
	return s
}

// DesktopCount implements client.Screen.
func (s *Screen) DesktopCount() uint { return s.desktops }

// CurrentDesktop implements client.Screen.
func (s *Screen) CurrentDesktop() uint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// WorkArea implements client.Screen. All desktops share the screen's
// strut-adjusted work area.
func (s *Screen) WorkArea(uint) geometry.Rect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workArea
}

// ScreenArea implements client.Screen.
func (s *Screen) ScreenArea() geometry.Rect { return s.screenArea }

// Internal implements client.Screen.
func (s *Screen) Internal(w xproto.Window) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.internal[w]
	return ok
}

// MarkInternal registers a window as belonging to the window manager
// itself, pinning it to the topmost stacking layer.
func (s *Screen) MarkInternal(w xproto.Window) {
	s.mu.Lock()
	s.internal[w] = struct{}{}
	s.mu.Unlock()
}

// Lookup implements client.Resolver.
func (s *Screen) Lookup(w xproto.Window) *client.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients[w]
}

// Clients returns the managed clients in management order.
func (s *Screen) Clients() []*client.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*client.Client, 0, len(s.order))
	for _, w := range s.order {
		out = append(out, s.clients[w])
	}
	return out
}

// Manage adopts a window: the client model is built, matching window rules
// are applied, startup states run, and the window is shown or hidden
// according to its desktop. Managing an already-managed window returns the
// existing client.
func (s *Screen) Manage(win xproto.Window) (*client.Client, error) {
	if c := s.Lookup(win); c != nil {
		return c, nil
	}

	c, err := client.New(client.Config{
		Window:   win,
		Display:  s.display,
		Screen:   s,
		Graph:    s.graph,
		Resolver: s,
		Logger:   s.log,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.clients[win] = c
	s.order = append(s.order, win)
	s.mu.Unlock()

	s.applyRules(c)
	c.ApplyStartupState()
	c.ShowHide()

	if c.Strut() != nil {
		s.updateWorkArea()
	}
	s.publishClientList()

	if s.conf.FocusNew && c.Normal() && !c.Iconic() {
		s.FocusClient(c)
	}

	s.log.Info("managed window",
		"window", uint32(win), "title", c.Title(), "type", c.Type().String())
	return c, nil
}

// Unmanage releases a client: transient children are re-parented, the
// registry entry is dropped, and focus moves on if the window held it.
func (s *Screen) Unmanage(win xproto.Window) {
	c := s.Lookup(win)
	if c == nil {
		return
	}

	c.Detach()

	s.mu.Lock()
	delete(s.clients, win)
	for i, w := range s.order {
		if w == win {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	hadFocus := s.focus == c
	if hadFocus {
		s.focus = nil
	}
	s.mu.Unlock()

	if c.Strut() != nil {
		s.updateWorkArea()
	}
	s.publishClientList()

	if hadFocus {
		s.focusFallback(c)
	}

	s.log.Info("unmanaged window", "window", uint32(win), "title", c.Title())
}

// Dispatch routes one event to the owning client. A map request for an
// unmanaged window starts managing it; a client reporting itself gone is
// unmanaged.
func (s *Screen) Dispatch(win xproto.Window, ev client.Event) {
	c := s.Lookup(win)
	if c == nil {
		if _, ok := ev.(client.MapRequest); ok {
			if _, err := s.Manage(win); err != nil {
				s.log.Warn("failed to manage window", "window", uint32(win), "error", err)
			}
		}
		return
	}

	// Activation involves the previous focus holder, so the screen handles
	// it rather than the client.
	if cm, ok := ev.(client.ClientMessage); ok && cm.Type == "_NET_ACTIVE_WINDOW" {
		if c.Iconic() {
			c.Iconify(false, true)
		}
		s.FocusClient(c)
		return
	}

	unmanage := c.HandleEvent(ev)

	if pc, ok := ev.(client.PropertyChanged); ok {
		if pc.Atom == "_NET_WM_STRUT" || pc.Atom == "_NET_WM_STRUT_PARTIAL" {
			s.updateWorkArea()
		}
	}

	if unmanage {
		s.Unmanage(win)
	}
}

// SetCurrentDesktop switches the visible desktop, recomputing every
// client's visibility.
func (s *Screen) SetCurrentDesktop(d uint) {
	if !hints.ValidDesktop(d, s.desktops) || d == hints.AllDesktops {
		s.log.Warn("rejecting invalid desktop switch", "desktop", d)
		return
	}

	s.mu.Lock()
	if s.current == d {
		s.mu.Unlock()
		return
	}
	s.current = d
	s.mu.Unlock()

	s.root.SetCurrentDesktop(d)
	for _, c := range s.Clients() {
		c.ShowHide()
	}

	if f := s.Focused(); f == nil || !f.OnDesktop(d) {
		s.focusFallback(f)
	}
}

// FocusClient gives the client input focus, redirecting to a modal child
// when one exists. Focus leaves the previous holder first.
func (s *Screen) FocusClient(c *client.Client) bool {
	if modal := c.FindModalChild(); modal != nil {
		c = modal
	}

	prev := s.Focused()
	if prev == c {
		return true
	}
	if !c.Focus() {
		return false
	}
	if prev != nil {
		prev.Unfocus()
	}

	s.mu.Lock()
	s.focus = c
	s.mu.Unlock()
	s.root.SetActiveWindow(c.Window())
	return true
}

// Focused returns the client holding input focus, or nil.
func (s *Screen) Focused() *client.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.focus
}

// focusFallback picks the next focus holder after gone lost it: the
// transient parent when there is one, otherwise the most recently managed
// focusable window on the current desktop.
func (s *Screen) focusFallback(gone *client.Client) {
	if gone != nil {
		if p := gone.TransientFor(); p != nil && p.OnDesktop(s.CurrentDesktop()) {
			if s.FocusClient(p) {
				return
			}
		}
	}

	clients := s.Clients()
	for i := len(clients) - 1; i >= 0; i-- {
		c := clients[i]
		if c == gone || c.Iconic() || !c.Normal() || !c.OnDesktop(s.CurrentDesktop()) {
			continue
		}
		if s.FocusClient(c) {
			return
		}
	}

	// Nothing left to focus.
	if prev := s.Focused(); prev != nil {
		prev.Unfocus()
	}
	s.mu.Lock()
	s.focus = nil
	s.mu.Unlock()
	s.root.SetActiveWindow(0)
}

// updateWorkArea recomputes the strut-adjusted work area from every
// managed client's reservation. When it changes, maximized windows are
// re-fit to the new area.
func (s *Screen) updateWorkArea() {
	var struts []*ewmh.WmStrutPartial
	for _, c := range s.Clients() {
		if sp := c.Strut(); sp != nil {
			struts = append(struts, sp)
		}
	}
	wa := computeWorkArea(s.screenArea, struts)

	s.mu.Lock()
	changed := wa != s.workArea
	s.workArea = wa
	s.mu.Unlock()

	if !changed {
		return
	}
	s.root.SetWorkArea(s.desktops, wa)
	for _, c := range s.Clients() {
		c.Remaximize()
	}
	s.log.Debug("work area changed",
		"x", wa.X, "y", wa.Y, "width", wa.Width, "height", wa.Height)
}

func (s *Screen) publishClientList() {
	s.mu.RLock()
	wins := append([]xproto.Window(nil), s.order...)
	s.mu.RUnlock()
	s.root.SetClientList(wins)
}

// applyRules applies the first matching window rule from the config.
func (s *Screen) applyRules(c *client.Client) {
	for i := range s.conf.Rules {
		r := &s.conf.Rules[i]
		if !r.Match(c.AppName(), c.AppClass(), c.Role(), c.Title()) {
			continue
		}
		if mask := r.DisabledDecorations(); mask != 0 {
			c.DisableDecorations(mask)
		}
		switch {
		case r.AllDesktops:
			c.SetDesktop(hints.AllDesktops)
		case r.Desktop != nil:
			c.SetDesktop(*r.Desktop)
		}
		if r.SkipTaskbar {
			c.SetSkipTaskbar(true)
		}
		if r.SkipPager {
			c.SetSkipPager(true)
		}
		switch r.Layer {
		case "above":
			c.SetAbove(true)
		case "below":
			c.SetBelow(true)
		}
		s.log.Debug("applied window rule",
			"window", uint32(c.Window()), "rule", i)
		return
	}
}

// Snapshots returns an immutable view of every managed client, in
// management order.
func (s *Screen) Snapshots() []client.Snapshot {
	clients := s.Clients()
	out := make([]client.Snapshot, 0, len(clients))
	for _, c := range clients {
		out = append(out, c.Snapshot())
	}
	return out
}
