// Package client maintains the state of one managed client window: its
// normalized hints, constrained geometry, transient relations, decoration
// and function permissions, and lifecycle flags. All mutation happens on
// the single event-processing goroutine; see the screen package for the
// only construction and destruction paths.
package client

import (
	"log/slog"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/1broseidon/winstate/internal/deco"
	"github.com/1broseidon/winstate/internal/geometry"
	"github.com/1broseidon/winstate/internal/hints"
	"github.com/1broseidon/winstate/internal/relation"
	"github.com/1broseidon/winstate/internal/stacking"
)

// Display is the window-level X surface the client acts through: raw
// property reads feeding the hint decoder, and the side effects a state
// transition produces. The x11 package provides the real implementation;
// tests substitute a fake.
type Display interface {
	// Property reads.
	Geometry(w xproto.Window) (geometry.Rect, int, error)
	NormalHints(w xproto.Window) *icccm.NormalHints
	WmHints(w xproto.Window) *icccm.Hints
	MotifHints(w xproto.Window) []uint
	TypeAtoms(w xproto.Window) []string
	StateAtoms(w xproto.Window) []string
	Desktop(w xproto.Window) (uint, bool)
	Protocols(w xproto.Window) []string
	Title(w xproto.Window) string
	IconTitle(w xproto.Window) string
	Class(w xproto.Window) (name, class string)
	Role(w xproto.Window) string
	Icons(w xproto.Window) []ewmh.WmIcon
	TransientFor(w xproto.Window) xproto.Window
	Strut(w xproto.Window) *ewmh.WmStrutPartial
	Shaped(w xproto.Window) bool

	// Side effects.
	Configure(w xproto.Window, area geometry.Rect)
	SetBorderWidth(w xproto.Window, width int)
	MapWindow(w xproto.Window)
	UnmapWindow(w xproto.Window)
	SetWMState(w xproto.Window, state int)
	SetStateAtoms(w xproto.Window, atoms []string)
	SetAllowedActions(w xproto.Window, actions []string)
	SetDesktopProp(w xproto.Window, desktop uint)
	SendDelete(w xproto.Window)
	FocusWindow(w xproto.Window)
	SendTakeFocus(w xproto.Window)

	// Validate reports whether the window is still live, by checking that
	// no destroy or unmap notification is already queued for it.
	Validate(w xproto.Window) bool
}

// Screen is the per-screen collaborator a client consults for desktop
// bookkeeping and screen geometry.
type Screen interface {
	DesktopCount() uint
	CurrentDesktop() uint

	// WorkArea is the strut-adjusted region available for maximized
	// windows on the given desktop.
	WorkArea(desktop uint) geometry.Rect

	// ScreenArea is the full screen rectangle, used by fullscreen.
	ScreenArea() geometry.Rect

	// Internal reports whether the window belongs to the window manager
	// itself.
	Internal(w xproto.Window) bool
}

// Resolver finds the client owning a window id. The screen registry
// implements it.
type Resolver interface {
	Lookup(w xproto.Window) *Client
}

// Client is the state model for one managed window.
type Client struct {
	win         xproto.Window
	screenIndex int

	display  Display
	screen   Screen
	graph    *relation.Graph
	resolver Resolver
	log      *slog.Logger

	// Geometry.
	area        geometry.Rect
	constraints geometry.Constraints
	logicalSize geometry.Size
	borderWidth int
	positioned  bool

	// Identity hints.
	title     string
	iconTitle string
	appName   string
	appClass  string
	role      string
	wtype     hints.WindowType
	desktop   uint
	group     xproto.Window

	// Protocol capabilities.
	protocols   hints.Protocols
	canFocus    bool
	focusNotify bool

	// Lifecycle flags.
	iconic      bool
	shaded      bool
	maxVert     bool
	maxHorz     bool
	fullscreen  bool
	modal       bool
	urgent      bool
	focused     bool
	above       bool
	below       bool
	skipPager   bool
	skipTaskbar bool
	shaped      bool

	// Derived masks and layer.
	mwm                 hints.MwmHints
	decorations         deco.DecorFlags
	disabledDecorations deco.DecorFlags
	functions           deco.FuncFlags
	layer               stacking.Layer

	// Icons.
	icons      []hints.Icon
	iconPixmap xproto.Pixmap
	iconMask   xproto.Pixmap

	strut   *ewmh.WmStrutPartial
	wmState int

	// Save/restore areas for maximize and fullscreen.
	savedMax      geometry.Rect
	savedMaxValid bool
	savedFull     fullscreenSave

	// Pre-shade height, restored by Shade(false).
	preShadeHeight int

	// ignoreUnmaps debounces unmap notifications caused by the window
	// manager's own unmapping of the window.
	ignoreUnmaps int
}

type fullscreenSave struct {
	area        geometry.Rect
	decorations deco.DecorFlags
	functions   deco.FuncFlags
	layer       stacking.Layer
	valid       bool
}

// Config carries the collaborators a new client needs. Only the screen
// package should construct clients.
type Config struct {
	Window      xproto.Window
	ScreenIndex int
	Display     Display
	Screen      Screen
	Graph       *relation.Graph
	Resolver    Resolver
	Logger      *slog.Logger
}

// New builds the client model for a newly managed window: every hint
// category is decoded once, the decoration arbiter and layer calculator run
// once, and the saved border is removed so the frame can draw its own.
// Startup states (initially iconic, initially maximized) are applied by a
// separate ApplyStartupState call so the caller can register the client
// first.
func New(cfg Config) (*Client, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	c := &Client{
		win:         cfg.Window,
		screenIndex: cfg.ScreenIndex,
		display:     cfg.Display,
		screen:      cfg.Screen,
		graph:       cfg.Graph,
		resolver:    cfg.Resolver,
		log:         log.With("window", uint32(cfg.Window)),
		wmState:     icccm.StateNormal,
	}

	area, border, err := cfg.Display.Geometry(cfg.Window)
	if err != nil {
		return nil, err
	}
	c.area = area
	c.borderWidth = border

	c.refreshType()
	c.refreshNormalHints()
	c.refreshWmHints()
	c.refreshMwmHints()
	c.refreshProtocols()
	c.refreshTitle()
	c.refreshIconTitle()
	c.refreshClass()
	c.refreshRole()
	c.refreshIcons()
	c.refreshStrut()
	c.refreshDesktop()
	c.refreshInitialState()
	c.refreshTransientFor()
	c.shaped = cfg.Display.Shaped(cfg.Window)

	// The frame draws its own border; drop the client's and shift the
	// window so its gravity reference point stays put.
	if c.borderWidth != 0 {
		dx, dy := geometry.GravityOffset(c.constraints.Gravity, c.borderWidth)
		c.area.X += dx
		c.area.Y += dy
		cfg.Display.SetBorderWidth(cfg.Window, 0)
		cfg.Display.Configure(cfg.Window, c.area)
	}

	c.setupDecorAndFunctions()
	c.calcLayer()
	c.changeState()
	return c, nil
}

// Window returns the X window id this client wraps.
func (c *Client) Window() xproto.Window { return c.win }

// ScreenIndex returns the screen the window resides on.
func (c *Client) ScreenIndex() int { return c.screenIndex }

// Area returns the window's position and size relative to the root window.
func (c *Client) Area() geometry.Rect { return c.area }

// LogicalSize is the size shown to the user, in increment units when the
// window declared increments.
func (c *Client) LogicalSize() geometry.Size { return c.logicalSize }

// Constraints returns the normalized sizing constraints.
func (c *Client) Constraints() geometry.Constraints { return c.constraints }

// PositionRequested reports whether the application asked for its initial
// position; when false the window manager should place the window itself.
func (c *Client) PositionRequested() bool { return c.positioned }

func (c *Client) Title() string          { return c.title }
func (c *Client) IconTitle() string      { return c.iconTitle }
func (c *Client) AppName() string        { return c.appName }
func (c *Client) AppClass() string       { return c.appClass }
func (c *Client) Role() string           { return c.role }
func (c *Client) Type() hints.WindowType { return c.wtype }
func (c *Client) Desktop() uint          { return c.desktop }
func (c *Client) Group() xproto.Window   { return c.group }

// Normal reports whether the window gets regular focus/interaction rules.
func (c *Client) Normal() bool { return c.wtype.Normal() }

func (c *Client) CanFocus() bool    { return c.canFocus }
func (c *Client) FocusNotify() bool { return c.focusNotify }

// SupportsDelete reports whether the window speaks WM_DELETE_WINDOW.
func (c *Client) SupportsDelete() bool { return c.protocols.DeleteWindow }

func (c *Client) Iconic() bool      { return c.iconic }
func (c *Client) Shaded() bool      { return c.shaded }
func (c *Client) MaxVert() bool     { return c.maxVert }
func (c *Client) MaxHorz() bool     { return c.maxHorz }
func (c *Client) Fullscreen() bool  { return c.fullscreen }
func (c *Client) Modal() bool       { return c.modal }
func (c *Client) Urgent() bool      { return c.urgent }
func (c *Client) Focused() bool     { return c.focused }
func (c *Client) Above() bool       { return c.above }
func (c *Client) Below() bool       { return c.below }
func (c *Client) SkipPager() bool   { return c.skipPager }
func (c *Client) SkipTaskbar() bool { return c.skipTaskbar }
func (c *Client) Shaped() bool      { return c.shaped }

func (c *Client) Decorations() deco.DecorFlags         { return c.decorations }
func (c *Client) DisabledDecorations() deco.DecorFlags { return c.disabledDecorations }
func (c *Client) Functions() deco.FuncFlags            { return c.functions }
func (c *Client) Layer() stacking.Layer                { return c.layer }

// Strut returns the screen-edge reservation the window declared, or nil.
func (c *Client) Strut() *ewmh.WmStrutPartial { return c.strut }

// TransientFor returns the window this client is transient for, or nil.
func (c *Client) TransientFor() *Client {
	p, ok := c.graph.Parent(c.win)
	if !ok {
		return nil
	}
	return c.resolver.Lookup(p)
}

// Icon picks the best decoded icon for the wanted size; see hints.BestIcon.
func (c *Client) Icon(want geometry.Size) *hints.Icon {
	return hints.BestIcon(c.icons, want)
}

// PixmapIcon returns the fallback pixmap icon and mask from WM_HINTS. The
// icons from Icon take precedence.
func (c *Client) PixmapIcon() (xproto.Pixmap, xproto.Pixmap) {
	return c.iconPixmap, c.iconMask
}

// Validate reports whether the window is still live. Callers must check it
// before operations that assume the window handle is valid.
func (c *Client) Validate() bool {
	return c.display.Validate(c.win)
}

// FindModalChild returns a modal descendant in the transient tree, or nil.
func (c *Client) FindModalChild() *Client {
	w, ok := c.graph.Search(c.win, c.win, func(w xproto.Window) bool {
		cc := c.resolver.Lookup(w)
		return cc != nil && cc.modal
	})
	if !ok {
		return nil
	}
	return c.resolver.Lookup(w)
}

// FindFocusedChild returns a focused descendant in the transient tree, or
// nil.
func (c *Client) FindFocusedChild() *Client {
	w, ok := c.graph.Search(c.win, c.win, func(w xproto.Window) bool {
		cc := c.resolver.Lookup(w)
		return cc != nil && cc.focused
	})
	if !ok {
		return nil
	}
	return c.resolver.Lookup(w)
}

// Detach fixes up the relation graph before the client is released:
// transient children move to this client's own parent, or become orphans.
// Called only by the screen's unmanage path.
func (c *Client) Detach() {
	c.graph.DetachOnDestroy(c.win)
}

// refreshType re-reads _NET_WM_WINDOW_TYPE.
func (c *Client) refreshType() {
	c.wtype = hints.DecodeType(c.display.TypeAtoms(c.win))
}

// refreshNormalHints re-reads WM_NORMAL_HINTS and renormalizes the
// geometry constraints.
func (c *Client) refreshNormalHints() {
	nh := hints.DecodeNormalHints(c.display.NormalHints(c.win))
	c.constraints = nh.Constraints
	c.positioned = nh.Positioned
	c.logicalSize = c.constraints.LogicalSize(c.area.Size())
}

// refreshWmHints re-reads WM_HINTS. The initial-iconic state is only
// honored during mapping (refreshInitialState); afterwards only the focus
// model, urgency and group can change.
func (c *Client) refreshWmHints() {
	wh := hints.DecodeWmHints(c.display.WmHints(c.win))
	c.canFocus = wh.CanFocus
	c.group = wh.Group
	c.iconPixmap = wh.IconPixmap
	c.iconMask = wh.IconMask

	if wh.Urgent && !c.urgent {
		c.FireUrgent()
	} else if !wh.Urgent {
		c.urgent = false
	}
}

func (c *Client) refreshMwmHints() {
	c.mwm = hints.DecodeMwm(c.display.MotifHints(c.win))
}

func (c *Client) refreshProtocols() {
	c.protocols = hints.DecodeProtocols(c.display.Protocols(c.win))
	c.focusNotify = c.protocols.TakeFocus
}

func (c *Client) refreshTitle() {
	c.title = hints.DecodeTitle(c.display.Title(c.win))
}

func (c *Client) refreshIconTitle() {
	c.iconTitle = hints.DecodeTitle(c.display.IconTitle(c.win), c.title)
}

func (c *Client) refreshClass() {
	c.appName, c.appClass = c.display.Class(c.win)
}

func (c *Client) refreshRole() {
	c.role = c.display.Role(c.win)
}

func (c *Client) refreshIcons() {
	c.icons = hints.DecodeIcons(c.display.Icons(c.win))
}

func (c *Client) refreshStrut() {
	c.strut = c.display.Strut(c.win)
}

// refreshDesktop reads _NET_WM_DESKTOP, falling back to the current
// desktop when the property is absent or out of range.
func (c *Client) refreshDesktop() {
	d, ok := c.display.Desktop(c.win)
	if !ok || !hints.ValidDesktop(d, c.screen.DesktopCount()) {
		d = c.screen.CurrentDesktop()
	}
	c.desktop = d
	c.display.SetDesktopProp(c.win, d)
}

// refreshInitialState folds the _NET_WM_STATE set on the window at map
// time into the client's flags. Run once during construction; later state
// changes arrive as client messages.
func (c *Client) refreshInitialState() {
	s := hints.DecodeState(c.display.StateAtoms(c.win))
	c.modal = s.Modal
	c.shaded = s.Shaded
	c.maxVert = s.MaxVert
	c.maxHorz = s.MaxHorz
	c.fullscreen = s.Fullscreen
	c.above = s.Above
	c.below = s.Below
	c.skipTaskbar = s.SkipTaskbar
	c.skipPager = s.SkipPager
	if s.Urgent {
		c.urgent = true
	}

	wh := hints.DecodeWmHints(c.display.WmHints(c.win))
	if wh.InitiallyIconic {
		c.iconic = true
	}
}

// refreshTransientFor re-reads WM_TRANSIENT_FOR and updates the relation
// graph, dropping edges that would create a cycle.
func (c *Client) refreshTransientFor() {
	parent := c.display.TransientFor(c.win)
	if parent == c.win {
		parent = 0
	}
	if parent != 0 && c.resolver != nil && c.resolver.Lookup(parent) == nil {
		// Not a managed window (possibly the root, marking a group
		// transient); treat as no parent.
		parent = 0
	}
	if err := c.graph.SetTransientFor(c.win, parent); err != nil {
		c.log.Warn("rejecting transient-for relation", "parent", uint32(parent), "error", err)
	}
}

// setupDecorAndFunctions re-arbitrates the decoration and function masks
// from their three sources and publishes the allowed actions. While
// fullscreen is active the arbitration result is withheld: decorations
// stay suppressed and are restored from the fullscreen save on exit.
func (c *Client) setupDecorAndFunctions() {
	decor, functions := deco.Arbitrate(deco.Inputs{
		Type:           c.wtype,
		Mwm:            c.mwm,
		Disabled:       c.disabledDecorations,
		Resizable:      c.constraints.Resizable(),
		SupportsDelete: c.protocols.DeleteWindow,
	})

	if c.fullscreen {
		// Keep the suppressed masks; remember what to restore instead.
		c.savedFull.decorations = decor
		c.savedFull.functions = functions
		return
	}
	c.decorations = decor
	c.functions = functions
	c.display.SetAllowedActions(c.win, deco.AllowedActions(functions))
}

// calcLayer rederives the stacking layer from the current flags.
func (c *Client) calcLayer() {
	c.layer = stacking.Compute(stacking.Input{
		Type:       c.wtype,
		Fullscreen: c.fullscreen,
		Iconic:     c.iconic,
		Above:      c.above,
		Below:      c.below,
		Internal:   c.screen.Internal(c.win),
	})
}

// changeState writes the ICCCM WM_STATE and the _NET_WM_STATE atom list
// back onto the window so pagers and taskbars see the flags we hold.
func (c *Client) changeState() {
	c.display.SetWMState(c.win, c.wmState)

	var atoms []string
	if c.modal {
		atoms = append(atoms, "_NET_WM_STATE_MODAL")
	}
	if c.shaded {
		atoms = append(atoms, "_NET_WM_STATE_SHADED")
	}
	if c.maxVert {
		atoms = append(atoms, "_NET_WM_STATE_MAXIMIZED_VERT")
	}
	if c.maxHorz {
		atoms = append(atoms, "_NET_WM_STATE_MAXIMIZED_HORZ")
	}
	if c.fullscreen {
		atoms = append(atoms, "_NET_WM_STATE_FULLSCREEN")
	}
	if c.above {
		atoms = append(atoms, "_NET_WM_STATE_ABOVE")
	}
	if c.below {
		atoms = append(atoms, "_NET_WM_STATE_BELOW")
	}
	if c.skipTaskbar {
		atoms = append(atoms, "_NET_WM_STATE_SKIP_TASKBAR")
	}
	if c.skipPager {
		atoms = append(atoms, "_NET_WM_STATE_SKIP_PAGER")
	}
	if c.iconic {
		atoms = append(atoms, "_NET_WM_STATE_HIDDEN")
	}
	if c.urgent {
		atoms = append(atoms, "_NET_WM_STATE_DEMANDS_ATTENTION")
	}
	c.display.SetStateAtoms(c.win, atoms)
}
