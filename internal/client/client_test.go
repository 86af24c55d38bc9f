package client

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/1broseidon/winstate/internal/deco"
	"github.com/1broseidon/winstate/internal/geometry"
	"github.com/1broseidon/winstate/internal/hints"
	"github.com/1broseidon/winstate/internal/relation"
	"github.com/1broseidon/winstate/internal/stacking"
)

// fakeDisplay implements Display against in-memory property tables and
// records the side effects a transition produces.
type fakeDisplay struct {
	geom        geometry.Rect
	border      int
	normalHints *icccm.NormalHints
	wmHints     *icccm.Hints
	motif       []uint
	typeAtoms   []string
	stateAtoms  []string
	desktop     uint
	desktopSet  bool
	protocols   []string
	title       string
	iconTitle   string
	appName     string
	appClass    string
	role        string
	icons       []ewmh.WmIcon
	transient   xproto.Window
	strut       *ewmh.WmStrutPartial
	shaped      bool
	valid       bool

	configures     []geometry.Rect
	mapped         int
	unmapped       int
	wmState        int
	netStates      []string
	allowedActions []string
	desktopProp    uint
	deletesSent    int
	focusSet       int
	takeFocusSent  int
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{
		geom:  geometry.Rect{X: 50, Y: 50, Width: 300, Height: 200},
		valid: true,
	}
}

func (d *fakeDisplay) Geometry(xproto.Window) (geometry.Rect, int, error) {
	return d.geom, d.border, nil
}
func (d *fakeDisplay) NormalHints(xproto.Window) *icccm.NormalHints { return d.normalHints }
func (d *fakeDisplay) WmHints(xproto.Window) *icccm.Hints           { return d.wmHints }
func (d *fakeDisplay) MotifHints(xproto.Window) []uint              { return d.motif }
func (d *fakeDisplay) TypeAtoms(xproto.Window) []string             { return d.typeAtoms }
func (d *fakeDisplay) StateAtoms(xproto.Window) []string            { return d.stateAtoms }
func (d *fakeDisplay) Desktop(xproto.Window) (uint, bool)           { return d.desktop, d.desktopSet }
func (d *fakeDisplay) Protocols(xproto.Window) []string             { return d.protocols }
func (d *fakeDisplay) Title(xproto.Window) string                   { return d.title }
func (d *fakeDisplay) IconTitle(xproto.Window) string               { return d.iconTitle }
func (d *fakeDisplay) Class(xproto.Window) (string, string)         { return d.appName, d.appClass }
func (d *fakeDisplay) Role(xproto.Window) string                    { return d.role }
func (d *fakeDisplay) Icons(xproto.Window) []ewmh.WmIcon            { return d.icons }
func (d *fakeDisplay) TransientFor(xproto.Window) xproto.Window     { return d.transient }
func (d *fakeDisplay) Strut(xproto.Window) *ewmh.WmStrutPartial     { return d.strut }
func (d *fakeDisplay) Shaped(xproto.Window) bool                    { return d.shaped }

func (d *fakeDisplay) Configure(_ xproto.Window, area geometry.Rect) {
	d.configures = append(d.configures, area)
}
func (d *fakeDisplay) SetBorderWidth(xproto.Window, int)  {}
func (d *fakeDisplay) MapWindow(xproto.Window)            { d.mapped++ }
func (d *fakeDisplay) UnmapWindow(xproto.Window)          { d.unmapped++ }
func (d *fakeDisplay) SetWMState(_ xproto.Window, s int)  { d.wmState = s }
func (d *fakeDisplay) SetStateAtoms(_ xproto.Window, atoms []string) {
	d.netStates = append([]string(nil), atoms...)
}
func (d *fakeDisplay) SetAllowedActions(_ xproto.Window, actions []string) {
	d.allowedActions = append([]string(nil), actions...)
}
func (d *fakeDisplay) SetDesktopProp(_ xproto.Window, desk uint) { d.desktopProp = desk }
func (d *fakeDisplay) SendDelete(xproto.Window)                  { d.deletesSent++ }
func (d *fakeDisplay) FocusWindow(xproto.Window)                 { d.focusSet++ }
func (d *fakeDisplay) SendTakeFocus(xproto.Window)               { d.takeFocusSent++ }
func (d *fakeDisplay) Validate(xproto.Window) bool               { return d.valid }

func (d *fakeDisplay) hasNetState(atom string) bool {
	for _, a := range d.netStates {
		if a == atom {
			return true
		}
	}
	return false
}

type fakeScreen struct {
	desktops uint
	current  uint
	workArea geometry.Rect
	full     geometry.Rect
	internal bool
}

func newFakeScreen() *fakeScreen {
	return &fakeScreen{
		desktops: 4,
		current:  1,
		workArea: geometry.Rect{X: 0, Y: 30, Width: 1920, Height: 1050},
		full:     geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
	}
}

func (s *fakeScreen) DesktopCount() uint            { return s.desktops }
func (s *fakeScreen) CurrentDesktop() uint          { return s.current }
func (s *fakeScreen) WorkArea(uint) geometry.Rect   { return s.workArea }
func (s *fakeScreen) ScreenArea() geometry.Rect     { return s.full }
func (s *fakeScreen) Internal(xproto.Window) bool   { return s.internal }

type registry map[xproto.Window]*Client

func (r registry) Lookup(w xproto.Window) *Client { return r[w] }

type fixture struct {
	display *fakeDisplay
	screen  *fakeScreen
	graph   *relation.Graph
	reg     registry
}

func newFixture() *fixture {
	return &fixture{
		display: newFakeDisplay(),
		screen:  newFakeScreen(),
		graph:   relation.New(),
		reg:     registry{},
	}
}

func (f *fixture) manage(t *testing.T, win xproto.Window, d *fakeDisplay) *Client {
	t.Helper()
	if d == nil {
		d = f.display
	}
	// A plain deletable window unless the test's display says otherwise.
	if d.protocols == nil {
		d.protocols = []string{"WM_DELETE_WINDOW"}
	}
	c, err := New(Config{
		Window:   win,
		Display:  d,
		Screen:   f.screen,
		Graph:    f.graph,
		Resolver: f.reg,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.reg[win] = c
	return c
}

func TestNew_NormalWindowDefaults(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)

	if c.Type() != hints.TypeNormal {
		t.Fatalf("expected normal type, got %v", c.Type())
	}
	if c.Layer() != stacking.LayerNormal {
		t.Fatalf("expected normal layer, got %v", c.Layer())
	}
	if !c.Functions().Has(deco.FuncClose) {
		t.Fatalf("expected close function with delete protocol")
	}
	if c.Title() != hints.FallbackTitle {
		t.Fatalf("expected fallback title, got %q", c.Title())
	}
	if c.Desktop() != f.screen.CurrentDesktop() {
		t.Fatalf("expected current desktop, got %d", c.Desktop())
	}
	if !c.CanFocus() {
		t.Fatalf("expected focusable by default")
	}
}

func TestIconify_RoundTrip(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)

	c.Iconify(true, false)
	if !c.Iconic() {
		t.Fatalf("expected iconic")
	}
	if c.Layer() != stacking.LayerIcon {
		t.Fatalf("expected icon layer, got %v", c.Layer())
	}
	if f.display.wmState != icccm.StateIconic {
		t.Fatalf("expected WM_STATE iconic, got %d", f.display.wmState)
	}
	if f.display.unmapped != 1 || c.IgnoreUnmaps() != 1 {
		t.Fatalf("expected self-unmap with debounce, unmapped=%d ignore=%d",
			f.display.unmapped, c.IgnoreUnmaps())
	}

	c.Iconify(false, false)
	if c.Iconic() || c.Layer() != stacking.LayerNormal {
		t.Fatalf("expected restore to normal layer")
	}
	if f.display.wmState != icccm.StateNormal {
		t.Fatalf("expected WM_STATE normal, got %d", f.display.wmState)
	}
	if f.display.mapped == 0 {
		t.Fatalf("expected window remapped")
	}
}

func TestIconify_RestoreToCurrentDesktop(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)
	c.SetDesktop(3)

	c.Iconify(true, false)
	f.screen.current = 2
	c.Iconify(false, true)

	if c.Desktop() != 2 {
		t.Fatalf("expected restore to current desktop 2, got %d", c.Desktop())
	}

	// Without the flag, the recorded desktop is kept.
	c.SetDesktop(3)
	c.Iconify(true, false)
	c.Iconify(false, false)
	if c.Desktop() != 3 {
		t.Fatalf("expected recorded desktop 3, got %d", c.Desktop())
	}
}

func TestShade_RejectsResizeAndRestoresHeight(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)
	before := c.Area()

	c.Shade(true)
	if !c.Shaded() {
		t.Fatalf("expected shaded")
	}
	if !f.display.hasNetState("_NET_WM_STATE_SHADED") {
		t.Fatalf("expected shaded state published")
	}

	c.Resize(geometry.TopLeft, 500, 500)
	if c.Area() != before {
		t.Fatalf("resize while shaded changed the area: %+v", c.Area())
	}

	c.Shade(false)
	if c.Shaded() {
		t.Fatalf("expected unshaded")
	}
	if c.Area().Height != before.Height {
		t.Fatalf("expected pre-shade height %d restored, got %d",
			before.Height, c.Area().Height)
	}
}

func TestMaximize_SaveAndRestore(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)
	before := c.Area()
	wa := f.screen.workArea

	c.Maximize(true, AxisBoth, true)
	if !c.MaxHorz() || !c.MaxVert() {
		t.Fatalf("expected both axes maximized")
	}
	got := c.Area()
	if got.X != wa.X || got.Y != wa.Y || got.Width != wa.Width || got.Height != wa.Height {
		t.Fatalf("expected work area %+v, got %+v", wa, got)
	}
	if !f.display.hasNetState("_NET_WM_STATE_MAXIMIZED_HORZ") ||
		!f.display.hasNetState("_NET_WM_STATE_MAXIMIZED_VERT") {
		t.Fatalf("expected maximized states published, got %v", f.display.netStates)
	}

	c.Maximize(false, AxisBoth, true)
	if c.MaxHorz() || c.MaxVert() {
		t.Fatalf("expected restore")
	}
	if c.Area() != before {
		t.Fatalf("expected pre-maximize area %+v restored, got %+v", before, c.Area())
	}
}

func TestMaximize_SingleAxis(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)
	before := c.Area()
	wa := f.screen.workArea

	c.Maximize(true, AxisHorz, true)
	got := c.Area()
	if got.X != wa.X || got.Width != wa.Width {
		t.Fatalf("expected horizontal fill, got %+v", got)
	}
	if got.Y != before.Y || got.Height != before.Height {
		t.Fatalf("vertical geometry must be untouched, got %+v", got)
	}
	if c.MaxVert() {
		t.Fatalf("vertical flag must be unset")
	}

	c.Maximize(false, AxisHorz, true)
	if c.Area() != before {
		t.Fatalf("expected restore to %+v, got %+v", before, c.Area())
	}
}

func TestMaximize_RejectedWithoutFunction(t *testing.T) {
	f := newFixture()
	d := newFakeDisplay()
	// min > max: not resizable, so maximize is never permitted.
	d.normalHints = &icccm.NormalHints{
		Flags:    icccm.SizeHintPMinSize | icccm.SizeHintPMaxSize,
		MinWidth: 500, MinHeight: 500, MaxWidth: 300, MaxHeight: 300,
	}
	c := f.manage(t, 1, d)
	before := c.Area()

	c.Maximize(true, AxisBoth, true)
	if c.MaxHorz() || c.MaxVert() || c.Area() != before {
		t.Fatalf("expected maximize rejected, area=%+v", c.Area())
	}
}

func TestFullscreen_SaveAndRestore(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)
	beforeArea := c.Area()
	beforeLayer := c.Layer()
	beforeDecor := c.Decorations()

	c.SetFullscreen(true, true)
	if !c.Fullscreen() {
		t.Fatalf("expected fullscreen")
	}
	if c.Layer() != stacking.LayerFullscreen {
		t.Fatalf("expected fullscreen layer, got %v", c.Layer())
	}
	if c.Decorations() != 0 {
		t.Fatalf("expected decorations suppressed, got %b", c.Decorations())
	}
	if c.Area() != f.screen.full {
		t.Fatalf("expected full screen area %+v, got %+v", f.screen.full, c.Area())
	}

	c.SetFullscreen(false, true)
	if c.Fullscreen() {
		t.Fatalf("expected fullscreen exit")
	}
	if c.Area() != beforeArea {
		t.Fatalf("expected exact area restore %+v, got %+v", beforeArea, c.Area())
	}
	if c.Layer() != beforeLayer {
		t.Fatalf("expected layer restore %v, got %v", beforeLayer, c.Layer())
	}
	if c.Decorations() != beforeDecor {
		t.Fatalf("expected decorations restored, got %b", c.Decorations())
	}
}

func TestFocus_SetsFlagAndClearsUrgent(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)
	c.FireUrgent()
	if !c.Urgent() {
		t.Fatalf("expected urgent set")
	}

	if !c.Focus() {
		t.Fatalf("expected focus to succeed")
	}
	if !c.Focused() || c.Urgent() {
		t.Fatalf("expected focused and urgency cleared")
	}
	if f.display.focusSet != 1 {
		t.Fatalf("expected input focus set once, got %d", f.display.focusSet)
	}

	c.Unfocus()
	if c.Focused() {
		t.Fatalf("expected unfocused")
	}
}

func TestFocus_RejectedWhenNotFocusable(t *testing.T) {
	f := newFixture()
	d := newFakeDisplay()
	d.wmHints = &icccm.Hints{Flags: icccm.HintInput, Input: 0}
	c := f.manage(t, 1, d)

	if c.Focus() {
		t.Fatalf("expected focus rejected")
	}
	if c.Focused() {
		t.Fatalf("focus flag set despite rejection")
	}
}

func TestFocus_RejectedWhenStale(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)
	f.display.valid = false

	if c.Focus() {
		t.Fatalf("expected focus rejected for dead window")
	}
	if c.Validate() {
		t.Fatalf("expected validate false")
	}
}

func TestFocus_DeliversTakeFocus(t *testing.T) {
	f := newFixture()
	d := newFakeDisplay()
	d.protocols = []string{"WM_DELETE_WINDOW", "WM_TAKE_FOCUS"}
	c := f.manage(t, 1, d)

	if !c.Focus() {
		t.Fatalf("expected focus to succeed")
	}
	if d.takeFocusSent != 1 {
		t.Fatalf("expected take-focus message, got %d", d.takeFocusSent)
	}
}

func TestFireUrgent_NotWhenFocused(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)
	c.Focus()

	c.FireUrgent()
	if c.Urgent() {
		t.Fatalf("focused window must not become urgent")
	}
}

func TestClose_DegradesWithoutProtocol(t *testing.T) {
	f := newFixture()
	d := newFakeDisplay()
	d.protocols = []string{"WM_TAKE_FOCUS"} // no delete support
	c := f.manage(t, 1, d)

	c.Close()
	if d.deletesSent != 0 {
		t.Fatalf("expected no close message without protocol support")
	}

	d2 := newFakeDisplay()
	c2 := f.manage(t, 2, d2)
	c2.Close()
	if d2.deletesSent != 1 {
		t.Fatalf("expected close message, got %d", d2.deletesSent)
	}
}

func TestSetDesktop_ValidationAndSentinel(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)

	c.SetDesktop(99)
	if c.Desktop() == 99 {
		t.Fatalf("invalid desktop accepted")
	}

	c.SetDesktop(hints.AllDesktops)
	if c.Desktop() != hints.AllDesktops {
		t.Fatalf("sentinel rejected")
	}
	if !c.OnDesktop(0) || !c.OnDesktop(3) {
		t.Fatalf("all-desktops window must be on every desktop")
	}

	// Moving off the visible desktop hides the window.
	unmapsBefore := f.display.unmapped
	c.SetDesktop(3) // current is 1
	if f.display.unmapped != unmapsBefore+1 {
		t.Fatalf("expected showhide unmap when leaving visible desktop")
	}
}

func TestHandleEvent_UnmapDebounce(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)

	c.Iconify(true, false) // self-unmap, debounce pending
	if unmanage := c.HandleEvent(Unmap{}); unmanage {
		t.Fatalf("self-generated unmap must be suppressed")
	}
	if unmanage := c.HandleEvent(Unmap{}); !unmanage {
		t.Fatalf("real unmap must unmanage")
	}
}

func TestHandleEvent_DestroyAndReparent(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)

	if !c.HandleEvent(Destroy{}) {
		t.Fatalf("destroy must unmanage")
	}
	if !c.HandleEvent(Reparent{}) {
		t.Fatalf("reparent away must unmanage")
	}
}

func TestHandleEvent_PropertyRefresh(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)

	f.display.title = "editor"
	c.HandleEvent(PropertyChanged{Atom: "_NET_WM_NAME"})
	if c.Title() != "editor" {
		t.Fatalf("expected title refresh, got %q", c.Title())
	}
	// Icon title falls back to the refreshed title.
	if c.IconTitle() != "editor" {
		t.Fatalf("expected icon title fallback, got %q", c.IconTitle())
	}

	f.display.motif = []uint{hints.MwmFlagDecorations, 0, 0}
	c.HandleEvent(PropertyChanged{Atom: "_MOTIF_WM_HINTS"})
	if c.Decorations() != 0 {
		t.Fatalf("expected all decorations denied by motif hint, got %b", c.Decorations())
	}
}

func TestHandleEvent_StateClientMessage(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)

	c.HandleEvent(ClientMessage{
		Type:       "_NET_WM_STATE",
		Data:       [5]uint{stateAdd},
		StateAtoms: [2]string{"_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT"},
	})
	if !c.MaxHorz() || !c.MaxVert() {
		t.Fatalf("expected both maximize axes set")
	}

	c.HandleEvent(ClientMessage{
		Type:       "_NET_WM_STATE",
		Data:       [5]uint{stateToggle},
		StateAtoms: [2]string{"_NET_WM_STATE_ABOVE", ""},
	})
	if !c.Above() || c.Layer() != stacking.LayerAbove {
		t.Fatalf("expected above layer, got %v", c.Layer())
	}
}

func TestHandleEvent_ConfigureRequest(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)

	c.HandleEvent(ConfigureRequest{
		X: 10, Y: 20, Width: 640, Height: 480,
		ValueMask: xproto.ConfigWindowX | xproto.ConfigWindowY |
			xproto.ConfigWindowWidth | xproto.ConfigWindowHeight,
	})
	want := geometry.Rect{X: 10, Y: 20, Width: 640, Height: 480}
	if c.Area() != want {
		t.Fatalf("expected %+v, got %+v", want, c.Area())
	}

	// Move-only request.
	c.HandleEvent(ConfigureRequest{
		X: -5, Y: -5,
		ValueMask: xproto.ConfigWindowX | xproto.ConfigWindowY,
	})
	if c.Area().X != -5 || c.Area().Y != -5 {
		t.Fatalf("expected off-screen move honored, got %+v", c.Area())
	}
	if c.Area().Width != 640 {
		t.Fatalf("move must not resize, got %+v", c.Area())
	}
}

func TestApplyStartupState_MaximizedWithoutSave(t *testing.T) {
	f := newFixture()
	d := newFakeDisplay()
	d.stateAtoms = []string{"_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT"}
	c := f.manage(t, 1, d)
	c.ApplyStartupState()

	if !c.MaxHorz() || !c.MaxVert() {
		t.Fatalf("expected startup maximize applied")
	}
	// No saved area: unmaximizing keeps the maximized geometry.
	area := c.Area()
	c.Maximize(false, AxisBoth, true)
	if c.Area() != area {
		t.Fatalf("expected no restore area after startup maximize")
	}
}

func TestApplyStartupState_InitiallyIconic(t *testing.T) {
	f := newFixture()
	d := newFakeDisplay()
	d.wmHints = &icccm.Hints{Flags: icccm.HintState, InitialState: icccm.StateIconic}
	c := f.manage(t, 1, d)
	c.ApplyStartupState()

	if !c.Iconic() {
		t.Fatalf("expected initially iconic window iconified")
	}
	if d.wmState != icccm.StateIconic {
		t.Fatalf("expected WM_STATE iconic")
	}
}

func TestDisableDecorations(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)
	full := c.Decorations()

	c.DisableDecorations(deco.DecorTitlebar)
	if c.Decorations().Has(deco.DecorTitlebar) {
		t.Fatalf("disabled titlebar still present")
	}
	if c.DisabledDecorations() != deco.DecorTitlebar {
		t.Fatalf("disabled mask not recorded")
	}

	c.DisableDecorations(0)
	if c.Decorations() != full {
		t.Fatalf("expected decorations restored, got %b", c.Decorations())
	}
}

func TestFindModalChild(t *testing.T) {
	f := newFixture()
	parent := f.manage(t, 1, nil)

	dlgDisplay := newFakeDisplay()
	dlgDisplay.transient = 1
	dlgDisplay.typeAtoms = []string{"_NET_WM_WINDOW_TYPE_DIALOG"}
	dlgDisplay.stateAtoms = []string{"_NET_WM_STATE_MODAL"}
	dialog := f.manage(t, 2, dlgDisplay)

	if got := parent.FindModalChild(); got != dialog {
		t.Fatalf("expected modal dialog found, got %v", got)
	}
	if dialog.TransientFor() != parent {
		t.Fatalf("expected transient-for back-reference")
	}

	// Destroying the dialog cleans the graph up.
	dialog.Detach()
	if parent.FindModalChild() != nil {
		t.Fatalf("expected no modal child after detach")
	}
}

func TestSnapshotReflectsState(t *testing.T) {
	f := newFixture()
	c := f.manage(t, 1, nil)
	c.Maximize(true, AxisHorz, true)

	snap := c.Snapshot()
	if !snap.MaxHorz || snap.MaxVert {
		t.Fatalf("snapshot flags wrong: %+v", snap)
	}
	if snap.Layer != "normal" {
		t.Fatalf("expected normal layer in snapshot, got %q", snap.Layer)
	}
	if snap.Area != c.Area() {
		t.Fatalf("snapshot area mismatch")
	}
}
