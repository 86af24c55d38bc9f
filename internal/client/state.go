package client

import (
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/1broseidon/winstate/internal/deco"
	"github.com/1broseidon/winstate/internal/geometry"
	"github.com/1broseidon/winstate/internal/hints"
)

// Axis selects which dimensions a maximize operation affects.
type Axis int

const (
	AxisBoth Axis = iota
	AxisHorz
	AxisVert
)

func (a Axis) String() string {
	switch a {
	case AxisBoth:
		return "both"
	case AxisHorz:
		return "horizontal"
	case AxisVert:
		return "vertical"
	}
	return "unknown"
}

// Move places the window's top-left corner at the given root coordinates.
// There is no constraint checking; windows may be moved off-screen.
func (c *Client) Move(x, y int) {
	c.area.X = x
	c.area.Y = y
	c.display.Configure(c.win, c.area)
}

// Resize applies a resize request anchored at the given corner, honoring
// the window's sizing constraints. While the window is shaded resize
// requests are rejected; the only resize a shaded window sees is the one
// Shade(false) issues to restore the pre-shade height.
func (c *Client) Resize(anchor geometry.Corner, w, h int) {
	if c.shaded {
		c.log.Debug("rejecting resize while shaded")
		return
	}
	c.internalResize(anchor, w, h, nil)
}

func (c *Client) internalResize(anchor geometry.Corner, w, h int, pos *geometry.Point) {
	c.area = c.constraints.ApplyResize(c.area, anchor, w, h, pos)
	c.logicalSize = c.constraints.LogicalSize(c.area.Size())
	c.display.Configure(c.win, c.area)
}

// Iconify hides the window and marks it iconic, or restores it. When
// restoring, toCurrentDesktop chooses between the desktop the user is
// looking at and the desktop recorded on the window.
func (c *Client) Iconify(iconic, toCurrentDesktop bool) {
	if c.iconic == iconic {
		return
	}

	if iconic {
		if !c.functions.Has(deco.FuncIconify) {
			c.log.Debug("rejecting iconify, function not permitted")
			return
		}
		c.iconic = true
		c.wmState = icccm.StateIconic
	} else {
		c.iconic = false
		c.wmState = icccm.StateNormal
		if toCurrentDesktop {
			c.SetDesktop(c.screen.CurrentDesktop())
		}
	}

	c.calcLayer()
	c.changeState()
	c.ShowHide()
}

// Shade collapses the window to its titlebar, or restores it. Restoring
// issues the one resize a shaded window is allowed: back to the pre-shade
// height.
func (c *Client) Shade(shade bool) {
	if c.shaded == shade {
		return
	}
	if shade {
		if !c.functions.Has(deco.FuncShade) {
			c.log.Debug("rejecting shade, function not permitted")
			return
		}
		c.preShadeHeight = c.area.Height
		c.shaded = true
	} else {
		c.shaded = false
		if c.preShadeHeight > 0 {
			c.internalResize(geometry.TopLeft, c.area.Width, c.preShadeHeight, nil)
		}
	}
	c.changeState()
}

// Maximize grows the window to fill the strut-adjusted work area on the
// requested axes, or restores the recorded pre-maximize area on the axes
// being unset. saveArea is false when applying a startup state, where the
// mapped geometry is not worth restoring to.
func (c *Client) Maximize(max bool, axis Axis, saveArea bool) {
	horz := axis == AxisBoth || axis == AxisHorz
	vert := axis == AxisBoth || axis == AxisVert

	// Drop axes already in the requested state.
	if horz && c.maxHorz == max {
		horz = false
	}
	if vert && c.maxVert == max {
		vert = false
	}
	if !horz && !vert {
		return
	}

	if max {
		if !c.functions.Has(deco.FuncMaximize) {
			c.log.Debug("rejecting maximize, function not permitted", "axis", axis)
			return
		}
		if saveArea && !c.savedMaxValid {
			c.savedMax = c.area
			c.savedMaxValid = true
		}

		wa := c.workAreaForClient()
		w, h := c.area.Width, c.area.Height
		pos := geometry.Point{X: c.area.X, Y: c.area.Y}
		if horz {
			c.maxHorz = true
			pos.X = wa.X
			w = wa.Width
		}
		if vert {
			c.maxVert = true
			pos.Y = wa.Y
			h = wa.Height
		}
		c.internalResize(geometry.TopLeft, w, h, &pos)
	} else {
		w, h := c.area.Width, c.area.Height
		pos := geometry.Point{X: c.area.X, Y: c.area.Y}
		if horz {
			c.maxHorz = false
			if c.savedMaxValid {
				pos.X = c.savedMax.X
				w = c.savedMax.Width
			}
		}
		if vert {
			c.maxVert = false
			if c.savedMaxValid {
				pos.Y = c.savedMax.Y
				h = c.savedMax.Height
			}
		}
		c.internalResize(geometry.TopLeft, w, h, &pos)
		if !c.maxHorz && !c.maxVert {
			c.savedMaxValid = false
		}
	}

	c.changeState()
}

// Remaximize reapplies the active maximize axes, used when the work area
// changes (a panel appeared or moved).
func (c *Client) Remaximize() {
	if !c.maxHorz && !c.maxVert {
		return
	}
	wa := c.workAreaForClient()
	w, h := c.area.Width, c.area.Height
	pos := geometry.Point{X: c.area.X, Y: c.area.Y}
	if c.maxHorz {
		pos.X = wa.X
		w = wa.Width
	}
	if c.maxVert {
		pos.Y = wa.Y
		h = wa.Height
	}
	c.internalResize(geometry.TopLeft, w, h, &pos)
}

// SetFullscreen covers the whole screen, forcing the fullscreen stacking
// layer and suppressing decorations while active. On exit the saved area,
// masks and layer are restored rather than recomputed.
func (c *Client) SetFullscreen(fs, saveArea bool) {
	if c.fullscreen == fs {
		return
	}

	if fs {
		if !c.functions.Has(deco.FuncFullscreen) {
			c.log.Debug("rejecting fullscreen, function not permitted")
			return
		}
		if saveArea {
			c.savedFull = fullscreenSave{
				area:        c.area,
				decorations: c.decorations,
				functions:   c.functions,
				layer:       c.layer,
				valid:       true,
			}
		}
		c.fullscreen = true
		c.decorations = 0
		c.functions &= deco.FuncMove | deco.FuncFullscreen | deco.FuncIconify | deco.FuncClose

		sa := c.screen.ScreenArea()
		// Fullscreen ignores sizing constraints; the window covers the
		// screen exactly.
		c.area = sa
		c.logicalSize = c.constraints.LogicalSize(c.area.Size())
		c.display.Configure(c.win, c.area)
	} else {
		c.fullscreen = false
		if c.savedFull.valid {
			c.decorations = c.savedFull.decorations
			c.functions = c.savedFull.functions
			c.area = c.savedFull.area
			c.logicalSize = c.constraints.LogicalSize(c.area.Size())
			c.display.Configure(c.win, c.area)
			c.savedFull.valid = false
		} else {
			c.setupDecorAndFunctions()
		}
		c.display.SetAllowedActions(c.win, deco.AllowedActions(c.functions))
	}

	c.calcLayer()
	c.changeState()
}

// Focus attempts to give the window input focus. It fails when the window
// cannot take focus or is no longer live. On success the focused flag is
// set, urgency is cleared, and a take-focus message is delivered if the
// window asked for one.
func (c *Client) Focus() bool {
	if !c.canFocus && !c.focusNotify {
		return false
	}
	if !c.Validate() {
		return false
	}

	if c.canFocus {
		c.display.FocusWindow(c.win)
	}
	if c.focusNotify {
		c.display.SendTakeFocus(c.win)
	}

	c.focused = true
	if c.urgent {
		c.urgent = false
		c.changeState()
	}
	return true
}

// Unfocus unconditionally clears the focused flag.
func (c *Client) Unfocus() {
	c.focused = false
}

// FireUrgent marks the window as demanding attention unless it already has
// focus.
func (c *Client) FireUrgent() {
	if c.focused || c.urgent {
		return
	}
	c.urgent = true
	c.changeState()
	c.log.Info("window demands attention", "title", c.title)
}

// Close asks the window to close itself. Without WM_DELETE_WINDOW support
// the request is silently dropped: the window simply cannot be asked to
// self-close, which is a capability gap, not an error.
func (c *Client) Close() {
	if !c.functions.Has(deco.FuncClose) || !c.protocols.DeleteWindow {
		c.log.Debug("close not supported, ignoring")
		return
	}
	c.display.SendDelete(c.win)
}

// SetDesktop moves the window to the given desktop, which must be a valid
// index or the all-desktops sentinel. Moving off the visible desktop
// triggers a visibility recompute.
func (c *Client) SetDesktop(d uint) {
	if !hints.ValidDesktop(d, c.screen.DesktopCount()) {
		c.log.Warn("rejecting invalid desktop", "desktop", d)
		return
	}
	if d == c.desktop {
		return
	}
	c.desktop = d
	c.display.SetDesktopProp(c.win, d)
	c.ShowHide()
}

// SetSkipTaskbar toggles the taskbar skip hint.
func (c *Client) SetSkipTaskbar(skip bool) {
	if c.skipTaskbar == skip {
		return
	}
	c.skipTaskbar = skip
	c.changeState()
}

// SetSkipPager toggles the pager skip hint.
func (c *Client) SetSkipPager(skip bool) {
	if c.skipPager == skip {
		return
	}
	c.skipPager = skip
	c.changeState()
}

// SetAbove pins the window above its normal band. Above and below are
// mutually exclusive; setting one clears the other.
func (c *Client) SetAbove(above bool) {
	c.above = above
	if above {
		c.below = false
	}
	c.calcLayer()
	c.changeState()
}

// SetBelow pins the window below its normal band.
func (c *Client) SetBelow(below bool) {
	c.below = below
	if below {
		c.above = false
	}
	c.calcLayer()
	c.changeState()
}

// DisableDecorations sets the user's decoration disable-mask and
// re-arbitrates. Passing 0 re-enables everything the other sources allow.
func (c *Client) DisableDecorations(mask deco.DecorFlags) {
	c.disabledDecorations = mask
	c.setupDecorAndFunctions()
}

// OnDesktop reports whether the window belongs on the given desktop.
func (c *Client) OnDesktop(d uint) bool {
	return c.desktop == hints.AllDesktops || c.desktop == d
}

// ShowHide maps or unmaps the window according to its iconic state and
// desktop visibility. Unmapping here is self-inflicted, so the matching
// unmap notification is flagged to be ignored.
func (c *Client) ShowHide() {
	show := !c.iconic && c.OnDesktop(c.screen.CurrentDesktop())
	if show {
		c.display.MapWindow(c.win)
	} else {
		c.ignoreUnmaps++
		c.display.UnmapWindow(c.win)
	}
}

// IgnoreUnmaps returns how many self-generated unmap notifications are
// pending suppression.
func (c *Client) IgnoreUnmaps() int { return c.ignoreUnmaps }

// consumeIgnoreUnmap reports whether an incoming unmap notification was
// caused by the window manager itself and should not unmanage the window.
func (c *Client) consumeIgnoreUnmap() bool {
	if c.ignoreUnmaps > 0 {
		c.ignoreUnmaps--
		return true
	}
	return false
}

// ApplyStartupState applies, exactly once after mapping, the states the
// window requested before it was managed. Save-area is withheld so a
// window that maps directly into fullscreen or maximized does not record
// its transient mapping geometry as the restore target.
func (c *Client) ApplyStartupState() {
	if c.iconic {
		c.iconic = false // re-run the transition from a clean slate
		c.Iconify(true, false)
	}
	if c.fullscreen {
		c.fullscreen = false
		c.SetFullscreen(true, false)
	}
	if c.shaded {
		c.shaded = false
		c.Shade(true)
	}
	switch {
	case c.maxHorz && c.maxVert:
		c.maxHorz, c.maxVert = false, false
		c.Maximize(true, AxisBoth, false)
	case c.maxHorz:
		c.maxHorz = false
		c.Maximize(true, AxisHorz, false)
	case c.maxVert:
		c.maxVert = false
		c.Maximize(true, AxisVert, false)
	}
	if c.urgent {
		c.urgent = false
		c.FireUrgent()
	}
	c.calcLayer()
	c.changeState()
}

// workAreaForClient resolves the desktop whose work area constrains this
// window's maximized geometry.
func (c *Client) workAreaForClient() geometry.Rect {
	d := c.desktop
	if d == hints.AllDesktops {
		d = c.screen.CurrentDesktop()
	}
	return c.screen.WorkArea(d)
}
