package geometry

// Point is a position on the root window.
type Point struct {
	X int
	Y int
}

// Size is a width/height pair in pixels.
type Size struct {
	W int
	H int
}

// Rect represents a window position and size relative to the root window.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Size returns the rectangle's dimensions.
func (r Rect) Size() Size {
	return Size{W: r.Width, H: r.Height}
}

// Corner identifies the corner of a window held fixed during a resize.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	}
	return "unknown"
}

// Unbounded is the effective maximum dimension for windows that did not
// declare a maximum size.
const Unbounded = 1 << 20

// Constraints holds the normalized sizing rules a window declared through
// its normal hints. The zero value is not useful; use Unconstrained as the
// starting point and overwrite the fields a hint actually supplied.
type Constraints struct {
	MinSize  Size
	MaxSize  Size
	SizeInc  Size
	BaseSize Size

	// MinRatio and MaxRatio bound width/height of the base-adjusted size.
	// A value of 0 means the bound is ignored.
	MinRatio float64
	MaxRatio float64

	// Gravity is one of the xproto.Gravity* constants.
	Gravity int
}

// Unconstrained returns the constraints used when a window supplies no
// normal hints: min 1x1, unbounded max, increment 1x1, no base size and no
// aspect bounds.
func Unconstrained() Constraints {
	return Constraints{
		MinSize: Size{W: 1, H: 1},
		MaxSize: Size{W: Unbounded, H: Unbounded},
		SizeInc: Size{W: 1, H: 1},
	}
}

// Resizable reports whether the window can be resized at all. A window whose
// minimum size exceeds its maximum size on either axis is not resizable and
// resize requests keep the current size.
func (c Constraints) Resizable() bool {
	return c.MinSize.W <= c.MaxSize.W && c.MinSize.H <= c.MaxSize.H
}

// ApplyResize computes the legal geometry for a resize request. The
// requested width and height are snapped to the size-increment grid relative
// to the base size and clamped into [min, max]. If an aspect bound is set,
// one dimension (never both) is shrunk toward the bound and re-snapped to
// the grid, so the increment grid always wins over the aspect ratio and the
// ratio is satisfied approximately.
//
// When pos is non-nil it names the new top-left corner verbatim and the
// anchor is ignored. Otherwise the given corner of the window keeps its
// pre-resize position. The operation never fails; out-of-range requests are
// clamped.
func (c Constraints) ApplyResize(area Rect, anchor Corner, w, h int, pos *Point) Rect {
	if !c.Resizable() {
		w, h = area.Width, area.Height
	} else {
		w, h = c.snap(w, h)
		w, h = c.constrainAspect(w, h)
	}

	x, y := area.X, area.Y
	if pos != nil {
		x, y = pos.X, pos.Y
	} else {
		switch anchor {
		case TopLeft:
			// Position is unchanged.
		case TopRight:
			x += area.Width - w
		case BottomLeft:
			y += area.Height - h
		case BottomRight:
			x += area.Width - w
			y += area.Height - h
		}
	}

	return Rect{X: x, Y: y, Width: w, Height: h}
}

// LogicalSize converts a pixel size to the size shown to the user: the
// number of increment steps above the base size when increments are in
// effect, the raw pixel count otherwise.
func (c Constraints) LogicalSize(s Size) Size {
	logical := s
	if c.SizeInc.W > 1 {
		logical.W = (s.W - c.BaseSize.W) / c.SizeInc.W
	}
	if c.SizeInc.H > 1 {
		logical.H = (s.H - c.BaseSize.H) / c.SizeInc.H
	}
	return logical
}

func (c Constraints) snap(w, h int) (int, int) {
	// Snap to the increment grid relative to the base size.
	incW, incH := max(c.SizeInc.W, 1), max(c.SizeInc.H, 1)
	w = (w-c.BaseSize.W)/incW*incW + c.BaseSize.W
	h = (h-c.BaseSize.H)/incH*incH + c.BaseSize.H

	w = clamp(w, c.MinSize.W, c.MaxSize.W)
	h = clamp(h, c.MinSize.H, c.MaxSize.H)
	return w, h
}

func (c Constraints) constrainAspect(w, h int) (int, int) {
	if c.MinRatio == 0 && c.MaxRatio == 0 {
		return w, h
	}

	// Aspect bounds apply to the size above the base size, per ICCCM.
	aw, ah := w-c.BaseSize.W, h-c.BaseSize.H
	if aw < 1 || ah < 1 {
		return w, h
	}

	ratio := float64(aw) / float64(ah)
	incW, incH := max(c.SizeInc.W, 1), max(c.SizeInc.H, 1)
	switch {
	case c.MaxRatio > 0 && ratio > c.MaxRatio:
		// Too wide: shrink the width, re-snapped to the grid.
		aw = int(float64(ah) * c.MaxRatio)
		w = aw/incW*incW + c.BaseSize.W
		w = clamp(w, c.MinSize.W, c.MaxSize.W)
	case c.MinRatio > 0 && ratio < c.MinRatio:
		// Too tall: shrink the height, re-snapped to the grid.
		ah = int(float64(aw) / c.MinRatio)
		h = ah/incH*incH + c.BaseSize.H
		h = clamp(h, c.MinSize.H, c.MaxSize.H)
	}
	return w, h
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
