package geometry

import (
	"github.com/BurntSushi/xgb/xproto"
)

// GravityOffset returns the translation applied to a window's position when
// its client border of the given width is removed, so that the reference
// point named by the window's gravity stays put. Negate the offset when the
// border is added back on unmanage.
func GravityOffset(gravity, borderWidth int) (dx, dy int) {
	bw := borderWidth

	switch gravity {
	case xproto.GravityNorthWest, xproto.GravityWest, xproto.GravitySouthWest:
		// Left edge is the reference; x stays.
	case xproto.GravityNorth, xproto.GravityCenter, xproto.GravitySouth:
		dx = bw
	case xproto.GravityNorthEast, xproto.GravityEast, xproto.GravitySouthEast:
		dx = 2 * bw
	case xproto.GravityStatic:
		dx = bw
	}

	switch gravity {
	case xproto.GravityNorthWest, xproto.GravityNorth, xproto.GravityNorthEast:
		// Top edge is the reference; y stays.
	case xproto.GravityWest, xproto.GravityCenter, xproto.GravityEast:
		dy = bw
	case xproto.GravitySouthWest, xproto.GravitySouth, xproto.GravitySouthEast:
		dy = 2 * bw
	case xproto.GravityStatic:
		dy = bw
	}

	return dx, dy
}
