package hints

import (
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/winstate/internal/geometry"
)

// Icon is one decoded _NET_WM_ICON entry: ARGB pixel data at a given size.
type Icon struct {
	Width  int
	Height int
	Data   []uint
}

// DecodeIcons filters a _NET_WM_ICON array down to well-formed entries. An
// entry whose data is shorter than width*height is dropped rather than
// propagated as an error.
func DecodeIcons(raw []ewmh.WmIcon) []Icon {
	var icons []Icon
	for _, ic := range raw {
		w, h := int(ic.Width), int(ic.Height)
		if w <= 0 || h <= 0 || len(ic.Data) < w*h {
			continue
		}
		icons = append(icons, Icon{Width: w, Height: h, Data: ic.Data[:w*h]})
	}
	return icons
}

// BestIcon picks the smallest icon at least as big as the wanted size on
// both axes, falling back to the largest icon available. Returns nil when
// the list is empty.
func BestIcon(icons []Icon, want geometry.Size) *Icon {
	var best *Icon
	var largest *Icon
	for i := range icons {
		ic := &icons[i]
		if largest == nil || ic.Width*ic.Height > largest.Width*largest.Height {
			largest = ic
		}
		if ic.Width >= want.W && ic.Height >= want.H {
			if best == nil || ic.Width*ic.Height < best.Width*best.Height {
				best = ic
			}
		}
	}
	if best != nil {
		return best
	}
	return largest
}
