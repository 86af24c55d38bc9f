package screen

import (
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/winstate/internal/geometry"
)

type edgeStruts struct {
	left   int
	right  int
	top    int
	bottom int
}

// computeWorkArea shrinks the screen rectangle by the largest strut
// reservation on each edge. A strut only counts when its declared span
// actually intersects the screen edge it reserves.
func computeWorkArea(screen geometry.Rect, struts []*ewmh.WmStrutPartial) geometry.Rect {
	rootW := screen.X + screen.Width
	rootH := screen.Y + screen.Height

	var acc edgeStruts
	for _, sp := range struts {
		if sp == nil {
			continue
		}
		accumulateStruts(screen, rootW, rootH, sp, &acc)
	}

	wa := screen
	wa.X += acc.left
	wa.Y += acc.top
	wa.Width -= acc.left + acc.right
	wa.Height -= acc.top + acc.bottom

	if wa.Width < 1 {
		wa.Width = 1
	}
	if wa.Height < 1 {
		wa.Height = 1
	}
	return wa
}

func accumulateStruts(screen geometry.Rect, rootW, rootH int, sp *ewmh.WmStrutPartial, acc *edgeStruts) {
	scrX1, scrY1 := screen.X, screen.Y
	scrX2, scrY2 := screen.X+screen.Width, screen.Y+screen.Height

	// Top strut: y in [0,Top), x in [TopStartX,TopEndX].
	if sp.Top > 0 {
		x1, x2 := int(sp.TopStartX), int(sp.TopEndX)+1
		if isect := intersectionSize(scrX1, scrY1, scrX2, scrY2, x1, 0, x2, int(sp.Top)); isect.h > 0 {
			acc.top = max(acc.top, isect.h)
		}
	}

	// Bottom strut: y in [rootH-Bottom,rootH), x in [BottomStartX,BottomEndX].
	if sp.Bottom > 0 {
		x1, x2 := int(sp.BottomStartX), int(sp.BottomEndX)+1
		if isect := intersectionSize(scrX1, scrY1, scrX2, scrY2, x1, rootH-int(sp.Bottom), x2, rootH); isect.h > 0 {
			acc.bottom = max(acc.bottom, isect.h)
		}
	}

	// Left strut: x in [0,Left), y in [LeftStartY,LeftEndY].
	if sp.Left > 0 {
		y1, y2 := int(sp.LeftStartY), int(sp.LeftEndY)+1
		if isect := intersectionSize(scrX1, scrY1, scrX2, scrY2, 0, y1, int(sp.Left), y2); isect.w > 0 {
			acc.left = max(acc.left, isect.w)
		}
	}

	// Right strut: x in [rootW-Right,rootW), y in [RightStartY,RightEndY].
	if sp.Right > 0 {
		y1, y2 := int(sp.RightStartY), int(sp.RightEndY)+1
		if isect := intersectionSize(scrX1, scrY1, scrX2, scrY2, rootW-int(sp.Right), y1, rootW, y2); isect.w > 0 {
			acc.right = max(acc.right, isect.w)
		}
	}
}

type intersection struct {
	w int
	h int
}

func intersectionSize(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2 int) intersection {
	x1 := max(ax1, bx1)
	y1 := max(ay1, by1)
	x2 := min(ax2, bx2)
	y2 := min(ay2, by2)

	if x2 <= x1 || y2 <= y1 {
		return intersection{}
	}
	return intersection{w: x2 - x1, h: y2 - y1}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
