package geometry

import (
	"math"
	"sort"
)

// Rect is an axis-aligned rectangle in layout units.
type Rect struct {
	X, Y, W, H float64
}

// Bottom returns the y coordinate of the lower edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// ScrollState describes the scroll container: its visible window in layout
// units and the direction of the last scroll movement.
type ScrollState struct {
	Top    float64
	Left   float64
	Width  float64
	Height float64
	Down   bool
	Right  bool
}

// Bottom returns the y coordinate of the lower edge of the window.
func (s ScrollState) Bottom() float64 { return s.Top + s.Height }

// VisibleView is one element that intersects the scroll window.
type VisibleView struct {
	ID           int // 1-based element id
	X, Y         float64
	Percent      int // visible area, 0-100
	WidthPercent int // visible width, 0-100
}

// Visible is the result of a visibility pass. First and Last are the
// outermost visible elements in layout order; Views may be re-ordered by
// visibility.
type Visible struct {
	First *VisibleView
	Last  *VisibleView
	Views []VisibleView
}

// Empty reports whether nothing is visible.
func (v Visible) Empty() bool { return len(v.Views) == 0 }

// Contains reports whether the element with the given id is visible.
func (v Visible) Contains(id int) bool {
	for _, vv := range v.Views {
		if vv.ID == id {
			return true
		}
	}
	return false
}

// IDs returns the visible ids in the order of Views.
func (v Visible) IDs() []int {
	ids := make([]int, len(v.Views))
	for i, vv := range v.Views {
		ids[i] = vv.ID
	}
	return ids
}

// BinarySearchFirst returns the smallest index i in [0, n) for which cond is
// true, or n when it never is. cond must be false for a prefix of the range
// and true for the rest.
func BinarySearchFirst(n int, cond func(i int) bool) int {
	lo, hi := 0, n-1
	if n == 0 || !cond(hi) {
		return n
	}
	if cond(lo) {
		return lo
	}
	for lo < hi {
		mid := (lo + hi) >> 1
		if cond(mid) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// VisibleElements computes which of the vertically stacked boxes intersect
// the scroll window. boxes[i] belongs to element id i+1 and boxes must be laid
// out top to bottom. Elements that are entirely outside the window
// horizontally are skipped.
func VisibleElements(scroll ScrollState, boxes []Rect, sortByVisibility bool) Visible {
	top := scroll.Top
	bottom := scroll.Bottom()
	left := scroll.Left
	right := left + scroll.Width

	first := BinarySearchFirst(len(boxes), func(i int) bool {
		return boxes[i].Bottom() > top
	})

	var views []VisibleView
	for i := first; i < len(boxes); i++ {
		box := boxes[i]
		if box.Y >= bottom {
			break
		}
		if box.Empty() {
			continue
		}
		if box.Bottom() <= top || box.Right() <= left || box.X >= right {
			continue
		}

		hiddenHeight := math.Max(0, top-box.Y) + math.Max(0, box.Bottom()-bottom)
		hiddenWidth := math.Max(0, left-box.X) + math.Max(0, box.Right()-right)
		fractionHeight := (box.H - hiddenHeight) / box.H
		fractionWidth := (box.W - hiddenWidth) / box.W

		views = append(views, VisibleView{
			ID:           i + 1,
			X:            box.X,
			Y:            box.Y,
			Percent:      int(fractionHeight * fractionWidth * 100),
			WidthPercent: int(fractionWidth * 100),
		})
	}

	if len(views) == 0 {
		return Visible{}
	}

	firstView := views[0]
	lastView := views[len(views)-1]
	if sortByVisibility {
		sort.SliceStable(views, func(a, b int) bool {
			if views[a].Percent != views[b].Percent {
				return views[a].Percent > views[b].Percent
			}
			return views[a].ID < views[b].ID
		})
	}
	return Visible{First: &firstView, Last: &lastView, Views: views}
}
