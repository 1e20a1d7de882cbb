package viewer

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"

	"github.com/five82/folio/internal/geometry"
	"github.com/five82/folio/internal/page"
	"github.com/five82/folio/internal/render"
)

var (
	backgroundColor  = color.RGBA{0x2b, 0x2b, 0x2b, 0xff}
	placeholderColor = color.RGBA{0xe6, 0xe6, 0xe6, 0xff}
	errorColor       = color.RGBA{0xb0, 0x3a, 0x2e, 0xff}
	noteColor        = color.NRGBA{0xff, 0xd6, 0x00, 0x70}
	selectedColor    = color.RGBA{0x4a, 0x9e, 0xff, 0xff}
)

// tile is one page placed in layout space.
type tile struct {
	box     geometry.Rect
	surface *page.Surface
	fill    color.Color
	notes   []geometry.Rect // relative to box
	outline color.Color
}

// composite paints tiles into dst, whose origin is the scroll window's top
// left corner. Surfaces are stretched to their box.
func composite(dst *image.RGBA, scroll geometry.ScrollState, tiles []tile) {
	bounds := dst.Bounds()
	draw.Draw(dst, bounds, image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	for _, t := range tiles {
		r := image.Rect(
			int(math.Floor(t.box.X-scroll.Left)),
			int(math.Floor(t.box.Y-scroll.Top)),
			int(math.Ceil(t.box.Right()-scroll.Left)),
			int(math.Ceil(t.box.Bottom()-scroll.Top)),
		)
		if r.Empty() || !r.Overlaps(bounds) {
			continue
		}

		fill := t.fill
		if fill == nil {
			fill = placeholderColor
		}
		draw.Draw(dst, r.Intersect(bounds), image.NewUniform(fill), image.Point{}, draw.Src)
		if img := t.surface.Image(); img != nil {
			draw.ApproxBiLinear.Scale(dst, r, img, img.Bounds(), draw.Over, nil)
		}

		for _, n := range t.notes {
			nr := image.Rect(
				r.Min.X+int(math.Floor(n.X)),
				r.Min.Y+int(math.Floor(n.Y)),
				r.Min.X+int(math.Ceil(n.Right())),
				r.Min.Y+int(math.Ceil(n.Bottom())),
			).Intersect(r).Intersect(bounds)
			if !nr.Empty() {
				draw.Draw(dst, nr, image.NewUniform(noteColor), image.Point{}, draw.Over)
			}
		}

		if t.outline != nil {
			outline(dst, r.Intersect(bounds), t.outline)
		}
	}
}

func outline(dst *image.RGBA, r image.Rectangle, c color.Color) {
	if r.Empty() {
		return
	}
	u := image.NewUniform(c)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
}

// HalfBlocks turns an image into terminal lines. Each cell shows two pixel
// rows with an upper half block: foreground is the top pixel, background
// the bottom one.
func HalfBlocks(img *image.RGBA) []string {
	b := img.Bounds()
	lines := make([]string, 0, (b.Dy()+1)/2)
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		var sb strings.Builder
		var top, bottom string
		run := 0
		flush := func() {
			if run == 0 {
				return
			}
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(top)).Background(lipgloss.Color(bottom))
			sb.WriteString(style.Render(strings.Repeat("▀", run)))
			run = 0
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			t := hexColor(img.RGBAAt(x, y))
			bt := t
			if y+1 < b.Max.Y {
				bt = hexColor(img.RGBAAt(x, y+1))
			}
			if run > 0 && t == top && bt == bottom {
				run++
				continue
			}
			flush()
			top, bottom, run = t, bt, 1
		}
		flush()
		lines = append(lines, sb.String())
	}
	return lines
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Frame is one composited picture of the viewer plus the state shown
// around it.
type Frame struct {
	Lines      []string
	Width      int
	Height     int // pixel rows, two per line
	PageNumber int
	PagesCount int
	Scale      float64
	ScaleValue string
	Rotation   int
	// Rendering is the page currently being drawn, 0 when none is.
	Rendering int
	// Failed lists visible pages whose last render failed.
	Failed []int
}

// Compose paints the scroll window into an image.
func (v *Viewer) Compose() *image.RGBA {
	w, h := int(v.scroll.Width), int(v.scroll.Height)
	img := image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	if w <= 0 || h <= 0 {
		return img
	}
	boxes := v.layout()
	visible := geometry.VisibleElements(v.scroll, boxes, false)
	tiles := make([]tile, 0, len(visible.Views))
	for _, vv := range visible.Views {
		tiles = append(tiles, pageTile(v.views[vv.ID-1], boxes[vv.ID-1]))
	}
	composite(img, v.scroll, tiles)
	return img
}

func pageTile(pv *page.View, box geometry.Rect) tile {
	t := tile{box: box, fill: placeholderColor}
	state := pv.RenderingState()
	zoom := pv.ZoomLayer()
	switch {
	case pv.Err() != nil:
		t.fill = errorColor
	case state == render.StateFinished:
		t.surface = pv.Surface()
	case zoom != nil && zoom.Viewport.Rotation() == pv.Viewport().Rotation():
		t.surface = zoom
	case state == render.StateRunning || state == render.StatePaused:
		t.surface = pv.Surface()
	}
	t.notes = pv.NoteRects()
	return t
}

// Frame composes the window and converts it to terminal lines.
func (v *Viewer) Frame() Frame {
	img := v.Compose()
	f := Frame{
		Lines:      HalfBlocks(img),
		Width:      img.Bounds().Dx(),
		Height:     img.Bounds().Dy(),
		PageNumber: v.current,
		PagesCount: len(v.views),
		Scale:      v.scale,
		ScaleValue: v.scaleValue,
		Rotation:   v.rotation,
	}
	if v.queue != nil {
		if pv, ok := v.queue.Current().View.(*page.View); ok && pv.RenderingState() == render.StateRunning {
			f.Rendering = pv.ID()
		}
	}
	for _, vv := range v.Visible().Views {
		if v.views[vv.ID-1].Err() != nil {
			f.Failed = append(f.Failed, vv.ID)
		}
	}
	return f
}
