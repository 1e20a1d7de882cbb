package page

import (
	"image"
	"math"

	"github.com/gogpu/gg"

	"github.com/five82/folio/internal/geometry"
)

// MaxCanvasPixels is the default cap on surface area in device pixels.
const MaxCanvasPixels = 16777216

// OutputScale maps viewport units to surface pixels.
type OutputScale struct {
	SX, SY float64
}

// Scaled reports whether the surface is not 1:1 with the viewport.
func (o OutputScale) Scaled() bool { return o.SX != 1 || o.SY != 1 }

// ComputeOutputScale starts from the device pixel ratio and lowers it when
// the surface would exceed maxCanvasPixels. restricted reports whether it
// was lowered. maxCanvasPixels <= 0 disables the cap.
func ComputeOutputScale(vp geometry.Viewport, devicePixelRatio float64, maxCanvasPixels int) (scale OutputScale, restricted bool) {
	if devicePixelRatio <= 0 {
		devicePixelRatio = 1
	}
	scale = OutputScale{SX: devicePixelRatio, SY: devicePixelRatio}
	if maxCanvasPixels <= 0 {
		return scale, false
	}
	pixels := vp.Width() * vp.Height()
	if pixels <= 0 {
		return scale, false
	}
	maxScale := math.Sqrt(float64(maxCanvasPixels) / pixels)
	if scale.SX > maxScale || scale.SY > maxScale {
		return OutputScale{SX: maxScale, SY: maxScale}, true
	}
	return scale, false
}

// Surface is a raster a view painted into together with the viewport and
// output scale it was painted with.
type Surface struct {
	Canvas   *gg.Context
	Viewport geometry.Viewport
	Scale    OutputScale
	Width    int
	Height   int
}

// NewSurface allocates a surface sized for vp at scale.
func NewSurface(vp geometry.Viewport, scale OutputScale) *Surface {
	w := max(1, int(math.Floor(vp.Width()*scale.SX)))
	h := max(1, int(math.Floor(vp.Height()*scale.SY)))
	return &Surface{
		Canvas:   gg.NewContext(w, h),
		Viewport: vp,
		Scale:    scale,
		Width:    w,
		Height:   h,
	}
}

// surfaceFromImage wraps an already rasterised image.
func surfaceFromImage(img image.Image, vp geometry.Viewport) *Surface {
	b := img.Bounds()
	scale := OutputScale{SX: 1, SY: 1}
	if vp.Width() > 0 && vp.Height() > 0 {
		scale = OutputScale{SX: float64(b.Dx()) / vp.Width(), SY: float64(b.Dy()) / vp.Height()}
	}
	return &Surface{
		Canvas:   gg.NewContextForImage(img),
		Viewport: vp,
		Scale:    scale,
		Width:    b.Dx(),
		Height:   b.Dy(),
	}
}

// Transform maps page space to surface pixels.
func (s *Surface) Transform() gg.Matrix {
	return gg.Scale(s.Scale.SX, s.Scale.SY).Multiply(s.Viewport.Transform())
}

// Image returns a copy of the pixels, or nil once released.
func (s *Surface) Image() image.Image {
	if s == nil || s.Canvas == nil {
		return nil
	}
	return s.Canvas.Image()
}

// Released reports whether Release has run.
func (s *Surface) Released() bool { return s == nil || s.Canvas == nil }

// Release frees the pixels and zeroes the size.
func (s *Surface) Release() {
	if s == nil || s.Canvas == nil {
		return
	}
	_ = s.Canvas.Close()
	s.Canvas = nil
	s.Width = 0
	s.Height = 0
}
