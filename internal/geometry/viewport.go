package geometry

import (
	"fmt"
	"math"

	"github.com/gogpu/gg"
)

// Viewport maps page space to device space for one page at a given scale and
// rotation. Values are immutable; use Clone to derive a modified copy.
type Viewport struct {
	viewBox  [4]float64 // xMin, yMin, xMax, yMax in page units
	scale    float64
	rotation int
	offsetX  float64
	offsetY  float64
	dontFlip bool

	width     float64
	height    float64
	transform gg.Matrix
}

// Option overrides a single Viewport field during construction or Clone.
type Option func(*Viewport)

// WithScale overrides the viewport scale.
func WithScale(scale float64) Option {
	return func(v *Viewport) { v.scale = scale }
}

// WithRotation overrides the rotation in degrees. Values are normalised
// into [0, 360).
func WithRotation(rotation int) Option {
	return func(v *Viewport) { v.rotation = rotation }
}

// WithOffset shifts the device-space origin.
func WithOffset(x, y float64) Option {
	return func(v *Viewport) {
		v.offsetX = x
		v.offsetY = y
	}
}

// WithDontFlip keeps the page y axis pointing down. Display lists authored
// top-down use this; PDF-style bottom-up content does not.
func WithDontFlip(dontFlip bool) Option {
	return func(v *Viewport) { v.dontFlip = dontFlip }
}

// NewViewport builds a viewport for a page box of the given size. Rotation
// must be a multiple of 90.
func NewViewport(viewBox [4]float64, opts ...Option) (Viewport, error) {
	v := Viewport{viewBox: viewBox, scale: 1, dontFlip: true}
	for _, opt := range opts {
		opt(&v)
	}
	if err := v.compute(); err != nil {
		return Viewport{}, err
	}
	return v, nil
}

// MustViewport is NewViewport for callers that already validated rotation.
func MustViewport(viewBox [4]float64, opts ...Option) Viewport {
	v, err := NewViewport(viewBox, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

// Clone returns a copy with the given overrides applied.
func (v Viewport) Clone(opts ...Option) (Viewport, error) {
	c := v
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.compute(); err != nil {
		return Viewport{}, err
	}
	return c, nil
}

// NormalizeRotation maps any multiple of 90 into {0, 90, 180, 270}.
func NormalizeRotation(rotation int) (int, error) {
	if rotation%90 != 0 {
		return 0, fmt.Errorf("rotation %d is not a multiple of 90", rotation)
	}
	rotation %= 360
	if rotation < 0 {
		rotation += 360
	}
	return rotation, nil
}

func (v *Viewport) compute() error {
	rotation, err := NormalizeRotation(v.rotation)
	if err != nil {
		return err
	}
	if v.scale <= 0 || math.IsNaN(v.scale) || math.IsInf(v.scale, 0) {
		return fmt.Errorf("invalid scale %v", v.scale)
	}
	v.rotation = rotation

	box := v.viewBox
	centerX := (box[2] + box[0]) / 2
	centerY := (box[3] + box[1]) / 2

	var rotateA, rotateB, rotateC, rotateD float64
	switch rotation {
	case 180:
		rotateA, rotateB, rotateC, rotateD = -1, 0, 0, 1
	case 90:
		rotateA, rotateB, rotateC, rotateD = 0, 1, 1, 0
	case 270:
		rotateA, rotateB, rotateC, rotateD = 0, -1, -1, 0
	default:
		rotateA, rotateB, rotateC, rotateD = 1, 0, 0, -1
	}
	if v.dontFlip {
		rotateC = -rotateC
		rotateD = -rotateD
	}

	s := v.scale
	var offsetCanvasX, offsetCanvasY float64
	if rotateA == 0 {
		offsetCanvasX = math.Abs(centerY-box[1])*s + v.offsetX
		offsetCanvasY = math.Abs(centerX-box[0])*s + v.offsetY
		v.width = math.Abs(box[3]-box[1]) * s
		v.height = math.Abs(box[2]-box[0]) * s
	} else {
		offsetCanvasX = math.Abs(centerX-box[0])*s + v.offsetX
		offsetCanvasY = math.Abs(centerY-box[1])*s + v.offsetY
		v.width = math.Abs(box[2]-box[0]) * s
		v.height = math.Abs(box[3]-box[1]) * s
	}

	// x' = a*x + c*y + e, y' = b*x + d*y + f
	a, b, c, d := rotateA*s, rotateB*s, rotateC*s, rotateD*s
	v.transform = gg.Matrix{
		A: a, B: c, C: offsetCanvasX - a*centerX - c*centerY,
		D: b, E: d, F: offsetCanvasY - b*centerX - d*centerY,
	}
	return nil
}

// ViewBox returns the page box in page units.
func (v Viewport) ViewBox() [4]float64 { return v.viewBox }

// Scale returns the page-to-device scale factor.
func (v Viewport) Scale() float64 { return v.scale }

// Rotation returns the rotation in degrees, one of 0, 90, 180, 270.
func (v Viewport) Rotation() int { return v.rotation }

// Width returns the device-space width.
func (v Viewport) Width() float64 { return v.width }

// Height returns the device-space height.
func (v Viewport) Height() float64 { return v.height }

// Transform returns the page-to-device affine transform.
func (v Viewport) Transform() gg.Matrix { return v.transform }

// IsZero reports whether the viewport was never built.
func (v Viewport) IsZero() bool { return v.scale == 0 }

// ToDevice converts a page-space point to device space.
func (v Viewport) ToDevice(x, y float64) (float64, float64) {
	p := v.transform.TransformPoint(gg.Pt(x, y))
	return p.X, p.Y
}

// ToPage converts a device-space point back to page space.
func (v Viewport) ToPage(x, y float64) (float64, float64) {
	p := v.transform.Invert().TransformPoint(gg.Pt(x, y))
	return p.X, p.Y
}

// ToDeviceRect converts a page-space rectangle to a normalised device-space
// rectangle.
func (v Viewport) ToDeviceRect(r Rect) Rect {
	x1, y1 := v.ToDevice(r.X, r.Y)
	x2, y2 := v.ToDevice(r.X+r.W, r.Y+r.H)
	return Rect{
		X: math.Min(x1, x2),
		Y: math.Min(y1, y2),
		W: math.Abs(x2 - x1),
		H: math.Abs(y2 - y1),
	}
}
