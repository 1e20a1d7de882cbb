package document

import (
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

const defaultFontSize = 12

type painter func(c *gg.Context, p *filePage, op Op, m gg.Matrix) error

var painters = map[string]painter{
	"rect":   paintRect,
	"line":   paintLine,
	"circle": paintCircle,
	"text":   paintText,
	"image":  paintImage,
}

var fontSource = sync.OnceValues(func() (*text.FontSource, error) {
	return text.NewFontSource(goregular.TTF)
})

func (p *filePage) displayList(params RenderParams) []paintOp {
	m := params.transform()
	background := p.spec.Background

	ops := make([]paintOp, 0, len(p.spec.Ops)+1)
	ops = append(ops, paintOp{name: "background", fn: func(c *gg.Context) error {
		c.ClearWithColor(gg.Hex(background))
		return nil
	}})
	for _, op := range p.spec.Ops {
		paint := painters[op.Kind]
		ops = append(ops, paintOp{name: op.Kind, fn: func(c *gg.Context) error {
			c.SetTransform(m)
			c.SetHexColor(op.Color)
			return paint(c, p, op, m)
		}})
	}
	return ops
}

func finish(c *gg.Context, op Op) error {
	if op.Fill {
		if err := c.Fill(); err != nil {
			return fmt.Errorf("fill: %w", err)
		}
		return nil
	}
	lw := op.LineWidth
	if lw <= 0 {
		lw = 1
	}
	c.SetLineWidth(lw)
	if err := c.Stroke(); err != nil {
		return fmt.Errorf("stroke: %w", err)
	}
	return nil
}

func paintRect(c *gg.Context, _ *filePage, op Op, _ gg.Matrix) error {
	c.DrawRectangle(op.X, op.Y, op.W, op.H)
	return finish(c, op)
}

func paintLine(c *gg.Context, _ *filePage, op Op, _ gg.Matrix) error {
	c.DrawLine(op.X, op.Y, op.X+op.W, op.Y+op.H)
	op.Fill = false
	return finish(c, op)
}

func paintCircle(c *gg.Context, _ *filePage, op Op, _ gg.Matrix) error {
	rx, ry := op.W/2, op.H/2
	if ry == 0 {
		ry = rx
	}
	c.DrawEllipse(op.X+rx, op.Y+ry, rx, ry)
	return finish(c, op)
}

// paintText draws upright text at the transformed baseline origin.
func paintText(c *gg.Context, _ *filePage, op Op, m gg.Matrix) error {
	if op.Text == "" {
		return nil
	}
	source, err := fontSource()
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	size := op.Size
	if size <= 0 {
		size = defaultFontSize
	}
	origin := m.TransformPoint(gg.Pt(op.X, op.Y))
	c.SetFont(source.Face(size * matrixScale(m)))
	c.Identity()
	c.DrawString(op.Text, origin.X, origin.Y)
	c.SetTransform(m)
	return nil
}

func paintImage(c *gg.Context, p *filePage, op Op, _ gg.Matrix) error {
	img, err := p.image(op.Src)
	if err != nil {
		return err
	}
	w, h := op.W, op.H
	b := img.Bounds()
	if w <= 0 {
		w = float64(b.Dx())
	}
	if h <= 0 {
		h = float64(b.Dy())
	}
	c.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:             op.X,
		Y:             op.Y,
		DstWidth:      w,
		DstHeight:     h,
		Interpolation: gg.InterpBilinear,
		Opacity:       1,
		BlendMode:     gg.BlendNormal,
	})
	return nil
}

func matrixScale(m gg.Matrix) float64 {
	return math.Sqrt(math.Abs(m.A*m.E - m.B*m.D))
}
