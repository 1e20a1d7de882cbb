package viewer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/five82/folio/internal/events"
	"github.com/five82/folio/internal/geometry"
)

const (
	MinScale          = 0.1
	MaxScale          = 10.0
	DefaultScaleDelta = 1.1
	// MaxAutoScale caps the auto preset so small pages are not blown up.
	MaxAutoScale = 1.25

	DefaultScaleValue = ScaleAuto
)

// Scale presets accepted by SetScale.
const (
	ScaleAuto       = "auto"
	ScalePageActual = "page-actual"
	ScalePageWidth  = "page-width"
	ScalePageHeight = "page-height"
	ScalePageFit    = "page-fit"
)

// Padding kept around the page by the fitting presets, in layout units.
const (
	scrollbarPadding = 2
	verticalPadding  = 2
)

// ErrInvalidScale is returned for scale values that are neither a positive
// number nor a preset.
var ErrInvalidScale = errors.New("invalid scale")

func isPreset(value string) bool {
	switch value {
	case ScaleAuto, ScalePageActual, ScalePageWidth, ScalePageHeight, ScalePageFit:
		return true
	}
	return false
}

// Scale returns the current numeric scale.
func (v *Viewer) Scale() float64 { return v.scale }

// ScaleValue returns the scale as last set: a preset name or a number.
func (v *Viewer) ScaleValue() string { return v.scaleValue }

// SetScale sets the scale from a number or a preset name. Numbers are
// clamped to [MinScale, MaxScale].
func (v *Viewer) SetScale(value string) error {
	value = strings.TrimSpace(strings.ToLower(value))
	scale, ok := v.scaleFor(value, v.rotation)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidScale, value)
	}
	if !isPreset(value) {
		value = strconv.FormatFloat(clampScale(scale), 'f', -1, 64)
	}
	v.setScale(scale, value, false)
	v.Update()
	return nil
}

// ZoomIn raises the scale by DefaultScaleDelta per step, rounding up to
// one decimal.
func (v *Viewer) ZoomIn(steps int) {
	scale := v.scale
	for range max(steps, 1) {
		scale = math.Round(scale*DefaultScaleDelta*100) / 100
		scale = math.Ceil(scale*10-1e-9) / 10
		scale = min(MaxScale, scale)
		if scale >= MaxScale {
			break
		}
	}
	v.setNumericScale(scale)
}

// ZoomOut lowers the scale by DefaultScaleDelta per step, rounding down to
// one decimal.
func (v *Viewer) ZoomOut(steps int) {
	scale := v.scale
	for range max(steps, 1) {
		scale = math.Round(scale/DefaultScaleDelta*100) / 100
		scale = math.Floor(scale*10+1e-9) / 10
		scale = max(MinScale, scale)
		if scale <= MinScale {
			break
		}
	}
	v.setNumericScale(scale)
}

func (v *Viewer) setNumericScale(scale float64) {
	scale = clampScale(scale)
	v.setScale(scale, strconv.FormatFloat(scale, 'f', -1, 64), false)
	v.Update()
}

// scaleFor resolves a scale value for the given rotation. Presets need a
// document and a container size; without them the current scale stands in.
func (v *Viewer) scaleFor(value string, rotation int) (float64, bool) {
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	if !isPreset(value) {
		return 0, false
	}
	if value == ScalePageActual {
		return 1, true
	}

	pageW, pageH := v.unscaledPageSize(rotation)
	if pageW <= 0 || pageH <= 0 || v.scroll.Width <= 0 || v.scroll.Height <= 0 {
		return v.scale, true
	}
	widthScale := (v.scroll.Width - scrollbarPadding) / pageW
	heightScale := (v.scroll.Height - verticalPadding) / pageH

	switch value {
	case ScalePageWidth:
		return widthScale, true
	case ScalePageHeight:
		return heightScale, true
	case ScalePageFit:
		return min(widthScale, heightScale), true
	default:
		horizontal := widthScale
		if pageW > pageH {
			horizontal = min(heightScale, widthScale)
		}
		return min(MaxAutoScale, horizontal), true
	}
}

// unscaledPageSize returns the size of the current page at scale 1 with the
// given document rotation.
func (v *Viewer) unscaledPageSize(rotation int) (w, h float64) {
	pv := v.View(v.current)
	if pv == nil {
		return 0, 0
	}
	vp := pv.Viewport()
	unit, err := vp.Clone(geometry.WithScale(1), geometry.WithRotation(vp.Rotation()-v.rotation+rotation))
	if err != nil {
		return 0, 0
	}
	return unit.Width(), unit.Height()
}

func clampScale(scale float64) float64 {
	return min(MaxScale, max(MinScale, scale))
}

func sameScale(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// setScale applies scale to every page view. Unless noScroll is set the
// scroll position is kept on the same spot of the current page.
func (v *Viewer) setScale(scale float64, value string, noScroll bool) {
	scale = clampScale(scale)
	v.scaleValue = value
	if sameScale(v.scale, scale) {
		if isPreset(value) {
			v.bus.Dispatch(events.Event{Name: events.ScaleChanging, Source: v, Scale: scale, PresetValue: value})
		}
		return
	}

	page, frac := v.anchor()
	v.scale = scale
	for _, pv := range v.views {
		pv.Update(scale, v.rotation)
	}
	if !noScroll {
		v.restoreAnchor(page, frac)
	}

	preset := ""
	if isPreset(value) {
		preset = value
	}
	v.bus.Dispatch(events.Event{Name: events.ScaleChanging, Source: v, Scale: scale, PresetValue: preset})
}

// SetRotation rotates every page. rotation must be a multiple of 90.
func (v *Viewer) SetRotation(rotation int) error {
	rotation, err := geometry.NormalizeRotation(rotation)
	if err != nil {
		return fmt.Errorf("set rotation: %w", err)
	}
	if rotation == v.rotation {
		return nil
	}

	scale := v.scale
	if isPreset(v.scaleValue) {
		if s, ok := v.scaleFor(v.scaleValue, rotation); ok {
			scale = clampScale(s)
		}
	}

	page, frac := v.anchor()
	v.rotation = rotation
	v.scale = scale
	for _, pv := range v.views {
		pv.Update(scale, rotation)
	}
	v.restoreAnchor(page, frac)

	v.bus.Dispatch(events.Event{Name: events.RotationChanging, Source: v, Rotation: rotation, PageNumber: v.current})
	v.Update()
	return nil
}

// anchor returns the current page and how far down it the window starts.
func (v *Viewer) anchor() (int, float64) {
	if v.current < 1 || v.current > len(v.views) {
		return 0, 0
	}
	box := v.layout()[v.current-1]
	if box.H <= 0 {
		return v.current, 0
	}
	return v.current, (v.scroll.Top - box.Y) / box.H
}

func (v *Viewer) restoreAnchor(page int, frac float64) {
	if page < 1 || page > len(v.views) {
		return
	}
	box := v.layout()[page-1]
	v.scroll.Top, v.scroll.Left = v.clampScroll(box.Y+frac*box.H, v.scroll.Left)
}
