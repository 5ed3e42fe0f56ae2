package preview

import (
	"math"

	"github.com/Venkmine/Proxx-sub001/internal/domain"
)

// Transform maps content pixel coordinates onto viewport coordinates.
type Transform struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// ViewportTransform computes the monitor transform for the active zoom mode.
// Pan offsets only apply in actual-pixels mode; fit mode always centers.
func ViewportTransform(mode domain.ZoomMode, contentW, contentH, viewW, viewH, panX, panY float64) Transform {
	if mode == domain.ZoomModeActual {
		return ActualTransform(contentW, contentH, viewW, viewH, panX, panY)
	}
	return FitTransform(contentW, contentH, viewW, viewH)
}

// FitTransform letterboxes content into the viewport preserving aspect.
func FitTransform(contentW, contentH, viewW, viewH float64) Transform {
	if !validDimensions(contentW, contentH, viewW, viewH) {
		return Transform{Scale: 1}
	}

	scale := math.Min(viewW/contentW, viewH/contentH)
	return Transform{
		Scale:   scale,
		OffsetX: (viewW - contentW*scale) / 2,
		OffsetY: (viewH - contentH*scale) / 2,
	}
}

// ActualTransform shows content at one-to-one pixels. Pan displaces from
// the centered position and is clamped so the content never detaches from
// the viewport edge; smaller content stays centered regardless of pan.
func ActualTransform(contentW, contentH, viewW, viewH, panX, panY float64) Transform {
	if !validDimensions(contentW, contentH, viewW, viewH) {
		return Transform{Scale: 1}
	}

	return Transform{
		Scale:   1,
		OffsetX: clampOffset(contentW, viewW, panX),
		OffsetY: clampOffset(contentH, viewH, panY),
	}
}

// ToView maps a content coordinate into viewport space.
func (t Transform) ToView(x, y float64) (float64, float64) {
	return x*t.Scale + t.OffsetX, y*t.Scale + t.OffsetY
}

// ToContent maps a viewport coordinate back into content space.
func (t Transform) ToContent(x, y float64) (float64, float64) {
	if t.Scale == 0 {
		return 0, 0
	}
	return (x - t.OffsetX) / t.Scale, (y - t.OffsetY) / t.Scale
}

// clampOffset centers content that fits and pins larger content to edges.
func clampOffset(content, view, pan float64) float64 {
	if content <= view {
		return (view - content) / 2
	}

	offset := (view-content)/2 + pan
	if offset > 0 {
		return 0
	}
	if min := view - content; offset < min {
		return min
	}
	return offset
}

// validDimensions rejects degenerate sizes that would divide by zero.
func validDimensions(dims ...float64) bool {
	for _, d := range dims {
		if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return false
		}
	}
	return true
}
