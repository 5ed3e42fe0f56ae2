package preview

import (
	"math"
	"testing"

	"github.com/Venkmine/Proxx-sub001/internal/domain"
)

// TestFitTransformLetterboxes verifies aspect-preserving scale and centering.
func TestFitTransformLetterboxes(t *testing.T) {
	got := FitTransform(1920, 1080, 960, 540)
	if got.Scale != 0.5 || got.OffsetX != 0 || got.OffsetY != 0 {
		t.Fatalf("half-size fit = %+v, want scale 0.5 with no bars", got)
	}

	got = FitTransform(1920, 1080, 1000, 1000)
	wantScale := 1000.0 / 1920.0
	if math.Abs(got.Scale-wantScale) > 1e-9 {
		t.Fatalf("scale = %v, want %v", got.Scale, wantScale)
	}
	if math.Abs(got.OffsetX) > 1e-9 {
		t.Fatalf("offsetX = %v, want 0", got.OffsetX)
	}
	wantOffsetY := (1000.0 - 1080.0*wantScale) / 2
	if math.Abs(got.OffsetY-wantOffsetY) > 1e-9 {
		t.Fatalf("offsetY = %v, want %v", got.OffsetY, wantOffsetY)
	}
}

// TestActualTransformCentersSmallContent verifies pan is ignored when it fits.
func TestActualTransformCentersSmallContent(t *testing.T) {
	got := ActualTransform(100, 100, 400, 300, 9999, -9999)
	if got.Scale != 1 || got.OffsetX != 150 || got.OffsetY != 100 {
		t.Fatalf("small content = %+v, want centered at (150,100)", got)
	}
}

// TestActualTransformClampsPan verifies large content never detaches.
func TestActualTransformClampsPan(t *testing.T) {
	if got := ActualTransform(2000, 1000, 1000, 1000, 0, 0); got.OffsetX != -500 {
		t.Fatalf("centered offsetX = %v, want -500", got.OffsetX)
	}
	if got := ActualTransform(2000, 1000, 1000, 1000, 5000, 0); got.OffsetX != 0 {
		t.Fatalf("right-pan offsetX = %v, want clamp at 0", got.OffsetX)
	}
	if got := ActualTransform(2000, 1000, 1000, 1000, -5000, 0); got.OffsetX != -1000 {
		t.Fatalf("left-pan offsetX = %v, want clamp at -1000", got.OffsetX)
	}
}

// TestTransformRoundTrip verifies view and content mappings invert.
func TestTransformRoundTrip(t *testing.T) {
	tr := FitTransform(1920, 1080, 1000, 1000)

	vx, vy := tr.ToView(960, 540)
	cx, cy := tr.ToContent(vx, vy)
	if math.Abs(cx-960) > 1e-9 || math.Abs(cy-540) > 1e-9 {
		t.Fatalf("round trip = (%v,%v), want (960,540)", cx, cy)
	}
}

// TestTransformDegenerateDimensions verifies zero sizes stay identity-safe.
func TestTransformDegenerateDimensions(t *testing.T) {
	for _, tr := range []Transform{
		FitTransform(0, 1080, 1000, 1000),
		FitTransform(1920, 1080, 0, 0),
		ActualTransform(1920, -1, 1000, 1000, 0, 0),
	} {
		if tr.Scale != 1 || tr.OffsetX != 0 || tr.OffsetY != 0 {
			t.Fatalf("degenerate transform = %+v, want identity", tr)
		}
	}

	x, y := Transform{}.ToContent(10, 10)
	if x != 0 || y != 0 {
		t.Fatalf("zero-scale ToContent = (%v,%v), want (0,0)", x, y)
	}
}

// TestViewportTransformDispatch verifies mode selection.
func TestViewportTransformDispatch(t *testing.T) {
	fit := ViewportTransform(domain.ZoomModeFit, 2000, 1000, 1000, 1000, 500, 0)
	if fit.Scale == 1 {
		t.Fatalf("fit transform = %+v, want scaled", fit)
	}

	actual := ViewportTransform(domain.ZoomModeActual, 2000, 1000, 1000, 1000, 5000, 0)
	if actual.Scale != 1 || actual.OffsetX != 0 {
		t.Fatalf("actual transform = %+v, want 1:1 clamped", actual)
	}
}
