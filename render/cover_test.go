package render

import (
	"math"
	"math/rand"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestCalculateCoverTransform(t *testing.T) {
	tests := []struct {
		name                   string
		srcW, srcH, dstW, dstH float64
		want                   CoverTransform
	}{
		{"equal aspect", 1000, 500, 200, 100, CoverTransform{Scale: 0.2}},
		{"wide source", 2000, 1000, 800, 800, CoverTransform{Scale: 0.8, OffsetX: -400}},
		{"tall source", 800, 2000, 800, 800, CoverTransform{Scale: 1, OffsetY: -600}},
		{"a4 portrait onto 16:9", 595, 842, 1920, 1080, CoverTransform{Scale: 1920.0 / 595, OffsetY: (1080 - 842*(1920.0/595)) / 2}},
		{"upscale small landscape", 100, 50, 1920, 1080, CoverTransform{Scale: 21.6, OffsetX: (1920 - 2160) / 2.0}},
		{"identity", 1920, 1080, 1920, 1080, CoverTransform{Scale: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateCoverTransform(tt.srcW, tt.srcH, tt.dstW, tt.dstH)
			if !almostEqual(got.Scale, tt.want.Scale) {
				t.Errorf("scale = %v, want %v", got.Scale, tt.want.Scale)
			}
			if !almostEqual(got.OffsetX, tt.want.OffsetX) {
				t.Errorf("offsetX = %v, want %v", got.OffsetX, tt.want.OffsetX)
			}
			if !almostEqual(got.OffsetY, tt.want.OffsetY) {
				t.Errorf("offsetY = %v, want %v", got.OffsetY, tt.want.OffsetY)
			}
		})
	}
}

// Both branches must agree when the ratios match, so the tie-break does not matter.
func TestCoverTransformEqualRatioBranches(t *testing.T) {
	srcW, srcH, dstW, dstH := 1000.0, 500.0, 200.0, 100.0

	byHeight := dstH / srcH
	byWidth := dstW / srcW
	if !almostEqual(byHeight, byWidth) {
		t.Fatalf("branch scales differ: %v vs %v", byHeight, byWidth)
	}
	if x := (dstW - srcW*byHeight) / 2; !almostEqual(x, 0) {
		t.Errorf("height branch offsetX = %v, want 0", x)
	}
	if y := (dstH - srcH*byWidth) / 2; !almostEqual(y, 0) {
		t.Errorf("width branch offsetY = %v, want 0", y)
	}

	got := CalculateCoverTransform(srcW, srcH, dstW, dstH)
	if got.OffsetX != 0 || got.OffsetY != 0 {
		t.Errorf("expected zero offsets, got %+v", got)
	}
}

func TestCoverTransformAlwaysCovers(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	dim := func() float64 { return float64(rng.Intn(4000) + 1) }

	for i := 0; i < 5000; i++ {
		srcW, srcH, dstW, dstH := dim(), dim(), dim(), dim()
		got := CalculateCoverTransform(srcW, srcH, dstW, dstH)

		if got.Scale <= 0 {
			t.Fatalf("non-positive scale %v for %vx%v -> %vx%v", got.Scale, srcW, srcH, dstW, dstH)
		}
		if srcW*got.Scale < dstW-1e-6 || srcH*got.Scale < dstH-1e-6 {
			t.Fatalf("%vx%v scaled by %v does not cover %vx%v", srcW, srcH, got.Scale, dstW, dstH)
		}
		if got.OffsetX > epsilon || got.OffsetY > epsilon {
			t.Fatalf("offsets must crop, not letterbox: %+v", got)
		}

		// the scaled source, shifted by the offsets, is centred on the destination
		if !almostEqual(got.OffsetX*2+srcW*got.Scale, dstW) && got.OffsetX != 0 {
			t.Fatalf("horizontal overflow not centred: %+v", got)
		}
		if !almostEqual(got.OffsetY*2+srcH*got.Scale, dstH) && got.OffsetY != 0 {
			t.Fatalf("vertical overflow not centred: %+v", got)
		}

		sameRatio := srcW*dstH == dstW*srcH
		nonZero := 0
		if math.Abs(got.OffsetX) > epsilon {
			nonZero++
		}
		if math.Abs(got.OffsetY) > epsilon {
			nonZero++
		}
		if sameRatio && nonZero != 0 {
			t.Fatalf("equal ratios must give zero offsets: %+v", got)
		}
		if !sameRatio && nonZero > 1 {
			t.Fatalf("only one axis may be cropped: %+v", got)
		}
	}
}

func TestScaledSize(t *testing.T) {
	tr := CalculateCoverTransform(2000, 1000, 800, 800)
	w, h := tr.ScaledSize(2000, 1000)
	if w != 1600 || h != 800 {
		t.Errorf("ScaledSize = %dx%d, want 1600x800", w, h)
	}

	// partial pixels round up, whole ones stay put
	w, h = CoverTransform{Scale: 0.5}.ScaledSize(1001, 10)
	if w != 501 || h != 5 {
		t.Errorf("ScaledSize = %dx%d, want 501x5", w, h)
	}
}
