package render

import "math"

// CoverTransform scales and translates a source rectangle so it covers a destination.
type CoverTransform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// CalculateCoverTransform returns the transform that makes a srcW×srcH rectangle fill
// dstW×dstH without distortion. The overflowing axis is centred and cropped, never
// letterboxed. All dimensions must be positive; callers validate.
func CalculateCoverTransform(srcW, srcH, dstW, dstH float64) CoverTransform {
	srcRatio := srcW / srcH
	dstRatio := dstW / dstH

	var t CoverTransform
	if srcRatio > dstRatio {
		// wider than the destination: match heights, crop left and right
		t.Scale = dstH / srcH
		t.OffsetX = (dstW - srcW*t.Scale) / 2
	} else {
		t.Scale = dstW / srcW
		t.OffsetY = (dstH - srcH*t.Scale) / 2
	}
	return t
}

// ScaledSize is the size of the source after scaling, rounded up to whole pixels.
func (t CoverTransform) ScaledSize(srcW, srcH float64) (int, int) {
	return int(math.Ceil(srcW * t.Scale)), int(math.Ceil(srcH * t.Scale))
}
