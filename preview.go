package imgblend

import (
	"github.com/nfnt/resize"
)

// Preview renders a float surface as an 8-bit thumbnail of the given width,
// keeping the aspect ratio with at least one row. Samples are clamped to
// 0..255 without tone mapping. A width of 0 picks a default; one not smaller
// than the surface keeps the size.
func Preview(s *Surface[float32], width int) *Surface[uint8] {
	if width == 0 {
		width = defaultPreviewWidth
	}
	narrow := Narrow(s)
	if narrow == nil || width < 0 || width >= s.Width {
		return narrow
	}

	img, err := imageFromSurface(narrow)
	if err != nil {
		return nil
	}
	height := (s.Height*width + s.Width/2) / s.Width
	if height < 1 {
		height = 1
	}
	thumb := resize.Resize(uint(width), uint(height), img, resize.Lanczos3)

	out, err := surfaceFromImage(thumb, "preview")
	if err != nil {
		return nil
	}
	// Keep the source channel count: resizing may turn opaque RGB into RGBA.
	if narrow.Channels == 3 && out.Channels == 4 {
		out = dropAlpha(out)
	}
	return out
}

func dropAlpha(s *Surface[uint8]) *Surface[uint8] {
	out := NewSurface[uint8](s.Width, s.Height, 3)
	for p := 0; p < s.Width*s.Height; p++ {
		copy(out.Pix[p*3:p*3+3], s.Pix[p*4:p*4+3])
	}
	return out
}
