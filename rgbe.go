package imgblend

import (
	"image"
	"image/color"
	"io"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
)

// RGBECodec reads and writes Radiance RGBE (.hdr) files.
// The format stores RGB only: gray surfaces are written replicated, alpha is refused.
type RGBECodec struct{}

// Name implements Codec.
func (RGBECodec) Name() string { return "rgbe" }

// Decode implements Codec.
func (RGBECodec) Decode(r io.Reader) (*Surface[float32], error) {
	img, err := rgbe.Decode(r)
	if err != nil {
		return nil, decodeErrorf(DecodeUnrecognizedFormat, "radiance: %w", err)
	}
	m, ok := img.(hdr.Image)
	if !ok {
		return nil, decodeErrorf(DecodeUnsupportedLayout, "radiance: unexpected image type %T", img)
	}

	b := m.Bounds()
	dst := NewSurface[float32](b.Dx(), b.Dy(), 3)
	if dst == nil {
		return nil, decodeErrorf(DecodeCorrupt, "radiance: invalid dimensions %dx%d", b.Dx(), b.Dy())
	}
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			r, g, bl, _ := m.HDRAt(b.Min.X+x, b.Min.Y+y).HDRRGBA()
			i := (y*dst.Width + x) * 3
			dst.Pix[i] = float32(r)
			dst.Pix[i+1] = float32(g)
			dst.Pix[i+2] = float32(bl)
		}
	}
	return dst, nil
}

// Encode implements Codec.
func (RGBECodec) Encode(w io.Writer, s *Surface[float32]) error {
	if s.Empty() {
		return encodeErrorf(EncodeWrite, "%w", ErrEmptySurface)
	}
	if s.Channels != 1 && s.Channels != 3 {
		return encodeErrorf(EncodeUnsupportedChannels, "radiance output needs 1 or 3 channels, got %d", s.Channels)
	}
	if err := rgbe.Encode(w, surfaceHDR{s}); err != nil {
		return encodeErrorf(EncodeWrite, "radiance: %w", err)
	}
	return nil
}

// surfaceHDR exposes a gray or RGB float surface as hdr.Image.
type surfaceHDR struct {
	s *Surface[float32]
}

func (h surfaceHDR) ColorModel() color.Model { return hdrcolor.RGBModel }

func (h surfaceHDR) Bounds() image.Rectangle { return image.Rect(0, 0, h.s.Width, h.s.Height) }

func (h surfaceHDR) At(x, y int) color.Color { return h.HDRAt(x, y) }

func (h surfaceHDR) HDRAt(x, y int) hdrcolor.Color {
	i := (y*h.s.Width + x) * h.s.Channels
	if h.s.Channels == 1 {
		v := float64(h.s.Pix[i])
		return hdrcolor.RGB{R: v, G: v, B: v}
	}
	return hdrcolor.RGB{R: float64(h.s.Pix[i]), G: float64(h.s.Pix[i+1]), B: float64(h.s.Pix[i+2])}
}

func (h surfaceHDR) Size() int { return h.s.Width * h.s.Height }
