package imgblend

import (
	"image"
	"image/color"
	_ "image/gif" // Register GIF decoder.
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // Register WebP decoder.
)

// LDRCodec decodes any registered 8-bit raster format and encodes Format.
//
// Gray images decode to one channel, opaque color to three and translucent
// color to four. 16-bit images are refused rather than truncated.
type LDRCodec struct {
	// Format is the output format: png (default), jpeg, bmp or tiff.
	Format string
	// Quality is the JPEG quality, 1..100.
	Quality int
}

// Name implements Codec.
func (c *LDRCodec) Name() string {
	if c.Format == "" {
		return "png"
	}
	return c.Format
}

// Decode implements Codec.
func (c *LDRCodec) Decode(r io.Reader) (*Surface[uint8], error) {
	img, format, err := image.Decode(r)
	if err != nil {
		if err == image.ErrFormat {
			return nil, decodeErrorf(DecodeUnrecognizedFormat, "%w", err)
		}
		return nil, decodeErrorf(DecodeCorrupt, "%w", err)
	}
	return surfaceFromImage(img, format)
}

func surfaceFromImage(img image.Image, format string) (*Surface[uint8], error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch img.(type) {
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		return nil, decodeErrorf(DecodeUnsupportedBitDepth, "%s: 16-bit samples, must be 8", format)
	case *image.CMYK:
		return nil, decodeErrorf(DecodeUnsupportedLayout, "%s: CMYK", format)
	}

	if g, ok := img.(*image.Gray); ok {
		dst := NewSurface[uint8](w, h, 1)
		if dst == nil {
			return nil, decodeErrorf(DecodeCorrupt, "%s: empty image", format)
		}
		for y := 0; y < h; y++ {
			off := g.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*w:(y+1)*w], g.Pix[off:off+w])
		}
		return dst, nil
	}

	channels := 4
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		channels = 3
	}
	dst := NewSurface[uint8](w, h, channels)
	if dst == nil {
		return nil, decodeErrorf(DecodeCorrupt, "%s: empty image", format)
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2] = c.R, c.G, c.B
			if channels == 4 {
				dst.Pix[i+3] = c.A
			}
			i += channels
		}
	}
	return dst, nil
}

// Encode implements Codec.
func (c *LDRCodec) Encode(w io.Writer, s *Surface[uint8]) error {
	img, err := imageFromSurface(s)
	if err != nil {
		return err
	}

	switch c.Name() {
	case "png":
		err = png.Encode(w, img)
	case "bmp":
		err = bmp.Encode(w, img)
	case "tiff":
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case "jpeg":
		if s.Channels == 4 {
			return encodeErrorf(EncodeUnsupportedChannels, "jpeg cannot store alpha")
		}
		q := c.Quality
		if q <= 0 {
			q = defaultJPEGQuality
		}
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: q})
	default:
		return encodeErrorf(EncodeWrite, "no encoder for %s", c.Name())
	}
	if err != nil {
		return encodeErrorf(EncodeWrite, "%s: %w", c.Name(), err)
	}
	return nil
}

func imageFromSurface(s *Surface[uint8]) (image.Image, error) {
	if s.Empty() {
		return nil, encodeErrorf(EncodeWrite, "%w", ErrEmptySurface)
	}
	rect := image.Rect(0, 0, s.Width, s.Height)
	switch s.Channels {
	case 1:
		img := image.NewGray(rect)
		copy(img.Pix, s.Pix)
		return img, nil
	case 3:
		img := image.NewRGBA(rect)
		for p := 0; p < s.Width*s.Height; p++ {
			copy(img.Pix[p*4:p*4+3], s.Pix[p*3:p*3+3])
			img.Pix[p*4+3] = 0xff
		}
		return img, nil
	case 4:
		img := image.NewNRGBA(rect)
		copy(img.Pix, s.Pix)
		return img, nil
	default:
		return nil, encodeErrorf(EncodeUnsupportedChannels, "8-bit output needs 1, 3 or 4 channels, got %d", s.Channels)
	}
}
