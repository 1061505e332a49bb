package imgblend

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/imgblend/internal/exrx"
)

// quarterSteps fills s with values exactly representable as half floats.
func quarterSteps(s *Surface[float32]) *Surface[float32] {
	for i := range s.Pix {
		s.Pix[i] = float32(i%400-100) * 0.25
	}
	return s
}

func exrRoundTrip(t *testing.T, c *EXRCodec, s *Surface[float32]) *Surface[float32] {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf, s))
	got, err := c.Decode(&buf)
	require.NoError(t, err)
	return got
}

func TestEXRCodec_roundTripFloat(t *testing.T) {
	s := gradient(7, 5, 3, 1.234)
	for _, comp := range []EXRCompression{EXRNone, EXRZips, EXRZip} {
		got := exrRoundTrip(t, &EXRCodec{Compression: comp, FullFloat: true}, s)
		assert.Equal(t, s.Shape(), got.Shape(), "compression %d", comp)
		assert.Equal(t, s.Pix, got.Pix, "compression %d", comp)
	}
}

func TestEXRCodec_roundTripHalf(t *testing.T) {
	for _, ch := range []int{1, 3, 4} {
		s := quarterSteps(NewSurface[float32](9, 6, ch))
		got := exrRoundTrip(t, &EXRCodec{}, s)
		assert.Equal(t, s.Shape(), got.Shape(), "%d channels", ch)
		assert.Equal(t, s.Pix, got.Pix, "%d channels", ch)
	}
}

func TestEXRCodec_multipleBlocks(t *testing.T) {
	s := quarterSteps(NewSurface[float32](5, 40, 3))
	for _, comp := range []EXRCompression{EXRZip, EXRZips, EXRNone} {
		got := exrRoundTrip(t, &EXRCodec{Compression: comp}, s)
		assert.Equal(t, s.Pix, got.Pix, "compression %d", comp)
	}
}

func TestEXRCodec_channelOrder(t *testing.T) {
	s := mustWrap[float32](t, 1, 1, 4, 0.25, 0.5, 0.75, 1)
	got := exrRoundTrip(t, &EXRCodec{}, s)
	assert.Equal(t, []float32{0.25, 0.5, 0.75, 1}, got.Pix)
}

func TestEXRCodec_encodeUnsupported(t *testing.T) {
	var buf bytes.Buffer
	two := &Surface[float32]{Width: 1, Height: 1, Channels: 2, Pix: []float32{1, 2}}

	err := (&EXRCodec{}).Encode(&buf, two)
	var ee *EncodeError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, EncodeUnsupportedChannels, ee.Kind)
	assert.True(t, errors.Is(err, ErrEncode))

	assert.True(t, errors.Is((&EXRCodec{}).Encode(&buf, nil), ErrEncode))
}

func TestEXRCodec_decodeErrors(t *testing.T) {
	decodeKind := func(t *testing.T, data []byte) DecodeErrorKind {
		t.Helper()
		_, err := (&EXRCodec{}).Decode(bytes.NewReader(data))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDecode))
		var de *DecodeError
		require.True(t, errors.As(err, &de))
		return de.Kind
	}

	t.Run("garbage", func(t *testing.T) {
		assert.Equal(t, DecodeUnrecognizedFormat, decodeKind(t, []byte("definitely not an image")))
	})

	t.Run("luminance with alpha", func(t *testing.T) {
		ya := &Surface[float32]{Width: 2, Height: 2, Channels: 2, Pix: []float32{1, 0.5, 1, 0.5, 1, 0.5, 1, 0.5}}
		var buf bytes.Buffer
		require.NoError(t, encodeEXR(&buf, ya, []exrOutChannel{{"A", 1}, {"Y", 0}}, exrx.PixelHalf, exrx.CompressionNone))
		assert.Equal(t, DecodeUnsupportedLayout, decodeKind(t, buf.Bytes()))
	})

	t.Run("tiled", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&EXRCodec{}).Encode(&buf, quarterSteps(NewSurface[float32](2, 2, 1))))
		data := buf.Bytes()
		data[5] |= exrx.FlagTiled >> 8
		assert.Equal(t, DecodeUnsupportedLayout, decodeKind(t, data))
	})

	t.Run("RLE", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&EXRCodec{Compression: EXRNone}).Encode(&buf, quarterSteps(NewSurface[float32](2, 2, 1))))
		data := buf.Bytes()
		at := bytes.Index(data, []byte("compression\x00compression\x00"))
		require.Greater(t, at, 0)
		data[at+len("compression\x00compression\x00")+4] = exrx.CompressionRLE

		_, err := (&EXRCodec{}).Decode(bytes.NewReader(data))
		var de *DecodeError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, DecodeUnrecognizedFormat, de.Kind)
		assert.Contains(t, err.Error(), "RLE")
	})

	t.Run("truncated", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&EXRCodec{}).Encode(&buf, quarterSteps(NewSurface[float32](16, 20, 3))))
		data := buf.Bytes()
		assert.Equal(t, DecodeCorrupt, decodeKind(t, data[:len(data)-5]))
		assert.Equal(t, DecodeCorrupt, decodeKind(t, data[:6]))
	})
}

func TestParseEXRCompression(t *testing.T) {
	for in, want := range map[string]EXRCompression{"": EXRZip, "zip": EXRZip, "ZIPS": EXRZips, " none ": EXRNone} {
		got, err := ParseEXRCompression(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseEXRCompression("piz")
	assert.Error(t, err)
}
