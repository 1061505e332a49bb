package imgblend

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"
	"github.com/vearutop/imgblend/internal/exrx"
	"github.com/x448/float16"
)

// exrOutChannel is a channel to write with its source sample index.
type exrOutChannel struct {
	name string
	src  int
}

// exrChannelLayout lists channels in the sorted order OpenEXR requires.
func exrChannelLayout(channels int) ([]exrOutChannel, bool) {
	switch channels {
	case 1:
		return []exrOutChannel{{"Y", 0}}, true
	case 3:
		return []exrOutChannel{{"B", 2}, {"G", 1}, {"R", 0}}, true
	case 4:
		return []exrOutChannel{{"A", 3}, {"B", 2}, {"G", 1}, {"R", 0}}, true
	default:
		return nil, false
	}
}

// Encode implements Codec.
func (c *EXRCodec) Encode(w io.Writer, s *Surface[float32]) error {
	if s.Empty() {
		return encodeErrorf(EncodeWrite, "%w", ErrEmptySurface)
	}
	layout, ok := exrChannelLayout(s.Channels)
	if !ok {
		return encodeErrorf(EncodeUnsupportedChannels, "OpenEXR output needs 1, 3 or 4 channels, got %d", s.Channels)
	}

	pixelType := int32(exrx.PixelHalf)
	if c.FullFloat {
		pixelType = exrx.PixelFloat
	}
	return encodeEXR(w, s, layout, pixelType, c.Compression.wire())
}

func encodeEXR(w io.Writer, s *Surface[float32], layout []exrOutChannel, pixelType int32, compression int) error {
	var buf bytes.Buffer
	writeEXRHeader(&buf, s, layout, pixelType, compression)

	blockLines := exrx.LinesPerBlock(compression)
	blockCount := (s.Height + blockLines - 1) / blockLines
	blocks := make([][]byte, blockCount)
	for b := range blocks {
		y0 := b * blockLines
		lines := blockLines
		if y0+lines > s.Height {
			lines = s.Height - y0
		}
		raw := exrPackBlock(s, layout, pixelType, y0, lines)
		packed, err := exrCompress(compression, raw)
		if err != nil {
			return encodeErrorf(EncodeWrite, "compress OpenEXR block %d: %w", b, err)
		}
		blocks[b] = packed
	}

	offset := uint64(buf.Len() + 8*blockCount)
	for _, blk := range blocks {
		putU64(&buf, offset)
		offset += uint64(8 + len(blk))
	}
	for b, blk := range blocks {
		putU32(&buf, uint32(b*blockLines))
		putU32(&buf, uint32(len(blk)))
		buf.Write(blk)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return encodeErrorf(EncodeWrite, "%w", err)
	}
	return nil
}

func writeEXRHeader(buf *bytes.Buffer, s *Surface[float32], layout []exrOutChannel, pixelType int32, compression int) {
	putU32(buf, exrx.Magic)
	putU32(buf, exrx.Version)

	var chlist bytes.Buffer
	for _, ch := range layout {
		chlist.WriteString(ch.name)
		chlist.WriteByte(0)
		putU32(&chlist, uint32(pixelType))
		chlist.Write([]byte{0, 0, 0, 0}) // pLinear, reserved.
		putU32(&chlist, 1)
		putU32(&chlist, 1)
	}
	chlist.WriteByte(0)
	writeEXRAttr(buf, "channels", "chlist", chlist.Bytes())

	writeEXRAttr(buf, "compression", "compression", []byte{byte(compression)})

	var box bytes.Buffer
	putU32(&box, 0)
	putU32(&box, 0)
	putU32(&box, uint32(s.Width-1))
	putU32(&box, uint32(s.Height-1))
	writeEXRAttr(buf, "dataWindow", "box2i", box.Bytes())
	writeEXRAttr(buf, "displayWindow", "box2i", box.Bytes())

	writeEXRAttr(buf, "lineOrder", "lineOrder", []byte{exrx.LineOrderIncreasingY})
	writeEXRAttr(buf, "pixelAspectRatio", "float", f32Bytes(1))

	center := append(f32Bytes(0), f32Bytes(0)...)
	writeEXRAttr(buf, "screenWindowCenter", "v2f", center)
	writeEXRAttr(buf, "screenWindowWidth", "float", f32Bytes(1))

	buf.WriteByte(0)
}

func writeEXRAttr(buf *bytes.Buffer, name, typ string, payload []byte) {
	buf.WriteString(name)
	buf.WriteByte(0)
	buf.WriteString(typ)
	buf.WriteByte(0)
	putU32(buf, uint32(len(payload)))
	buf.Write(payload)
}

// exrPackBlock lays out lines as rows of per-channel scanlines.
func exrPackBlock(s *Surface[float32], layout []exrOutChannel, pixelType int32, y0, lines int) []byte {
	size := exrx.PixelSize(pixelType)
	out := make([]byte, 0, lines*len(layout)*s.Width*size)
	var tmp [4]byte
	for y := y0; y < y0+lines; y++ {
		for _, ch := range layout {
			for x := 0; x < s.Width; x++ {
				v := s.At(x, y, ch.src)
				if pixelType == exrx.PixelHalf {
					binary.LittleEndian.PutUint16(tmp[:2], float16.Fromfloat32(v).Bits())
				} else {
					binary.LittleEndian.PutUint32(tmp[:4], math.Float32bits(v))
				}
				out = append(out, tmp[:size]...)
			}
		}
	}
	return out
}

// exrCompress returns raw when compression would not make the block smaller.
func exrCompress(compression int, raw []byte) ([]byte, error) {
	if compression == exrx.CompressionNone {
		return raw, nil
	}
	tmp := shuffleBytes(raw)
	applyPredictor(tmp)

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(tmp); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	if buf.Len() >= len(raw) {
		return raw, nil
	}
	return buf.Bytes(), nil
}

// shuffleBytes splits data into even bytes followed by odd bytes.
func shuffleBytes(data []byte) []byte {
	half := (len(data) + 1) / 2
	out := make([]byte, len(data))
	for i, b := range data {
		if i%2 == 0 {
			out[i/2] = b
		} else {
			out[half+i/2] = b
		}
	}
	return out
}

func applyPredictor(data []byte) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] = byte(int(data[i]) - int(data[i-1]) + 128)
	}
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func f32Bytes(v float32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return b[:]
}
