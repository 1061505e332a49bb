package imgblend

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/vearutop/imgblend/internal/exrx"
	"github.com/x448/float16"
)

// EXRCompression selects how EXRCodec compresses scanline blocks on write.
type EXRCompression int

// Supported write compressions. The zero value writes ZIP (16 lines per block).
const (
	EXRZip EXRCompression = iota
	EXRZips
	EXRNone
)

// ParseEXRCompression maps "zip", "zips" and "none" to a compression.
func ParseEXRCompression(s string) (EXRCompression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zip":
		return EXRZip, nil
	case "zips":
		return EXRZips, nil
	case "none":
		return EXRNone, nil
	default:
		return 0, fmt.Errorf("unknown OpenEXR compression %q", s)
	}
}

func (c EXRCompression) wire() int {
	switch c {
	case EXRZips:
		return exrx.CompressionZips
	case EXRNone:
		return exrx.CompressionNone
	default:
		return exrx.CompressionZip
	}
}

// EXRCodec reads and writes single-part scanline OpenEXR files.
//
// Decoding accepts NONE, ZIPS and ZIP compression with HALF, FLOAT or UINT
// channels. Y maps to one channel, R/G/B to three and R/G/B with A to four.
type EXRCodec struct {
	Compression EXRCompression
	// FullFloat writes FLOAT channels instead of HALF.
	FullFloat bool
}

// Name implements Codec.
func (c *EXRCodec) Name() string { return "exr" }

type exrChannel struct {
	name      string
	pixelType int32
	xSampling int32
	ySampling int32
	slot      int // Interleaved sample index or -1 to skip.
}

// Decode implements Codec.
func (c *EXRCodec) Decode(rd io.Reader) (*Surface[float32], error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, decodeErrorf(DecodeCorrupt, "read OpenEXR: %w", err)
	}
	return decodeEXR(data)
}

func decodeEXR(data []byte) (*Surface[float32], error) {
	r := bytes.NewReader(data)
	magic, err := readU32(r)
	if err != nil || magic != exrx.Magic {
		return nil, decodeErrorf(DecodeUnrecognizedFormat, "not an OpenEXR file")
	}
	version, err := readU32(r)
	if err != nil {
		return nil, corruptEXR(err)
	}
	if version&exrx.FlagTiled != 0 {
		return nil, decodeErrorf(DecodeUnsupportedLayout, "tiled OpenEXR not supported")
	}
	if version&exrx.FlagMultipart != 0 {
		return nil, decodeErrorf(DecodeUnsupportedLayout, "multipart OpenEXR not supported")
	}
	if version&exrx.FlagDeep != 0 {
		return nil, decodeErrorf(DecodeUnsupportedLayout, "deep OpenEXR not supported")
	}

	var (
		channels      []exrChannel
		dataWindow    [4]int32
		hasDataWindow bool
		compression   = exrx.CompressionNone
	)

	for {
		name, err := readNullString(r)
		if err != nil {
			return nil, corruptEXR(err)
		}
		if name == "" {
			break
		}
		typ, err := readNullString(r)
		if err != nil {
			return nil, corruptEXR(err)
		}
		size, err := readI32(r)
		if err != nil {
			return nil, corruptEXR(err)
		}
		if size < 0 || int64(size) > int64(r.Len()) {
			return nil, corruptEXR(errors.New("invalid attribute size"))
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, corruptEXR(err)
		}

		switch name {
		case "channels":
			if typ != "chlist" {
				return nil, corruptEXR(errors.New("unexpected channels attribute type"))
			}
			if channels, err = parseEXRChannels(payload); err != nil {
				return nil, err
			}
		case "dataWindow":
			if typ != "box2i" || len(payload) != 16 {
				return nil, corruptEXR(errors.New("invalid dataWindow"))
			}
			for i := range dataWindow {
				dataWindow[i] = int32(binary.LittleEndian.Uint32(payload[i*4:]))
			}
			hasDataWindow = true
		case "compression":
			if typ != "compression" || len(payload) < 1 {
				return nil, corruptEXR(errors.New("invalid compression attribute"))
			}
			compression = int(payload[0])
		case "tiles":
			return nil, decodeErrorf(DecodeUnsupportedLayout, "tiled OpenEXR not supported")
		}
	}

	if len(channels) == 0 {
		return nil, corruptEXR(errors.New("missing channels"))
	}
	if !hasDataWindow {
		return nil, corruptEXR(errors.New("missing dataWindow"))
	}
	for _, ch := range channels {
		if ch.xSampling != 1 || ch.ySampling != 1 {
			return nil, decodeErrorf(DecodeUnsupportedLayout, "OpenEXR subsampled channel %q", ch.name)
		}
	}
	if compression != exrx.CompressionNone && compression != exrx.CompressionZips && compression != exrx.CompressionZip {
		return nil, decodeErrorf(DecodeUnrecognizedFormat, "unsupported OpenEXR compression %s (%d)", exrx.CompressionName(compression), compression)
	}

	nch, err := assignEXRSlots(channels)
	if err != nil {
		return nil, err
	}

	width := int(dataWindow[2]-dataWindow[0]) + 1
	height := int(dataWindow[3]-dataWindow[1]) + 1
	if width <= 0 || height <= 0 {
		return nil, corruptEXR(errors.New("invalid dimensions"))
	}

	blockLines := exrx.LinesPerBlock(compression)
	blockCount := (height + blockLines - 1) / blockLines
	if int64(blockCount)*8 > int64(r.Len()) {
		return nil, corruptEXR(errors.New("truncated offset table"))
	}
	offsets := make([]uint64, blockCount)
	for i := range offsets {
		if offsets[i], err = readU64(r); err != nil {
			return nil, corruptEXR(err)
		}
	}

	dst := NewSurface[float32](width, height, nch)
	if nch == 4 {
		// Missing alpha blocks read as opaque.
		for i := 3; i < len(dst.Pix); i += 4 {
			dst.Pix[i] = 1
		}
	}

	baseY := int(dataWindow[1])
	for block := 0; block < blockCount; block++ {
		if offsets[block] == 0 {
			continue
		}
		if _, err := r.Seek(int64(offsets[block]), io.SeekStart); err != nil {
			return nil, corruptEXR(err)
		}
		y, err := readI32(r)
		if err != nil {
			return nil, corruptEXR(err)
		}
		dataSize, err := readI32(r)
		if err != nil {
			return nil, corruptEXR(err)
		}
		if dataSize < 0 || int64(dataSize) > int64(r.Len()) {
			return nil, corruptEXR(errors.New("invalid block size"))
		}
		raw := make([]byte, dataSize)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, corruptEXR(err)
		}

		startY := int(y) - baseY
		if startY < 0 || startY >= height {
			return nil, corruptEXR(errors.New("scanline out of bounds"))
		}
		lines := blockLines
		if startY+lines > height {
			lines = height - startY
		}

		expected := exrExpectedBlockBytes(width, lines, channels)
		unpacked, err := exrDecompress(compression, raw, expected)
		if err != nil {
			return nil, err
		}
		if err := exrDecodeBlock(dst, channels, startY, lines, unpacked); err != nil {
			return nil, err
		}
	}

	return dst, nil
}

func corruptEXR(err error) *DecodeError {
	return &DecodeError{Kind: DecodeCorrupt, Err: fmt.Errorf("OpenEXR: %w", err)}
}

// assignEXRSlots maps channel names to interleaved positions and returns the channel count.
func assignEXRSlots(channels []exrChannel) (int, error) {
	var hasRGB, hasY, hasA bool
	for _, ch := range channels {
		switch strings.ToUpper(ch.name) {
		case "R", "G", "B":
			hasRGB = true
		case "Y":
			hasY = true
		case "A":
			hasA = true
		}
	}

	var slots map[string]int
	n := 0
	switch {
	case hasRGB && hasA:
		slots, n = map[string]int{"R": 0, "G": 1, "B": 2, "A": 3}, 4
	case hasRGB:
		slots, n = map[string]int{"R": 0, "G": 1, "B": 2}, 3
	case hasY && hasA:
		return 0, decodeErrorf(DecodeUnsupportedLayout, "OpenEXR luminance with alpha is not supported")
	case hasY:
		slots, n = map[string]int{"Y": 0}, 1
	default:
		return 0, decodeErrorf(DecodeUnsupportedLayout, "OpenEXR missing R/G/B or Y channels")
	}

	for i := range channels {
		slot, ok := slots[strings.ToUpper(channels[i].name)]
		if !ok {
			slot = -1
		}
		channels[i].slot = slot
	}
	return n, nil
}

func parseEXRChannels(data []byte) ([]exrChannel, error) {
	r := bytes.NewReader(data)
	var channels []exrChannel
	for {
		name, err := readNullString(r)
		if err != nil {
			return nil, corruptEXR(err)
		}
		if name == "" {
			break
		}
		pixelType, err := readI32(r)
		if err != nil {
			return nil, corruptEXR(err)
		}
		if exrx.PixelSize(pixelType) == 0 {
			return nil, decodeErrorf(DecodeUnsupportedBitDepth, "unsupported OpenEXR pixel type %d", pixelType)
		}
		// pLinear and three reserved bytes.
		if _, err := r.Seek(4, io.SeekCurrent); err != nil {
			return nil, corruptEXR(err)
		}
		xSampling, err := readI32(r)
		if err != nil {
			return nil, corruptEXR(err)
		}
		ySampling, err := readI32(r)
		if err != nil {
			return nil, corruptEXR(err)
		}
		channels = append(channels, exrChannel{
			name:      name,
			pixelType: pixelType,
			xSampling: xSampling,
			ySampling: ySampling,
			slot:      -1,
		})
	}
	return channels, nil
}

func exrExpectedBlockBytes(width, lines int, channels []exrChannel) int {
	total := 0
	for _, ch := range channels {
		total += width * lines * exrx.PixelSize(ch.pixelType)
	}
	return total
}

func exrDecompress(compression int, data []byte, expected int) ([]byte, error) {
	// Blocks that would not shrink are stored raw whatever the compression.
	if len(data) == expected {
		return data, nil
	}
	switch compression {
	case exrx.CompressionNone:
		return nil, corruptEXR(errors.New("unexpected block size"))
	case exrx.CompressionZips, exrx.CompressionZip:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, corruptEXR(err)
		}
		defer zr.Close()
		uncompressed, err := io.ReadAll(zr)
		if err != nil {
			return nil, corruptEXR(err)
		}
		if len(uncompressed) != expected {
			return nil, corruptEXR(errors.New("unexpected decompressed size"))
		}
		undoPredictor(uncompressed)
		return unshuffleBytes(uncompressed), nil
	default:
		return nil, decodeErrorf(DecodeUnrecognizedFormat, "unsupported OpenEXR compression %s (%d)", exrx.CompressionName(compression), compression)
	}
}

func undoPredictor(data []byte) {
	for i := 1; i < len(data); i++ {
		data[i] = byte(int(data[i]) + int(data[i-1]) - 128)
	}
}

// unshuffleBytes interleaves the first half (even bytes) with the second half (odd bytes).
func unshuffleBytes(data []byte) []byte {
	half := (len(data) + 1) / 2
	out := make([]byte, len(data))
	for i := range out {
		if i%2 == 0 {
			out[i] = data[i/2]
		} else {
			out[i] = data[half+i/2]
		}
	}
	return out
}

func exrDecodeBlock(dst *Surface[float32], channels []exrChannel, startY, lines int, data []byte) error {
	width := dst.Width
	offset := 0
	for row := 0; row < lines; row++ {
		y := startY + row
		for _, ch := range channels {
			lineBytes := width * exrx.PixelSize(ch.pixelType)
			if offset+lineBytes > len(data) {
				return corruptEXR(errors.New("block truncated"))
			}
			line := data[offset : offset+lineBytes]
			offset += lineBytes

			if ch.slot < 0 {
				continue
			}
			exrApplyLine(dst, ch.slot, y, ch.pixelType, line)
		}
	}
	return nil
}

func exrApplyLine(dst *Surface[float32], slot, y int, pixelType int32, line []byte) {
	base := y * dst.Width * dst.Channels
	for x := 0; x < dst.Width; x++ {
		var v float32
		switch pixelType {
		case exrx.PixelHalf:
			v = float16.Frombits(binary.LittleEndian.Uint16(line[x*2:])).Float32()
		case exrx.PixelFloat:
			v = math.Float32frombits(binary.LittleEndian.Uint32(line[x*4:]))
		case exrx.PixelUint:
			v = float32(binary.LittleEndian.Uint32(line[x*4:]))
		}
		dst.Pix[base+x*dst.Channels+slot] = v
	}
}

func readNullString(r *bytes.Reader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

func readU32(r *bytes.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readU64(r *bytes.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readI32(r *bytes.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}
