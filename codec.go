package imgblend

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Codec decodes and encodes one raster format with samples of type T.
type Codec[T Sample] interface {
	Name() string
	Decode(r io.Reader) (*Surface[T], error)
	Encode(w io.Writer, s *Surface[T]) error
}

// DecodeFile reads a surface from path.
// Failures are reported as *DecodeError carrying the path.
func DecodeFile[T Sample](c Codec[T], path string) (*Surface[T], error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		kind := DecodeCorrupt
		if errors.Is(err, fs.ErrNotExist) {
			kind = DecodeNotFound
		}
		return nil, &DecodeError{Path: path, Kind: kind, Err: err}
	}
	defer f.Close()

	s, err := c.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, withDecodePath(err, path)
	}
	if s.Empty() {
		return nil, &DecodeError{Path: path, Kind: DecodeCorrupt, Err: ErrEmptySurface}
	}
	Logger().Debug("decoded", slog.String("path", path), slog.String("codec", c.Name()),
		slog.String("shape", s.Shape().String()))
	return s, nil
}

// EncodeFile writes s to path. The file is closed on every path and removed
// when encoding fails, so no partial output is left behind.
func EncodeFile[T Sample](c Codec[T], path string, s *Surface[T]) (err error) {
	if s.Empty() {
		return &EncodeError{Path: path, Kind: EncodeWrite, Err: ErrEmptySurface}
	}
	if !SupportedChannels(s.Channels) {
		return &EncodeError{Path: path, Kind: EncodeUnsupportedChannels, Err: fmt.Errorf("%d channels", s.Channels)}
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return &EncodeError{Path: path, Kind: EncodeNotWritable, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &EncodeError{Path: path, Kind: EncodeWrite, Err: cerr}
		}
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	w := bufio.NewWriter(f)
	if err := c.Encode(w, s); err != nil {
		return withEncodePath(err, path)
	}
	if err := w.Flush(); err != nil {
		return &EncodeError{Path: path, Kind: EncodeWrite, Err: err}
	}
	Logger().Debug("encoded", slog.String("path", path), slog.String("codec", c.Name()),
		slog.String("shape", s.Shape().String()))
	return nil
}

// EncodeLayerFile writes a layer of any sample type through a float codec,
// widening 8-bit samples by value first.
func EncodeLayerFile(c Codec[float32], path string, l Layer) error {
	switch s := l.(type) {
	case *Surface[float32]:
		return EncodeFile(c, path, s)
	case *Surface[uint8]:
		return EncodeFile(c, path, Widen(s))
	default:
		return &EncodeError{Path: path, Kind: EncodeWrite, Err: fmt.Errorf("unsupported layer type %T", l)}
	}
}

func withDecodePath(err error, path string) error {
	var de *DecodeError
	if errors.As(err, &de) {
		if de.Path == "" {
			de.Path = path
		}
		return de
	}
	return &DecodeError{Path: path, Kind: DecodeCorrupt, Err: err}
}

func withEncodePath(err error, path string) error {
	var ee *EncodeError
	if errors.As(err, &ee) {
		if ee.Path == "" {
			ee.Path = path
		}
		return ee
	}
	return &EncodeError{Path: path, Kind: EncodeWrite, Err: err}
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// FloatCodecFor picks a float codec by file extension: .exr or .hdr/.pic.
func FloatCodecFor(path string) (Codec[float32], bool) {
	switch ext(path) {
	case ".exr":
		return &EXRCodec{}, true
	case ".hdr", ".pic", ".rgbe":
		return RGBECodec{}, true
	default:
		return nil, false
	}
}

// ByteCodecFor picks an 8-bit codec by file extension.
func ByteCodecFor(path string) (Codec[uint8], bool) {
	switch ext(path) {
	case ".png":
		return &LDRCodec{Format: FormatPNG}, true
	case ".jpg", ".jpeg":
		return &LDRCodec{Format: FormatJPEG}, true
	case ".bmp":
		return &LDRCodec{Format: FormatBMP}, true
	case ".tif", ".tiff":
		return &LDRCodec{Format: FormatTIFF}, true
	case ".webp":
		return &LDRCodec{Format: FormatWebP}, true
	case ".gif":
		return &LDRCodec{Format: FormatGIF}, true
	default:
		return nil, false
	}
}

// codecForFormat maps a DetectFormat name to its codec; at most one result is non-nil.
func codecForFormat(format string) (Codec[float32], Codec[uint8]) {
	switch format {
	case FormatEXR:
		return &EXRCodec{}, nil
	case FormatRGBE:
		return RGBECodec{}, nil
	case FormatPNG, FormatJPEG, FormatBMP, FormatTIFF, FormatGIF, FormatWebP:
		return nil, &LDRCodec{Format: format}
	default:
		return nil, nil
	}
}

// LoadLayer decodes path with the codec matching its content signature, falling
// back to its extension. Float formats keep float32 samples, 8-bit formats keep uint8.
func LoadLayer(path string) (Layer, error) {
	format, err := DetectFile(path)
	if err != nil {
		kind := DecodeCorrupt
		if errors.Is(err, fs.ErrNotExist) {
			kind = DecodeNotFound
		}
		return nil, &DecodeError{Path: path, Kind: kind, Err: err}
	}

	fc, bc := codecForFormat(format)
	if fc == nil && bc == nil {
		fc, _ = FloatCodecFor(path)
		bc, _ = ByteCodecFor(path)
	}

	switch {
	case fc != nil:
		s, err := DecodeFile(fc, path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case bc != nil:
		s, err := DecodeFile(bc, path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, &DecodeError{Path: path, Kind: DecodeUnrecognizedFormat, Err: fmt.Errorf("unknown signature and extension %q", ext(path))}
	}
}
