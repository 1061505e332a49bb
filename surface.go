package imgblend

import "fmt"

// Sample is the storage type of surface samples: 8-bit for low dynamic range
// and float32 for high dynamic range.
type Sample interface {
	~uint8 | ~float32
}

// Shape describes surface dimensions and the number of interleaved channels.
type Shape struct {
	Width    int
	Height   int
	Channels int
}

// Valid reports whether the shape has positive dimensions and 1, 3 or 4 channels.
func (s Shape) Valid() bool {
	return s.Width > 0 && s.Height > 0 && SupportedChannels(s.Channels)
}

// Len is the number of samples a surface of this shape holds.
func (s Shape) Len() int {
	return s.Width * s.Height * s.Channels
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d, %d components", s.Width, s.Height, s.Channels)
}

// SupportedChannels reports whether c is gray (1), RGB (3) or RGBA (4).
func SupportedChannels(c int) bool {
	return c == 1 || c == 3 || c == 4
}

// Surface is an in-memory raster with row-major, channel-interleaved samples.
//
// A surface owns Pix exclusively. Handing it to another stage is done with Take,
// duplicating it with Clone; two surfaces never share a buffer.
type Surface[T Sample] struct {
	Width    int
	Height   int
	Channels int
	Pix      []T
}

// NewSurface allocates a zero-initialized surface.
// It returns nil if any dimension is not positive or the channel count is unsupported.
func NewSurface[T Sample](width, height, channels int) *Surface[T] {
	sh := Shape{Width: width, Height: height, Channels: channels}
	if !sh.Valid() {
		return nil
	}
	return &Surface[T]{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]T, sh.Len()),
	}
}

// WrapSurface adopts pix as the sample buffer of a new surface.
// The caller must not use pix afterwards.
func WrapSurface[T Sample](width, height, channels int, pix []T) (*Surface[T], error) {
	sh := Shape{Width: width, Height: height, Channels: channels}
	if !sh.Valid() {
		return nil, fmt.Errorf("invalid surface shape %s", sh)
	}
	if len(pix) != sh.Len() {
		return nil, fmt.Errorf("surface %s needs %d samples, got %d", sh, sh.Len(), len(pix))
	}
	return &Surface[T]{Width: width, Height: height, Channels: channels, Pix: pix}, nil
}

// Shape returns the surface dimensions.
func (s *Surface[T]) Shape() Shape {
	if s == nil {
		return Shape{}
	}
	return Shape{Width: s.Width, Height: s.Height, Channels: s.Channels}
}

// Empty reports whether the surface holds no samples, which marks a failed load.
func (s *Surface[T]) Empty() bool {
	return s == nil || len(s.Pix) == 0
}

// At returns the sample of channel ch at (x, y).
func (s *Surface[T]) At(x, y, ch int) T {
	return s.Pix[(y*s.Width+x)*s.Channels+ch]
}

// Set stores the sample of channel ch at (x, y).
func (s *Surface[T]) Set(x, y, ch int, v T) {
	s.Pix[(y*s.Width+x)*s.Channels+ch] = v
}

// Clone returns a deep copy.
func (s *Surface[T]) Clone() *Surface[T] {
	if s == nil {
		return nil
	}
	c := *s
	c.Pix = append([]T(nil), s.Pix...)
	return &c
}

// Take moves the buffer into a new surface and leaves s empty.
func (s *Surface[T]) Take() *Surface[T] {
	if s == nil {
		return nil
	}
	moved := *s
	*s = Surface[T]{}
	return &moved
}

// Accumulate adds other's samples into s element-wise.
// Shapes must match; callers validate beforehand, so a mismatch panics.
func (s *Surface[T]) Accumulate(other *Surface[T]) {
	s.mustMatch(other.Shape())
	for i, v := range other.Pix {
		s.Pix[i] += v
	}
}

func (s *Surface[T]) mustMatch(sh Shape) {
	if s.Shape() != sh {
		panic(fmt.Sprintf("imgblend: surface shape mismatch: %s vs %s", s.Shape(), sh))
	}
	if len(s.Pix) != sh.Len() {
		panic(fmt.Sprintf("imgblend: surface buffer holds %d samples, shape %s needs %d", len(s.Pix), sh, sh.Len()))
	}
}

// addScaledTo folds k*s into dst in sample order, widening to float32 first.
func (s *Surface[T]) addScaledTo(dst []float32, k float32) {
	if len(dst) != len(s.Pix) {
		panic(fmt.Sprintf("imgblend: accumulation target holds %d samples, source %d", len(dst), len(s.Pix)))
	}
	for i, v := range s.Pix {
		// Explicit conversion keeps the product rounded, so no fused multiply-add.
		dst[i] += float32(k * float32(v))
	}
}

// Layer is a surface of any sample type that can take part in a blend.
type Layer interface {
	Shape() Shape
	Empty() bool
	addScaledTo(dst []float32, k float32)
}

// Widen converts 8-bit samples to float32 by value: 0..255 maps to 0.0..255.0.
func Widen(s *Surface[uint8]) *Surface[float32] {
	if s.Empty() {
		return nil
	}
	out := &Surface[float32]{Width: s.Width, Height: s.Height, Channels: s.Channels, Pix: make([]float32, len(s.Pix))}
	for i, v := range s.Pix {
		out.Pix[i] = float32(v)
	}
	return out
}

// Narrow converts float32 samples to 8-bit by rounding and clamping to 0..255.
func Narrow(s *Surface[float32]) *Surface[uint8] {
	if s.Empty() {
		return nil
	}
	out := &Surface[uint8]{Width: s.Width, Height: s.Height, Channels: s.Channels, Pix: make([]uint8, len(s.Pix))}
	for i, v := range s.Pix {
		out.Pix[i] = clampByte(v)
	}
	return out
}
