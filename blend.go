package imgblend

import (
	"fmt"
	"log/slog"
)

type blendState int

const (
	blendEmpty blendState = iota
	blendAccumulating
	blendDone
)

func (s blendState) String() string {
	switch s {
	case blendEmpty:
		return "empty"
	case blendAccumulating:
		return "accumulating"
	default:
		return "done"
	}
}

// Blender accumulates scaled layers into a float32 surface.
//
// The output is allocated on the first Add, every Add folds one layer in, and
// Result hands the output over. Calling Add with a mismatched layer or using
// the blender after Result panics.
type Blender struct {
	shape Shape
	out   *Surface[float32]
	state blendState
	added int
}

// NewBlender prepares a blender for layers of the given shape.
func NewBlender(shape Shape) *Blender {
	if !shape.Valid() {
		panic(fmt.Sprintf("imgblend: invalid blend shape %s", shape))
	}
	return &Blender{shape: shape}
}

// Add folds coeff*layer into the output, sample by sample.
func (b *Blender) Add(l Layer, coeff float64) {
	switch b.state {
	case blendDone:
		panic("imgblend: Add after Result")
	case blendEmpty:
		b.out = NewSurface[float32](b.shape.Width, b.shape.Height, b.shape.Channels)
		b.state = blendAccumulating
	}
	if l.Shape() != b.shape {
		panic(fmt.Sprintf("imgblend: blending %s into %s", l.Shape(), b.shape))
	}
	l.addScaledTo(b.out.Pix, float32(coeff))
	b.added++
}

// Added returns how many layers were folded in.
func (b *Blender) Added() int {
	return b.added
}

// Result finishes the blend and transfers the output surface to the caller.
func (b *Blender) Result() *Surface[float32] {
	if b.state != blendAccumulating {
		panic(fmt.Sprintf("imgblend: Result in %s state", b.state))
	}
	b.state = blendDone
	out := b.out
	b.out = nil
	return out
}

// Blend combines at least two layers of identical shape into a float32 surface
// where every sample is the weighted sum of the input samples.
//
// Raw weights are normalized to sum to 1; empty raw weighs every layer equally.
// Summation runs in input order per sample, so the result is reproducible.
func Blend(layers []Layer, raw []float64) (*Surface[float32], error) {
	if len(layers) < 2 {
		return nil, configErrorf("at least 2 inputs are required, got %d", len(layers))
	}
	coeffs, total, err := NormalizeWeights(raw, len(layers))
	if err != nil {
		return nil, err
	}
	if err := Validate(layers...); err != nil {
		return nil, err
	}

	shape := layers[0].Shape()
	Logger().Info("blending", slog.String("shape", shape.String()),
		slog.Int("inputs", len(layers)), slog.Float64("total_weight", total))

	b := NewBlender(shape)
	for i, l := range layers {
		b.Add(l, coeffs[i])
	}
	return b.Result(), nil
}
