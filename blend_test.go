package imgblend

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWrap[T Sample](t *testing.T, w, h, c int, pix ...T) *Surface[T] {
	t.Helper()
	s, err := WrapSurface(w, h, c, pix)
	require.NoError(t, err)
	return s
}

func gradient(w, h, c int, seed float32) *Surface[float32] {
	s := NewSurface[float32](w, h, c)
	for i := range s.Pix {
		s.Pix[i] = seed + float32(i)*0.37 + float32(math.Sin(float64(i)))*seed
	}
	return s
}

func TestBlend_weighted(t *testing.T) {
	a := mustWrap[float32](t, 2, 1, 1, 1, 3)
	b := mustWrap[float32](t, 2, 1, 1, 5, 7)

	out, err := Blend([]Layer{a, b}, []float64{1, 3})
	require.NoError(t, err)
	assert.Equal(t, Shape{Width: 2, Height: 1, Channels: 1}, out.Shape())
	assert.Equal(t, []float32{4, 6}, out.Pix)

	// Inputs are untouched.
	assert.Equal(t, []float32{1, 3}, a.Pix)
	assert.Equal(t, []float32{5, 7}, b.Pix)
}

func TestBlend_defaultWeights(t *testing.T) {
	layers := []Layer{gradient(3, 2, 3, 1), gradient(3, 2, 3, 2.5), gradient(3, 2, 3, -4)}

	def, err := Blend(layers, nil)
	require.NoError(t, err)

	for _, w := range []float64{1, 7, 0.25} {
		same, err := Blend(layers, []float64{w, w, w})
		require.NoError(t, err)
		assert.Equal(t, def.Pix, same.Pix, "weight %v", w)
	}
}

func TestBlend_selfIdempotent(t *testing.T) {
	s := gradient(4, 3, 4, 3)
	out, err := Blend([]Layer{s, s}, []float64{2.5, 2.5})
	require.NoError(t, err)
	require.Len(t, out.Pix, len(s.Pix))
	for i := range s.Pix {
		assert.InDelta(t, s.Pix[i], out.Pix[i], 1e-5)
	}
}

func TestBlend_shapeMismatch(t *testing.T) {
	rgb := NewSurface[float32](4, 4, 3)
	gray := NewSurface[float32](4, 4, 1)

	out, err := Blend([]Layer{rgb, gray}, nil)
	assert.Nil(t, out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMismatch))

	var me *MismatchError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, 1, me.Index)
	assert.Equal(t, Shape{Width: 4, Height: 4, Channels: 1}, me.Got)
	assert.Equal(t, Shape{Width: 4, Height: 4, Channels: 3}, me.Want)
	assert.Contains(t, err.Error(), "input 1 is 4x4, 1 components")
}

func TestBlend_weightCountMismatch(t *testing.T) {
	a := NewSurface[float32](2, 2, 1)
	b := NewSurface[float32](2, 2, 1)

	out, err := Blend([]Layer{a, b}, []float64{1, 2, 3})
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestBlend_tooFewInputs(t *testing.T) {
	_, err := Blend([]Layer{NewSurface[float32](1, 1, 1)}, nil)
	assert.True(t, errors.Is(err, ErrConfig))

	_, err = Blend(nil, nil)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestBlend_emptySurface(t *testing.T) {
	a := NewSurface[float32](2, 2, 1)
	var failed *Surface[float32]

	_, err := Blend([]Layer{a, failed}, nil)
	assert.True(t, errors.Is(err, ErrEmptySurface))
}

func TestBlend_deterministic(t *testing.T) {
	layers := []Layer{gradient(8, 5, 3, 0.3), gradient(8, 5, 3, 11), gradient(8, 5, 3, -2)}
	weights := []float64{0.7, 1.9, 3.1}

	first, err := Blend(layers, weights)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Blend(layers, weights)
		require.NoError(t, err)
		for j := range first.Pix {
			require.Equal(t, math.Float32bits(first.Pix[j]), math.Float32bits(again.Pix[j]))
		}
	}
}

func TestBlend_mixedStorage(t *testing.T) {
	ldr := mustWrap[uint8](t, 2, 1, 1, 10, 255)
	hdr := mustWrap[float32](t, 2, 1, 1, 30, 1000)

	out, err := Blend([]Layer{ldr, hdr}, nil)
	require.NoError(t, err)
	assert.Equal(t, []float32{20, 627.5}, out.Pix)
}

func TestBlend_noClamp(t *testing.T) {
	a := mustWrap[float32](t, 1, 1, 1, 1e6)
	b := mustWrap[float32](t, 1, 1, 1, -10)

	out, err := Blend([]Layer{a, b}, []float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float32{499995}, out.Pix)
}

func TestBlender_states(t *testing.T) {
	sh := Shape{Width: 2, Height: 1, Channels: 1}

	b := NewBlender(sh)
	assert.Panics(t, func() { b.Result() }, "result before any input")

	b.Add(mustWrap[float32](t, 2, 1, 1, 2, 4), 0.5)
	assert.Panics(t, func() { b.Add(NewSurface[float32](1, 1, 1), 0.5) }, "shape mismatch")
	b.Add(mustWrap[uint8](t, 2, 1, 1, 2, 4), 0.5)
	assert.Equal(t, 2, b.Added())

	out := b.Result()
	assert.Equal(t, []float32{2, 4}, out.Pix)

	assert.Panics(t, func() { b.Add(NewSurface[float32](2, 1, 1), 1) }, "add after result")
	assert.Panics(t, func() { b.Result() }, "second result")

	assert.Panics(t, func() { NewBlender(Shape{Width: 1, Height: 1, Channels: 2}) })
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate())
	assert.NoError(t, Validate(NewSurface[uint8](3, 3, 4), NewSurface[float32](3, 3, 4)))

	err := Validate(NewSurface[uint8](3, 3, 4), NewSurface[uint8](3, 3, 4), NewSurface[uint8](3, 2, 4))
	var me *MismatchError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, 2, me.Index)

	bad := &Surface[float32]{Width: 1, Height: 1, Channels: 2, Pix: []float32{1, 2}}
	assert.True(t, errors.Is(Validate(bad, bad), ErrMismatch))
}
