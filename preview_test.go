package imgblend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreview(t *testing.T) {
	s := NewSurface[float32](8, 4, 3)
	for i := range s.Pix {
		s.Pix[i] = 100
	}

	thumb := Preview(s, 4)
	require.NotNil(t, thumb)
	assert.Equal(t, Shape{Width: 4, Height: 2, Channels: 3}, thumb.Shape())
	for _, v := range thumb.Pix {
		assert.InDelta(t, 100, v, 2)
	}
}

func TestPreview_gray(t *testing.T) {
	s := NewSurface[float32](10, 10, 1)
	for i := range s.Pix {
		s.Pix[i] = 500
	}

	thumb := Preview(s, 5)
	require.NotNil(t, thumb)
	assert.Equal(t, Shape{Width: 5, Height: 5, Channels: 1}, thumb.Shape())
	for _, v := range thumb.Pix {
		assert.InDelta(t, 255, v, 1)
	}
}

func TestPreview_keepsSize(t *testing.T) {
	s := mustWrap[float32](t, 2, 1, 1, -5, 42.4)

	for _, w := range []int{0, 2, 10, -1} {
		thumb := Preview(s, w)
		require.NotNil(t, thumb, "width %d", w)
		assert.Equal(t, []uint8{0, 42}, thumb.Pix, "width %d", w)
	}

	assert.Nil(t, Preview(nil, 4))
}

func TestPreview_wideStrip(t *testing.T) {
	s := NewSurface[float32](1000, 1, 1)
	for i := range s.Pix {
		s.Pix[i] = 30
	}

	thumb := Preview(s, 10)
	require.NotNil(t, thumb)
	assert.Equal(t, Shape{Width: 10, Height: 1, Channels: 1}, thumb.Shape())
	for _, v := range thumb.Pix {
		assert.InDelta(t, 30, v, 1)
	}
}
