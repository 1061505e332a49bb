package imgblend

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	for _, tc := range []struct {
		head string
		want string
	}{
		{"\x76\x2f\x31\x01\x02\x00\x00\x00", FormatEXR},
		{"#?RADIANCE\n", FormatRGBE},
		{"#?RGBE\n", FormatRGBE},
		{"\x89PNG\r\n\x1a\n\x00\x00\x00\x0d", FormatPNG},
		{"\xff\xd8\xff\xe0", FormatJPEG},
		{"BM6\x00\x00\x00", FormatBMP},
		{"II*\x00\x08\x00\x00\x00", FormatTIFF},
		{"MM\x00*\x00\x00\x00\x08", FormatTIFF},
		{"GIF89a", FormatGIF},
		{"RIFF\x24\x00\x00\x00WEBPVP8 ", FormatWebP},
		{"RIFF\x24\x00\x00\x00WAVEfmt ", ""},
		{"hello", ""},
		{"", ""},
	} {
		got, err := DetectFormat(bytes.NewReader([]byte(tc.head)))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%q", tc.head)
	}
}

func TestDetectFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "image.bin")

	var buf bytes.Buffer
	require.NoError(t, (&EXRCodec{}).Encode(&buf, NewSurface[float32](1, 1, 1)))
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o600))

	got, err := DetectFile(p)
	require.NoError(t, err)
	assert.Equal(t, FormatEXR, got)

	_, err = DetectFile(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
