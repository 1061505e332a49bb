package imgblend

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// Format names returned by DetectFormat.
const (
	FormatEXR  = "exr"
	FormatRGBE = "rgbe"
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
	FormatGIF  = "gif"
	FormatWebP = "webp"
)

const sniffLen = 12

var (
	exrSig      = []byte{0x76, 0x2f, 0x31, 0x01}
	radianceSig = []byte("#?")
	pngSig      = []byte("\x89PNG\r\n\x1a\n")
	jpegSig     = []byte{0xff, 0xd8, 0xff}
	bmpSig      = []byte("BM")
	tiffLESig   = []byte("II*\x00")
	tiffBESig   = []byte("MM\x00*")
	gifSig      = []byte("GIF8")
	riffSig     = []byte("RIFF")
	webpSig     = []byte("WEBP")
)

// DetectFormat sniffs the leading bytes of r and names the raster format,
// or returns "" when the signature is unknown.
func DetectFormat(r io.Reader) (string, error) {
	br := bufio.NewReaderSize(r, 64)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return sniff(head), nil
}

func sniff(head []byte) string {
	switch {
	case bytes.HasPrefix(head, exrSig):
		return FormatEXR
	case bytes.HasPrefix(head, radianceSig):
		return FormatRGBE
	case bytes.HasPrefix(head, pngSig):
		return FormatPNG
	case bytes.HasPrefix(head, jpegSig):
		return FormatJPEG
	case bytes.HasPrefix(head, tiffLESig), bytes.HasPrefix(head, tiffBESig):
		return FormatTIFF
	case bytes.HasPrefix(head, gifSig):
		return FormatGIF
	case bytes.HasPrefix(head, riffSig) && len(head) >= 12 && bytes.Equal(head[8:12], webpSig):
		return FormatWebP
	case bytes.HasPrefix(head, bmpSig):
		return FormatBMP
	default:
		return ""
	}
}

// DetectFile sniffs the format of the file at path.
func DetectFile(path string) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	defer f.Close()
	return DetectFormat(f)
}
