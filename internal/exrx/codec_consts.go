// Package exrx holds OpenEXR wire constants shared by the reader and writer.
package exrx

// Magic opens every OpenEXR file.
const Magic = 20000630

// Version is the file format version written into the low byte of the version field.
const Version = 2

// Version field flags.
const (
	FlagTiled     = 0x00000200
	FlagDeep      = 0x00000800 // Non-image (deep) data.
	FlagMultipart = 0x00001000
)

// Compression identifiers.
const (
	CompressionNone  = 0
	CompressionRLE   = 1
	CompressionZips  = 2
	CompressionZip   = 3
	CompressionPiz   = 4
	CompressionPxr24 = 5
	CompressionB44   = 6
	CompressionB44a  = 7
)

// Pixel types of a channel.
const (
	PixelUint  = 0
	PixelHalf  = 1
	PixelFloat = 2
)

// LineOrderIncreasingY stores scanline blocks top to bottom.
const LineOrderIncreasingY = 0

var compressionNames = map[int]string{
	CompressionNone:  "NONE",
	CompressionRLE:   "RLE",
	CompressionZips:  "ZIPS",
	CompressionZip:   "ZIP",
	CompressionPiz:   "PIZ",
	CompressionPxr24: "PXR24",
	CompressionB44:   "B44",
	CompressionB44a:  "B44A",
}

// CompressionName returns the OpenEXR name of a compression id.
func CompressionName(compression int) string {
	if name, ok := compressionNames[compression]; ok {
		return name
	}
	return "unknown"
}

// LinesPerBlock returns how many scanlines one chunk holds for a compression.
func LinesPerBlock(compression int) int {
	switch compression {
	case CompressionZip, CompressionPxr24:
		return 16
	case CompressionPiz, CompressionB44, CompressionB44a:
		return 32
	default:
		return 1
	}
}

// PixelSize returns the byte size of one sample of the pixel type, or 0 if unknown.
func PixelSize(pixelType int32) int {
	switch pixelType {
	case PixelHalf:
		return 2
	case PixelUint, PixelFloat:
		return 4
	default:
		return 0
	}
}
