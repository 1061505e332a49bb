package telemetry

import (
	"errors"

	"github.com/vearutop/imgblend"
)

func status(err error) string {
	switch {
	case errors.Is(err, imgblend.ErrConfig):
		return "config_error"
	case errors.Is(err, imgblend.ErrDecode):
		return "decode_error"
	case errors.Is(err, imgblend.ErrMismatch), errors.Is(err, imgblend.ErrEmptySurface):
		return "mismatch_error"
	case errors.Is(err, imgblend.ErrEncode):
		return "encode_error"
	default:
		return "error"
	}
}
