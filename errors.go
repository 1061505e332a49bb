package imgblend

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors through errors.Is.
var (
	ErrConfig       = errors.New("invalid configuration")
	ErrDecode       = errors.New("decode failed")
	ErrMismatch     = errors.New("mismatched inputs")
	ErrEncode       = errors.New("encode failed")
	ErrEmptySurface = errors.New("empty surface")
)

// ConfigError reports bad or missing user input: weights, paths, input count.
type ConfigError struct {
	Reason string
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string { return e.Reason }

// Is matches ErrConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// DecodeErrorKind classifies decode failures.
type DecodeErrorKind int

// Decode failure kinds.
const (
	DecodeNotFound DecodeErrorKind = iota + 1
	DecodeUnrecognizedFormat
	DecodeUnsupportedBitDepth
	DecodeUnsupportedLayout
	DecodeCorrupt
)

func (k DecodeErrorKind) String() string {
	switch k {
	case DecodeNotFound:
		return "file not found"
	case DecodeUnrecognizedFormat:
		return "unrecognized format"
	case DecodeUnsupportedBitDepth:
		return "unsupported bit depth"
	case DecodeUnsupportedLayout:
		return "unsupported color layout"
	case DecodeCorrupt:
		return "corrupt data"
	default:
		return "unknown"
	}
}

// DecodeError reports a file that could not be turned into a surface.
type DecodeError struct {
	Path string
	Kind DecodeErrorKind
	Err  error
}

func decodeErrorf(kind DecodeErrorKind, format string, args ...any) *DecodeError {
	return &DecodeError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (e *DecodeError) Error() string {
	msg := "decode"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func (e *DecodeError) Unwrap() error { return e.Err }

// MismatchError reports the first input whose shape differs from the first input.
type MismatchError struct {
	Index int
	Got   Shape
	Want  Shape
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("mismatched input width/height/components: input %d is %s, expected %s", e.Index, e.Got, e.Want)
}

// Is matches ErrMismatch.
func (e *MismatchError) Is(target error) bool { return target == ErrMismatch }

// EncodeErrorKind classifies encode failures.
type EncodeErrorKind int

// Encode failure kinds.
const (
	EncodeNotWritable EncodeErrorKind = iota + 1
	EncodeUnsupportedChannels
	EncodeWrite
)

func (k EncodeErrorKind) String() string {
	switch k {
	case EncodeNotWritable:
		return "destination not writable"
	case EncodeUnsupportedChannels:
		return "unsupported channel count"
	case EncodeWrite:
		return "write failed"
	default:
		return "unknown"
	}
}

// EncodeError reports a surface that could not be written.
type EncodeError struct {
	Path string
	Kind EncodeErrorKind
	Err  error
}

func encodeErrorf(kind EncodeErrorKind, format string, args ...any) *EncodeError {
	return &EncodeError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (e *EncodeError) Error() string {
	msg := "encode"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches ErrEncode.
func (e *EncodeError) Is(target error) bool { return target == ErrEncode }

func (e *EncodeError) Unwrap() error { return e.Err }
