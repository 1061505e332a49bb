package imgblend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vearutop/imgblend"

// BlendOptions controls BlendFiles.
type BlendOptions struct {
	// OutputCodec overrides the codec picked from the output extension.
	OutputCodec Codec[float32]
	// PreviewOut, if set, receives an 8-bit PNG thumbnail of the blend.
	PreviewOut   string
	PreviewWidth int
	OnResult     func(res *BlendResult)
}

// BlendResult describes a finished blend.
type BlendResult struct {
	Output       string
	Shape        Shape
	Inputs       []string
	Weights      []float64
	Coefficients []float64
	TotalWeight  float64
	Decode       time.Duration
	Blend        time.Duration
	Encode       time.Duration
}

// BlendFiles decodes inputs, blends them with weights and writes the result to out.
//
// All configuration is checked before any file is read, every input is decoded
// and validated before blending, and nothing is written unless the blend succeeds.
func BlendFiles(ctx context.Context, out string, inputs []string, weights []float64, opts ...func(o *BlendOptions)) (*BlendResult, error) {
	var opt BlendOptions
	for _, o := range opts {
		o(&opt)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "imgblend.BlendFiles",
		trace.WithAttributes(attribute.String("output", out), attribute.Int("inputs", len(inputs))))
	defer span.End()

	res, err := blendFiles(ctx, out, inputs, weights, opt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if opt.OnResult != nil {
		opt.OnResult(res)
	}
	return res, nil
}

func blendFiles(ctx context.Context, out string, inputs []string, weights []float64, opt BlendOptions) (*BlendResult, error) {
	if out == "" {
		return nil, configErrorf("missing output path")
	}
	if len(inputs) < 2 {
		return nil, configErrorf("at least 2 inputs are required, got %d", len(inputs))
	}
	coeffs, total, err := NormalizeWeights(weights, len(inputs))
	if err != nil {
		return nil, err
	}
	codec := opt.OutputCodec
	if codec == nil {
		var ok bool
		if codec, ok = FloatCodecFor(out); !ok {
			return nil, configErrorf("unsupported output format %q, use .exr or .hdr", ext(out))
		}
	}

	res := &BlendResult{
		Output:       out,
		Inputs:       inputs,
		Weights:      append([]float64(nil), weights...),
		Coefficients: coeffs,
		TotalWeight:  total,
	}

	start := time.Now()
	layers, err := decodeAll(ctx, inputs)
	if err != nil {
		return nil, err
	}
	res.Decode = time.Since(start)

	start = time.Now()
	blended, err := blendStage(ctx, layers, inputs, weights, coeffs)
	if err != nil {
		return nil, err
	}
	res.Shape = blended.Shape()
	res.Blend = time.Since(start)

	start = time.Now()
	if err := encodeStage(ctx, codec, out, blended, opt); err != nil {
		return nil, err
	}
	res.Encode = time.Since(start)

	return res, nil
}

func decodeAll(ctx context.Context, inputs []string) ([]Layer, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "imgblend.decode")
	defer span.End()

	layers := make([]Layer, 0, len(inputs))
	for _, in := range inputs {
		l, err := LoadLayer(in)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		layers = append(layers, l)
	}
	return layers, nil
}

func blendStage(ctx context.Context, layers []Layer, inputs []string, weights, coeffs []float64) (*Surface[float32], error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "imgblend.blend")
	defer span.End()

	if err := Validate(layers...); err != nil {
		span.RecordError(err)
		return nil, err
	}

	shape := layers[0].Shape()
	span.SetAttributes(attribute.String("shape", shape.String()))

	log := Logger()
	total := 0.0
	for i, in := range inputs {
		w := 1.0
		if len(weights) > 0 {
			w = weights[i]
		}
		total += w
		log.Info("input", slog.Int("index", i), slog.String("path", in), slog.Float64("weight", w))
	}
	log.Info("blending", slog.String("shape", shape.String()), slog.Float64("total_weight", total))

	b := NewBlender(shape)
	for i, l := range layers {
		b.Add(l, coeffs[i])
	}
	return b.Result(), nil
}

func encodeStage(ctx context.Context, codec Codec[float32], out string, s *Surface[float32], opt BlendOptions) error {
	_, span := otel.Tracer(tracerName).Start(ctx, "imgblend.encode",
		trace.WithAttributes(attribute.String("codec", codec.Name())))
	defer span.End()

	// The thumbnail is rendered first so a failure leaves nothing on disk.
	var thumb *Surface[uint8]
	if opt.PreviewOut != "" {
		if thumb = Preview(s, opt.PreviewWidth); thumb == nil {
			err := &EncodeError{Path: opt.PreviewOut, Kind: EncodeWrite, Err: fmt.Errorf("preview of %s failed", s.Shape())}
			span.RecordError(err)
			return err
		}
	}

	if err := EncodeFile(codec, out, s); err != nil {
		span.RecordError(err)
		return err
	}
	if thumb != nil {
		if err := EncodeFile[uint8](&LDRCodec{Format: FormatPNG}, opt.PreviewOut, thumb); err != nil {
			if rerr := os.Remove(filepath.Clean(out)); rerr != nil {
				Logger().Warn("remove output after failed preview", slog.String("path", out), slog.String("error", rerr.Error()))
			}
			span.RecordError(err)
			return err
		}
	}
	return nil
}
