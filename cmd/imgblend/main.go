// Package main provides the imgblend command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/vearutop/imgblend"
	"github.com/vearutop/imgblend/internal/config"
	"github.com/vearutop/imgblend/internal/telemetry"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: imgblend [options] -out output.exr input1 input2 ... inputN")
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  -w, -weights w1,w2,...,wN   weights, one per input (defaults to all 1s)")
	fmt.Fprintln(w, "  -o, -out path               output .exr or .hdr file")
	fmt.Fprintln(w, "  -exr-compression zip|zips|none")
	fmt.Fprintln(w, "  -exr-pixel half|float")
	fmt.Fprintln(w, "  -preview p.png [-preview-width 256]")
	fmt.Fprintln(w, "  -trace none|stdout|otlp [-otlp-endpoint host:port]")
	fmt.Fprintln(w, "  -metrics-file f.prom")
	fmt.Fprintln(w, "  -v                          debug logging")
}

type options struct {
	out          string
	weights      string
	inputs       []string
	exrComp      string
	exrPixel     string
	preview      string
	previewWidth int
	trace        string
	otlpEndpoint string
	metricsFile  string
	verbose      bool
	logLevel     string
}

// parseArgs accepts flags before, between and after input paths.
func parseArgs(args []string, cfg config.Config, stderr io.Writer) (*options, error) {
	opt := &options{logLevel: cfg.LogLevel}

	fs := flag.NewFlagSet("imgblend", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	fs.StringVar(&opt.out, "out", "", "output file")
	fs.StringVar(&opt.out, "o", "", "output file")
	fs.StringVar(&opt.weights, "weights", "", "comma separated weights")
	fs.StringVar(&opt.weights, "w", "", "comma separated weights")
	fs.StringVar(&opt.exrComp, "exr-compression", cfg.EXR.Compression, "OpenEXR compression")
	fs.StringVar(&opt.exrPixel, "exr-pixel", cfg.EXR.Pixel, "OpenEXR pixel type")
	fs.StringVar(&opt.preview, "preview", "", "8-bit PNG preview output")
	fs.IntVar(&opt.previewWidth, "preview-width", cfg.PreviewWidth, "preview width")
	fs.StringVar(&opt.trace, "trace", cfg.Trace.Exporter, "trace exporter")
	fs.StringVar(&opt.otlpEndpoint, "otlp-endpoint", cfg.Trace.OTLPEndpoint, "OTLP HTTP endpoint")
	fs.StringVar(&opt.metricsFile, "metrics-file", cfg.MetricsFile, "Prometheus textfile output")
	fs.BoolVar(&opt.verbose, "v", false, "debug logging")

	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		opt.inputs = append(opt.inputs, args[0])
		args = args[1:]
	}
	if opt.verbose {
		opt.logLevel = "debug"
	}
	return opt, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	cfg := config.Load()
	opt, err := parseArgs(args, cfg, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitUsage
		}
		fmt.Fprintln(stderr, "error:", err)
		usage(stderr)
		return exitUsage
	}

	weights, err := imgblend.ParseWeights(opt.weights)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFail
	}
	if opt.out == "" || len(opt.inputs) < 2 {
		usage(stderr)
		return exitUsage
	}

	logger := newLogger(stderr, opt.logLevel)
	imgblend.SetLogger(logger)
	defer imgblend.SetLogger(nil)

	codec, err := outputCodec(opt)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFail
	}

	traceCfg := cfg.Trace
	traceCfg.Exporter = opt.trace
	traceCfg.OTLPEndpoint = opt.otlpEndpoint
	shutdown, err := telemetry.SetupTracing(ctx, traceCfg, logger)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFail
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			logger.Warn("trace shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics := telemetry.NewMetrics()
	res, err := imgblend.BlendFiles(ctx, opt.out, opt.inputs, weights, func(o *imgblend.BlendOptions) {
		o.OutputCodec = codec
		o.PreviewOut = opt.preview
		o.PreviewWidth = opt.previewWidth
	})
	metrics.Observe(res, err)
	if opt.metricsFile != "" {
		if werr := metrics.WriteTextfile(opt.metricsFile); werr != nil {
			logger.Warn("metrics write failed", slog.String("error", werr.Error()))
		}
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFail
	}

	logger.Info("done", slog.String("output", res.Output), slog.String("shape", res.Shape.String()),
		slog.Duration("decode", res.Decode), slog.Duration("blend", res.Blend), slog.Duration("encode", res.Encode))
	return exitOK
}

// outputCodec returns nil to let the output extension decide, except for
// OpenEXR where compression and pixel type come from flags.
func outputCodec(opt *options) (imgblend.Codec[float32], error) {
	c, ok := imgblend.FloatCodecFor(opt.out)
	if !ok {
		return nil, nil
	}
	exr, ok := c.(*imgblend.EXRCodec)
	if !ok {
		return c, nil
	}
	comp, err := imgblend.ParseEXRCompression(opt.exrComp)
	if err != nil {
		return nil, err
	}
	exr.Compression = comp
	switch strings.ToLower(opt.exrPixel) {
	case "", "half":
	case "float":
		exr.FullFloat = true
	default:
		return nil, fmt.Errorf("unknown OpenEXR pixel type %q", opt.exrPixel)
	}
	return exr, nil
}
