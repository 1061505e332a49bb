// Package config loads environment defaults for the imgblend command.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds defaults that command line flags may override.
type Config struct {
	LogLevel string
	EXR      EXRConfig
	Trace    TraceConfig
	// MetricsFile receives Prometheus text metrics after each run when set.
	MetricsFile  string
	PreviewWidth int
}

// EXRConfig selects how OpenEXR output is written.
type EXRConfig struct {
	Compression string
	Pixel       string
}

// TraceConfig selects the span exporter.
type TraceConfig struct {
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

// Load reads IMGBLEND_* environment variables.
func Load() Config {
	return Config{
		LogLevel: env("IMGBLEND_LOG_LEVEL", "info"),
		EXR: EXRConfig{
			Compression: env("IMGBLEND_EXR_COMPRESSION", "zip"),
			Pixel:       env("IMGBLEND_EXR_PIXEL", "half"),
		},
		Trace: TraceConfig{
			Exporter:     env("IMGBLEND_TRACE_EXPORTER", "none"),
			OTLPEndpoint: env("IMGBLEND_OTLP_ENDPOINT", ""),
			OTLPInsecure: envBool("IMGBLEND_OTLP_INSECURE", false),
		},
		MetricsFile:  env("IMGBLEND_METRICS_FILE", ""),
		PreviewWidth: envInt("IMGBLEND_PREVIEW_WIDTH", 256),
	}
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
