package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/imgblend"
	"github.com/vearutop/imgblend/internal/config"
)

func writeInput(t *testing.T, path string, pix ...float32) {
	t.Helper()
	s, err := imgblend.WrapSurface(len(pix), 1, 1, pix)
	require.NoError(t, err)
	require.NoError(t, imgblend.EncodeFile[float32](&imgblend.EXRCodec{FullFloat: true}, path, s))
}

func TestParseArgs_interleaved(t *testing.T) {
	var stderr bytes.Buffer
	opt, err := parseArgs([]string{"a.exr", "-w", "1,2,3", "b.exr", "-o", "out.exr", "c.exr", "-v"}, config.Load(), &stderr)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.exr", "b.exr", "c.exr"}, opt.inputs)
	assert.Equal(t, "1,2,3", opt.weights)
	assert.Equal(t, "out.exr", opt.out)
	assert.Equal(t, "debug", opt.logLevel)
}

func TestRun_exitCodes(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.exr")
	b := filepath.Join(dir, "b.exr")
	out := filepath.Join(dir, "out.exr")
	writeInput(t, a, 1, 3)
	writeInput(t, b, 5, 7)

	for name, tc := range map[string]struct {
		args []string
		want int
	}{
		"no args":        {nil, exitUsage},
		"help":           {[]string{"-h"}, exitUsage},
		"unknown flag":   {[]string{"-bogus", a, b}, exitUsage},
		"missing output": {[]string{a, b}, exitUsage},
		"single input":   {[]string{"-o", out, a}, exitUsage},
		"bad weight":     {[]string{"-w", "1,x", "-o", out, a, b}, exitFail},
		"weight count":   {[]string{"-w", "1,2,3", "-o", out, a, b}, exitFail},
		"missing input":  {[]string{"-o", out, a, filepath.Join(dir, "c.exr")}, exitFail},
		"bad output ext": {[]string{"-o", filepath.Join(dir, "out.png"), a, b}, exitFail},
		"bad exr pixel":  {[]string{"-exr-pixel", "double", "-o", out, a, b}, exitFail},
	} {
		var stderr bytes.Buffer
		assert.Equal(t, tc.want, run(context.Background(), tc.args, &stderr), name)
	}

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_success(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.exr")
	b := filepath.Join(dir, "b.exr")
	out := filepath.Join(dir, "out.exr")
	metrics := filepath.Join(dir, "imgblend.prom")
	writeInput(t, a, 1, 3)
	writeInput(t, b, 5, 7)

	var stderr bytes.Buffer
	code := run(context.Background(), []string{"-w", "1,3", "-o", out, "-metrics-file", metrics, a, b}, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stderr.String(), "weight=3")

	got, err := imgblend.DecodeFile[float32](&imgblend.EXRCodec{}, out)
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 6}, got.Pix)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `imgblend_runs_total{status="ok"} 1`)
}
