package main

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
)

const layerScene = `
size: [64, 48]
background: "#ffffff"
ops:
  - op: rect
    rect: [4, 4, 20, 20]
    color: "#ff0000"
  - op: layer
    alpha: 0.5
    blur: 2
    ops:
      - op: circle
        center: [40, 24]
        radius: 12
        color: "#0000ff"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunTextPlanAndPNG(t *testing.T) {
	dir := t.TempDir()
	scene := writeFile(t, dir, "layer.yaml", layerScene)
	out := filepath.Join(dir, "out.png")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-config", writeFile(t, dir, "cfg.toml", `backend = "software"`),
		"-color=false", "-o", out, scene,
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	plan := stdout.String()
	assert.Contains(t, plan, `target #0 "layer" 64x48`)
	assert.Contains(t, plan, "pass 0 -> target #0 \"layer\" clear=rgba(1,1,1,1)")
	assert.Contains(t, plan, "pipeline Blur/")
	assert.NotContains(t, plan, "\x1b[", "color disabled")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())

	r, g, b, a := img.At(10, 10).RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0, 0xffff}, []uint32{r, g, b, a})
}

func TestRunSeveralScenesYAML(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", layerScene)
	b := writeFile(t, dir, "b.yaml", "ops:\n  - op: paint\n    color: \"#00ff00\"\n")
	outDir := filepath.Join(dir, "out")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-config", filepath.Join(dir, "missing.toml"), a,
	}, &stdout, &stderr)
	require.Error(t, err, "an explicit config must exist")

	stdout.Reset()
	err = run(context.Background(), []string{"-format", "yaml", "-width", "8", "-height", "8", "-o", outDir, a, b}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	assert.Contains(t, stdout.String(), "# a: ")
	assert.Contains(t, stdout.String(), "# b: 1 passes, 0 draws, 1 targets")
	assert.Contains(t, stdout.String(), "op: Pass")
	assert.FileExists(t, filepath.Join(outDir, "a.png"))
	assert.FileExists(t, filepath.Join(outDir, "b.png"))
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	scene := writeFile(t, dir, "s.yaml", layerScene)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no scene", nil, "no scene given"},
		{"bad backend", []string{"-backend", "metal", scene}, `unknown backend "metal"`},
		{"bad format", []string{"-format", "svg", scene}, `unknown format "svg"`},
		{"bad size", []string{"-width", "-1", scene}, "invalid size"},
		{"missing scene", []string{filepath.Join(dir, "nope.yaml")}, "nope.yaml"},
		{"bad op", []string{writeFile(t, dir, "bad.yaml", "ops:\n  - op: spiral\n")}, `unknown op "spiral"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.args, io.Discard, io.Discard)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadConfig(filepath.Join(dir, "absent.toml"), false)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)

	path := writeFile(t, dir, "c.toml", `
backend = "auto"
width = 320
height = 200
max_attachment_size = 1024
framebuffer_fetch = true
format = "yaml"
color = false
`)
	cfg, err = loadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.Backend)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
	assert.Equal(t, 1024, cfg.MaxAttachmentSize)
	assert.True(t, cfg.FramebufferFetch)
	assert.Equal(t, "yaml", cfg.Format)
	assert.False(t, cfg.Color)
	assert.Equal(t, 1, cfg.SampleCount, "unset keys keep their defaults")

	_, err = loadConfig(writeFile(t, dir, "u.toml", "colour = true\n"), true)
	assert.Error(t, err, "unknown keys are rejected")

	_, err = loadConfig(writeFile(t, dir, "s.toml", "sample_count = 3\n"), true)
	assert.ErrorContains(t, err, "sample_count")
}

func TestParseScene(t *testing.T) {
	sc, err := parseScene([]byte(layerScene))
	require.NoError(t, err)
	assert.Equal(t, geom.ISize{W: 64, H: 48}, sc.size(geom.ISize{W: 1, H: 1}))
	require.Len(t, sc.Ops, 2)
	assert.Equal(t, "layer", sc.Ops[1].Op)
	require.NotNil(t, sc.Ops[1].Alpha)
	assert.InDelta(t, 0.5, *sc.Ops[1].Alpha, 1e-9)

	_, err = parseScene([]byte("size: [1, 2, 3]\n"))
	assert.ErrorContains(t, err, "size")

	sc, err = parseScene([]byte("ops: []\n"))
	require.NoError(t, err)
	assert.Equal(t, geom.ISize{W: 5, H: 6}, sc.size(geom.ISize{W: 5, H: 6}))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want blend.Mode
	}{
		{"SourceOver", blend.ModeSourceOver},
		{"multiply", blend.ModeMultiply},
		{"color_dodge", blend.ModeColorDodge},
		{"LUMINOSITY", blend.ModeLuminosity},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := parseMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}
	_, err := parseMode("vivid")
	assert.Error(t, err)
}

func TestReservedDepth(t *testing.T) {
	ops := []Op{
		{Op: "rect"},
		{Op: "translate"},
		{Op: "clip_rect"},
		{Op: "save", Ops: []Op{{Op: "oval"}, {Op: "scale"}}},
		{Op: "layer", Ops: []Op{{Op: "rect"}, {Op: "layer", Ops: []Op{{Op: "text"}}}}},
	}
	// rect, clip, oval, layer + rect + (layer + text)
	assert.Equal(t, uint32(7), reservedDepth(ops))
}

func TestPlanStyle(t *testing.T) {
	assert.Nil(t, planStyle(io.Discard, false))
}

func TestWatchRerunsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "w.yaml", layerScene)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, []string{path}, slog.New(slog.NewTextHandler(io.Discard, nil)), func() error {
			runs.Add(1)
			return nil
		})
	}()

	require.Eventually(t, func() bool {
		// Keep touching the file until the watcher is up.
		_ = os.WriteFile(path, []byte(layerScene), 0o644)
		return runs.Load() > 0
	}, 5*time.Second, 200*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestParseColorFilter(t *testing.T) {
	f, err := parseColorFilter([]string{"invert", "brightness 0.5"})
	require.NoError(t, err)
	assert.NotNil(t, f)

	for _, spec := range []string{"hue-rotate 90", "Saturation 0", "opacity 0.5", "sepia", "grayscale", "contrast 1.5"} {
		_, err := parseColorFilter([]string{spec})
		assert.NoError(t, err, spec)
	}

	tests := []struct {
		spec, want string
	}{
		{"posterize", `unknown filter "posterize"`},
		{"brightness", "needs a value"},
		{"brightness x", "invalid syntax"},
		{"invert 1 2", "optional value"},
		{"", "optional value"},
	}
	for _, tt := range tests {
		_, err := parseColorFilter([]string{tt.spec})
		assert.ErrorContains(t, err, tt.want, tt.spec)
	}
}

func TestRunAppliesColorFilter(t *testing.T) {
	dir := t.TempDir()
	scene := writeFile(t, dir, "filter.yaml", `
size: [16, 16]
background: "#ffffff"
ops:
  - op: rect
    rect: [0, 0, 8, 16]
    color: "#ff0000"
    filter: [invert]
`)
	out := filepath.Join(dir, "filter.png")
	err := run(context.Background(), []string{"-backend", "software", "-o", out, scene}, io.Discard, io.Discard)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	r, g, b, _ := img.At(4, 8).RGBA()
	assert.Equal(t, []uint32{0, 0xffff, 0xffff}, []uint32{r, g, b}, "red inverts to cyan")
	r, g, b, _ = img.At(12, 8).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, b})
}
