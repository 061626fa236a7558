// Command passplan renders YAML scenes through the compositor and prints the
// pass plan each frame was lowered into.
//
// Usage:
//
//	passplan [flags] scene.yaml [scene.yaml ...]
//
// Settings are read from passplan.toml in the working directory, or from
// the file given with -config, and flags override them:
//
//	backend = "software"   # software, wgpu or auto
//	width = 256
//	height = 256
//	framebuffer_fetch = false
//	output = "out.png"     # a directory when several scenes are given
//	format = "text"        # text or yaml
//
// With -watch the scenes are rendered again whenever one of them changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/backend/software"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/recording"
)

const defaultConfigFile = "passplan.toml"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "passplan:", err)
		}
		os.Exit(1)
	}
}

// run is main without process state, for tests.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("passplan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", defaultConfigFile, "TOML config file")
		backend    = fs.String("backend", "", "backend: software, wgpu or auto")
		width      = fs.Int("width", 0, "target width for scenes without a size")
		height     = fs.Int("height", 0, "target height for scenes without a size")
		fetch      = fs.Bool("fetch", false, "emulate framebuffer fetch on the software backend")
		output     = fs.String("o", "", "PNG output file, or directory for several scenes")
		format     = fs.String("format", "", "plan format: "+fmt.Sprint(recording.Formats()))
		verbosePl  = fs.Bool("plan-verbose", false, "print viewports, uniforms and texture bindings")
		color      = fs.Bool("color", true, "color the plan when the terminal supports it")
		strict     = fs.Bool("strict", false, "panic on canvas contract violations")
		verbose    = fs.Bool("v", false, "debug logging")
		watchMode  = fs.Bool("watch", false, "re-render when a scene file changes")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no scene given")
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	cfg, err := loadConfig(*configPath, set["config"])
	if err != nil {
		return err
	}
	if set["backend"] {
		cfg.Backend = *backend
	}
	if set["width"] {
		cfg.Width = *width
	}
	if set["height"] {
		cfg.Height = *height
	}
	if set["fetch"] {
		cfg.FramebufferFetch = *fetch
	}
	if set["o"] {
		cfg.Output = *output
	}
	if set["format"] {
		cfg.Format = *format
	}
	if set["plan-verbose"] {
		cfg.Verbose = *verbosePl
	}
	if set["color"] {
		cfg.Color = *color
	}
	if set["strict"] {
		cfg.Strict = *strict
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	compositor.SetLogger(log)

	formatter, err := newFormatter(cfg, stdout)
	if err != nil {
		return err
	}
	gctx, closeCtx, err := openContext(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeCtx(); err != nil {
			log.Warn("passplan: close backend", "err", err)
		}
	}()

	paths := fs.Args()
	r := newRenderer(gctx, cfg, log)
	once := func() error { return renderOnce(ctx, r, paths, formatter, stdout) }
	if err := once(); err != nil && !*watchMode {
		return err
	}
	if *watchMode {
		return watch(ctx, paths, log, once)
	}
	return nil
}

// renderOnce loads, renders and reports every scene.
func renderOnce(ctx context.Context, r *renderer, paths []string, f recording.Formatter, stdout io.Writer) error {
	scenes := make([]*Scene, 0, len(paths))
	for _, p := range paths {
		sc, err := loadScene(p)
		if err != nil {
			return err
		}
		scenes = append(scenes, sc)
	}
	results, err := r.renderAll(ctx, scenes)
	if err != nil {
		return err
	}
	if err := writePlan(stdout, results, f); err != nil {
		return err
	}
	multi := len(results) > 1
	for _, res := range results {
		path := outputPath(r.cfg.Output, res.scene, multi)
		if path == "" {
			continue
		}
		if res.image == nil {
			r.log.Warn("passplan: backend cannot read pixels", "scene", res.scene.Name)
			continue
		}
		if err := writePNG(path, res.image); err != nil {
			return err
		}
		r.log.Info("passplan: wrote", "scene", res.scene.Name, "path", path)
	}
	return nil
}

// newFormatter creates the configured formatter. Text output is colored
// when enabled and supported by stdout.
func newFormatter(cfg Config, stdout io.Writer) (recording.Formatter, error) {
	f, err := recording.NewFormatter(cfg.Format)
	if err != nil {
		return nil, err
	}
	if tf, ok := f.(*recording.TextFormatter); ok {
		tf.Verbose = cfg.Verbose
		tf.Style = planStyle(stdout, cfg.Color)
	}
	return f, nil
}

// openContext creates the configured backend. The returned function
// releases it.
func openContext(cfg Config, log *slog.Logger) (compositor.Context, func() error, error) {
	noClose := func() error { return nil }
	if cfg.Backend == "wgpu" || cfg.Backend == "auto" {
		ctx, closeFn, err := openGPU(cfg, log)
		if err == nil {
			return ctx, closeFn, nil
		}
		if cfg.Backend == "wgpu" {
			return nil, nil, fmt.Errorf("open wgpu backend: %w", err)
		}
		log.Info("passplan: no gpu, using software", "err", err)
	}
	opts := []software.Option{
		software.WithLogger(log),
		software.WithFramebufferFetch(cfg.FramebufferFetch),
	}
	if n := cfg.MaxAttachmentSize; n > 0 {
		opts = append(opts, software.WithMaxAttachmentSize(geom.ISize{W: n, H: n}))
	}
	return software.New(opts...), noClose, nil
}
