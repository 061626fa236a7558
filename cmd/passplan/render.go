package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/recording"
	"github.com/gogpu/compositor/text"
)

// pixelReader is implemented by backends that can read textures back.
type pixelReader interface {
	ReadPixels(tex compositor.Texture) (*image.RGBA, error)
}

// result is the outcome of rendering one scene.
type result struct {
	scene       *Scene
	plan        *recording.Recording
	image       *image.RGBA
	diagnostics []compositor.Diagnostic
}

// renderer renders scenes on one shared context.
type renderer struct {
	ctx    compositor.Context
	cfg    Config
	log    *slog.Logger
	shaper *text.Shaper
}

func newRenderer(ctx compositor.Context, cfg Config, log *slog.Logger) *renderer {
	return &renderer{ctx: ctx, cfg: cfg, log: log, shaper: text.NewShaper()}
}

// render records and draws one scene into a fresh target.
func (r *renderer) render(sc *Scene) (*result, error) {
	rec := recording.NewRecorder(r.ctx)
	size := sc.size(geom.ISize{W: r.cfg.Width, H: r.cfg.Height})
	target, err := rec.CreateRenderTarget(size, sc.Name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sc.Name, err)
	}
	defer target.Release()

	canvas, err := compositor.NewCanvas(rec, target, compositor.WithStrictAsserts(r.cfg.Strict))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sc.Name, err)
	}
	if err := sc.play(canvas, r.shaper); err != nil {
		return nil, fmt.Errorf("%s: %w", sc.Name, err)
	}
	if err := canvas.EndReplay(); err != nil {
		r.log.Warn("passplan: encode failed", "scene", sc.Name, "err", err)
	}

	res := &result{scene: sc, plan: rec.Finish(), diagnostics: canvas.Diagnostics()}
	for _, d := range res.diagnostics {
		r.log.Warn("passplan: diagnostic", "scene", sc.Name, "op", d.Op, "err", d.Err)
	}
	if pr, ok := r.ctx.(pixelReader); ok {
		img, err := pr.ReadPixels(target.ColorTexture())
		if err != nil {
			return nil, fmt.Errorf("%s: read pixels: %w", sc.Name, err)
		}
		res.image = img
	}
	return res, nil
}

// renderAll renders scenes concurrently and returns the results in input
// order. The first failure cancels the rest.
func (r *renderer) renderAll(ctx context.Context, scenes []*Scene) ([]*result, error) {
	results := make([]*result, len(scenes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, sc := range scenes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.render(sc)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writePlan formats the plan of every result, headed by the scene name when
// there are several.
func writePlan(w io.Writer, results []*result, f recording.Formatter) error {
	for i, res := range results {
		if len(results) > 1 {
			if i > 0 {
				io.WriteString(w, "\n")
			}
			s := res.plan.Stats()
			fmt.Fprintf(w, "# %s: %d passes, %d draws, %d targets\n", res.scene.Name, s.Passes, s.Draws, s.Targets)
		}
		if err := f.Format(w, res.plan); err != nil {
			return err
		}
	}
	return nil
}

// outputPath returns where the image of sc goes. With several scenes the
// output is a directory.
func outputPath(output string, sc *Scene, multi bool) string {
	if output == "" {
		return ""
	}
	if multi {
		return filepath.Join(output, sc.Name+".png")
	}
	return output
}

func writePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func sceneName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
