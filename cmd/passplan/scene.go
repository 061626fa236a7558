package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/text"
)

// Scene is a YAML drawing script.
//
//	size: [200, 120]
//	background: "#ffffff"
//	ops:
//	  - op: rect
//	    rect: [10, 10, 80, 60]
//	    color: "#ff0000"
//	  - op: layer
//	    alpha: 0.5
//	    blur: 3
//	    ops:
//	      - op: circle
//	        center: [100, 60]
//	        radius: 40
//	        color: "#0000ff"
type Scene struct {
	Name       string `yaml:"name"`
	Size       []int  `yaml:"size"`
	Background string `yaml:"background"`
	Ops        []Op   `yaml:"ops"`
}

// Op is one scene operation. Which fields apply depends on Op.
type Op struct {
	// Op is one of rect, rrect, oval, circle, line, paint, text,
	// clip_rect, clip_oval, clip_rrect, save, layer, translate, scale,
	// rotate.
	Op     string    `yaml:"op"`
	Rect   []float64 `yaml:"rect"`
	Center []float64 `yaml:"center"`
	Radius float64   `yaml:"radius"`
	Points []float64 `yaml:"points"`
	Color  string    `yaml:"color"`
	Alpha  *float64  `yaml:"alpha"`
	Blend  string    `yaml:"blend"`
	// Filter is a chain of color adjustments applied in order, e.g.
	// ["grayscale", "brightness 1.2", "hue_rotate 90"].
	Filter []string `yaml:"filter"`
	// Stroke draws outlines of the given width.
	Stroke float64 `yaml:"stroke"`
	// Clip is intersect or difference.
	Clip      string  `yaml:"clip"`
	Antialias bool    `yaml:"antialias"`
	Blur      float64 `yaml:"blur"`
	// Backdrop blurs the content under a layer.
	Backdrop   float64   `yaml:"backdrop"`
	Bounds     []float64 `yaml:"bounds"`
	Distribute bool      `yaml:"distribute"`
	Text       string    `yaml:"text"`
	FontSize   float64   `yaml:"font_size"`
	X          float64   `yaml:"x"`
	Y          float64   `yaml:"y"`
	// Angle is in degrees.
	Angle float64 `yaml:"angle"`
	Ops   []Op    `yaml:"ops"`
}

// loadScene parses the scene at path. The scene name defaults to the file
// name.
func loadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := parseScene(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = sceneName(path)
	}
	return sc, nil
}

func parseScene(data []byte) (*Scene, error) {
	var sc Scene
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if len(sc.Size) != 0 && len(sc.Size) != 2 {
		return nil, fmt.Errorf("size: want [w, h], got %v", sc.Size)
	}
	return &sc, nil
}

// size returns the scene size, falling back to def.
func (sc *Scene) size(def geom.ISize) geom.ISize {
	if len(sc.Size) == 2 && sc.Size[0] > 0 && sc.Size[1] > 0 {
		return geom.ISize{W: sc.Size[0], H: sc.Size[1]}
	}
	return def
}

// player applies scene operations to a canvas.
type player struct {
	canvas *compositor.Canvas
	shaper *text.Shaper
}

// play draws the scene. Errors in the script abort; rendering failures are
// left in the canvas diagnostics.
func (sc *Scene) play(c *compositor.Canvas, shaper *text.Shaper) error {
	p := player{canvas: c, shaper: shaper}
	if sc.Background != "" {
		col, err := blend.Hex(sc.Background)
		if err != nil {
			return fmt.Errorf("background: %w", err)
		}
		paint := compositor.NewColorPaint(col)
		c.DrawPaint(&paint)
	}
	return p.run(sc.Ops)
}

func (p player) run(ops []Op) error {
	for i := range ops {
		if err := p.apply(&ops[i]); err != nil {
			return fmt.Errorf("op %d (%s): %w", i, ops[i].Op, err)
		}
	}
	return nil
}

func (p player) apply(op *Op) error {
	c := p.canvas
	switch op.Op {
	case "translate":
		c.Translate(op.X, op.Y)
	case "scale":
		c.Scale(op.X, op.Y)
	case "rotate":
		c.Rotate(op.Angle * math.Pi / 180)
	case "save":
		c.Save(reservedDepth(op.Ops))
		defer c.Restore()
		return p.run(op.Ops)
	case "layer":
		return p.layer(op)
	case "clip_rect", "clip_oval", "clip_rrect":
		return p.clip(op)
	default:
		return p.draw(op)
	}
	return nil
}

func (p player) layer(op *Op) error {
	paint, err := op.paint()
	if err != nil {
		return err
	}
	paint.Color = blend.RGBA(0, 0, 0, paint.Color.A)
	if op.Blur > 0 {
		paint.ImageFilter = compositor.NewBlurImageFilter(op.Blur, op.Blur)
	}
	var backdrop compositor.ImageFilter
	if op.Backdrop > 0 {
		backdrop = compositor.NewBlurImageFilter(op.Backdrop, op.Backdrop)
	}
	var bounds *geom.Rect
	promise := compositor.BoundsUnknown
	if op.Bounds != nil {
		r, err := rect(op.Bounds)
		if err != nil {
			return fmt.Errorf("bounds: %w", err)
		}
		bounds, promise = &r, compositor.BoundsMayClipContents
	}
	p.canvas.SaveLayer(&paint, bounds, backdrop, promise, reservedDepth(op.Ops), op.Distribute)
	defer p.canvas.Restore()
	return p.run(op.Ops)
}

func (p player) clip(op *Op) error {
	r, err := rect(op.Rect)
	if err != nil {
		return err
	}
	clipOp := compositor.ClipIntersect
	switch op.Clip {
	case "", "intersect":
	case "difference":
		clipOp = compositor.ClipDifference
	default:
		return fmt.Errorf("unknown clip %q", op.Clip)
	}
	switch op.Op {
	case "clip_rect":
		p.canvas.ClipRect(r, clipOp, op.Antialias)
	case "clip_oval":
		p.canvas.ClipOval(r, clipOp, op.Antialias)
	default:
		p.canvas.ClipRRect(geom.MakeRRectXY(r, op.Radius, op.Radius), clipOp, op.Antialias)
	}
	return nil
}

func (p player) draw(op *Op) error {
	paint, err := op.paint()
	if err != nil {
		return err
	}
	c := p.canvas
	switch op.Op {
	case "paint":
		c.DrawPaint(&paint)
	case "rect", "rrect", "oval":
		r, err := rect(op.Rect)
		if err != nil {
			return err
		}
		switch op.Op {
		case "rect":
			c.DrawRect(r, &paint)
		case "rrect":
			c.DrawRRect(geom.MakeRRectXY(r, op.Radius, op.Radius), &paint)
		default:
			c.DrawOval(r, &paint)
		}
	case "circle":
		if len(op.Center) != 2 {
			return fmt.Errorf("center: want [x, y], got %v", op.Center)
		}
		c.DrawCircle(geom.Pt(op.Center[0], op.Center[1]), op.Radius, &paint)
	case "line":
		if len(op.Points) != 4 {
			return fmt.Errorf("points: want [x0, y0, x1, y1], got %v", op.Points)
		}
		c.DrawLine(geom.Pt(op.Points[0], op.Points[1]), geom.Pt(op.Points[2], op.Points[3]), &paint)
	case "text":
		size := op.FontSize
		if size <= 0 {
			size = 16
		}
		face, err := text.GoRegular(size)
		if err != nil {
			return err
		}
		frame := p.shaper.Shape(op.Text, face, text.DirectionAuto)
		c.DrawTextFrame(frame, geom.Pt(op.X, op.Y), &paint)
	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
	return nil
}

// paint builds the paint of a draw op.
func (op *Op) paint() (compositor.Paint, error) {
	p := compositor.NewPaint()
	if op.Color != "" {
		col, err := blend.Hex(op.Color)
		if err != nil {
			return p, err
		}
		p.Color = col
	}
	if op.Alpha != nil {
		p.Color = p.Color.WithAlpha(float32(*op.Alpha))
	}
	if op.Blend != "" {
		m, err := parseMode(op.Blend)
		if err != nil {
			return p, err
		}
		p.BlendMode = m
	}
	if len(op.Filter) > 0 {
		cf, err := parseColorFilter(op.Filter)
		if err != nil {
			return p, err
		}
		p.ColorFilter = cf
	}
	if op.Stroke > 0 {
		p.Style = compositor.StyleStroke
		p.StrokeWidth = op.Stroke
	}
	if op.Blur > 0 && op.Op != "layer" {
		p.MaskBlur = &compositor.MaskBlur{Style: compositor.BlurNormal, Sigma: op.Blur}
	}
	return p, nil
}

// parseMode accepts blend mode names in any case, with or without
// underscores, e.g. "color_dodge".
func parseMode(name string) (blend.Mode, error) {
	if m, err := blend.ParseMode(name); err == nil {
		return m, nil
	}
	folded := strings.ReplaceAll(name, "_", "")
	for m := blend.Mode(0); m <= blend.LastAdvancedMode; m++ {
		if strings.EqualFold(m.String(), folded) {
			return m, nil
		}
	}
	return blend.ModeSourceOver, fmt.Errorf("unknown blend mode %q", name)
}

// parseColorFilter chains color adjustments. Each entry is a name,
// optionally followed by a number.
func parseColorFilter(specs []string) (*compositor.MatrixColorFilter, error) {
	var chain *compositor.MatrixColorFilter
	for _, spec := range specs {
		fields := strings.Fields(spec)
		if len(fields) == 0 || len(fields) > 2 {
			return nil, fmt.Errorf("filter %q: want a name and an optional value", spec)
		}
		name := strings.ToLower(strings.ReplaceAll(fields[0], "-", "_"))
		arg := func() (float32, error) {
			if len(fields) != 2 {
				return 0, fmt.Errorf("filter %q: %s needs a value", spec, name)
			}
			v, err := strconv.ParseFloat(fields[1], 32)
			if err != nil {
				return 0, fmt.Errorf("filter %q: %w", spec, err)
			}
			return float32(v), nil
		}

		var f *compositor.MatrixColorFilter
		switch name {
		case "grayscale":
			f = compositor.NewGrayscaleColorFilter()
		case "sepia":
			f = compositor.NewSepiaColorFilter()
		case "invert":
			f = compositor.NewInvertColorFilter()
		case "brightness", "contrast", "saturation", "hue_rotate", "opacity":
			v, err := arg()
			if err != nil {
				return nil, err
			}
			switch name {
			case "brightness":
				f = compositor.NewBrightnessColorFilter(v)
			case "contrast":
				f = compositor.NewContrastColorFilter(v)
			case "saturation":
				f = compositor.NewSaturationColorFilter(v)
			case "hue_rotate":
				f = compositor.NewHueRotateColorFilter(v)
			default:
				f = compositor.NewOpacityColorFilter(v)
			}
		default:
			return nil, fmt.Errorf("unknown filter %q", fields[0])
		}
		if chain == nil {
			chain = f
		} else {
			chain = chain.Then(f)
		}
	}
	return chain, nil
}

func rect(v []float64) (geom.Rect, error) {
	if len(v) != 4 {
		return geom.Rect{}, fmt.Errorf("rect: want [x, y, w, h], got %v", v)
	}
	return geom.MakeXYWH(v[0], v[1], v[2], v[3]), nil
}

// reservedDepth counts the draws and clips of ops, layers included.
func reservedDepth(ops []Op) uint32 {
	var n uint32
	for i := range ops {
		switch ops[i].Op {
		case "translate", "scale", "rotate":
		case "save":
			n += reservedDepth(ops[i].Ops)
		case "layer":
			n += 1 + reservedDepth(ops[i].Ops)
		default:
			n++
		}
	}
	return n
}
