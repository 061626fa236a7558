package recording

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
)

func init() {
	Register("text", func() Formatter { return &TextFormatter{} })
	Register("yaml", func() Formatter { return YAMLFormatter{} })
}

// TextFormatter prints one line per command, indenting pass commands.
type TextFormatter struct {
	// Verbose also prints viewports, uniforms and texture bindings.
	Verbose bool
	// Style, when set, decorates each line. cmd/passplan uses it for
	// terminal colors.
	Style func(t CommandType, line string) string
}

// Format implements Formatter.
func (f *TextFormatter) Format(w io.Writer, r *Recording) error {
	bw := bufio.NewWriter(w)
	line := func(t CommandType, indent, format string, args ...any) {
		s := fmt.Sprintf(format, args...)
		if f.Style != nil {
			s = f.Style(t, s)
		}
		bw.WriteString(indent)
		bw.WriteString(s)
		bw.WriteByte('\n')
	}
	res := r.Resources()
	for _, c := range r.Commands() {
		switch c := c.(type) {
		case CreateTarget:
			line(c.Type(), "", "target #%d %q %s", c.Target, c.Label, sizeString(c.Size))
		case UploadTexture:
			line(c.Type(), "", "upload #%d %q %s", c.Texture, c.Label, sizeString(c.Size))
		case Blit:
			line(c.Type(), "", "blit %s -> %s", textureName(res, c.Src), textureName(res, c.Dst))
		case *Pass:
			line(c.Type(), "", "pass %d -> %s clear=%s draws=%d",
				c.Index, targetName(res, c.Target), colorString(c.Clear), c.Draws())
			for _, pc := range c.Commands {
				if s, ok := f.passLine(res, pc); ok {
					line(pc.Type(), "  ", "%s", s)
				}
			}
		}
	}
	return bw.Flush()
}

func (f *TextFormatter) passLine(res *ResourcePool, c Command) (string, bool) {
	switch c := c.(type) {
	case SetScissor:
		return "scissor " + irectString(c.Rect), true
	case BindPipeline:
		return "pipeline " + c.Pipeline.String(), true
	case Draw:
		s := fmt.Sprintf("draw %d vertices", len(c.Vertices))
		if b, ok := c.Bounds(); ok {
			s += " " + rectString(b)
		}
		return s, true
	}
	if !f.Verbose {
		return "", false
	}
	switch c := c.(type) {
	case SetViewport:
		return "viewport " + rectString(c.Rect), true
	case BindUniforms:
		return "uniforms " + uniformsString(c.Uniforms), true
	case BindTexture:
		return fmt.Sprintf("texture slot=%d %s %s", c.Slot, textureName(res, c.Texture), samplingString(c.Sampling)), true
	}
	return "", false
}

// YAMLFormatter writes a recording as a YAML document.
type YAMLFormatter struct{}

type yamlPlan struct {
	Targets  []yamlTarget  `yaml:"targets"`
	Textures []yamlTexture `yaml:"textures,omitempty"`
	Steps    []yamlStep    `yaml:"steps"`
}

type yamlTarget struct {
	Label    string `yaml:"label"`
	Size     string `yaml:"size"`
	External bool   `yaml:"external,omitempty"`
}

type yamlTexture struct {
	Label  string `yaml:"label"`
	Size   string `yaml:"size"`
	Target *int   `yaml:"target,omitempty"`
}

type yamlStep struct {
	Op     string     `yaml:"op"`
	Target *int       `yaml:"target,omitempty"`
	Src    string     `yaml:"src,omitempty"`
	Dst    string     `yaml:"dst,omitempty"`
	Clear  string     `yaml:"clear,omitempty"`
	Draws  []yamlDraw `yaml:"draws,omitempty"`
}

type yamlDraw struct {
	Pipeline string   `yaml:"pipeline"`
	Depth    uint32   `yaml:"depth"`
	Scissor  string   `yaml:"scissor"`
	Bounds   string   `yaml:"bounds,omitempty"`
	Textures []string `yaml:"textures,omitempty"`
	Vertices int      `yaml:"vertices"`
}

// Format implements Formatter.
func (YAMLFormatter) Format(w io.Writer, r *Recording) error {
	res := r.Resources()
	var doc yamlPlan
	for i := range res.TargetCount() {
		t, _ := res.Target(TargetRef(i))
		doc.Targets = append(doc.Targets, yamlTarget{Label: t.Label, Size: sizeString(t.Size), External: t.External})
	}
	for i := range res.TextureCount() {
		t, _ := res.Texture(TextureRef(i))
		if t.Target.IsValid() {
			continue
		}
		doc.Textures = append(doc.Textures, yamlTexture{Label: t.Label, Size: sizeString(t.Size)})
	}
	for _, c := range r.Commands() {
		step := yamlStep{Op: c.Type().String()}
		switch c := c.(type) {
		case CreateTarget:
			step.Target = intPtr(int(c.Target))
		case UploadTexture:
			step.Dst = textureName(res, c.Texture)
		case Blit:
			step.Src, step.Dst = textureName(res, c.Src), textureName(res, c.Dst)
		case *Pass:
			step.Target = intPtr(int(c.Target))
			step.Clear = colorString(c.Clear)
			step.Draws = yamlDraws(res, c)
		}
		doc.Steps = append(doc.Steps, step)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("recording: encode yaml: %w", err)
	}
	return enc.Close()
}

// yamlDraws folds the pass state into one entry per draw.
func yamlDraws(res *ResourcePool, p *Pass) []yamlDraw {
	var (
		out      []yamlDraw
		pipeline compositor.PipelineDescriptor
		uniforms compositor.Uniforms
		scissor  geom.IRect
		slots    = map[int]TextureRef{}
	)
	for _, c := range p.Commands {
		switch c := c.(type) {
		case SetScissor:
			scissor = c.Rect
		case BindPipeline:
			pipeline = c.Pipeline
			clear(slots)
		case BindUniforms:
			uniforms = c.Uniforms
		case BindTexture:
			slots[c.Slot] = c.Texture
		case Draw:
			d := yamlDraw{
				Pipeline: pipeline.String(),
				Depth:    uniforms.Depth,
				Scissor:  irectString(scissor),
				Vertices: len(c.Vertices),
			}
			if b, ok := c.Bounds(); ok {
				d.Bounds = rectString(b)
			}
			for slot := range 2 {
				if ref, ok := slots[slot]; ok && ref.IsValid() {
					d.Textures = append(d.Textures, textureName(res, ref))
				}
			}
			out = append(out, d)
		}
	}
	return out
}

func intPtr(v int) *int { return &v }

func targetName(res *ResourcePool, ref TargetRef) string {
	t, ok := res.Target(ref)
	if !ok {
		return fmt.Sprintf("target #%d", ref)
	}
	return fmt.Sprintf("target #%d %q", ref, t.Label)
}

func textureName(res *ResourcePool, ref TextureRef) string {
	if !ref.IsValid() {
		return "none"
	}
	t, ok := res.Texture(ref)
	switch {
	case !ok:
		return fmt.Sprintf("texture #%d", ref)
	case t.Target.IsValid():
		return fmt.Sprintf("target #%d %q", t.Target, t.Label)
	case t.External():
		return fmt.Sprintf("external %q", t.Label)
	}
	return fmt.Sprintf("image #%d %q", ref, t.Label)
}

func sizeString(s geom.ISize) string { return fmt.Sprintf("%dx%d", s.W, s.H) }

func rectString(r geom.Rect) string {
	return fmt.Sprintf("[%g %g %g %g]", r.Left, r.Top, r.Right, r.Bottom)
}

func irectString(r geom.IRect) string {
	return fmt.Sprintf("[%d %d %d %d]", r.Left, r.Top, r.Right, r.Bottom)
}

func colorString(c blend.Color) string {
	if c.IsTransparent() {
		return "transparent"
	}
	return fmt.Sprintf("rgba(%.3g,%.3g,%.3g,%.3g)", c.R, c.G, c.B, c.A)
}

func samplingString(s compositor.Sampling) string {
	filter := "nearest"
	if s.Filter == compositor.FilterLinear {
		filter = "linear"
	}
	addr := [...]string{"clamp", "repeat", "decal"}
	if int(s.Address) < len(addr) {
		return filter + "/" + addr[s.Address]
	}
	return filter
}

func uniformsString(u compositor.Uniforms) string {
	var b strings.Builder
	fmt.Fprintf(&b, "depth=%d alpha=%g color=%s", u.Depth, u.Alpha, colorString(u.Color))
	if u.Mode.IsAdvanced() {
		fmt.Fprintf(&b, " mode=%s", u.Mode)
	}
	if u.HasColorMatrix {
		b.WriteString(" matrix")
	}
	if u.HasFilterColor {
		fmt.Fprintf(&b, " filter=%s/%s", colorString(u.FilterColor), u.FilterBlend)
	}
	if u.BlurSigma > 0 {
		fmt.Fprintf(&b, " blur=%g", u.BlurSigma)
	}
	return b.String()
}
