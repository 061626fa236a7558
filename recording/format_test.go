package recording_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/recording"
)

// samplePlan records one rect over a folded background.
func samplePlan(t *testing.T) *recording.Recording {
	t.Helper()
	rec, _, target := newFrame(t, 16)
	canvas := newCanvas(t, rec, target)
	bg := compositor.NewColorPaint(green)
	canvas.DrawPaint(&bg)
	p := compositor.NewColorPaint(red)
	canvas.DrawRect(geom.MakeXYWH(2, 2, 4, 4), &p)
	require.NoError(t, canvas.EndReplay())
	return rec.Finish()
}

func TestTextFormatter(t *testing.T) {
	plan := samplePlan(t)

	var buf bytes.Buffer
	require.NoError(t, (&recording.TextFormatter{}).Format(&buf, plan))
	out := buf.String()

	assert.Contains(t, out, `target #0 "root" 16x16`)
	assert.Contains(t, out, `pass 0 -> target #0 "root" clear=rgba(0,1,0,1) draws=1`)
	assert.Contains(t, out, "  pipeline Solid/Source/depth=Test")
	assert.Contains(t, out, "  draw 6 vertices [2 2 6 6]")
	assert.NotContains(t, out, "uniforms", "uniforms are verbose only")

	buf.Reset()
	require.NoError(t, (&recording.TextFormatter{Verbose: true}).Format(&buf, plan))
	assert.Contains(t, buf.String(), "  uniforms depth=1")
	assert.Contains(t, buf.String(), "  viewport [0 0 16 16]")
}

func TestTextFormatterStyle(t *testing.T) {
	plan := samplePlan(t)
	var seen []recording.CommandType
	f := &recording.TextFormatter{Style: func(ct recording.CommandType, line string) string {
		seen = append(seen, ct)
		return strings.ToUpper(line)
	}}

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, plan))
	assert.Contains(t, buf.String(), "PASS 0")
	assert.Contains(t, seen, recording.CmdPass)
	assert.Contains(t, seen, recording.CmdDraw)
	assert.NotContains(t, seen, recording.CmdBindUniforms)
}

func TestYAMLFormatter(t *testing.T) {
	plan := samplePlan(t)

	f, err := recording.NewFormatter("yaml")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, plan))

	var doc struct {
		Targets []struct {
			Label string `yaml:"label"`
			Size  string `yaml:"size"`
		} `yaml:"targets"`
		Steps []struct {
			Op    string `yaml:"op"`
			Clear string `yaml:"clear"`
			Draws []struct {
				Pipeline string `yaml:"pipeline"`
				Depth    uint32 `yaml:"depth"`
				Vertices int    `yaml:"vertices"`
			} `yaml:"draws"`
		} `yaml:"steps"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))

	require.Len(t, doc.Targets, 1)
	assert.Equal(t, "root", doc.Targets[0].Label)
	assert.Equal(t, "16x16", doc.Targets[0].Size)

	require.Len(t, doc.Steps, 2)
	assert.Equal(t, "CreateTarget", doc.Steps[0].Op)
	pass := doc.Steps[1]
	assert.Equal(t, "Pass", pass.Op)
	assert.Equal(t, "rgba(0,1,0,1)", pass.Clear)
	require.Len(t, pass.Draws, 1)
	assert.Equal(t, "Solid/Source/depth=Test", pass.Draws[0].Pipeline)
	assert.Equal(t, uint32(1), pass.Draws[0].Depth)
	assert.Equal(t, 6, pass.Draws[0].Vertices)
}

type countingFormatter struct{ n *int }

func (f countingFormatter) Format(io.Writer, *recording.Recording) error {
	*f.n++
	return nil
}

func TestRegistry(t *testing.T) {
	assert.Subset(t, recording.Formats(), []string{"text", "yaml"})
	assert.True(t, recording.IsRegistered("text"))

	_, err := recording.NewFormatter("svg")
	assert.ErrorContains(t, err, `unknown format "svg"`)

	n := 0
	recording.Register("count", func() recording.Formatter { return countingFormatter{&n} })
	t.Cleanup(func() { recording.Unregister("count") })

	assert.Panics(t, func() {
		recording.Register("count", func() recording.Formatter { return countingFormatter{&n} })
	})
	assert.Panics(t, func() { recording.Register("nil", nil) })

	f, err := recording.NewFormatter("count")
	require.NoError(t, err)
	require.NoError(t, f.Format(io.Discard, samplePlan(t)))
	assert.Equal(t, 1, n)

	recording.Unregister("count")
	assert.False(t, recording.IsRegistered("count"))
}
