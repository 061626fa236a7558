package text

import (
	"sync"

	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/text/unicode/bidi"

	"github.com/gogpu/compositor/geom"
)

// Direction is the base direction of a paragraph.
type Direction uint8

const (
	// DirectionAuto takes the direction from the first strong character.
	DirectionAuto Direction = iota
	// DirectionLTR forces a left-to-right paragraph.
	DirectionLTR
	// DirectionRTL forces a right-to-left paragraph.
	DirectionRTL
)

// Shaper turns strings into frames with HarfBuzz shaping.
//
// Shaper is safe for concurrent use. HarfbuzzShaper instances keep mutable
// buffers, so they are pooled rather than shared.
type Shaper struct {
	pool sync.Pool
}

// NewShaper returns a shaper.
func NewShaper() *Shaper {
	return &Shaper{pool: sync.Pool{New: func() any { return &shaping.HarfbuzzShaper{} }}}
}

var defaultShaper = NewShaper()

// Shape lays out s on a single line with face using a shared shaper. The
// frame origin is the start of the baseline.
func Shape(s string, face *Face, dir Direction) *Frame {
	return defaultShaper.Shape(s, face, dir)
}

// Shape lays out s on a single line. Bidirectional text is split into runs
// of one direction, shaped separately and placed in visual order.
func (sh *Shaper) Shape(s string, face *Face, dir Direction) *Frame {
	frame := &Frame{}
	if s == "" || face == nil {
		return frame
	}
	var pen float64
	for _, r := range visualRuns(s, dir) {
		run := sh.shapeRun(r.text, r.rtl, face, pen)
		if len(run.Glyphs) == 0 {
			continue
		}
		pen += run.Advance
		frame.Runs = append(frame.Runs, run)
	}
	frame.computeBounds()
	return frame
}

type bidiRun struct {
	text string
	rtl  bool
}

// visualRuns splits s into directional runs in visual order.
func visualRuns(s string, dir Direction) []bidiRun {
	var p bidi.Paragraph
	var err error
	switch dir {
	case DirectionRTL:
		_, err = p.SetString(s, bidi.DefaultDirection(bidi.RightToLeft))
	case DirectionLTR:
		_, err = p.SetString(s, bidi.DefaultDirection(bidi.LeftToRight))
	default:
		_, err = p.SetString(s)
	}
	if err != nil {
		return []bidiRun{{text: s, rtl: dir == DirectionRTL}}
	}
	ordering, err := p.Order()
	if err != nil || ordering.NumRuns() == 0 {
		return []bidiRun{{text: s, rtl: dir == DirectionRTL}}
	}
	runs := make([]bidiRun, 0, ordering.NumRuns())
	for i := range ordering.NumRuns() {
		r := ordering.Run(i)
		runs = append(runs, bidiRun{text: r.String(), rtl: r.Direction() == bidi.RightToLeft})
	}
	return runs
}

func (sh *Shaper) shapeRun(s string, rtl bool, face *Face, x float64) Run {
	runes := []rune(s)
	direction := di.DirectionLTR
	if rtl {
		direction = di.DirectionRTL
	}
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: direction,
		Face:      gotext.NewFace(face.shapeFont),
		Size:      toFixed(face.size),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}
	hb := sh.pool.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(input)
	sh.pool.Put(hb)

	run := Run{Face: face, RTL: rtl, Glyphs: make([]Glyph, 0, len(out.Glyphs))}
	pen := x
	// Output glyphs are in visual order for both directions.
	for _, g := range out.Glyphs {
		run.Glyphs = append(run.Glyphs, Glyph{
			ID:  uint16(g.GlyphID), //nolint:gosec // sfnt glyph indices are 16 bit
			Pos: geom.Pt(pen+fromFixed(g.XOffset), -fromFixed(g.YOffset)),
		})
		pen += fromFixed(g.XAdvance)
	}
	run.Advance = pen - x
	return run
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
