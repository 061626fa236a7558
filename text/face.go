package text

import (
	"bytes"
	"errors"
	"fmt"

	gotext "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Sentinel errors for the text package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("text: empty font data")

	// ErrInvalidSize is returned for a face size that is not positive.
	ErrInvalidSize = errors.New("text: face size must be positive")
)

// Face is a parsed font at a size in local units.
//
// The font is parsed twice: go-text/typesetting shapes with it and
// x/image/font/sfnt measures and rasterizes its outlines. Both index glyphs
// the same way. A Face is safe for concurrent use.
type Face struct {
	shapeFont *gotext.Font
	outline   *sfnt.Font
	size      float64
}

// NewFace parses TrueType or OpenType data and returns a face of the given
// size.
func NewFace(data []byte, size float64) (*Face, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	outline, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("text: parse font: %w", err)
	}
	gt, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("text: parse font for shaping: %w", err)
	}
	return &Face{shapeFont: gt.Font, outline: outline, size: size}, nil
}

// GoRegular returns the Go Regular font at size.
func GoRegular(size float64) (*Face, error) {
	return NewFace(goregular.TTF, size)
}

// Size returns the em size of the face in local units.
func (f *Face) Size() float64 { return f.size }

// WithSize returns a face sharing the parsed font at another size.
func (f *Face) WithSize(size float64) (*Face, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	c := *f
	c.size = size
	return &c, nil
}

// Metrics holds vertical font metrics in local units. Ascent is positive
// above the baseline and Descent positive below it.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// Metrics returns the vertical metrics of the face.
func (f *Face) Metrics() Metrics {
	var buf sfnt.Buffer
	m, err := f.outline.Metrics(&buf, toFixed(f.size), font.HintingNone)
	if err != nil {
		return Metrics{Ascent: f.size, Descent: f.size / 4}
	}
	return Metrics{
		Ascent:  fromFixed(m.Ascent),
		Descent: fromFixed(m.Descent),
		LineGap: fromFixed(m.Height - m.Ascent - m.Descent),
	}
}

// toFixed converts a float64 size to 26.6 fixed point.
func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

// fromFixed converts a 26.6 fixed point value to float64.
func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
