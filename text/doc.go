// Package text builds text frames for the compositor's DrawTextFrame.
//
// A Frame is a single line of shaped glyphs. Shape splits the string into
// bidirectional runs with golang.org/x/text/unicode/bidi, shapes each run
// with go-text/typesetting's HarfBuzz port and places the runs in visual
// order. Frames rasterize their glyph outlines into alpha masks at any
// device scale.
//
//	face, err := text.GoRegular(16)
//	if err != nil {
//		return err
//	}
//	frame := text.Shape("Hello", face, text.DirectionAuto)
//	canvas.DrawTextFrame(frame, geom.Pt(10, 30), &paint)
package text
