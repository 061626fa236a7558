package main

import (
	"io"

	"github.com/muesli/termenv"

	"github.com/gogpu/compositor/recording"
)

// planStyle colors pass plan lines by command type. Without color support,
// or with color disabled, lines pass through unchanged.
func planStyle(w io.Writer, enabled bool) func(recording.CommandType, string) string {
	opts := []termenv.OutputOption{}
	if !enabled {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	out := termenv.NewOutput(w, opts...)
	if out.Profile == termenv.Ascii {
		return nil
	}
	return func(t recording.CommandType, line string) string {
		s := out.String(line)
		switch t {
		case recording.CmdPass:
			s = s.Foreground(termenv.ANSIBlue).Bold()
		case recording.CmdCreateTarget, recording.CmdUploadTexture:
			s = s.Foreground(termenv.ANSIMagenta)
		case recording.CmdBlit:
			s = s.Foreground(termenv.ANSICyan)
		case recording.CmdBindPipeline:
			s = s.Foreground(termenv.ANSIYellow)
		case recording.CmdDraw:
			s = s.Foreground(termenv.ANSIGreen)
		default:
			s = s.Faint()
		}
		return s.String()
	}
}
