// Package output renders the final posting and account streams: the
// register, balance, print and equity formatters, the format-string engine
// they share, and terminal styling helpers.
package output

import (
	"io"

	"github.com/muesli/termenv"
)

// Styles renders terminal colors for report output and status lines. The
// profile is detected from the writer, so text comes through unstyled when
// output is redirected.
type Styles struct {
	output *termenv.Output
}

// NewStyles creates styles writing to w.
func NewStyles(w io.Writer) *Styles {
	return &Styles{output: termenv.NewOutput(w)}
}

// Success renders a confirmation (green, bold).
func (s *Styles) Success(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("2")).
		Bold().
		String()
}

// Error renders an error message (red, bold).
func (s *Styles) Error(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("1")).
		Bold().
		String()
}

// FilePath renders a file path (cyan).
func (s *Styles) FilePath(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("6")).
		String()
}

// Negative renders an amount below zero (red).
func (s *Styles) Negative(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("1")).
		String()
}

// Keyword renders an emphasised word (bold).
func (s *Styles) Keyword(text string) string {
	return s.output.String(text).
		Bold().
		String()
}

// Dim renders secondary information faintly.
func (s *Styles) Dim(text string) string {
	return s.output.String(text).
		Faint().
		String()
}

// Warning renders a caution (yellow, bold).
func (s *Styles) Warning(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("3")).
		Bold().
		String()
}
