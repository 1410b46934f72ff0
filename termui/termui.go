// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package termui

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"

	"github.com/stacklok/pdmkit/env"
)

// UI writes user-facing output.
type UI struct {
	out   io.Writer
	color bool
}

// New creates a UI writing to out. Colors are enabled when out is a
// terminal and NO_COLOR is not set in environ.
func New(out io.Writer, environ env.Reader) *UI {
	_, noColor := environ.LookupEnv("NO_COLOR")
	return &UI{out: out, color: IsTerminal(out) && !noColor}
}

// NewPlain creates a UI that never emits colors.
func NewPlain(out io.Writer) *UI {
	return &UI{out: out}
}

// Writer returns the underlying writer.
func (u *UI) Writer() io.Writer {
	return u.out
}

func (u *UI) paint(colors text.Colors, s string) string {
	if !u.color {
		return s
	}
	return colors.Sprint(s)
}

// Bold renders s in bold.
func (u *UI) Bold(s string) string { return u.paint(text.Colors{text.Bold}, s) }

// Cyan renders s in cyan.
func (u *UI) Cyan(s string) string { return u.paint(text.Colors{text.FgCyan}, s) }

// Println writes a plain line.
func (u *UI) Println(format string, args ...any) {
	_, _ = fmt.Fprintf(u.out, format+"\n", args...)
}

// Success writes a green line.
func (u *UI) Success(format string, args ...any) {
	u.Println("%s", u.paint(text.Colors{text.FgGreen}, fmt.Sprintf(format, args...)))
}

// Warn writes a yellow line prefixed with "WARNING:".
func (u *UI) Warn(format string, args ...any) {
	u.Println("%s %s", u.paint(text.Colors{text.FgYellow, text.Bold}, "WARNING:"), fmt.Sprintf(format, args...))
}

// Error writes a red line prefixed with "[ERROR]:".
func (u *UI) Error(format string, args ...any) {
	u.Println("%s %s", u.paint(text.Colors{text.FgRed, text.Bold}, "[ERROR]:"), fmt.Sprintf(format, args...))
}

// Table renders rows with a header in the light style used by the
// commands.
func (u *UI) Table(header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(u.out)

	hdr := make(table.Row, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	t.AppendHeader(hdr)
	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, c := range r {
			row[i] = c
		}
		t.AppendRow(row)
	}

	style := table.StyleLight
	style.Options.DrawBorder = false
	if !u.color {
		style.Color = table.ColorOptions{}
	}
	t.SetStyle(style)
	t.Render()
}

// IsTerminal reports whether w is connected to a terminal.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) // #nosec G115 -- file descriptors fit in int
}
