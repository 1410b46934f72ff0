// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package termui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNotInteractive is returned when a prompt is attempted without a terminal.
var ErrNotInteractive = errors.New("input is not a terminal")

// Prompter asks the user for values on a terminal.
type Prompter struct {
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader

	// readPassword reads a line without echo. Replaced in tests.
	readPassword func() (string, error)
	interactive  bool
}

// NewPrompter creates a Prompter reading from in and writing prompts to out.
// Secret prompts disable echo when in is a terminal.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: in, out: out, reader: bufio.NewReader(in)}
	if f, ok := in.(*os.File); ok && IsTerminal(f) {
		p.interactive = true
		fd := int(f.Fd()) // #nosec G115 -- file descriptors fit in int
		p.readPassword = func() (string, error) {
			b, err := term.ReadPassword(fd)
			_, _ = fmt.Fprintln(out)
			return string(b), err
		}
	}
	return p
}

// Interactive reports whether the input is a terminal.
func (p *Prompter) Interactive() bool {
	return p.interactive
}

// Prompt asks for a value and returns the trimmed answer.
func (p *Prompter) Prompt(label string) (string, error) {
	_, _ = fmt.Fprintf(p.out, "%s: ", label)
	return p.readLine()
}

// PromptSecret asks for a value without echoing it.
func (p *Prompter) PromptSecret(label string) (string, error) {
	_, _ = fmt.Fprintf(p.out, "%s: ", label)
	if p.readPassword == nil {
		return p.readLine()
	}
	s, err := p.readPassword()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return s, nil
}

// Confirm asks a yes/no question. An empty answer selects def.
func (p *Prompter) Confirm(label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	_, _ = fmt.Fprintf(p.out, "%s [%s]: ", label, hint)

	answer, err := p.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNotInteractive
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
