// Package prompt implements ports.Presenter over a line-oriented terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/carrick/snomap/internal/ports"
)

// Terminal reads answers line by line from r and writes prompts to w.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Terminal over explicit reader/writer, mainly for tests.
func New(r io.Reader, w io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(r), out: w}
}

// NewTerminal creates a Terminal bound to stdin/stdout.
func NewTerminal() *Terminal {
	return New(os.Stdin, os.Stdout)
}

// Select prints a numbered option list and reads a choice. A blank line
// declines; out-of-range or non-numeric input reprompts.
func (t *Terminal) Select(prompt string, options []ports.Option) (int, bool) {
	fmt.Fprintf(t.out, "%s\n", prompt)
	for i, opt := range options {
		if opt.Level >= 0 {
			fmt.Fprintf(t.out, "  %d) %s [cui %d, level %d]\n", i+1, opt.Label, opt.CUI, opt.Level)
		} else {
			fmt.Fprintf(t.out, "  %d) %s [cui %d]\n", i+1, opt.Label, opt.CUI)
		}
	}

	for {
		fmt.Fprintf(t.out, "Choice (1-%d, blank to skip): ", len(options))
		line, err := t.readLine()
		if err != nil {
			return 0, false
		}
		if line == "" {
			return 0, false
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(options) {
			fmt.Fprintf(t.out, "Invalid choice.\n")
			continue
		}
		return n - 1, true
	}
}

// Input reads a single trimmed line. A blank line declines.
func (t *Terminal) Input(prompt string) (string, bool) {
	fmt.Fprintf(t.out, "%s: ", prompt)
	line, err := t.readLine()
	if err != nil || line == "" {
		return "", false
	}
	return line, true
}

// Confirm asks a y/N question. Only "y" or "yes" (case-insensitive) confirm.
func (t *Terminal) Confirm(prompt string) bool {
	fmt.Fprintf(t.out, "%s [y/N]: ", prompt)
	line, err := t.readLine()
	if err != nil {
		return false
	}
	line = strings.ToLower(line)
	return line == "y" || line == "yes"
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
