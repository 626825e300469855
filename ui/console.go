// Package ui holds the terminal output and confirmation layer of the command
// line tool.
package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.Faint)
)

// Console writes user-facing progress output. Quiet suppresses everything but
// warnings and errors; Verbose additionally emits per-commit detail.
type Console struct {
	out     io.Writer
	quiet   bool
	verbose bool
}

func NewConsole(out io.Writer, quiet, verbose bool) *Console {
	return &Console{out: out, quiet: quiet, verbose: verbose}
}

func (c *Console) Quiet() bool {
	return c.quiet
}

// Infof prints normal progress output.
func (c *Console) Infof(format string, args ...any) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, format+"\n", args...)
}

// Verbosef prints detail output, shown only with the verbose flag.
func (c *Console) Verbosef(format string, args ...any) {
	if c.quiet || !c.verbose {
		return
	}
	dimColor.Fprintf(c.out, format+"\n", args...)
}

// Successf prints a highlighted success line.
func (c *Console) Successf(format string, args ...any) {
	if c.quiet {
		return
	}
	successColor.Fprintf(c.out, format+"\n", args...)
}

// Warnf prints a warning, even in quiet mode.
func (c *Console) Warnf(format string, args ...any) {
	warnColor.Fprintf(c.out, format+"\n", args...)
}

// Errorf prints an error line, even in quiet mode.
func (c *Console) Errorf(format string, args ...any) {
	errorColor.Fprintf(c.out, format+"\n", args...)
}
