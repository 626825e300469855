package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the user yes/no questions.
type Prompter interface {
	// Confirm asks the question and reports the answer. The default answer
	// is no.
	Confirm(question string) (bool, error)
}

type terminalPrompter struct {
	in  *os.File
	out io.Writer
}

// NewPrompter reads answers from in, which must be a terminal for any
// question to be answered yes. A non-interactive stdin answers no to
// everything, so scripted runs cannot silently consent.
func NewPrompter(in *os.File, out io.Writer) Prompter {
	return &terminalPrompter{in: in, out: out}
}

func (p *terminalPrompter) Confirm(question string) (bool, error) {
	if !term.IsTerminal(int(p.in.Fd())) {
		fmt.Fprintf(p.out, "%s [y/N]: no (not a terminal)\n", question)
		return false, nil
	}

	fmt.Fprintf(p.out, "%s [y/N]: ", question)

	reader := bufio.NewReader(p.in)
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		return false, err
	}

	answer = strings.ToLower(strings.TrimSpace(answer))

	return answer == "y" || answer == "yes", nil
}
