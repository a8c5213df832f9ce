package uiface

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// CLI is the terminal-backed Interactor: it prints the prompt to out and
// reads a one-line answer from in. Modeled on the teacher's Outputter
// default-implementation-over-an-interface shape (dlog's gologOutputter).
type CLI struct {
	In  io.Reader
	Out io.Writer

	scanner *bufio.Scanner
}

// NewCLI returns a CLI prompting on out and reading answers from in.
func NewCLI(in io.Reader, out io.Writer) *CLI {
	return &CLI{In: in, Out: out}
}

func (c *CLI) readLine() (string, error) {
	if c.scanner == nil {
		c.scanner = bufio.NewScanner(c.In)
	}
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.scanner.Text()), nil
}

// AskData implements Interactor.
func (c *CLI) AskData(path, reason string) (DataChoice, error) {
	fmt.Fprintf(c.Out, "%s: %s -- keep, overwrite, or abort? [k/o/a] ", path, reason)
	for {
		line, err := c.readLine()
		if err != nil {
			return DataAbort, err
		}
		switch strings.ToLower(line) {
		case "k", "keep":
			return DataKeep, nil
		case "o", "overwrite":
			return DataOverwrite, nil
		case "a", "abort":
			return DataAbort, nil
		}
		fmt.Fprint(c.Out, "please answer k, o, or a: ")
	}
}

// AskEA implements Interactor.
func (c *CLI) AskEA(path, reason string) (EAChoice, error) {
	fmt.Fprintf(c.Out, "%s: %s -- keep, overwrite, or abort EA? [k/o/a] ", path, reason)
	for {
		line, err := c.readLine()
		if err != nil {
			return EAAbort, err
		}
		switch strings.ToLower(line) {
		case "k", "keep":
			return EAKeep, nil
		case "o", "overwrite":
			return EAOverwrite, nil
		case "a", "abort":
			return EAAbort, nil
		}
		fmt.Fprint(c.Out, "please answer k, o, or a: ")
	}
}

// Pause implements Interactor: it prints message and blocks for Enter.
func (c *CLI) Pause(message string) error {
	fmt.Fprintf(c.Out, "%s -- press Enter to continue: ", message)
	_, err := c.readLine()
	if err == io.EOF {
		return nil
	}
	return err
}
