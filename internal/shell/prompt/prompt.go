// Package prompt asks the user questions on a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoInput is returned when input ends before a usable answer was given.
var ErrNoInput = errors.New("no input")

// Prompter reads answers from in and writes questions to out.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Confirm asks a yes/no question. An empty answer selects def.
func (p *Prompter) Confirm(question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(p.out, "%s (%s) ", question, hint)
		answer, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer yes or no.")
	}
}

// ChooseOne asks the user to pick one of options, by value or by its
// 1-based number. An empty answer selects def.
func (p *Prompter) ChooseOne(question string, options []string, def string) (string, error) {
	if len(options) == 0 {
		return "", errors.New("prompt: no options to choose from")
	}
	for {
		fmt.Fprintln(p.out, question)
		for i, opt := range options {
			marker := " "
			if opt == def {
				marker = "*"
			}
			fmt.Fprintf(p.out, " %s %d) %s\n", marker, i+1, opt)
		}
		fmt.Fprintf(p.out, "Choice [%s]: ", def)

		answer, err := p.readLine()
		if err != nil {
			return "", err
		}
		if answer == "" && def != "" {
			return def, nil
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		for _, opt := range options {
			if strings.EqualFold(opt, answer) {
				return opt, nil
			}
		}
		fmt.Fprintf(p.out, "%q is not one of the options.\n", answer)
	}
}

// Input asks for free text. An empty answer selects def.
func (p *Prompter) Input(question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", question)
	}
	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// InputValid asks until validate accepts the answer. The rejection reason
// is shown before asking again.
func (p *Prompter) InputValid(question, def string, validate func(string) (bool, string)) (string, error) {
	for {
		answer, err := p.Input(question, def)
		if err != nil {
			return "", err
		}
		ok, reason := validate(answer)
		if ok {
			return answer, nil
		}
		if reason != "" {
			fmt.Fprintln(p.out, reason)
		}
	}
}

// readLine returns the next trimmed line. A final line without a newline
// is still returned; ErrNoInput is returned once input is exhausted.
func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
