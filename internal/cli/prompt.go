package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/stemsi/exstem-certify/internal/model"
	"golang.org/x/term"
)

// ErrNoInput is returned when input ends before a prompt is answered.
var ErrNoInput = errors.New("input ended before the prompt was answered")

// Prompter asks questions on out and reads answers line by line from in.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	tty *os.File // set when in is an interactive terminal
}

// NewPrompter creates a Prompter. Secrets are read without echo only when
// in is a terminal.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.tty = f
	}
	return p
}

// Line prints label and returns the trimmed reply.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Required repeats the prompt until a non-blank reply is given.
func (p *Prompter) Required(label string) (string, error) {
	for {
		v, err := p.Line(label)
		if err != nil {
			return "", err
		}
		if v != "" {
			return v, nil
		}
		fmt.Fprintln(p.out, "A value is required.")
	}
}

// Secret reads a value without echo on a terminal, or as a plain line
// otherwise.
func (p *Prompter) Secret(label string) (string, error) {
	if p.tty == nil {
		return p.Line(label)
	}
	fmt.Fprint(p.out, label)
	raw, err := term.ReadPassword(int(p.tty.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return string(raw), nil
}

// Confirm asks a yes/no question. An empty reply picks def.
func (p *Prompter) Confirm(label string, def bool) (bool, error) {
	hint := " [y/N]: "
	if def {
		hint = " [Y/n]: "
	}
	for {
		v, err := p.Line(label + hint)
		if err != nil {
			return false, err
		}
		if v == "" {
			return def, nil
		}
		if b, ok := parseYesNo(v); ok {
			return b, nil
		}
		fmt.Fprintln(p.out, "Please answer y or n.")
	}
}

// Answer renders question n of total and reads a reply until it is valid
// for the question type. single_choice replies are option numbers and are
// recorded as the option text.
func (p *Prompter) Answer(q model.Question, n, total int) (model.Answer, error) {
	fmt.Fprintf(p.out, "\nQuestion %d of %d\n%s\n", n, total, q.Prompt)

	switch q.Type {
	case model.QuestionTypeTrueFalse:
		for {
			v, err := p.Line("True or false? [t/f]: ")
			if err != nil {
				return model.Answer{}, err
			}
			if b, ok := parseTrueFalse(v); ok {
				return model.BoolAnswer(b), nil
			}
			fmt.Fprintln(p.out, "Please answer t or f.")
		}

	default:
		for i, opt := range q.Options {
			fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
		}
		label := fmt.Sprintf("Choose 1-%d: ", len(q.Options))
		for {
			v, err := p.Line(label)
			if err != nil {
				return model.Answer{}, err
			}
			i, err := strconv.Atoi(v)
			if err == nil && i >= 1 && i <= len(q.Options) {
				return model.TextAnswer(q.Options[i-1]), nil
			}
			fmt.Fprintf(p.out, "Please enter a number from 1 to %d.\n", len(q.Options))
		}
	}
}

func parseTrueFalse(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "t", "true":
		return true, true
	case "f", "false":
		return false, true
	}
	return parseYesNo(v)
}

func parseYesNo(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	}
	return false, false
}
