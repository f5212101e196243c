package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// errInterrupt is returned by Readline when the user pressed Ctrl-C.
var errInterrupt = errors.New("interrupted")

// lineReader is the input side of the shell.
type lineReader interface {
	// Readline returns the next line without its newline; io.EOF ends input.
	Readline() (string, error)
	// ReadPassword reads a secret without echoing it where possible.
	ReadPassword(prompt string) (string, error)
	SetPrompt(prompt string)
	Close() error
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newLineReader returns a readline editor when stdin is a terminal and a
// plain line scanner otherwise (pipes, scripts, tests).
func newLineReader(in io.Reader, out io.Writer, historyFile string) (lineReader, error) {
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          shellPrompt,
			HistoryFile:     historyFile,
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
			Stdout:          out,
		})
		if err != nil {
			return nil, fmt.Errorf("init readline: %w", err)
		}
		return &ttyReader{rl: rl}, nil
	}
	return newScanReader(in), nil
}

type ttyReader struct {
	rl *readline.Instance
}

func (r *ttyReader) Readline() (string, error) {
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", errInterrupt
	}
	return line, err
}

func (r *ttyReader) ReadPassword(prompt string) (string, error) {
	b, err := r.rl.ReadPassword(prompt)
	return string(b), err
}

func (r *ttyReader) SetPrompt(prompt string) { r.rl.SetPrompt(prompt) }

func (r *ttyReader) Close() error { return r.rl.Close() }

// scanReader reads newline-separated commands; prompts are not echoed.
type scanReader struct {
	sc *bufio.Scanner
}

func newScanReader(in io.Reader) *scanReader {
	return &scanReader{sc: bufio.NewScanner(in)}
}

func (r *scanReader) Readline() (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(r.sc.Text(), "\r"), nil
}

func (r *scanReader) ReadPassword(string) (string, error) {
	return r.Readline()
}

func (r *scanReader) SetPrompt(string) {}

func (r *scanReader) Close() error { return nil }

// promptPassword reads a password for a one-shot command. On a terminal the
// input is not echoed; otherwise one line is read from in.
func promptPassword(in io.Reader, out io.Writer, prompt string) (string, error) {
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		fmt.Fprint(out, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := newScanReader(in).Readline()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return line, nil
}
