package iocli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio реализует IO поверх произвольных reader/writer.
// Если вход: терминал, пароль читается без эха
type Stdio struct {
	out    io.Writer
	reader *bufio.Reader
	fd     int
	tty    bool
}

var _ IO = (*Stdio)(nil)

// NewStdio возвращает IO поверх os.Stdin и os.Stdout
func NewStdio() *Stdio {
	return New(os.Stdin, os.Stdout)
}

// New wraps in and out. Piped input is read line by line for passwords too
func New(in io.Reader, out io.Writer) *Stdio {
	s := &Stdio{
		out:    out,
		reader: bufio.NewReader(in),
		fd:     -1,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		s.fd = int(f.Fd())
		s.tty = true
	}
	return s
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	return s.readLine()
}

func (s *Stdio) ReadPassword(prompt string) (string, error) {
	s.Printf("%s", prompt)
	if !s.tty {
		return s.readLine()
	}
	pwBytes, err := term.ReadPassword(s.fd)
	s.Println("")
	if err != nil {
		return "", err
	}
	return string(pwBytes), nil
}

// readLine возвращает строку без перевода строки; последняя строка без \n тоже считается
func (s *Stdio) readLine() (string, error) {
	input, err := s.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
