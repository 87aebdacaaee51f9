package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrEmptySecret is returned when the user enters nothing.
var ErrEmptySecret = errors.New("no value entered")

// ReadSecret prints prompt to out and reads one line from in. On a terminal the
// input is not echoed and the prompt is erased afterwards; otherwise a plain
// line is read, so piped input works too.
func ReadSecret(in *os.File, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)

	var (
		raw string
		err error
	)
	if fd := int(in.Fd()); term.IsTerminal(fd) {
		var b []byte
		b, err = term.ReadPassword(fd)
		raw = string(b)
		ClearPreviousLines(len(prompt))
	} else {
		raw, err = bufio.NewReader(in).ReadString('\n')
		if errors.Is(err, io.EOF) && raw != "" {
			err = nil
		}
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptySecret
	}
	return raw, nil
}
