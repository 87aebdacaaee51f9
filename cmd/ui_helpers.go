package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"golang.org/x/term"

	apperr "movieswipe/cli/internal/errors"
	"movieswipe/cli/internal/httperrors"
	"movieswipe/cli/internal/logging"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

const msgTokensExpired = "Tokens are expired, log in again please!"

// startInlineSpinner starts a simple inline spinner animation on a single line.
// It displays rotating animation frames followed by the provided text, updating
// the same line in the terminal. The spinner runs in a separate goroutine and
// can be stopped by calling the returned function, which also clears the line.
//
// Nothing is drawn when w is not a terminal.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) func() {
	if f, ok := w.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		return func() {}
	}
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			line := fmt.Sprintf("%s %s", frames[i%len(frames)], text)
			select {
			case <-stop:
				fmt.Fprintf(w, "\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s", line)
				i++
			}
		}
	}()
	return func() {
		close(stop)
		wg.Wait()
	}
}

// requireSession runs the bootstrap flow and fails with a reported error when
// the user has to log in again.
func requireSession(ctx context.Context, a *app) error {
	stop := startInlineSpinner(os.Stderr, "Checking access...", spinnerFrames, 120*time.Millisecond)
	d, err := a.sess.Bootstrap(ctx)
	stop()

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}
	if apperr.Is(err, apperr.StorageUnavailable) {
		return err
	}
	if d.Authenticated() {
		a.log.Debug("session ready", a.log.Args("decision", d.String()))
		return nil
	}

	if err != nil {
		a.log.Debug("bootstrap failed", a.log.Args("error", logging.Mask(err.Error())))
		httperrors.Present(err, backendContext)
	}
	pterm.Warning.Println(msgTokensExpired)
	return reportedError{apperr.New(apperr.AuthExpired, "login required")}
}

func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "expired"
	}
	return d.Truncate(time.Second).String()
}
