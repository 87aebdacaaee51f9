package cmd

import (
	"errors"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"movieswipe/cli/internal/auth"
	apperr "movieswipe/cli/internal/errors"
	"movieswipe/cli/internal/httperrors"
	"movieswipe/cli/internal/logging"
	"movieswipe/cli/internal/session"
)

// statusCmd shows whether the stored session is usable.
var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"whoami"},
	Short:   "Show the current session state",
	Long: `The status command runs the same startup check every other command runs:
it keeps a valid session, silently refreshes an expiring one, and clears a
session that can no longer be renewed. It then prints the outcome and the
remaining lifetime of each stored token.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp()
		if err != nil {
			return err
		}

		stop := startInlineSpinner(os.Stderr, "Checking access...", spinnerFrames, 120*time.Millisecond)
		st, err := a.auth.Status(ctx, time.Now())
		stop()

		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return err
		}
		if apperr.Is(err, apperr.StorageUnavailable) {
			return err
		}
		if err != nil {
			a.log.Debug("bootstrap failed", a.log.Args("error", logging.Mask(err.Error())))
			httperrors.Present(err, backendContext)
		}

		switch st.Decision {
		case session.Proceed:
			pterm.Success.Println("Logged in")
		case session.SilentlyRefreshed:
			pterm.Success.Println("Logged in (access token refreshed)")
		default:
			pterm.Warning.Println(msgTokensExpired)
			pterm.Println("   Run 'movieswipe login' to get started.")
			return nil
		}

		_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
			{"Token", "Expires in"},
			{"access", describeToken(st.Access)},
			{"refresh", describeToken(st.Refresh)},
		}).Render()
		pterm.Printf("Refresh threshold: %s\n", st.Threshold)
		return nil
	},
}

func describeToken(t auth.TokenStatus) string {
	switch {
	case !t.Present:
		return "missing"
	case !t.Known:
		return "unknown"
	default:
		return formatRemaining(t.Remaining)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
