// Copyright (c) 2025 MovieSwipe
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	apperr "movieswipe/cli/internal/errors"
	"movieswipe/cli/internal/terminal"
)

// envGoogleToken supplies the identity token non-interactively.
const envGoogleToken = "MOVIESWIPE_GOOGLE_TOKEN"

var (
	loginGoogleToken string
	loginForce       bool
)

// loginCmd exchanges a Google ID token for a MovieSwipe session.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Sign in with a Google ID token",
	Long: `The login command exchanges a Google ID token for a MovieSwipe session and
stores the resulting access and refresh tokens in the OS keychain.

The identity token is taken from --google-token, then from the
MOVIESWIPE_GOOGLE_TOKEN environment variable, and finally from a hidden prompt.
If a usable session already exists, login is skipped unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp()
		if err != nil {
			return err
		}

		if !loginForce {
			d, err := a.sess.Bootstrap(ctx)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err == nil && d.Authenticated() {
				pterm.Info.Println("Already logged in. Use --force to sign in again.")
				return nil
			}
		}

		idToken, err := identityToken()
		if err != nil {
			return err
		}

		stop := startInlineSpinner(os.Stderr, "Signing in...", spinnerFrames, 120*time.Millisecond)
		err = a.auth.Login(ctx, idToken)
		stop()
		if err != nil {
			return err
		}

		pterm.Success.Println("Logged in. Your session is stored in the OS keychain.")
		return nil
	},
}

func identityToken() (string, error) {
	if t := strings.TrimSpace(loginGoogleToken); t != "" {
		return t, nil
	}
	if t := strings.TrimSpace(os.Getenv(envGoogleToken)); t != "" {
		return t, nil
	}
	t, err := terminal.ReadSecret(os.Stdin, os.Stdout, "Google ID token: ")
	if errors.Is(err, terminal.ErrEmptySecret) {
		return "", apperr.New(apperr.InvalidInput, "identity token is required")
	}
	if err != nil {
		return "", apperr.Wrap(apperr.InvalidInput, "read identity token", err)
	}
	return t, nil
}

func init() {
	loginCmd.Flags().StringVar(&loginGoogleToken, "google-token", "", "Google ID token to exchange (prefer "+envGoogleToken+")")
	loginCmd.Flags().BoolVar(&loginForce, "force", false, "Sign in even if a valid session exists")
	rootCmd.AddCommand(loginCmd)
}
