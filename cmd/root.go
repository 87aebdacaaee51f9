// Copyright (c) 2025 MovieSwipe
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the MovieSwipe CLI.
// It implements subcommands for signing in, inspecting the session and
// managing groups using the Cobra CLI framework. Every command that talks to
// the backend first runs the session bootstrap and then sends its requests
// through the authorizing transport.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"movieswipe/cli/internal/backend"
	"movieswipe/cli/internal/httperrors"
	"movieswipe/cli/internal/logging"
)

var (
	showVersion bool
	flagBaseURL string
	flagVerbose bool
	flagConfig  string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "movieswipe",
	Short:         "MovieSwipe CLI for picking movies with your group",
	Long:          `MovieSwipe is a command-line client for the MovieSwipe backend. Sign in once and the CLI keeps your session fresh.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion()
			return nil
		}
		return cmd.Help()
	},
}

// reportedError marks an error whose message has already been shown.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// Execute runs the CLI application.
// It executes the root command and handles any errors that occur during execution.
func Execute() {
	backend.UserAgent = "movieswipe-cli/" + Version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	var reported reportedError
	switch {
	case errors.As(err, &reported):
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "interrupted")
	case httperrors.Present(err, backendContext):
	default:
		pterm.Error.Println(logging.PresentError("", err))
	}
	os.Exit(1)
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "MovieSwipe backend base URL (overrides config and MOVIESWIPE_BASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to the config file")
}
