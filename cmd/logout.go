// Copyright (c) 2025 MovieSwipe
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// logoutCmd represents the logout command for clearing authentication state.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove saved tokens",
	Long: `The logout command removes the access and refresh tokens from the OS keychain.
The backend keeps no server-side session, so nothing is sent over the network.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.auth.Logout(); err != nil {
			return err
		}
		pterm.Success.Println("All tokens have been removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
