// Copyright (c) 2025 MovieSwipe
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"movieswipe/cli/internal/groups"
)

var groupsJSON bool

var groupsCmd = &cobra.Command{
	Use:     "groups",
	Aliases: []string{"group"},
	Short:   "Create and inspect movie groups",
}

var groupsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new group and print its invitation code",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := sessionApp(cmd)
		if err != nil {
			return err
		}
		g, err := a.groups.Create(ctx)
		if err != nil {
			return err
		}
		if groupsJSON {
			return printJSON(g)
		}
		pterm.Success.Println("Group created")
		printGroup(g)
		return nil
	},
}

var groupsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the groups you belong to",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := sessionApp(cmd)
		if err != nil {
			return err
		}
		gs, err := a.groups.List(ctx)
		if err != nil {
			return err
		}
		if groupsJSON {
			return printJSON(gs)
		}
		if len(gs) == 0 {
			pterm.Info.Println("You are not in any group yet. Run 'movieswipe groups create' to start one.")
			return nil
		}
		data := pterm.TableData{{"ID", "Invitation code", "Owner", "Members", "Created"}}
		for _, g := range gs {
			data = append(data, []string{
				g.ID,
				g.InvitationCode,
				displayName(g.Owner),
				fmt.Sprint(len(g.Members)),
				formatTime(g.CreatedAt),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

var groupsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one group and its members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := sessionApp(cmd)
		if err != nil {
			return err
		}
		g, err := a.groups.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if groupsJSON {
			return printJSON(g)
		}
		printGroup(g)
		return nil
	},
}

// sessionApp builds the app and makes sure a usable session exists.
func sessionApp(cmd *cobra.Command) (*app, error) {
	a, err := newApp()
	if err != nil {
		return nil, err
	}
	if err := requireSession(cmd.Context(), a); err != nil {
		return nil, err
	}
	return a, nil
}

func printGroup(g *groups.Group) {
	members := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		members = append(members, "• "+displayName(m))
	}
	body := strings.Join([]string{
		"ID:              " + g.ID,
		"Invitation code: " + pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(g.InvitationCode),
		"Owner:           " + displayName(g.Owner),
		"Created:         " + formatTime(g.CreatedAt),
		"",
		"Members:",
		strings.Join(members, "\n"),
	}, "\n")
	pterm.DefaultBox.
		WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Group")).
		Println(body)
}

func displayName(u groups.User) string {
	switch {
	case u.Name != "" && u.Email != "":
		return fmt.Sprintf("%s <%s>", u.Name, u.Email)
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	groupsCmd.PersistentFlags().BoolVar(&groupsJSON, "json", false, "Print raw JSON")
	groupsCmd.AddCommand(groupsCreateCmd, groupsListCmd, groupsShowCmd)
	rootCmd.AddCommand(groupsCmd)
}
