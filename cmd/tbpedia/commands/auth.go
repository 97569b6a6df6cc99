package commands

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"tbpedia-dashboard/internal/apperr"
	"tbpedia-dashboard/internal/models"
)

func newLoginCommand(a *app) *cobra.Command {
	var (
		req   models.SignInRequest
		phone string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Args:  cobra.NoArgs,
		Short: "Sign in and keep the credential for seven days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if phone != "" {
				req.PhoneNumber = &phone
			}
			resp, err := a.auth.SignIn(cmd.Context(), a.store, &req)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s), landing %s\n", resp.User.Name, resp.User.Role, resp.Landing)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "account name")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Args:  cobra.NoArgs,
		Short: "Sign out and forget the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.store.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Args:  cobra.NoArgs,
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.signedIn(cmd.Context()); err != nil {
				return err
			}
			u := a.store.User()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:    %d\nname:  %s\nrole:  %s\n", u.ID, u.Name, u.Role)
			if u.StoreName != nil {
				fmt.Fprintf(out, "store: %s\n", *u.StoreName)
			}
			return nil
		},
	}
}

// describe lists every field message of a validation error, sorted by
// field, after the headline.
func describe(err error) error {
	var e *apperr.Error
	if !errors.As(err, &e) || len(e.Fields) < 2 {
		return err
	}
	keys := slices.Sorted(maps.Keys(e.Fields))
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, "  "+e.Fields[k])
	}
	return fmt.Errorf("%w\n%s", err, strings.Join(lines, "\n"))
}
