package main

import (
	"context"
	"fmt"

	"open-factcheck/internal/auth"
	"open-factcheck/internal/models"
	"open-factcheck/internal/services"

	"github.com/spf13/cobra"
)

var tokenRole string

// tokenCmd mints a bearer token for a user, creating the user if needed.
// Account management lives outside this service, so this is the way to get
// credentials in development.
var tokenCmd = &cobra.Command{
	Use:   "token <username>",
	Short: "Print a bearer token for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		verifier, err := auth.NewJWTVerifier(a.cfg.Auth.JWTSecret, a.cfg.Auth.Issuer, a.cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}
		user, err := services.NewUserService(a.db, a.log).Ensure(context.Background(), args[0], models.Role(tokenRole))
		if err != nil {
			return err
		}
		token, err := verifier.Issue(user.ID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(models.RoleUser), "role for a newly created user (user, fact-checker, expert, admin)")
}
