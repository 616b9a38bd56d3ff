package cmd

import (
	"fmt"

	"github.com/corpsite/corpsite-api/internal/models"
	"github.com/spf13/cobra"
)

var (
	userEmail    string
	userName     string
	userRole     string
	userPassword string
)

// userCmd groups account maintenance
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage local CMS accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add [username]",
	Short: "Create a local CMS account",
	Long: `Creates a password account. Roles are "admin" (everything) and
"InvestorsCMS" (investor documents only).

Example:
  corpsite-api user add ir-team --role InvestorsCMS --password '...'`,
	Args: cobra.ExactArgs(1),
	RunE: addUser,
}

var userRevokeCmd = &cobra.Command{
	Use:   "revoke [username]",
	Short: "End every refresh session of an account",
	Long: `Deletes the account's refresh sessions so it has to log in again once its
current access token expires.`,
	Args: cobra.ExactArgs(1),
	RunE: revokeUser,
}

func init() {
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "email address")
	userAddCmd.Flags().StringVar(&userName, "name", "", "display name")
	userAddCmd.Flags().StringVar(&userRole, "role", models.RoleInvestorsCMS, "admin|InvestorsCMS")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "password (at least 8 characters)")
	_ = userAddCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userRevokeCmd)
}

func addUser(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	u, err := a.deps.Users.Create(cmd.Context(), args[0], userEmail, userName, userRole, userPassword)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", u.Username, u.Role, u.ID)
	return nil
}

func revokeUser(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	u, err := a.deps.Users.GetByUsername(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("no user %q", args[0])
	}
	n, err := a.deps.Sessions.RevokeUser(cmd.Context(), u.ID)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "revoked %d session(s) of %s\n", n, u.Username)
	return nil
}
