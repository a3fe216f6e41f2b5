// Package main mints an access token for local testing of the authenticated chat flow.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aura-workshops/backend/config"
	"github.com/aura-workshops/backend/internal/auth"
	"github.com/aura-workshops/backend/internal/models"
)

var (
	tokenUser  string
	tokenEmail string
	tokenRole  string
)

var rootCmd = &cobra.Command{
	Use:   "devtoken",
	Short: "Mint a signed access token",
	Long: `Mint an HS256 access token signed with JWT_SECRET, for calling the chat API as a
logged-in user during local development.`,
	Args: cobra.NoArgs,
	RunE: runDevToken,
}

func init() {
	rootCmd.Flags().StringVar(&tokenUser, "user", "", "user id (random when empty)")
	rootCmd.Flags().StringVar(&tokenEmail, "email", "", "account email")
	rootCmd.Flags().StringVar(&tokenRole, "role", string(models.RoleAttendee), "admin or attendee")
}

func runDevToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userID := uuid.New()
	if tokenUser != "" {
		if userID, err = uuid.Parse(tokenUser); err != nil {
			return fmt.Errorf("invalid --user: %w", err)
		}
	}
	switch models.Role(tokenRole) {
	case models.RoleAdmin, models.RoleAttendee:
	default:
		return fmt.Errorf("invalid --role %q", tokenRole)
	}

	token, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.TokenTTL).Issue(userID, tokenEmail, tokenRole)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
