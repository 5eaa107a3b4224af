package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIdentityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "identity",
		Aliases: []string{"id"},
		Short:   "Sign in, sign out and show the current user",
	}

	cmd.AddCommand(newIdentityGuestCmd())
	cmd.AddCommand(newIdentityRegisterCmd())
	cmd.AddCommand(newIdentityLoginCmd())
	cmd.AddCommand(newIdentityLogoutCmd())
	cmd.AddCommand(newIdentityMeCmd())

	return cmd
}

func newIdentityGuestCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "guest",
		Short: "Sign in as a guest",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"display_name": name, "email": email}
			return signIn("/api/v1/identity/guest", req)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")

	return cmd
}

func newIdentityRegisterCmd() *cobra.Command {
	var name, user, pass string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" || pass == "" {
				return fmt.Errorf("--user and --pass are required")
			}

			req := map[string]string{
				"display_name": name,
				"username":     user,
				"password":     pass,
			}
			return signIn("/api/v1/identity/register", req)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to username)")
	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newIdentityLoginCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to an existing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" || pass == "" {
				return fmt.Errorf("--user and --pass are required")
			}

			req := map[string]string{
				"username": user,
				"password": pass,
			}
			return signIn("/api/v1/identity/login", req)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newIdentityLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/identity/logout", nil, nil); err != nil {
				return err
			}
			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			NewOutput(cfg.Output).PrintMessage("Signed out")
			return nil
		},
	}
}

func newIdentityMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the current user and access state",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Me

			if err := client.Get("/api/v1/identity/me", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func signIn(path string, req any) error {
	var result AuthResult

	if err := client.Post(path, req, &result); err != nil {
		return err
	}

	// Save token
	if err := cfg.SaveToken(result.SessionToken); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	NewOutput(cfg.Output).Print(result)
	return nil
}
