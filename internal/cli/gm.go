package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gm",
		Short: "GM administration commands",
	}

	cmd.AddCommand(newGMClaimCmd())
	cmd.AddCommand(newGMSeedCmd())
	cmd.AddCommand(newGMAssignCmd())
	cmd.AddCommand(newGMDisabledCmd("disable", true))
	cmd.AddCommand(newGMDisabledCmd("enable", false))
	cmd.AddCommand(newGMUsersCmd())

	return cmd
}

func newGMClaimCmd() *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Become the GM using the GM PIN",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Me

			if err := client.Post("/api/v1/admin/gm", map[string]string{"pin": pin}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "GM PIN (required)")
	_ = cmd.MarkFlagRequired("pin")

	return cmd
}

func newGMSeedCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the starting roster",
		Long: `Load the starting roster. The first user to seed an empty roster
becomes the GM. Reseeding a populated roster needs --force and clears
every assignment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result SeedResult

			if err := client.Post("/api/v1/admin/seed", map[string]bool{"force": force}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite a populated roster")

	return cmd
}

func newGMAssignCmd() *cobra.Command {
	var clearAssignment bool

	cmd := &cobra.Command{
		Use:   "assign <character> [user-id]",
		Short: "Assign a character to a user, or clear it with --clear",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var userID *string
			switch {
			case clearAssignment && len(args) == 2:
				return fmt.Errorf("give a user id or --clear, not both")
			case !clearAssignment && len(args) == 1:
				return fmt.Errorf("a user id is required unless --clear is set")
			case len(args) == 2:
				userID = &args[1]
			}

			var result Character
			if err := client.Put(characterPath(args[0])+"/assignment", map[string]*string{"user_id": userID}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearAssignment, "clear", false, "Clear the assignment")

	return cmd
}

func newGMDisabledCmd(use string, disabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <character>",
		Short: fmt.Sprintf("%s a character", map[bool]string{true: "Disable", false: "Enable"}[disabled]),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Character

			if err := client.Put(characterPath(args[0])+"/disabled", map[string]bool{"disabled": disabled}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newGMUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List known users",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []User

			if err := client.Get("/api/v1/users", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
