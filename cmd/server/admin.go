package main

import (
	"fmt"

	"github.com/gracechurch/retreat-api/internal/auth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

var adminCreateFlags auth.NewAdmin

// adminCreateCmd bootstraps the first admin; later admins can be added
// through the API.
var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := connect()
		if err != nil {
			return err
		}
		defer zap.L().Sync()

		admin, err := auth.CreateAdmin(cmd.Context(), db, adminCreateFlags)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created admin %q (id %d)\n", admin.Username, admin.ID)
		return nil
	},
}

func init() {
	f := adminCreateCmd.Flags()
	f.StringVar(&adminCreateFlags.Username, "username", "", "login name")
	f.StringVar(&adminCreateFlags.Password, "password", "", "password, at least 8 characters")
	f.StringVar(&adminCreateFlags.Email, "email", "", "contact email")
	f.StringVar(&adminCreateFlags.DiscordID, "discord-id", "", "Discord user id allowed to sign in as this admin")
	adminCreateCmd.MarkFlagRequired("username")
	adminCreateCmd.MarkFlagRequired("password")

	adminCmd.AddCommand(adminCreateCmd)
}
