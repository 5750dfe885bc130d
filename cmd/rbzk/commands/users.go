package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rbzk/rbzk"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage enrolled users",
	}
	cmd.AddCommand(usersListCmd())
	cmd.AddCommand(usersAddCmd())
	cmd.AddCommand(usersDeleteCmd())
	return cmd
}

func usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every enrolled user",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()

			users, err := client.GetUsers()
			if err != nil {
				return fmt.Errorf("get users: %w", err)
			}
			out, err := formatUsers(users, outputFormat)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
}

func usersAddCmd() *cobra.Command {
	var (
		uid       uint16
		userID    string
		name      string
		password  string
		privilege uint8
		card      uint32
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create or update a user",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()

			// GetUsers refreshes the next free uid and the record layout
			// SetUser relies on.
			if _, err := client.GetUsers(); err != nil {
				return fmt.Errorf("get users: %w", err)
			}

			u := rbzk.User{
				UID:       uid,
				UserID:    userID,
				Name:      name,
				Password:  password,
				Privilege: privilege,
				Card:      card,
			}
			return client.SetUser(u)
		},
	}
	cmd.Flags().Uint16Var(&uid, "uid", 0, "internal device slot (0 picks the next free slot)")
	cmd.Flags().StringVar(&userID, "user-id", "", "external user id")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "per-user PIN/password")
	cmd.Flags().Uint8Var(&privilege, "privilege", rbzk.PrivilegeUser, "privilege level (0=user, 2=enroller, 6=manager, 14=admin)")
	cmd.Flags().Uint32Var(&card, "card", 0, "RFID card number")
	cmd.MarkFlagRequired("user-id")
	return cmd
}

func usersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <uid>",
		Short: "Delete a user by internal uid",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			uid, err := strconv.ParseUint(args[0], 10, 16)
			if err != nil {
				return fmt.Errorf("parse uid %q: %w", args[0], err)
			}
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()
			return client.DeleteUser(uint16(uid))
		},
	}
}
