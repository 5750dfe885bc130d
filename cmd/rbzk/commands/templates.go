package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-templates",
		Short: "Retrieve every enrolled fingerprint template",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()

			templates, err := client.GetTemplates()
			if err != nil {
				return fmt.Errorf("get templates: %w", err)
			}
			data, err := json.MarshalIndent(templates, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal templates: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func userTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-user-template <uid> <finger-id>",
		Short: "Retrieve a single finger's template for one user",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			uid, err := strconv.ParseUint(args[0], 10, 16)
			if err != nil {
				return fmt.Errorf("parse uid %q: %w", args[0], err)
			}
			fingerID, err := strconv.ParseUint(args[1], 10, 8)
			if err != nil {
				return fmt.Errorf("parse finger-id %q: %w", args[1], err)
			}

			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()

			tmpl, err := client.GetUserTemplate(uint16(uid), uint8(fingerID))
			if err != nil {
				return fmt.Errorf("get user template: %w", err)
			}
			data, err := json.MarshalIndent(tmpl, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal template: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
}
