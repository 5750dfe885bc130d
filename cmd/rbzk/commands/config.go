package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rbzk/rbzk/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved CLI configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Print(string(data))
			return nil
		},
	}
	cmd.AddCommand(configSetCmd())
	cmd.AddCommand(configResetCmd())
	return cmd
}

// userConfigPath returns the first path from config.SearchPaths() that lives
// in an rbzk directory ($XDG_CONFIG_HOME/rbzk/config.yml when that variable
// is set, else $HOME/.config/rbzk/config.yml), falling back to the first
// search path. It does not check that the path is writable.
func userConfigPath() (string, error) {
	paths := config.SearchPaths()
	for _, p := range paths {
		if filepath.Base(filepath.Dir(p)) == "rbzk" {
			return p, nil
		}
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("no config search path available")
	}
	return paths[0], nil
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist a single configuration key to the user config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			path, err := userConfigPath()
			if err != nil {
				return err
			}

			values := map[string]any{}
			if raw, err := os.ReadFile(path); err == nil {
				if err := yaml.Unmarshal(raw, &values); err != nil {
					return fmt.Errorf("parse existing config %s: %w", path, err)
				}
			}
			values[args[0]] = args[1]

			out, err := yaml.Marshal(values)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("create config dir: %w", err)
			}
			if err := os.WriteFile(path, out, 0o644); err != nil {
				return fmt.Errorf("write config %s: %w", path, err)
			}
			fmt.Printf("wrote %s=%s to %s\n", args[0], args[1], path)
			return nil
		},
	}
}

func configResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove the user configuration file, reverting to defaults",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := userConfigPath()
			if err != nil {
				return err
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove config %s: %w", path, err)
			}
			fmt.Printf("removed %s\n", path)
			return nil
		},
	}
}
