// Package commands implements the rbzk CLI commands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rbzk/rbzk"
	"github.com/rbzk/rbzk/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config

	flagIP       string
	flagPort     int
	flagTimeout  time.Duration
	flagPassword int
	flagForceUDP bool
	flagNoPing   bool
	flagVerbose  bool

	// outputFormat controls the output format for list-shaped commands.
	outputFormat string

	logger *slog.Logger
)

// rootCmd is the top-level cobra command for rbzk.
var rootCmd = &cobra.Command{
	Use:   "rbzk",
	Short: "CLI client for ZKTeco biometric terminals",
	Long:  "rbzk talks the ZKTeco binary protocol directly over TCP or UDP to manage users, attendance logs, fingerprint templates and device settings.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyFlagOverrides(cmd, loaded)
		cfg = loaded

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: levelFor(cfg.Verbose),
		})).With("request_id", uuid.NewString())

		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func levelFor(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// applyFlagOverrides lets explicitly-set CLI flags win over the loaded
// config file/environment layer.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	if cmd.Flags().Changed("ip") {
		c.IP = flagIP
	}
	if cmd.Flags().Changed("port") {
		c.Port = flagPort
	}
	if cmd.Flags().Changed("timeout") {
		c.Timeout = flagTimeout
	}
	if cmd.Flags().Changed("password") {
		c.Password = flagPassword
	}
	if cmd.Flags().Changed("force-udp") {
		c.ForceUDP = flagForceUDP
	}
	if cmd.Flags().Changed("no-ping") {
		c.NoPing = flagNoPing
	}
	if cmd.Flags().Changed("verbose") {
		c.Verbose = flagVerbose
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: search $XDG_CONFIG_HOME/rbzk, $HOME/.config/rbzk, ./.rbzk.yml)")
	rootCmd.PersistentFlags().StringVar(&flagIP, "ip", "", "device IP address")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 0, "device port")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "socket timeout")
	rootCmd.PersistentFlags().IntVar(&flagPassword, "password", 0, "device communication password")
	rootCmd.PersistentFlags().BoolVar(&flagForceUDP, "force-udp", false, "use UDP instead of TCP")
	rootCmd.PersistentFlags().BoolVar(&flagNoPing, "no-ping", false, "skip the TCP probe dial before connecting")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log every command exchanged with the device")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "output format: table, json")

	rootCmd.AddCommand(infoCmd())
	rootCmd.AddCommand(refreshCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(logsCmd())
	rootCmd.AddCommand(logsAllCmd())
	rootCmd.AddCommand(clearLogsCmd())
	rootCmd.AddCommand(unlockCmd())
	rootCmd.AddCommand(doorStateCmd())
	rootCmd.AddCommand(writeLCDCmd())
	rootCmd.AddCommand(clearLCDCmd())
	rootCmd.AddCommand(templatesCmd())
	rootCmd.AddCommand(userTemplateCmd())
	rootCmd.AddCommand(testVoiceCmd())
	rootCmd.AddCommand(enableDeviceCmd())
	rootCmd.AddCommand(disableDeviceCmd())
	rootCmd.AddCommand(restartCmd())
	rootCmd.AddCommand(powerOffCmd())
	rootCmd.AddCommand(configCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// connect builds a Client from the resolved config, connects it, and
// returns a disconnect func the caller should defer.
func connect(ctx context.Context) (*rbzk.Client, func(), error) {
	opts := []rbzk.Option{
		rbzk.WithTimeout(cfg.Timeout),
		rbzk.WithPassword(cfg.Password),
		rbzk.WithLogger(logger),
	}
	if cfg.ForceUDP {
		opts = append(opts, rbzk.WithUDP())
	}
	if cfg.NoPing {
		opts = append(opts, rbzk.WithOmitPing())
	}
	if cfg.Verbose {
		opts = append(opts, rbzk.WithVerbose())
	}

	client := rbzk.NewClient(cfg.IP, cfg.Port, opts...)
	if err := client.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("connect to %s:%d: %w", cfg.IP, cfg.Port, err)
	}
	return client, func() { client.Disconnect() }, nil
}
