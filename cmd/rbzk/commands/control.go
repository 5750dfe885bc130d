package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func unlockCmd() *cobra.Command {
	var tenths uint32
	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Release the attached door relay",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()
			return client.UnlockDoor(tenths)
		},
	}
	cmd.Flags().Uint32Var(&tenths, "time", 50, "unlock duration in tenths of a second")
	return cmd
}

func doorStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "door-state",
		Short: "Report whether the attached door sensor reads closed",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()
			closed, err := client.DoorState()
			if err != nil {
				return err
			}
			if closed {
				fmt.Println("closed")
			} else {
				fmt.Println("open")
			}
			return nil
		},
	}
}

func writeLCDCmd() *cobra.Command {
	var line uint16
	cmd := &cobra.Command{
		Use:   "write-lcd <text>",
		Short: "Write text to the device LCD display",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()
			return client.WriteLCD(line, args[0])
		},
	}
	cmd.Flags().Uint16Var(&line, "line", 2, "LCD line number")
	return cmd
}

func clearLCDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-lcd",
		Short: "Clear the device LCD display",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()
			return client.ClearLCD()
		},
	}
}

func testVoiceCmd() *cobra.Command {
	var index uint32
	cmd := &cobra.Command{
		Use:   "test-voice",
		Short: "Play the device's built-in voice prompt",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()
			return client.TestVoice(index)
		},
	}
	cmd.Flags().Uint32Var(&index, "index", 0, "voice prompt index")
	return cmd
}

func enableDeviceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable-device",
		Short: "Resume normal operation after disable-device",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()
			return client.EnableDevice()
		},
	}
}

func disableDeviceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable-device",
		Short: "Reject fingerprint/card input until enable-device is run",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()
			return client.DisableDevice()
		},
	}
}

func restartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Reboot the device",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()
			return client.Restart()
		},
	}
}

func powerOffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poweroff",
		Short: "Power the device off",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()
			return client.PowerOff()
		},
	}
}
