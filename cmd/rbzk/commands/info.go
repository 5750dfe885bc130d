package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show device identity, clock and capacity",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()

			fw, err := client.FirmwareVersion()
			if err != nil {
				return fmt.Errorf("firmware version: %w", err)
			}
			serial, err := client.SerialNumber()
			if err != nil {
				return fmt.Errorf("serial number: %w", err)
			}
			name, err := client.DeviceName()
			if err != nil {
				return fmt.Errorf("device name: %w", err)
			}
			platform, err := client.Platform()
			if err != nil {
				return fmt.Errorf("platform: %w", err)
			}
			clock, err := client.GetTime()
			if err != nil {
				return fmt.Errorf("get time: %w", err)
			}
			counts, err := client.ReadSizes()
			if err != nil {
				return fmt.Errorf("read sizes: %w", err)
			}

			fmt.Printf("Device Name:      %s\n", name)
			fmt.Printf("Serial Number:    %s\n", serial)
			fmt.Printf("Platform:         %s\n", platform)
			fmt.Printf("Firmware Version: %s\n", fw)
			fmt.Printf("Device Time:      %s\n", clock.Format("2006-01-02 15:04:05"))
			fmt.Println()

			out, err := formatDeviceCounts(counts, outputFormat)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Ask the device to recompute its internal record indices",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()
			return client.RefreshData()
		},
	}
}
