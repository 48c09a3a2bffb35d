// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package main

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-key-gossip/internal/store"
	"github.com/MKhiriev/go-key-gossip/models"
)

func (c *cli) newDevicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Inspect and flag tracked devices",
	}
	cmd.AddCommand(
		c.newDevicesListCmd(),
		c.newDevicesTrackingCmd(),
		c.newDevicesResetCmd(),
		c.newDeviceFlagCmd("verify", "Mark a device as locally verified", func(ctx context.Context, s store.DeviceStore, userID, deviceID string, on bool) error {
			device, err := s.GetUserDevice(ctx, userID, deviceID)
			if err != nil {
				return err
			}
			trust := device.Trust
			trust.LocallyVerified = on
			return s.SetDeviceTrust(ctx, userID, deviceID, trust)
		}),
		c.newDeviceFlagCmd("block", "Block a device from receiving keys", func(ctx context.Context, s store.DeviceStore, userID, deviceID string, on bool) error {
			return s.SetDeviceBlocked(ctx, userID, deviceID, on)
		}),
	)
	return cmd
}

func (c *cli) newDevicesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <user-id>",
		Short: "List the known devices of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := args[0]
			return c.withStore(cmd.Context(), func(s *store.Storages) error {
				devices, err := s.Devices.GetUserDevices(cmd.Context(), userID)
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(devices))
				for _, id := range slices.Sorted(maps.Keys(devices)) {
					device := devices[id]
					rows = append(rows, []string{
						device.DeviceID,
						device.Fingerprint(),
						yesNo(device.Trust.LocallyVerified),
						yesNo(device.Trust.CrossSigningVerified),
						yesNo(device.Blocked),
					})
				}
				printTable(c.out, []string{"DEVICE", "ED25519", "VERIFIED", "CROSS-SIGNED", "BLOCKED"}, rows)
				return nil
			})
		},
	}
}

func (c *cli) newDevicesTrackingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tracking",
		Short: "Show the device list tracking status of every user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd.Context(), func(s *store.Storages) error {
				statuses, err := s.Devices.GetDeviceTrackingStatuses(cmd.Context())
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(statuses))
				for _, userID := range slices.Sorted(maps.Keys(statuses)) {
					rows = append(rows, []string{userID, statuses[userID].String()})
				}
				printTable(c.out, []string{"USER", "STATUS"}, rows)
				return nil
			})
		},
	}
}

// newDevicesResetCmd marks every tracked user as pending download, so the
// next sync of the daemon downloads all device lists again.
func (c *cli) newDevicesResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-tracking",
		Short: "Force a fresh download of every tracked device list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd.Context(), func(s *store.Storages) error {
				statuses, err := s.Devices.GetDeviceTrackingStatuses(cmd.Context())
				if err != nil {
					return err
				}

				reset := 0
				for userID, status := range statuses {
					if status != models.TrackingStatusNotTracked && status != models.TrackingStatusPendingDownload {
						statuses[userID] = models.TrackingStatusPendingDownload
						reset++
					}
				}
				if reset > 0 {
					if err := s.Devices.SaveDeviceTrackingStatuses(cmd.Context(), statuses); err != nil {
						return err
					}
				}
				fmt.Fprintf(c.out, "%d device lists marked for download\n", reset)
				return nil
			})
		},
	}
}

type deviceFlagFunc func(ctx context.Context, s store.DeviceStore, userID, deviceID string, on bool) error

func (c *cli) newDeviceFlagCmd(name, short string, apply deviceFlagFunc) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   name + " <user-id> <device-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s *store.Storages) error {
				if err := apply(cmd.Context(), s.Devices, args[0], args[1], !undo); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "%s %s|%s: %s\n", name, args[0], args[1], yesNo(!undo))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "Clear the flag instead of setting it")
	return cmd
}
