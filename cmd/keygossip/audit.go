// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-key-gossip/internal/store"
)

func (c *cli) newAuditCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the key gossiping audit trail, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd.Context(), func(s *store.Storages) error {
				entries, err := s.Audit.ListGossipAudit(cmd.Context(), limit)
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					chainIndex := "-"
					if e.ChainIndex != nil {
						chainIndex = strconv.Itoa(*e.ChainIndex)
					}
					rows = append(rows, []string{
						e.At.Format(time.DateTime),
						string(e.Kind),
						e.UserID + "|" + e.DeviceID,
						e.RoomID,
						e.SessionID,
						string(e.Code),
						chainIndex,
					})
				}
				printTable(c.out, []string{"AT", "KIND", "DEVICE", "ROOM", "SESSION", "CODE", "INDEX"}, rows)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Number of entries to show (0 for all)")
	return cmd
}

func (c *cli) newGossipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gossip",
		Short: "Show or change the persisted key gossiping switch",
	}

	set := func(enabled bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd.Context(), func(s *store.Storages) error {
				if err := s.Account.SetAccountValue(cmd.Context(), store.AccountKeyGossipingEnabled, strconv.FormatBool(enabled)); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "key gossiping enabled: %t\n", enabled)
				return nil
			})
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "enable", Short: "Request keys from other devices", Args: cobra.NoArgs, RunE: set(true)},
		&cobra.Command{Use: "disable", Short: "Only look up missing keys in the backup", Args: cobra.NoArgs, RunE: set(false)},
		&cobra.Command{
			Use:   "status",
			Short: "Print the persisted switch",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withStore(cmd.Context(), func(s *store.Storages) error {
					value, ok, err := s.Account.GetAccountValue(cmd.Context(), store.AccountKeyGossipingEnabled)
					if err != nil {
						return err
					}
					if !ok {
						value = "unset (configuration default applies)"
					}
					fmt.Fprintf(c.out, "key gossiping enabled: %s\n", value)
					return nil
				})
			},
		},
	)
	return cmd
}
