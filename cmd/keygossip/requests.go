// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-key-gossip/internal/store"
	"github.com/MKhiriev/go-key-gossip/models"
)

func (c *cli) newRequestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Inspect our outgoing room key requests",
	}
	cmd.AddCommand(c.newRequestsListCmd(), c.newRequestsPurgeCmd())
	return cmd
}

func parseStates(names []string) ([]models.OutgoingKeyRequestState, error) {
	states := make([]models.OutgoingKeyRequestState, 0, len(names))
	for _, name := range names {
		state, ok := models.ParseOutgoingKeyRequestState(name)
		if !ok {
			return nil, fmt.Errorf("unknown request state %q", name)
		}
		states = append(states, state)
	}
	return states, nil
}

func (c *cli) newRequestsListCmd() *cobra.Command {
	var stateNames []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List outgoing key requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			states, err := parseStates(stateNames)
			if err != nil {
				return err
			}

			return c.withStore(cmd.Context(), func(s *store.Storages) error {
				requests, err := s.OutgoingKeys.GetOutgoingKeyRequestsByState(cmd.Context(), states...)
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(requests))
				for _, req := range requests {
					rows = append(rows, []string{
						req.RequestID,
						req.Body.RoomID,
						req.Body.SessionID,
						strconv.Itoa(req.FromIndex),
						req.State.String(),
						strconv.Itoa(len(req.Replies)),
						req.CreatedAt.Format(time.DateTime),
					})
				}
				printTable(c.out, []string{"ID", "ROOM", "SESSION", "FROM", "STATE", "REPLIES", "CREATED"}, rows)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&stateNames, "state", nil, "Only list requests in these states (e.g. sent,unsent)")
	return cmd
}

func (c *cli) newRequestsPurgeCmd() *cobra.Command {
	var stateName string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every outgoing key request in one state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, ok := models.ParseOutgoingKeyRequestState(stateName)
			if !ok {
				return fmt.Errorf("unknown request state %q", stateName)
			}

			return c.withStore(cmd.Context(), func(s *store.Storages) error {
				n, err := s.OutgoingKeys.DeleteOutgoingKeyRequestsByState(cmd.Context(), state)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "%d requests deleted\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&stateName, "state", models.OutgoingStateSentThenCanceled.String(), "State of the requests to delete")
	return cmd
}
