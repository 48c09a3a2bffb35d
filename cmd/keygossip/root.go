// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-key-gossip/internal/config"
	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/internal/store"
	"github.com/MKhiriev/go-key-gossip/models"
)

// cli holds the state shared by every subcommand.
type cli struct {
	flags *config.FlagValues
	out   io.Writer
	build models.AppBuildInfo
}

func newRootCmd(build models.AppBuildInfo, out io.Writer) *cobra.Command {
	c := &cli{out: out, build: build}

	root := &cobra.Command{
		Use:           "keygossip",
		Short:         "Room key gossiping daemon and crypto store tools",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)
	root.SetErr(out)
	c.flags = config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		c.newRunCmd(),
		c.newMigrateCmd(),
		c.newDevicesCmd(),
		c.newRequestsCmd(),
		c.newAuditCmd(),
		c.newGossipCmd(),
		c.newVersionCmd(),
	)
	return root
}

// config merges env, flags and the JSON file without requiring the
// homeserver settings the store tools do not need.
func (c *cli) config() (*config.ClientConfig, error) {
	structured, err := config.GetStructuredConfig(c.flags)
	if err != nil {
		return nil, err
	}
	return config.NewClientConfig(structured), nil
}

func (c *cli) logger(cfg *config.ClientConfig) *logger.Logger {
	if cfg.LogFilePath == "" {
		return logger.Nop()
	}
	return logger.NewFileLogger("keygossip-cli", cfg.LogFilePath)
}

// withStore opens the crypto store, runs fn and closes the store.
func (c *cli) withStore(ctx context.Context, fn func(*store.Storages) error) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	if cfg.Storage.DB.DSN == "" {
		return fmt.Errorf("%w: --db is required", config.ErrInvalidStorageConfigs)
	}

	storages, err := store.NewStorages(ctx, cfg.Storage, c.logger(cfg))
	if err != nil {
		return err
	}
	defer storages.Close()

	return fn(storages)
}

func (c *cli) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the crypto store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd.Context(), func(s *store.Storages) error {
				version, err := s.DB.SchemaVersion()
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "schema version: %d\n", version)
				return nil
			})
		},
	}
}

func (c *cli) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(c.out, "Build version: %s\n", c.build.BuildVersion())
			fmt.Fprintf(c.out, "Build date: %s\n", c.build.BuildDate())
			fmt.Fprintf(c.out, "Build commit: %s\n", c.build.BuildCommit())
		},
	}
}
