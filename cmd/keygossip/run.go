// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package main

import (
	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-key-gossip/internal/client"
	"github.com/MKhiriev/go-key-gossip/internal/config"
	"github.com/MKhiriev/go-key-gossip/internal/crypto"
	"github.com/MKhiriev/go-key-gossip/internal/logger"
)

func (c *cli) newRunCmd() *cobra.Command {
	var passphrase string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sync with the homeserver and gossip room keys",
		Long: `Sync with the homeserver, track device lists and send, answer and
audit room key requests until interrupted.

This binary has no Olm account, so it runs watch-only: device lists are
downloaded and verified, requests are queued and sent, incoming requests are
recorded, but no key is decrypted or forwarded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.GetClientConfig(c.flags)
			if err != nil {
				return err
			}

			log := logger.NewLogger("keygossip")
			if cfg.LogFilePath != "" {
				log = logger.NewFileLogger("keygossip", cfg.LogFilePath)
			}
			ctx = log.WithContext(ctx)

			app, err := client.NewApp(ctx, cfg, crypto.NewVerifyOnlyEngine(), c.build, log)
			if err != nil {
				return err
			}
			if passphrase != "" {
				if err := app.Services().Backup.SetRecoveryPassphrase(ctx, passphrase); err != nil {
					log.Warn().Err(err).Msg("recovery passphrase does not open the key backup")
				}
			}

			return app.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&passphrase, "recovery-passphrase", "", "Passphrase of the server-side key backup")
	return cmd
}
