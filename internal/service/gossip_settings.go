package service

import (
	"context"
	"strconv"

	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/internal/store"
)

// gossipSettings reads the persisted key gossiping switch. The configured
// value applies until the switch was set once.
type gossipSettings struct {
	account        store.AccountStore
	defaultEnabled bool
}

func (g gossipSettings) enabled(ctx context.Context) bool {
	value, ok, err := g.account.GetAccountValue(ctx, store.AccountKeyGossipingEnabled)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "gossipSettings.enabled").Msg("failed to read gossiping switch")
		return g.defaultEnabled
	}
	if !ok {
		return g.defaultEnabled
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return g.defaultEnabled
	}
	return enabled
}

func (g gossipSettings) setEnabled(ctx context.Context, enabled bool) error {
	return g.account.SetAccountValue(ctx, store.AccountKeyGossipingEnabled, strconv.FormatBool(enabled))
}
