package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-key-gossip/internal/adapter"
	"github.com/MKhiriev/go-key-gossip/internal/config"
	"github.com/MKhiriev/go-key-gossip/internal/crypto"
	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/models"
)

func testConfig(t *testing.T, baseURL string) *config.ClientConfig {
	return &config.ClientConfig{
		Adapter: config.ClientAdapter{BaseURL: baseURL, AccessToken: "token", RequestTimeout: 5 * time.Second},
		Account: config.ClientAccount{UserID: "@alice:example.org", DeviceID: "ALICEDEV"},
		Storage: config.ClientStorage{DB: config.ClientDB{DSN: filepath.Join(t.TempDir(), "crypto.db")}},
		Crypto:  config.ClientCrypto{GossipingEnabled: true, RequestRetryCount: 1},
		Workers: config.ClientWorkers{SyncTimeout: time.Second, SyncRetryDelay: time.Second},
	}
}

func TestNewApp_InvalidHomeserver(t *testing.T) {
	cfg := testConfig(t, "   ")

	_, err := NewApp(t.Context(), cfg, crypto.NewVerifyOnlyEngine(), models.AppBuildInfo{}, logger.Nop())
	assert.ErrorIs(t, err, adapter.ErrInvalidBaseURL)
}

// TestApp_RunUntilCancelled запускает демон против фейкового homeserver и
// проверяет, что он корректно останавливается.
func TestApp_RunUntilCancelled(t *testing.T) {
	var syncs atomic.Int32
	polled := make(chan struct{}, 1)

	r := chi.NewRouter()
	r.Route("/_matrix/client/v3", func(r chi.Router) {
		r.Get("/sync", func(w http.ResponseWriter, r *http.Request) {
			if syncs.Add(1) == 1 {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"next_batch":"b1"}`))
				return
			}
			select {
			case polled <- struct{}{}:
			default:
			}
			<-r.Context().Done()
		})
		r.Post("/keys/query", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"device_keys":{}}`))
		})
	})
	homeserver := httptest.NewServer(r)
	defer homeserver.Close()

	cfg := testConfig(t, homeserver.URL)
	cfg.MetricsAddress = "127.0.0.1:0"

	app, err := NewApp(t.Context(), cfg, crypto.NewVerifyOnlyEngine(), models.NewAppBuildInfo("test", "", ""), logger.Nop())
	require.NoError(t, err)
	require.NotNil(t, app.Services())

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case <-polled:
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("daemon did not resume syncing")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.GreaterOrEqual(t, syncs.Load(), int32(2))
}
