package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-key-gossip/internal/config"
	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/internal/utils"
	"github.com/MKhiriev/go-key-gossip/models"
)

const clientAPIPrefix = "/_matrix/client/v3"

type httpHomeserverAdapter struct {
	client *utils.HTTPClient

	logger *logger.Logger
}

// NewHTTPHomeserverAdapter constructs an HTTP/REST implementation of
// [HomeserverAdapter]. It normalises the base URL from adapterCfg.BaseURL,
// and configures the client with the access token and request timeout.
//
// Returns an error wrapping [ErrInvalidBaseURL] if the base URL is empty or
// cannot be parsed.
func NewHTTPHomeserverAdapter(adapterCfg config.ClientAdapter, logger *logger.Logger) (HomeserverAdapter, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}

	client := utils.NewHomeserverClient(baseURL+clientAPIPrefix, adapterCfg.AccessToken, adapterCfg.RequestTimeout)

	return &httpHomeserverAdapter{client: client, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SendToDevice implements [HomeserverAdapter] with
// PUT /sendToDevice/{eventType}/{txnId}.
func (h *httpHomeserverAdapter) SendToDevice(ctx context.Context, eventType, txnID string, messages models.UsersDevicesMap[any]) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"eventType": eventType, "txnId": txnID}).
		SetBody(models.SendToDeviceRequest{Messages: messages}).
		Put("/sendToDevice/{eventType}/{txnId}")
	if err != nil {
		return fmt.Errorf("send to device request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "httpHomeserverAdapter.SendToDevice").
			Str("event_type", eventType).
			Str("txn_id", txnID).
			Msg("send to device failed")
		return err
	}

	return nil
}

// QueryKeys implements [HomeserverAdapter] with POST /keys/query.
func (h *httpHomeserverAdapter) QueryKeys(ctx context.Context, req models.KeysQueryRequest) (*models.KeysQueryResponse, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/keys/query")
	if err != nil {
		return nil, fmt.Errorf("keys query request: %w", err)
	}

	var result models.KeysQueryResponse
	if err = decode(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetKeyBackupVersion implements [HomeserverAdapter] with
// GET /room_keys/version.
func (h *httpHomeserverAdapter) GetKeyBackupVersion(ctx context.Context) (*models.KeyBackupVersion, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get("/room_keys/version")
	if err != nil {
		return nil, fmt.Errorf("key backup version request: %w", err)
	}

	var version models.KeyBackupVersion
	if err = decode(resp, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

// GetRoomKeyBackup implements [HomeserverAdapter] with
// GET /room_keys/keys/{roomId}/{sessionId}?version=.
func (h *httpHomeserverAdapter) GetRoomKeyBackup(ctx context.Context, roomID, sessionID, version string) (*models.KeyBackupData, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"roomId": roomID, "sessionId": sessionID}).
		SetQueryParam("version", version).
		Get("/room_keys/keys/{roomId}/{sessionId}")
	if err != nil {
		return nil, fmt.Errorf("room key backup request: %w", err)
	}

	var data models.KeyBackupData
	if err = decode(resp, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Sync implements [HomeserverAdapter] with GET /sync. An empty since token
// requests an initial sync.
func (h *httpHomeserverAdapter) Sync(ctx context.Context, since string, timeout time.Duration) (*models.SyncResponse, error) {
	req := h.client.R().
		SetContext(ctx).
		SetQueryParam("timeout", strconv.FormatInt(timeout.Milliseconds(), 10))
	if since != "" {
		req.SetQueryParam("since", since)
	}

	resp, err := req.Get("/sync")
	if err != nil {
		return nil, fmt.Errorf("sync request: %w", err)
	}

	var sr models.SyncResponse
	if err = decode(resp, &sr); err != nil {
		return nil, err
	}
	return &sr, nil
}

func decode(resp *resty.Response, v any) error {
	if err := mapHTTPError(resp); err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecodingResponse, err)
	}
	return nil
}
