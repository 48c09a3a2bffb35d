package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-key-gossip/models"
)

const defaultAuditLimit = 50

func (h *Handler) getVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, versionResponse{
		Version: h.build.BuildVersion(),
		Date:    h.build.BuildDate(),
		Commit:  h.build.BuildCommit(),
	})
}

func (h *Handler) getGossip(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, gossipState{Enabled: h.crypto.IsGossipingEnabled(r.Context())})
}

func (h *Handler) putGossip(w http.ResponseWriter, r *http.Request) {
	var req gossipState
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "putGossip", fmt.Errorf("%w: %w", errInvalidBody, err))
		return
	}
	if err := h.crypto.SetGossipingEnabled(r.Context(), req.Enabled); err != nil {
		writeError(w, r, "putGossip", err)
		return
	}
	writeJSON(w, r, http.StatusOK, req)
}

func (h *Handler) getTracking(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.storages.Devices.GetDeviceTrackingStatuses(r.Context())
	if err != nil {
		writeError(w, r, "getTracking", err)
		return
	}

	resp := make(map[string]string, len(statuses))
	for userID, status := range statuses {
		resp[userID] = status.String()
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) getDevices(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !models.IsValidUserID(userID) {
		writeError(w, r, "getDevices", fmt.Errorf("%w: user id %q", errInvalidQuery, userID))
		return
	}

	devices, err := h.storages.Devices.GetUserDevices(r.Context(), userID)
	if err != nil {
		writeError(w, r, "getDevices", err)
		return
	}

	resp := make([]deviceResponse, 0, len(devices))
	for _, id := range slices.Sorted(maps.Keys(devices)) {
		resp = append(resp, newDeviceResponse(devices[id]))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) putDeviceVerified(w http.ResponseWriter, r *http.Request) {
	h.putDeviceFlag(w, r, "putDeviceVerified", h.crypto.SetDeviceVerified)
}

func (h *Handler) putDeviceBlocked(w http.ResponseWriter, r *http.Request) {
	h.putDeviceFlag(w, r, "putDeviceBlocked", h.crypto.SetDeviceBlocked)
}

func (h *Handler) putDeviceFlag(w http.ResponseWriter, r *http.Request, fn string, set func(ctx context.Context, userID, deviceID string, on bool) error) {
	var req flagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fn, fmt.Errorf("%w: %w", errInvalidBody, err))
		return
	}
	if req.Value == nil {
		writeError(w, r, fn, fmt.Errorf("%w: value is required", errInvalidBody))
		return
	}

	userID, deviceID := chi.URLParam(r, "userID"), chi.URLParam(r, "deviceID")
	if err := set(r.Context(), userID, deviceID, *req.Value); err != nil {
		writeError(w, r, fn, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getRequests lists our outgoing key requests, optionally filtered by
// repeated state parameters.
func (h *Handler) getRequests(w http.ResponseWriter, r *http.Request) {
	var states []models.OutgoingKeyRequestState
	for _, name := range r.URL.Query()["state"] {
		state, ok := models.ParseOutgoingKeyRequestState(name)
		if !ok {
			writeError(w, r, "getRequests", fmt.Errorf("%w: unknown state %q", errInvalidQuery, name))
			return
		}
		states = append(states, state)
	}

	requests, err := h.storages.OutgoingKeys.GetOutgoingKeyRequestsByState(r.Context(), states...)
	if err != nil {
		writeError(w, r, "getRequests", err)
		return
	}

	resp := make([]keyRequestResponse, 0, len(requests))
	for _, req := range requests {
		resp = append(resp, newKeyRequestResponse(req))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) getAudit(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, "getAudit", errors.Join(errInvalidQuery, fmt.Errorf("limit %q", raw)))
			return
		}
		limit = n
	}

	entries, err := h.storages.Audit.ListGossipAudit(r.Context(), limit)
	if err != nil {
		writeError(w, r, "getAudit", err)
		return
	}

	resp := make([]auditResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, newAuditResponse(e))
	}
	writeJSON(w, r, http.StatusOK, resp)
}
