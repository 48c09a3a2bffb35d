// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "encoding/json"

// KeysQueryRequest is the body of POST /keys/query.
type KeysQueryRequest struct {
	DeviceKeys map[string][]string `json:"device_keys"`
	Timeout    int                 `json:"timeout,omitempty"`
	Token      string              `json:"token,omitempty"`
}

// KeysQueryResponse is the part of the /keys/query response used for device
// tracking. DeviceKeys values are kept raw so the exact signed JSON can be
// verified.
type KeysQueryResponse struct {
	DeviceKeys map[string]map[string]json.RawMessage `json:"device_keys"`
	Failures   map[string]map[string]any             `json:"failures,omitempty"`
}

// FailureStatus returns the "status" of a per-server failure, or 0.
func (r KeysQueryResponse) FailureStatus(server string) int {
	failure, ok := r.Failures[server]
	if !ok {
		return 0
	}
	switch status := failure["status"].(type) {
	case float64:
		return int(status)
	case int:
		return status
	case json.Number:
		n, _ := status.Int64()
		return int(n)
	default:
		return 0
	}
}
