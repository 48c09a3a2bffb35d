// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package utils provides small helpers shared by the adapter and the
// services: a preconfigured resty client and the id generator used for key
// request and transaction ids.
package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient is a wrapper around the resty.Client HTTP client.
// It embeds *resty.Client to expose all of its methods directly.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient creates and returns a new HTTPClient instance
// with a default-configured underlying resty.Client.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{Client: resty.New()}
}

// NewHomeserverClient returns a client talking JSON to baseURL. A non-empty
// accessToken is sent as a bearer token on every request. timeout <= 0 keeps
// resty's default (no timeout).
func NewHomeserverClient(baseURL, accessToken string, timeout time.Duration) *HTTPClient {
	c := NewHTTPClient()
	c.SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if accessToken != "" {
		c.SetAuthToken(accessToken)
	}
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}
