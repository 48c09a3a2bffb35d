// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the key gossiping daemon runtime.
//
// It wires the crypto store, the homeserver adapter, the gossiping services
// and the background workers into a single process lifecycle.
package client
