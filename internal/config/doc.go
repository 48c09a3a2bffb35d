// Package config provides configuration loading, merging, and validation
// facilities for go-key-gossip.
//
// Configuration is assembled from multiple sources. Merging only fills
// fields that are still empty, so earlier sources take precedence:
//  1. Environment variables
//  2. Command-line flags
//  3. JSON config file
//  4. Built-in defaults
//
// The main entry points are [GetStructuredConfig] for the merged view and
// [GetClientConfig] for the validated runtime configuration.
package config
