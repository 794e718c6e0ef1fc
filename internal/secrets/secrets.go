// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package secrets keeps provider credentials out of config files by
// resolving keyring://service/key references against the OS keyring.
package secrets

// ServiceName is the keyring service under which ragd stores its secrets.
const ServiceName = "ragd"

// Store provides secret storage operations.
type Store interface {
	Store(service, key, value string) error
	// Retrieve returns a CodeSecretNotFound error when the key does not exist.
	Retrieve(service, key string) (string, error)
	Delete(service, key string) error
}
