// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package secrets

import (
	"errors"

	ragerr "github.com/sigil-dev/ragd/pkg/errors"
	"github.com/zalando/go-keyring"
)

// KeyringStore implements Store on the OS keyring via zalando/go-keyring
// (Keychain on macOS, secret-service on Linux, Credential Manager on Windows).
type KeyringStore struct{}

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Store(service, key, value string) error {
	if err := checkRef("store", service, key); err != nil {
		return err
	}
	if err := keyring.Set(service, key, value); err != nil {
		return ragerr.Wrapf(err, ragerr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}
	return nil
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if err := checkRef("retrieve", service, key); err != nil {
		return "", err
	}

	val, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ragerr.Errorf(ragerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return "", ragerr.Wrapf(err, ragerr.CodeSecretStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := checkRef("delete", service, key); err != nil {
		return err
	}

	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ragerr.Errorf(ragerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return ragerr.Wrapf(err, ragerr.CodeSecretStoreFailure, "deleting secret %s/%s", service, key)
	}
	return nil
}

func checkRef(op, service, key string) error {
	if service == "" {
		return ragerr.Errorf(ragerr.CodeSecretInvalidInput, "secret %s: service must not be empty", op)
	}
	if key == "" {
		return ragerr.Errorf(ragerr.CodeSecretInvalidInput, "secret %s: key must not be empty", op)
	}
	return nil
}
