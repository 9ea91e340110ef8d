// Package keyring stores goalkeeper credentials in the OS keyring.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/goalkeeper/internal/constants"
)

var (
	// ErrNotFound is returned when no credential is stored under the key
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Keys that may be stored.
const (
	ConnectionString = constants.DefaultKeyringUser
	LLMToken         = constants.LLMTokenKeyringKey
)

// Get reads the credential stored under key.
func Get(key string) (string, error) {
	v, err := keyring.Get(constants.AppName, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

// Set stores value under key. Empty values are rejected.
func Set(key, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", key)
	}
	if err := keyring.Set(constants.AppName, key, value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", key, err)
	}
	return nil
}

func Delete(key string) error {
	if err := keyring.Delete(constants.AppName, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
	}
	return nil
}

// GetConnectionString retrieves the database connection string.
func GetConnectionString() (string, error) { return Get(ConnectionString) }

// SetConnectionString stores the database connection string.
func SetConnectionString(connStr string) error { return Set(ConnectionString, connStr) }

func DeleteConnectionString() error { return Delete(ConnectionString) }

// GetLLMToken retrieves the LLM API token.
func GetLLMToken() (string, error) { return Get(LLMToken) }

func SetLLMToken(token string) error { return Set(LLMToken, token) }

func DeleteLLMToken() error { return Delete(LLMToken) }

// IsAvailable checks if the OS keyring can be reached. A missing entry still
// counts as available.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
