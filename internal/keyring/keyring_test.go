package keyring

import (
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestSetGetDelete(t *testing.T) {
	tests := []struct {
		name   string
		set    func(string) error
		get    func() (string, error)
		delete func() error
		value  string
	}{
		{"connection string", SetConnectionString, GetConnectionString, DeleteConnectionString,
			"postgres://goalkeeper@localhost:5432/goalkeeper?sslmode=disable"},
		{"llm token", SetLLMToken, GetLLMToken, DeleteLLMToken, "sk-test-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gokeyring.MockInit()

			if err := tt.set(tt.value); err != nil {
				t.Fatalf("failed to set: %v", err)
			}
			got, err := tt.get()
			if err != nil {
				t.Fatalf("failed to get: %v", err)
			}
			if got != tt.value {
				t.Errorf("get() = %q, want %q", got, tt.value)
			}
			if err := tt.delete(); err != nil {
				t.Fatalf("failed to delete: %v", err)
			}
			if _, err := tt.get(); !errors.Is(err, ErrNotFound) {
				t.Errorf("get() after delete error = %v, want %v", err, ErrNotFound)
			}
			if err := tt.delete(); !errors.Is(err, ErrNotFound) {
				t.Errorf("second delete error = %v, want %v", err, ErrNotFound)
			}
		})
	}
}

func TestKeysAreIndependent(t *testing.T) {
	gokeyring.MockInit()

	if err := SetLLMToken("token"); err != nil {
		t.Fatalf("failed to set token: %v", err)
	}
	if _, err := GetConnectionString(); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetConnectionString() error = %v, want %v", err, ErrNotFound)
	}
}

func TestSetEmpty(t *testing.T) {
	gokeyring.MockInit()

	if err := SetLLMToken(""); err == nil {
		t.Error("SetLLMToken(\"\") should return an error")
	}
}

func TestIsAvailable(t *testing.T) {
	gokeyring.MockInit()

	if !IsAvailable() {
		t.Error("IsAvailable() = false, want true in mock mode")
	}
}

func TestUnavailable(t *testing.T) {
	gokeyring.MockInitWithError(errors.New("no dbus"))
	defer gokeyring.MockInit()

	if _, err := GetLLMToken(); !errors.Is(err, ErrKeyringUnavailable) {
		t.Errorf("GetLLMToken() error = %v, want %v", err, ErrKeyringUnavailable)
	}
	if IsAvailable() {
		t.Error("IsAvailable() = true with a failing backend")
	}
}
