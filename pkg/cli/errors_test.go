package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("audit.backend", "unknown backend")
	want := "config error in audit.backend: unknown backend"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCommandError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("ledger closed")
	err := NewCommandError("verify", cause)

	if !errors.Is(err, cause) {
		t.Error("CommandError should unwrap to its cause")
	}
	want := "command verify failed: ledger closed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
