package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad input"), KindValidation},
		{"not found", NotFound("no such prompt"), KindNotFound},
		{"conflict", Conflict("duplicate version"), KindConflict},
		{"decryption", Decryption("open failed", errors.New("auth")), KindDecryption},
		{"store", Store("query", errors.New("timeout")), KindStore},
		{"wrapped once", fmt.Errorf("saving: %w", NotFound("gone")), KindNotFound},
		{"wrapped twice", fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", Conflict("dup"))), KindConflict},
		{"plain error", errors.New("boom"), KindStore},
		{"nil", nil, KindStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	err := Store("insert version", errors.New("connection reset"))
	want := "store_error: insert version: connection reset"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := Validation("title too long")
	if bare.Error() != "validation_error: title too long" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := Decryption("decode", cause)
	if !errors.Is(err, cause) {
		t.Error("Decryption should wrap its cause")
	}
	if IsKind(err, KindValidation) {
		t.Error("wrong kind matched")
	}
	if !IsKind(err, KindDecryption) {
		t.Error("IsKind missed decryption")
	}
}
