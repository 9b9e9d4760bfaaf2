package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidGraph, "edge %s references unknown node %s", "e1", "n9")

	if err.Code != ErrCodeInvalidGraph {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeInvalidGraph)
	}
	if err.Message != "edge e1 references unknown node n9" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("Cause should be nil, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCodeTimeout, cause, "layout run did not respond")

	if err.Code != ErrCodeTimeout {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeTimeout)
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrCodeSuperseded, "newer request exists"),
			want: "SUPERSEDED: newer request exists",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeInternal, fmt.Errorf("boom"), "worker crashed"),
			want: "INTERNAL_ERROR: worker crashed: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeNumericalInstability, "non-finite coordinates")

	if !Is(err, ErrCodeNumericalInstability) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrCodeTimeout) {
		t.Error("Is should not match a different code")
	}
	if Is(fmt.Errorf("plain error"), ErrCodeTimeout) {
		t.Error("Is should not match plain errors")
	}

	// Codes survive wrapping with fmt.Errorf.
	wrapped := fmt.Errorf("outer: %w", err)
	if !Is(wrapped, ErrCodeNumericalInstability) {
		t.Error("Is should unwrap to find the code")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeInvalidGraph, "bad")); got != ErrCodeInvalidGraph {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeInvalidGraph)
	}
	if got := GetCode(fmt.Errorf("plain")); got != "" {
		t.Errorf("GetCode on plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeTimeout, "layout did not complete in time")
	if got := UserMessage(err); got != "layout did not complete in time" {
		t.Errorf("UserMessage = %q", got)
	}

	plain := fmt.Errorf("disk full")
	if got := UserMessage(plain); got != "disk full" {
		t.Errorf("UserMessage on plain error = %q", got)
	}
}
