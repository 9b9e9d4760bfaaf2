package errors

import (
	"strings"
	"testing"
)

func TestValidateNodeID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "user-42", false},
		{"uuid style", "0b9f7f3e-1b2c-4d5e-8f90-1a2b3c4d5e6f", false},
		{"empty", "", true},
		{"control character", "node\x01", true},
		{"null byte", "node\x00evil", true},
		{"too long", strings.Repeat("a", 257), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && GetCode(err) != ErrCodeInvalidGraph {
				t.Errorf("error code = %q, want %q", GetCode(err), ErrCodeInvalidGraph)
			}
		})
	}
}

func TestValidateViewID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "org-map", false},
		{"with colon", "team:platform", false},
		{"empty", "", true},
		{"path traversal", "../secrets", true},
		{"path separator", "a/b", true},
		{"backslash", "a\\b", true},
		{"too long", strings.Repeat("v", 129), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateViewID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateViewID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
