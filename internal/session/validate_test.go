package session

import (
	"errors"
	"testing"

	"github.com/ashureev/notifyhub/internal/shared"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantMsg  string
	}{
		{"Abcdefg1", ""},
		{"Abcdef1", msgPasswordShort},
		{"", msgPasswordShort},
		{"abcdefg1", msgPasswordMix},
		{"ABCDEFG1", msgPasswordMix},
		{"Abcdefgh", msgPasswordMix},
		{"ÀBCDÉFG1", msgPasswordMix},
		{"Pässwörd99", ""},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if tt.wantMsg == "" {
			if err != nil {
				t.Errorf("ValidatePassword(%q) = %v, want nil", tt.password, err)
			}
			continue
		}
		var ve *shared.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("ValidatePassword(%q) = %v, want ValidationError", tt.password, err)
			continue
		}
		if ve.Message != tt.wantMsg {
			t.Errorf("ValidatePassword(%q) message = %q, want %q", tt.password, ve.Message, tt.wantMsg)
		}
	}
}

func TestRequireFields(t *testing.T) {
	if err := requireFields("a", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := requireFields("a", "  ")
	var ve *shared.ValidationError
	if !errors.As(err, &ve) || ve.Message != msgFillAllFields {
		t.Fatalf("requireFields = %v, want fill-all-fields", err)
	}
}
