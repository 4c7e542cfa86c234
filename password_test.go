package tasknest_test

import (
	"testing"

	tn "github.com/tasknest/tasknest"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "Passw0rd", false},
		{"minimum length valid", "Abc123", false},
		{"too short", "Ab1", true},
		{"missing uppercase", "password1", true},
		{"missing lowercase", "PASSWORD1", true},
		{"missing digit", "Password", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tn.ValidatePassword(tt.password)
			if tt.wantErr && err == nil {
				t.Errorf("expected password %q to be rejected", tt.password)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected password %q to be accepted, got %v", tt.password, err)
			}
			if err != nil && err.Code != tn.ErrCodeWeakPassword {
				t.Errorf("expected code %q, got %q", tn.ErrCodeWeakPassword, err.Code)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := tn.HashPassword("Passw0rd")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "Passw0rd" {
		t.Error("hash should not equal the plaintext")
	}

	if !tn.CheckPassword("Passw0rd", hash) {
		t.Error("correct password should verify")
	}
	if tn.CheckPassword("Passw0rd2", hash) {
		t.Error("wrong password should not verify")
	}
}

func TestCheckPassword_MalformedDigest(t *testing.T) {
	if tn.CheckPassword("Passw0rd", "") {
		t.Error("empty digest should not verify")
	}
	if tn.CheckPassword("Passw0rd", "not-a-bcrypt-digest") {
		t.Error("malformed digest should not verify")
	}
}
