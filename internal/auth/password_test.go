package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewPasswordService_Cost(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultCost},
		{3, DefaultCost},
		{32, DefaultCost},
		{4, 4},
		{10, 10},
	}
	for _, tt := range tests {
		if got := NewPasswordService(tt.in).cost; got != tt.want {
			t.Errorf("NewPasswordService(%d).cost = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestHash_StoresCostAndSalt(t *testing.T) {
	ps := NewPasswordService(5)

	h1, err := ps.Hash("keeper-gloves")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, _ := ps.Hash("keeper-gloves")
	if h1 == h2 {
		t.Error("two hashes of one password are identical; salt is not random")
	}
	if strings.Contains(h1, "keeper-gloves") {
		t.Error("hash leaks the plaintext")
	}
	if cost, err := bcrypt.Cost([]byte(h1)); err != nil || cost != 5 {
		t.Errorf("bcrypt.Cost() = %d, %v; want 5, nil", cost, err)
	}
}

func TestHash_LengthLimit(t *testing.T) {
	ps := NewPasswordServiceForTest()

	if _, err := ps.Hash(strings.Repeat("x", MaxPasswordBytes)); err != nil {
		t.Errorf("Hash(%d bytes) error = %v", MaxPasswordBytes, err)
	}
	if _, err := ps.Hash(strings.Repeat("x", MaxPasswordBytes+1)); err == nil {
		t.Errorf("Hash(%d bytes) succeeded, want error", MaxPasswordBytes+1)
	}
	// multi-byte runes count by byte, not by character
	if _, err := ps.Hash(strings.Repeat("é", 37)); err == nil {
		t.Error("Hash(74-byte unicode password) succeeded, want error")
	}
}

func TestVerify(t *testing.T) {
	ps := NewPasswordServiceForTest()
	hash, err := ps.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name         string
		hash         string
		password     string
		wantErr      bool
		wantMismatch bool
	}{
		{"match", hash, "secret123", false, false},
		{"wrong password", hash, "secret124", true, true},
		{"case matters", hash, "SECRET123", true, true},
		{"empty password", hash, "", true, true},
		{"malformed hash", "plaintext-in-db", "secret123", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ps.Verify(tt.hash, tt.password)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := errors.Is(err, ErrPasswordMismatch); got != tt.wantMismatch {
				t.Errorf("errors.Is(err, ErrPasswordMismatch) = %v, want %v", got, tt.wantMismatch)
			}
		})
	}
}

func TestVerify_AcceptsHashFromAnotherCost(t *testing.T) {
	// Rows hashed before a BCRYPT_COST change must still log in.
	old, err := NewPasswordService(5).Hash("secret123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if err := NewPasswordServiceForTest().Verify(old, "secret123"); err != nil {
		t.Errorf("Verify() error = %v, want nil", err)
	}
}
