package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	cases := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short1A", true},
		{"alllowercase1", true},
		{"ALLUPPERCASE1", true},
		{"NoDigitsHere", true},
		{"Str0ngPass", false},
		{"xK9_longer_password", false},
	}
	for _, tc := range cases {
		err := ValidatePassword(tc.password)
		if tc.wantErr && err == nil {
			t.Errorf("expected error for password %q", tc.password)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("unexpected error for password %q: %v", tc.password, err)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	if err := ValidateUsername("amina_w"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateUsername("ab"); err == nil {
		t.Errorf("expected error for short username")
	}
	if err := ValidateUsername(strings.Repeat("a", 51)); err == nil {
		t.Errorf("expected error for long username")
	}
	if err := ValidateUsername("has space"); err == nil {
		t.Errorf("expected error for invalid characters")
	}
	if err := ValidateUsername("has-dash"); err == nil {
		t.Errorf("expected error for dash")
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	if err := ValidateEmail("amina@example.com"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, bad := range []string{"", "noat.example.com", "two@@example.com", "spaces in@example.com"} {
		if err := ValidateEmail(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestTokenExpiryReadsExpClaim(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	got, ok := TokenExpiry(signed)
	if !ok {
		t.Fatalf("expected expiry to be readable")
	}
	if !got.Equal(exp) {
		t.Fatalf("expected expiry %v, got %v", exp, got)
	}

	if _, ok := TokenExpiry("not-a-jwt"); ok {
		t.Fatalf("expected opaque token to report no expiry")
	}
}
