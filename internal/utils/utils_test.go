package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestValidatePassword(t *testing.T) {
	cases := map[string]bool{
		"Abcdef1!":  true,
		"abcdef1!":  false,
		"ABCDEF1!":  false,
		"Abcdefg!":  false,
		"Abcdefg1":  false,
		"Ab1!":      false,
		"P@ssw0rd9": true,
	}
	for pw, ok := range cases {
		if err := ValidatePassword(pw); (err == nil) != ok {
			t.Errorf("ValidatePassword(%q) err = %v, want ok=%v", pw, err, ok)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, want string
		ok       bool
	}{
		{"123456789", "03123456789", true},
		{"03123456789", "03123456789", true},
		{"12345678", "", false},
		{"12345678a", "", false},
	}
	for _, tc := range cases {
		got, err := NormalizePhone(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestValidateNameAndEmail(t *testing.T) {
	if ValidateName("Sara Ahmed") != nil || ValidateName("R2D2") == nil {
		t.Error("name validation")
	}
	if ValidateEmail("a.b@example.com") != nil || ValidateEmail("nope@") == nil {
		t.Error("email validation")
	}
}

func TestPasswordHash(t *testing.T) {
	h, err := HashPassword("Abcdef1!", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(h, "Abcdef1!") || VerifyPassword(h, "wrong") {
		t.Error("VerifyPassword mismatch")
	}
}

func TestNewAccessToken(t *testing.T) {
	at, err := NewAccessToken("s", 9, "ADMIN", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	tok, err := jwt.Parse(at.Token, func(*jwt.Token) (interface{}, error) { return []byte("s"), nil })
	if err != nil || !tok.Valid {
		t.Fatalf("parse: %v", err)
	}
	cl := tok.Claims.(jwt.MapClaims)
	if cl["role"] != "ADMIN" || cl["sub"].(float64) != 9 {
		t.Errorf("claims = %v", cl)
	}
}

func TestRefreshTokenHash(t *testing.T) {
	rt, err := NewRefreshToken(time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(rt.Raw) != 96 || len(HashRefreshRaw(rt.Raw)) != 64 {
		t.Errorf("raw len = %d", len(rt.Raw))
	}
}
