package helpers

import (
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("access-secret", "refresh-secret", time.Minute, time.Hour)

	access, exp, err := m.GenerateAccessToken("u1", "s1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry %v already passed", exp)
	}
	claims, err := m.ParseAccessToken(access)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" || claims.SessionID != "s1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := m.ParseRefreshToken(access); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
}

func TestJWTExpired(t *testing.T) {
	m := NewJWTManager("a", "r", -time.Minute, time.Hour)
	tok, _, err := m.GenerateAccessToken("u1", "s1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ParseAccessToken(tok); err == nil {
		t.Fatal("expired token accepted")
	}
}
