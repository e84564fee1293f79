package security

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions([]byte("unit-test-secret"))

	token, expireAt, err := Generate(opts, "kim_minsoo_school_kr", "Kim Minsoo")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !expireAt.After(time.Now()) {
		t.Fatalf("expiry must be in the future, got %v", expireAt)
	}

	claims, err := Verify(opts, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject() != "kim_minsoo_school_kr" {
		t.Fatalf("subject mismatch: %q", claims.Subject())
	}
	if claims.DisplayName() != "Kim Minsoo" {
		t.Fatalf("display name mismatch: %q", claims.DisplayName())
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, err := Generate(DefaultOptions([]byte("secret-a")), "kim_minsoo_school_kr", "Kim")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := Verify(DefaultOptions([]byte("secret-b")), token); err == nil {
		t.Fatalf("token signed with another secret must not verify")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	opts := DefaultOptions([]byte("unit-test-secret"))

	// Generate 会把非法 TTL 钳回默认值，过期令牌只能手工签
	past := time.Now().Add(-time.Hour)
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "kim_minsoo_school_kr",
		"iat": past.Unix(),
		"exp": past.Add(time.Minute).Unix(),
	})
	signed, err := tok.SignedString(opts.Secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Verify(opts, signed); err == nil {
		t.Fatalf("expired token must not verify")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	if _, err := Verify(DefaultOptions([]byte("s")), "not-a-token"); err == nil {
		t.Fatalf("garbage must not verify")
	}
}
