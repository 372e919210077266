package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-test-secret-test-secret")

func newTestManager(t *testing.T, now time.Time) *Manager {
	t.Helper()
	m, err := NewManager(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m.WithClock(func() time.Time { return now })
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{}); err == nil {
		t.Fatal("expected missing secret to fail")
	}
	if _, err := NewManager(Config{Secret: testSecret, SigningMethod: "RS256"}); err == nil {
		t.Fatal("expected unsupported method to fail")
	}
	if _, err := NewManager(Config{Secret: testSecret, Leeway: time.Hour}); err == nil {
		t.Fatal("expected oversized leeway to fail")
	}
	m, err := NewManager(Config{Secret: testSecret, SigningMethod: "hs512"})
	if err != nil {
		t.Fatalf("expected lower-case algorithm to be accepted: %v", err)
	}
	if m.config.SigningMethod != MethodHS512 {
		t.Fatalf("expected HS512, got %q", m.config.SigningMethod)
	}
}

func TestCreateDecodeRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, now)

	created, err := m.Create("u1", TypeRefresh, map[string]any{"tenant": "acme"}, 14*24*time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	decoded, err := m.Decode(created.Credential)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.ID != created.ID || decoded.ID == "" {
		t.Fatalf("jti mismatch: %q vs %q", decoded.ID, created.ID)
	}
	if decoded.Subject != "u1" || decoded.Type != TypeRefresh {
		t.Fatalf("unexpected subject/type: %q %q", decoded.Subject, decoded.Type)
	}
	if !decoded.IssuedAt.Equal(now) || !decoded.NotBefore.Equal(now) {
		t.Fatalf("unexpected iat/nbf: %v %v", decoded.IssuedAt, decoded.NotBefore)
	}
	if decoded.ExpiresAt == nil || !decoded.ExpiresAt.Equal(now.Add(14*24*time.Hour)) {
		t.Fatalf("unexpected exp: %v", decoded.ExpiresAt)
	}
	if decoded.TTL != 14*24*time.Hour || decoded.TTL != created.TTL {
		t.Fatalf("unexpected ttl: %v", decoded.TTL)
	}
	if decoded.Payload["tenant"] != "acme" {
		t.Fatalf("payload not preserved: %#v", decoded.Payload)
	}
}

func TestEncodeDecodeClaimsRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, now)

	claims := Claims{
		Type:    TypeAccess,
		Payload: map[string]any{"k": "v"},
		RegisteredClaims: gjwt.RegisteredClaims{
			ID:        "fixed-id",
			Subject:   "someone@example.com",
			IssuedAt:  gjwt.NewNumericDate(now),
			NotBefore: gjwt.NewNumericDate(now),
		},
	}
	credential, err := m.Encode(claims)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	tok, err := m.Decode(credential)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tok.ID != "fixed-id" || tok.Subject != "someone@example.com" || tok.Type != TypeAccess {
		t.Fatalf("claims not preserved: %+v", tok)
	}
	if tok.ExpiresAt != nil || tok.TTL != 0 {
		t.Fatalf("expected no expiry fields, got %v %v", tok.ExpiresAt, tok.TTL)
	}
}

func TestCreateWithoutTTLOmitsExpiry(t *testing.T) {
	m := newTestManager(t, time.Now())
	tok, err := m.Create("u1", TypeAccess, nil, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var claims Claims
	if _, _, err := gjwt.NewParser().ParseUnverified(tok.Credential, &claims); err != nil {
		t.Fatalf("parse unverified: %v", err)
	}
	if claims.ExpiresAt != nil || claims.ExpiresIn != 0 {
		t.Fatalf("expected no exp/exp_in, got %v %d", claims.ExpiresAt, claims.ExpiresIn)
	}
	if claims.Payload == nil {
		t.Fatal("expected payload to be encoded as an empty object")
	}
}

func TestCreateGeneratesUniqueIDs(t *testing.T) {
	m := newTestManager(t, time.Now())
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		tok, err := m.Create("u1", TypeAccess, nil, time.Minute)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, ok := seen[tok.ID]; ok {
			t.Fatalf("duplicate jti %q", tok.ID)
		}
		seen[tok.ID] = struct{}{}
	}
}

func TestDecodeRejectsTamperedSignature(t *testing.T) {
	m := newTestManager(t, time.Now())
	tok, err := m.Create("u1", TypeAccess, nil, time.Minute)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	other, err := NewManager(Config{Secret: []byte("another-secret-another-secret")})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := other.Decode(tok.Credential); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestDecodeRejectsWrongAlgorithm(t *testing.T) {
	m := newTestManager(t, time.Now())
	claims := Claims{Type: TypeAccess, RegisteredClaims: gjwt.RegisteredClaims{
		ID: "x", Subject: "u1",
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
		NotBefore: gjwt.NewNumericDate(time.Now()),
	}}
	signed, err := gjwt.NewWithClaims(gjwt.SigningMethodHS512, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Decode(signed); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	m := newTestManager(t, time.Now())
	for _, input := range []string{"", "not.a.jwt", "abc", strings.Repeat("a.", 3)} {
		if _, err := m.Decode(input); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("input %q: expected ErrTokenMalformed, got %v", input, err)
		}
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, now)
	credential, err := m.Encode(Claims{Type: "session", RegisteredClaims: gjwt.RegisteredClaims{
		ID: "x", Subject: "u1",
		IssuedAt:  gjwt.NewNumericDate(now),
		NotBefore: gjwt.NewNumericDate(now),
	}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := m.Decode(credential); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestDecodeEnforcesExpiryAndNotBefore(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, issued)
	tok, err := m.Create("u1", TypeAccess, nil, time.Minute)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	late := m.WithClock(func() time.Time { return issued.Add(2 * time.Minute) })
	if _, err := late.Decode(tok.Credential); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	early := m.WithClock(func() time.Time { return issued.Add(-time.Minute) })
	if _, err := early.Decode(tok.Credential); !errors.Is(err, ErrTokenNotYetValid) {
		t.Fatalf("expected ErrTokenNotYetValid, got %v", err)
	}
}

func TestTokenRemaining(t *testing.T) {
	now := time.Now()
	exp := now.Add(time.Hour)
	tok := &Token{ExpiresAt: &exp}
	if got, ok := tok.Remaining(now); !ok || got != time.Hour {
		t.Fatalf("expected 1h remaining, got %v %v", got, ok)
	}
	if _, ok := (&Token{}).Remaining(now); ok {
		t.Fatal("expected no remaining for token without expiry")
	}
}

// FuzzDecode feeds arbitrary strings to Decode. Invalid inputs must be rejected without panics.
func FuzzDecode(f *testing.F) {
	m, err := NewManager(Config{Secret: testSecret})
	if err != nil {
		f.Fatal(err)
	}
	valid, err := m.Create("u1", TypeAccess, nil, time.Minute)
	if err != nil {
		f.Fatal(err)
	}

	f.Add(valid.Credential)
	f.Add("")
	f.Add("not.a.jwt")
	f.Add("eyJhbGciOiJub25lIn0.eyJzdWIiOiJ0ZXN0In0.")

	f.Fuzz(func(t *testing.T, input string) {
		tok, err := m.Decode(input)
		if err != nil {
			return
		}
		if tok == nil {
			t.Fatal("Decode returned nil token without error")
		}
	})
}
