package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod names one of the supported HMAC algorithms.
type SigningMethod string

const (
	// MethodHS256 is the default algorithm.
	MethodHS256 SigningMethod = "HS256"
	// MethodHS384 signs with HMAC-SHA384.
	MethodHS384 SigningMethod = "HS384"
	// MethodHS512 signs with HMAC-SHA512.
	MethodHS512 SigningMethod = "HS512"
)

// TokenType discriminates access tokens from refresh tokens.
type TokenType string

const (
	// TypeAccess marks short-lived tokens presented on ordinary requests.
	TypeAccess TokenType = "access"
	// TypeRefresh marks long-lived tokens exchanged for new access tokens.
	TypeRefresh TokenType = "refresh"
)

// Valid reports whether t is one of the known token types.
func (t TokenType) Valid() bool {
	return t == TypeAccess || t == TypeRefresh
}

var (
	// ErrSignatureInvalid is returned when a credential's signature or algorithm does not verify.
	ErrSignatureInvalid = errors.New("jwt: signature invalid")
	// ErrTokenMalformed is returned when a credential cannot be parsed or lacks required claims.
	ErrTokenMalformed = errors.New("jwt: token malformed")
	// ErrTokenExpired is returned when exp is in the past.
	ErrTokenExpired = errors.New("jwt: token expired")
	// ErrTokenNotYetValid is returned when nbf is in the future.
	ErrTokenNotYetValid = errors.New("jwt: token not yet valid")
)

// Config configures a Manager.
type Config struct {
	Secret        []byte
	SigningMethod SigningMethod
	Issuer        string
	Leeway        time.Duration
}

// Manager signs and verifies session tokens. It is safe for concurrent use.
type Manager struct {
	config Config
	now    func() time.Time
}

// Claims is the wire form of a session token body.
type Claims struct {
	Type      TokenType      `json:"type"`
	Payload   map[string]any `json:"payload"`
	ExpiresIn int64          `json:"exp_in,omitempty"`
	jwt.RegisteredClaims
}

// Token is a decoded, verified credential.
type Token struct {
	ID         string
	Subject    string
	Type       TokenType
	IssuedAt   time.Time
	NotBefore  time.Time
	ExpiresAt  *time.Time
	TTL        time.Duration
	Payload    map[string]any
	Credential string
}

// Remaining returns how long the token stays valid after now. ok is false for tokens
// without an expiry.
func (t *Token) Remaining(now time.Time) (remaining time.Duration, ok bool) {
	if t == nil || t.ExpiresAt == nil {
		return 0, false
	}
	return t.ExpiresAt.Sub(now), true
}

// NewManager validates cfg and returns a Manager. An empty SigningMethod selects HS256.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt: secret is required")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("jwt: invalid leeway configuration")
	}
	cfg.SigningMethod = SigningMethod(strings.ToUpper(strings.TrimSpace(string(cfg.SigningMethod))))
	if cfg.SigningMethod == "" {
		cfg.SigningMethod = MethodHS256
	}
	if methodFor(cfg.SigningMethod) == nil {
		return nil, fmt.Errorf("jwt: unsupported signing method %q", cfg.SigningMethod)
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	cfg.Secret = secret

	return &Manager{config: cfg, now: time.Now}, nil
}

// WithClock returns a copy of m that reads the current time from now.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	next := *m
	next.now = now
	return &next
}

// Create builds a fresh claim set for subject, signs it, and returns the resulting Token.
// A zero ttl produces a token without exp and exp_in.
func (m *Manager) Create(subject string, tokenType TokenType, payload map[string]any, ttl time.Duration) (*Token, error) {
	if !tokenType.Valid() {
		return nil, fmt.Errorf("jwt: unknown token type %q", tokenType)
	}
	if ttl < 0 {
		return nil, errors.New("jwt: negative ttl")
	}

	now := m.now().Truncate(time.Second)
	claims := Claims{
		Type:    tokenType,
		Payload: payload,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		ttl = ttl.Truncate(time.Second)
		claims.ExpiresIn = int64(ttl / time.Second)
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	credential, err := m.Encode(claims)
	if err != nil {
		return nil, err
	}
	return tokenFromClaims(&claims, credential), nil
}

// Encode signs claims. A nil payload is encoded as an empty object.
func (m *Manager) Encode(claims Claims) (string, error) {
	if claims.Payload == nil {
		claims.Payload = map[string]any{}
	}
	token := jwt.NewWithClaims(methodFor(m.config.SigningMethod), claims)
	signed, err := token.SignedString(m.config.Secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, nil
}

// Decode verifies credential and returns its Token.
func (m *Manager) Decode(credential string) (*Token, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{string(m.config.SigningMethod)}),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(credential, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != string(m.config.SigningMethod) {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, normalizeError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.ID == "" || claims.Subject == "" || claims.IssuedAt == nil || claims.NotBefore == nil {
		return nil, fmt.Errorf("%w: missing required claims", ErrTokenMalformed)
	}
	if !claims.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown token type %q", ErrTokenMalformed, claims.Type)
	}

	return tokenFromClaims(claims, credential), nil
}

func normalizeError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return fmt.Errorf("%w: %v", ErrTokenNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

func tokenFromClaims(claims *Claims, credential string) *Token {
	payload := claims.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	tok := &Token{
		ID:         claims.ID,
		Subject:    claims.Subject,
		Type:       claims.Type,
		IssuedAt:   claims.IssuedAt.Time,
		NotBefore:  claims.NotBefore.Time,
		TTL:        time.Duration(claims.ExpiresIn) * time.Second,
		Payload:    payload,
		Credential: credential,
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		tok.ExpiresAt = &exp
	}
	return tok
}

func methodFor(method SigningMethod) jwt.SigningMethod {
	switch method {
	case MethodHS256:
		return jwt.SigningMethodHS256
	case MethodHS384:
		return jwt.SigningMethodHS384
	case MethodHS512:
		return jwt.SigningMethodHS512
	default:
		return nil
	}
}
