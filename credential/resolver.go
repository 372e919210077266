package credential

import (
	"errors"
	"net/http"
	"strings"

	"github.com/seedkit/seedauth/jwt"
)

// Mode selects which transport channels a Resolver consults.
type Mode int

const (
	// ModeBoth reads the cookie and the header. The header wins on conflict.
	ModeBoth Mode = iota
	// ModeCookie reads only the cookie.
	ModeCookie
	// ModeHeader reads only the Authorization header.
	ModeHeader
)

// BearerScheme is the only accepted Authorization scheme.
const BearerScheme = "Bearer"

var (
	// ErrHeaderMalformed is returned when the Authorization header does not split into exactly two segments.
	ErrHeaderMalformed = errors.New("credential: authorization header structure not correct")
	// ErrSchemeInvalid is returned when the Authorization scheme is not Bearer.
	ErrSchemeInvalid = errors.New("credential: authorization header type not correct")
	// ErrCredentialEmpty is returned when a well-formed "Bearer " header carries an
	// empty token. The header still takes precedence over the cookie.
	ErrCredentialEmpty = errors.New("credential: bearer token empty")
)

// Request is the transport view the Resolver needs.
type Request struct {
	Cookies       map[string]string
	Authorization string
}

// FromHTTP builds a Request from r. Only the first cookie of each name is kept.
func FromHTTP(r *http.Request) Request {
	req := Request{Authorization: r.Header.Get("Authorization")}
	cookies := r.Cookies()
	if len(cookies) > 0 {
		req.Cookies = make(map[string]string, len(cookies))
		for _, c := range cookies {
			if _, ok := req.Cookies[c.Name]; !ok {
				req.Cookies[c.Name] = c.Value
			}
		}
	}
	return req
}

// Resolver extracts credentials under a fixed channel policy.
type Resolver struct {
	Mode       Mode
	CookieKeys map[jwt.TokenType]string
}

// CookieKey returns the cookie name carrying tokens of type t. Unmapped types use the
// type name itself.
func (r Resolver) CookieKey(t jwt.TokenType) string {
	if key, ok := r.CookieKeys[t]; ok && key != "" {
		return key
	}
	return string(t)
}

// Resolve returns the credential for tokenType, or "" when the request carries none.
// A header whose token segment is empty yields ErrCredentialEmpty.
func (r Resolver) Resolve(req Request, tokenType jwt.TokenType) (string, error) {
	var credential string

	if r.Mode != ModeHeader {
		if v := req.Cookies[r.CookieKey(tokenType)]; v != "" {
			credential = v
		}
	}

	if r.Mode != ModeCookie && req.Authorization != "" {
		v, err := ParseBearer(req.Authorization)
		if err != nil {
			return "", err
		}
		if v == "" {
			return "", ErrCredentialEmpty
		}
		credential = v
	}

	return credential, nil
}

// ParseBearer parses an Authorization header value of the form "Bearer <token>".
// The token segment may be empty.
func ParseBearer(header string) (string, error) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 {
		return "", ErrHeaderMalformed
	}
	if parts[0] != BearerScheme {
		return "", ErrSchemeInvalid
	}
	return parts[1], nil
}
