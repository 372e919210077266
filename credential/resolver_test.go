package credential

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seedkit/seedauth/jwt"
)

func defaultResolver() Resolver {
	return Resolver{CookieKeys: map[jwt.TokenType]string{
		jwt.TypeAccess:  "access_token",
		jwt.TypeRefresh: "refresh_token",
	}}
}

func TestResolveHeaderWinsOverCookie(t *testing.T) {
	got, err := defaultResolver().Resolve(Request{
		Cookies:       map[string]string{"access_token": "from_cookie"},
		Authorization: "Bearer from_header",
	}, jwt.TypeAccess)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "from_header" {
		t.Fatalf("expected from_header, got %q", got)
	}
}

func TestResolveCookieOnly(t *testing.T) {
	got, err := defaultResolver().Resolve(Request{
		Cookies: map[string]string{"refresh_token": "r1", "access_token": "a1"},
	}, jwt.TypeRefresh)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "r1" {
		t.Fatalf("expected r1, got %q", got)
	}
}

func TestResolveNone(t *testing.T) {
	got, err := defaultResolver().Resolve(Request{}, jwt.TypeAccess)
	if err != nil || got != "" {
		t.Fatalf("expected no credential, got %q %v", got, err)
	}
}

func TestResolveHeaderErrors(t *testing.T) {
	cases := []struct {
		header string
		want   error
	}{
		{"Bearer", ErrHeaderMalformed},
		{"Bearer a b", ErrHeaderMalformed},
		{"Bearertoken", ErrHeaderMalformed},
		{"Basic abc", ErrSchemeInvalid},
		{"bearer abc", ErrSchemeInvalid},
	}
	for _, tc := range cases {
		_, err := defaultResolver().Resolve(Request{
			Cookies:       map[string]string{"access_token": "from_cookie"},
			Authorization: tc.header,
		}, jwt.TypeAccess)
		if !errors.Is(err, tc.want) {
			t.Fatalf("header %q: expected %v, got %v", tc.header, tc.want, err)
		}
	}
}

func TestResolveEmptyBearerOverridesCookie(t *testing.T) {
	req := Request{
		Cookies:       map[string]string{"access_token": "from_cookie"},
		Authorization: "Bearer ",
	}
	got, err := defaultResolver().Resolve(req, jwt.TypeAccess)
	if !errors.Is(err, ErrCredentialEmpty) || got != "" {
		t.Fatalf("expected ErrCredentialEmpty, got %q %v", got, err)
	}

	v, err := ParseBearer("Bearer ")
	if err != nil || v != "" {
		t.Fatalf("two segments must parse, got %q %v", v, err)
	}
}

func TestResolveModes(t *testing.T) {
	req := Request{
		Cookies:       map[string]string{"access_token": "from_cookie"},
		Authorization: "Bearer from_header",
	}

	r := defaultResolver()
	r.Mode = ModeCookie
	if got, _ := r.Resolve(req, jwt.TypeAccess); got != "from_cookie" {
		t.Fatalf("cookie mode: expected from_cookie, got %q", got)
	}

	r.Mode = ModeHeader
	if got, _ := r.Resolve(req, jwt.TypeAccess); got != "from_header" {
		t.Fatalf("header mode: expected from_header, got %q", got)
	}

	req.Authorization = "Token nope"
	r.Mode = ModeCookie
	if got, err := r.Resolve(req, jwt.TypeAccess); err != nil || got != "from_cookie" {
		t.Fatalf("cookie mode must ignore header, got %q %v", got, err)
	}
}

func TestCookieKeyFallsBackToTypeName(t *testing.T) {
	var r Resolver
	if got := r.CookieKey(jwt.TypeRefresh); got != "refresh" {
		t.Fatalf("expected refresh, got %q", got)
	}
}

func TestFromHTTP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "c1"})
	req.Header.Set("Authorization", "Bearer h1")

	got := FromHTTP(req)
	if got.Cookies["access_token"] != "c1" || got.Authorization != "Bearer h1" {
		t.Fatalf("unexpected request view: %+v", got)
	}
}

func FuzzParseBearer(f *testing.F) {
	f.Add("Bearer abc")
	f.Add("")
	f.Add("Bearer  abc")
	f.Add("Bearer ")
	f.Add("Basic abc")

	f.Fuzz(func(t *testing.T, header string) {
		v, err := ParseBearer(header)
		if err != nil {
			if v != "" {
				t.Fatalf("expected empty value on error, got %q", v)
			}
			return
		}
		if header != BearerScheme+" "+v {
			t.Fatalf("accepted header %q does not round-trip, value %q", header, v)
		}
	})
}
