package token

import (
	"net/http"
	"time"

	auth "github.com/strategiz/authcore"
)

const (
	// AccessTokenCookie is the cookie name used to set the access
	// token value on a client.
	AccessTokenCookie = "ACCESSTOKEN"
	// RefreshTokenCookie is the cookie name used to set the refresh
	// token value on a client.
	RefreshTokenCookie = "REFRESHTOKEN"
)

// Response ensures consistent formatting for JSON APIs.
type Response struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken,omitempty"`
	ACR          auth.ACR          `json:"acr"`
	AMR          []auth.FactorType `json:"amr"`
	SessionID    string            `json:"sessionId"`
	ExpiresAt    time.Time         `json:"expiresAt"`
}

// NewResponse formats a token pair for a JSON response.
func NewResponse(authn *auth.Authentication) *Response {
	return &Response{
		AccessToken:  authn.AccessToken,
		RefreshToken: authn.RefreshToken,
		ACR:          authn.ACR,
		AMR:          authn.AMR,
		SessionID:    authn.SessionID,
		ExpiresAt:    authn.ExpiresAt,
	}
}

// Cookies returns secure, HTTP only cookies carrying a token pair.
// The refresh cookie is only sent back to refresh endpoints.
func Cookies(authn *auth.Authentication, domain string, now time.Time) []*http.Cookie {
	return []*http.Cookie{
		{
			Name:     AccessTokenCookie,
			Value:    authn.AccessToken,
			MaxAge:   maxAge(authn.ExpiresAt, now),
			Domain:   domain,
			Path:     "/",
			Secure:   true,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		},
		{
			Name:     RefreshTokenCookie,
			Value:    authn.RefreshToken,
			MaxAge:   maxAge(authn.RefreshExpiresAt, now),
			Domain:   domain,
			Path:     "/api/v1/token",
			Secure:   true,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		},
	}
}

// ExpiredCookies clears the token cookies on a client.
func ExpiredCookies(domain string) []*http.Cookie {
	cookies := []*http.Cookie{}
	for _, c := range []struct{ name, path string }{
		{AccessTokenCookie, "/"},
		{RefreshTokenCookie, "/api/v1/token"},
	} {
		cookies = append(cookies, &http.Cookie{
			Name:     c.name,
			Value:    "",
			MaxAge:   -1,
			Domain:   domain,
			Path:     c.path,
			Secure:   true,
			HttpOnly: true,
		})
	}

	return cookies
}

func maxAge(expiresAt, now time.Time) int {
	age := int(expiresAt.Sub(now).Seconds())
	if age < 1 {
		return -1
	}
	return age
}
