package auth

import (
	"net/http"
	"net/url"
	"time"
)

// SessionCookie builds the cookie carrying a freshly issued session
// credential. The cookie is HttpOnly and SameSite=Strict; Secure is derived
// from the server's base URL scheme so localhost development over HTTP
// still works.
func SessionCookie(token string, baseURL string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   isHTTPS(baseURL),
		SameSite: http.SameSiteStrictMode,
	}
}

// ClearSessionCookie builds an expired cookie that removes the session.
func ClearSessionCookie(baseURL string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isHTTPS(baseURL),
		SameSite: http.SameSiteStrictMode,
	}
}

// isHTTPS checks if a URL uses the HTTPS scheme.
func isHTTPS(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true // safe default
	}
	return parsed.Scheme == "https"
}
