package session

import (
	"net/http"
	"time"
)

// CookieName carries the __Host- prefix: user agents then require
// Secure, Path=/ and no Domain attribute, which pins the cookie to the
// exact host that set it.
const CookieName = "__Host-session"

// CookieOptions is the caller-controlled subset of cookie attributes.
// Secure is only ever false for plain-HTTP local development.
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
}

func writeSessionCookie(w http.ResponseWriter, value string, expiresAt time.Time, maxAge int, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// SetCookie issues the session cookie to the client.
func SetCookie(w http.ResponseWriter, sessionID string, expiresAt time.Time, opts CookieOptions) {
	writeSessionCookie(w, sessionID, expiresAt, 0, opts)
}

// ClearCookie removes the session cookie from the client.
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	writeSessionCookie(w, "", time.Time{}, -1, opts)
}
