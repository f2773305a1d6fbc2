package auth

import "net/http"

// CookieName carries the `__Host-` prefix, so browsers only accept the
// cookie when it is Secure, has Path=/ and names no Domain.
const CookieName = "__Host-auth"

// SetSessionCookie stores token in the session cookie. No Max-Age is set:
// the cookie lives for the browser session and the token's own `exp`
// bounds how long it is accepted.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, sessionCookie(token, 0))
}

// ClearSessionCookie tells the browser to drop the session cookie.
// The attributes must match the ones it was set with.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, sessionCookie("", -1))
}

// TokenFromRequest returns the session token presented by r, if any.
func TokenFromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
