package security

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie that carries the signed session token.
const SessionCookieName = "alugabv.sid"

// SessionTokens signs and verifies the token stored in the session cookie.
// The token only names a server-side session; revocation happens by deleting
// the session record.
type SessionTokens struct {
	auth *jwtauth.JWTAuth
}

func NewSessionTokens(secret []byte) *SessionTokens {
	return &SessionTokens{auth: jwtauth.New("HS256", secret, nil)}
}

func (t *SessionTokens) Auth() *jwtauth.JWTAuth { return t.auth }

// Issue signs a token naming sid that expires together with the session.
func (t *SessionTokens) Issue(sid string, expires time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sid": sid,
		"exp": expires.Unix(),
		"iat": time.Now().Unix(),
	}
	_, tokenString, err := t.auth.Encode(claims)
	return tokenString, err
}

func GetSessionIDFromClaims(claims jwt.MapClaims) (string, error) {
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", errors.New("sid claim is missing or not a string")
	}
	return sid, nil
}

// TokenFromSessionCookie is a jwtauth token finder for the session cookie.
func TokenFromSessionCookie(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func SessionCookie(token string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func ClearedSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
