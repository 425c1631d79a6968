package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/sousadrivikis20-lab/Alugabv/internal/common"
	"github.com/sousadrivikis20-lab/Alugabv/internal/common/security"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/model"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/repository"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/logging"
)

type contextKey string

const sessionCtxKey contextKey = "session"

// LoadSession resolves the session cookie into the stored session and puts it
// in the request context. Requests without a valid cookie or with a revoked
// or expired session continue anonymously.
func LoadSession(tokens *security.SessionTokens, sessions repository.SessionStore, log logging.Logger) func(http.Handler) http.Handler {
	verify := jwtauth.Verify(tokens.Auth(), security.TokenFromSessionCookie)
	return func(next http.Handler) http.Handler {
		return verify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, claims, err := jwtauth.FromContext(ctx)
			if err != nil || token == nil {
				next.ServeHTTP(w, r)
				return
			}
			sid, err := security.GetSessionIDFromClaims(claims)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := sessions.Get(ctx, sid)
			if err != nil {
				if !errors.Is(err, common.ErrNotFound) {
					log.Warn(ctx, "session lookup failed", "err", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(ctx, sess)))
		}))
	}
}

// RequireAuth rejects requests that carry no session.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			common.RespondWithError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, sess)
}

func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	sess, ok := ctx.Value(sessionCtxKey).(*model.Session)
	return sess, ok && sess != nil
}

// UserFromContext returns the session user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *model.SessionUser {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return nil
	}
	return &sess.User
}
