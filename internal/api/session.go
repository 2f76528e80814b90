package api

import (
	"context"
	"net/http"

	"github.com/leapstack-labs/sqlscope/internal/engine"
	"github.com/leapstack-labs/sqlscope/internal/session"
)

const (
	cookieName   = "sqlscope"
	sessionIDKey = "sid"
)

type ctxKey struct{}

// withSession resolves the caller's session id from the signed cookie,
// issuing a new one when the cookie is missing or invalid.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Get ignores decode errors and returns a fresh session
		sess, _ := s.cookieStore.Get(r, cookieName)

		id, _ := sess.Values[sessionIDKey].(string)
		if id == "" {
			id = session.NewID()
			sess.Values[sessionIDKey] = id
			if err := sess.Save(r, w); err != nil {
				s.logger.Error("failed to save session cookie", "error", err.Error())
				writeError(w, http.StatusInternalServerError, "failed to start session")
				return
			}
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, id)
		ctx = engine.WithSession(ctx, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// store leases the caller's session, creating its store on first use.
// The caller must call release when done with the store.
func (s *Server) store(r *http.Request) (sess *session.Session, release func(), err error) {
	return s.sessions.Acquire(r.Context(), sessionID(r.Context()), true)
}
