package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/session"
)

// SessionHeader carries the session id for clients that do not keep cookies.
const SessionHeader = "X-Session-ID"

type sessionKey struct{}

// withSession resolves the shopper's session from the header or cookie,
// creating one when it is unknown or expired, and echoes its id back.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if id == "" {
			if c, err := r.Cookie(h.cfg.SessionCookie); err == nil {
				id = c.Value
			}
		}

		s, created := h.sessions.GetOrCreate(id)
		if created {
			zctx.From(r.Context()).Debug("Session started", zap.String("session_id", s.ID))
		}

		w.Header().Set(SessionHeader, s.ID)
		http.SetCookie(w, &http.Cookie{
			Name:     h.cfg.SessionCookie,
			Value:    s.ID,
			Path:     "/",
			MaxAge:   int(h.cfg.SessionTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		ctx := context.WithValue(r.Context(), sessionKey{}, s)
		ctx = zctx.With(ctx, zap.String("session_id", s.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey{}).(*session.Session)
	return s
}
