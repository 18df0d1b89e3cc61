package server

import (
	"context"
	"net/http"

	"github.com/robodex/robodex-backend/auth"
	"github.com/robodex/robodex-backend/token"
	"github.com/rs/zerolog"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the verified credential claims
	ContextKeyClaims ContextKey = "claims"
)

// ClaimsFromContext returns the claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (token.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(token.Claims)
	return claims, ok
}

// AccessMiddleware returns the checks a route with access needs.
func (s *Server) AccessMiddleware(access Access) []func(http.HandlerFunc) http.HandlerFunc {
	if access == AccessPublic {
		return nil
	}
	mw := []func(http.HandlerFunc) http.HandlerFunc{s.RequireAuth()}
	if level, ok := access.Level(); ok {
		mw = append(mw, s.RequireClearance(level))
	}
	return mw
}

// RequireAuth validates the bearer credential and stores its claims in the
// request context. Every failure gets the same 401.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, err := s.auth.Authenticate(r.Header.Get("Authorization"))
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("member_id", claims.MemberID())
			})
			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireClearance checks the caller's current clearance against level. It
// must be chained after RequireAuth.
func (s *Server) RequireClearance(level auth.Level) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				s.writeError(w, r, auth.ErrUnauthenticated)
				return
			}
			if err := s.auth.Authorize(r.Context(), claims, level); err != nil {
				s.writeError(w, r, err)
				return
			}
			next(w, r)
		}
	}
}
