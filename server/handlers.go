package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type meResponse struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type notFoundResponse struct {
	Error  string `json:"error"`
	Path   string `json:"path"`
	Method string `json:"method"`
	URL    string `json:"url"`
}

// LoginHandler exchanges a member name and password for a credential.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		m, err := s.members.CheckCredentials(r.Context(), req.Name, req.Password)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		raw, err := s.auth.Issue(m.MemberID, m.Name)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		zerolog.Ctx(r.Context()).Info().Str("member_id", m.MemberID).Msg("member logged in")
		writeJSON(w, http.StatusOK, loginResponse{Token: raw})
	}
}

// MeHandler returns the identity carried by the credential.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		writeJSON(w, http.StatusOK, meResponse{MemberID: claims.MemberID(), Name: claims.Name()})
	}
}

// UpdatePasswordHandler changes the caller's password and returns a fresh
// credential.
func (s *Server) UpdatePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		var req updatePasswordRequest
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		m, err := s.members.ChangePassword(r.Context(), claims.MemberID(), req.CurrentPassword, req.NewPassword)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.auth.Invalidate(r.Context(), m.MemberID)

		raw, err := s.auth.Issue(m.MemberID, m.Name)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, successBody{Success: true, Token: raw})
	}
}

// DebugHandler echoes the request back. The Authorization header is never
// echoed.
func (s *Server) DebugHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		headers := map[string]string{}
		for name, values := range r.Header {
			if strings.EqualFold(name, "Authorization") {
				continue
			}
			headers[name] = strings.Join(values, ", ")
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"method":  r.Method,
			"path":    r.URL.Path,
			"url":     requestURL(r),
			"headers": headers,
			"claims":  claims,
		})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, notFoundResponse{
			Error:  "Not Found",
			Path:   r.URL.Path,
			Method: r.Method,
			URL:    requestURL(r),
		})
	}
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	} else if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
