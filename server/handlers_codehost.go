package server

import (
	"net/http"

	"github.com/robodex/robodex-backend/codehost"
)

// CodeHostHandler proxies a repository listing. The upstream status and body
// are forwarded unchanged.
func (s *Server) CodeHostHandler(resource codehost.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, repo := r.PathValue("owner"), r.PathValue("repo")
		if !codehost.ValidSegment(owner) || !codehost.ValidSegment(repo) {
			writeText(w, http.StatusBadRequest, "Invalid repository")
			return
		}
		resp, err := s.codeHost.RepoResource(r.Context(), owner, repo, resource)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		contentType := resp.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(resp.Status)
		_, _ = w.Write(resp.Body)
	}
}
