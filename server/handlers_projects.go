package server

import (
	"encoding/json"
	"net/http"

	"github.com/robodex/robodex-backend/gateway"
	apperrors "github.com/robodex/robodex-backend/internal/errors"
)

type createProjectRequest struct {
	ProjectName  json.RawMessage `json:"project_name"`
	Description  json.RawMessage `json:"description"`
	Pool         json.RawMessage `json:"pool"`
	GitHubRepo   json.RawMessage `json:"github_repo"`
	NotionPageID json.RawMessage `json:"notion_page_id"`
}

type createPoolRequest struct {
	Name        json.RawMessage `json:"name"`
	Description json.RawMessage `json:"description"`
	Managers    json.RawMessage `json:"managers"`
}

func (s *Server) ListProjectsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeRows(w, r, tableProjects, gateway.NewQuery().Select("*"))
	}
}

func (s *Server) ProjectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := gateway.NewQuery().Select("*").Eq("project_id", r.PathValue("id"))
		s.writeFirstRow(w, r, tableProjects, q, "Project not found")
	}
}

func (s *Server) ProjectAnalyticsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.callWithResult(w, r, rpcProjectAnalytics, rpcParams{"p_project_id": r.PathValue("id")})
	}
}

func (s *Server) CreateProjectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProjectRequest
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if !present(req.ProjectName) {
			s.writeError(w, r, apperrors.ErrInvalidRequest)
			return
		}
		s.callWithResult(w, r, rpcCreateProject, rpcParams{
			"p_project_name":   req.ProjectName,
			"p_description":    req.Description,
			"p_pool":           req.Pool,
			"p_github_repo":    req.GitHubRepo,
			"p_notion_page_id": req.NotionPageID,
		})
	}
}

func (s *Server) ListPoolsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeRows(w, r, tablePools, gateway.NewQuery().Select("*"))
	}
}

func (s *Server) CreatePoolHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPoolRequest
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if !present(req.Name) {
			s.writeError(w, r, apperrors.ErrInvalidRequest)
			return
		}
		s.callWithResult(w, r, rpcCreatePool, rpcParams{
			"p_name":        req.Name,
			"p_description": req.Description,
			"p_managers":    req.Managers,
		})
	}
}
