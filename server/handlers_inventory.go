package server

import (
	"encoding/json"
	"net/http"

	"github.com/robodex/robodex-backend/gateway"
	apperrors "github.com/robodex/robodex-backend/internal/errors"
)

type issueItemsRequest struct {
	ProjectID  json.RawMessage `json:"project_id"`
	Items      json.RawMessage `json:"items"`
	ReturnDate json.RawMessage `json:"return_date"`
}

type returnRequest struct {
	IssueID json.RawMessage `json:"issue_id"`
	Items   json.RawMessage `json:"items"`
}

func (s *Server) ListMembersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.members.Repo().List(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		for i := range list {
			list[i] = list[i].Public()
		}
		if list == nil {
			writeRaw(w, http.StatusOK, json.RawMessage("[]"))
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) ListRegistryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := gateway.NewQuery().Select("*").
			Where(gateway.SanitizeFilters(r.URL.Query(), inventoryFilterColumns...)...)
		s.writeRows(w, r, tableInventory, q)
	}
}

func (s *Server) RegistryItemHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := gateway.NewQuery().Select("*").Eq("item_no", r.PathValue("item_no"))
		s.writeFirstRow(w, r, tableInventory, q, "Item not found")
	}
}

func (s *Server) ListIssuesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := gateway.NewQuery().Select("*").
			Where(gateway.SanitizeFilters(r.URL.Query(), issueFilterColumns...)...)
		s.writeRows(w, r, tableIssues, q)
	}
}

// MyIssuesHandler lists the caller's own issues, newest first.
func (s *Server) MyIssuesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		q := gateway.NewQuery().Select("*").
			Eq("member_id", claims.MemberID()).
			Order("issued_date", false)
		s.writeRows(w, r, tableIssues, q)
	}
}

// IssueItemsHandler borrows items for a project on behalf of the caller.
func (s *Server) IssueItemsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		var req issueItemsRequest
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if !present(req.ProjectID) || !present(req.Items) {
			s.writeError(w, r, apperrors.ErrInvalidRequest)
			return
		}
		s.call(w, r, rpcIssueItems, rpcParams{
			"p_member_id":   claims.MemberID(),
			"p_project_id":  req.ProjectID,
			"p_items":       req.Items,
			"p_return_date": req.ReturnDate,
		})
	}
}

func (s *Server) FullReturnHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req returnRequest
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if !present(req.IssueID) {
			s.writeError(w, r, apperrors.ErrInvalidRequest)
			return
		}
		s.call(w, r, rpcReturnIssue, rpcParams{"p_issue_id": req.IssueID})
	}
}

func (s *Server) PartialReturnHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req returnRequest
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if !present(req.IssueID) || !present(req.Items) {
			s.writeError(w, r, apperrors.ErrInvalidRequest)
			return
		}
		s.call(w, r, rpcReturnItems, rpcParams{
			"p_issue_id": req.IssueID,
			"p_items":    req.Items,
		})
	}
}
