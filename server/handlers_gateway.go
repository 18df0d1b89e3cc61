package server

import (
	"encoding/json"
	"net/http"

	"github.com/robodex/robodex-backend/gateway"
)

// Tables read through the gateway.
const (
	tableInventory     = "inventory"
	tableIssues        = "issues"
	tableProjects      = "projects"
	tablePools         = "pools"
	tableEvents        = "events"
	tableKanbanColumns = "kanban_columns"
)

// Stored functions invoked through the gateway.
const (
	rpcIssueItems         = "issue_items"
	rpcReturnIssue        = "return_issue"
	rpcReturnItems        = "return_items"
	rpcCreateProject      = "create_project"
	rpcProjectAnalytics   = "project_analytics"
	rpcCreatePool         = "create_pool"
	rpcCreateEvent        = "create_event"
	rpcDeleteEvent        = "delete_event"
	rpcUpsertKanbanColumn = "upsert_kanban_column"
	rpcDeleteKanbanColumn = "delete_kanban_column"
)

// Columns clients may filter on.
var (
	inventoryFilterColumns = []string{"item_no", "name", "location", "quantity", "available", "price", "resources"}
	issueFilterColumns     = []string{"issue_id", "item_no", "member_id", "project_id", "quantity", "returned", "issued_date", "return_date"}
)

// rpcParams are the named arguments of a stored function call.
type rpcParams map[string]any

// writeRows forwards the rows selected by q.
func (s *Server) writeRows(w http.ResponseWriter, r *http.Request, table string, q *gateway.Query) {
	var rows json.RawMessage
	if err := s.gateway.Select(r.Context(), table, q, &rows); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !present(rows) {
		rows = json.RawMessage("[]")
	}
	writeRaw(w, http.StatusOK, rows)
}

// writeFirstRow forwards the first selected row, or notFound as a 404.
func (s *Server) writeFirstRow(w http.ResponseWriter, r *http.Request, table string, q *gateway.Query, notFound string) {
	var rows []json.RawMessage
	if err := s.gateway.Select(r.Context(), table, q, &rows); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(rows) == 0 {
		writeText(w, http.StatusNotFound, notFound)
		return
	}
	writeRaw(w, http.StatusOK, rows[0])
}

// call invokes fn and answers {"success":true}.
func (s *Server) call(w http.ResponseWriter, r *http.Request, fn string, params rpcParams) {
	if err := s.gateway.Call(r.Context(), fn, params, nil); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

// callWithResult invokes fn and forwards its result. An empty result answers
// {"success":true}.
func (s *Server) callWithResult(w http.ResponseWriter, r *http.Request, fn string, params rpcParams) {
	var result json.RawMessage
	if err := s.gateway.Call(r.Context(), fn, params, &result); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !present(result) {
		writeSuccess(w)
		return
	}
	writeRaw(w, http.StatusOK, result)
}
