package server

import (
	"encoding/json"
	"net/http"

	"github.com/robodex/robodex-backend/gateway"
	apperrors "github.com/robodex/robodex-backend/internal/errors"
)

// Event fields a PATCH may change.
var eventPatchFields = []string{"event_name", "event_description", "event_datetime"}

type createEventRequest struct {
	EventName        json.RawMessage `json:"event_name"`
	EventDescription json.RawMessage `json:"event_description"`
	EventDatetime    json.RawMessage `json:"event_datetime"`
}

type kanbanColumnRequest struct {
	ColumnID json.RawMessage `json:"column_id"`
	Title    json.RawMessage `json:"title"`
	Position json.RawMessage `json:"position"`
}

func (s *Server) ListEventsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := gateway.NewQuery().Select("*").Order("event_datetime", true)
		s.writeRows(w, r, tableEvents, q)
	}
}

func (s *Server) CreateEventHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		var req createEventRequest
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if !present(req.EventName) || !present(req.EventDatetime) {
			s.writeError(w, r, apperrors.ErrInvalidRequest)
			return
		}
		s.callWithResult(w, r, rpcCreateEvent, rpcParams{
			"p_event_name":        req.EventName,
			"p_event_description": req.EventDescription,
			"p_event_datetime":    req.EventDatetime,
			"p_created_by":        claims.MemberID(),
		})
	}
}

// UpdateEventHandler patches the supplied subset of event fields. Unknown
// fields are ignored; a body with none of the known fields is rejected and
// an id matching no event is a 404.
func (s *Server) UpdateEventHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		if err := decodeBody(w, r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}
		fields := map[string]any{}
		for _, name := range eventPatchFields {
			if raw, ok := body[name]; ok {
				fields[name] = raw
			}
		}
		if len(fields) == 0 {
			s.writeError(w, r, apperrors.ErrInvalidRequest)
			return
		}
		q := gateway.NewQuery().Eq("event_id", r.PathValue("id"))
		var updated []json.RawMessage
		if err := s.gateway.Patch(r.Context(), tableEvents, q, fields, &updated); err != nil {
			s.writeError(w, r, err)
			return
		}
		if len(updated) == 0 {
			writeText(w, http.StatusNotFound, "Event not found")
			return
		}
		writeSuccess(w)
	}
}

func (s *Server) DeleteEventHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.call(w, r, rpcDeleteEvent, rpcParams{"p_event_id": r.PathValue("id")})
	}
}

func (s *Server) ListKanbanHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := gateway.NewQuery().Select("*").Order("position", true)
		s.writeRows(w, r, tableKanbanColumns, q)
	}
}

// UpsertKanbanColumnHandler creates a column, or updates it when column_id is
// given.
func (s *Server) UpsertKanbanColumnHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req kanbanColumnRequest
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if !present(req.Title) {
			s.writeError(w, r, apperrors.ErrInvalidRequest)
			return
		}
		s.callWithResult(w, r, rpcUpsertKanbanColumn, rpcParams{
			"p_column_id": req.ColumnID,
			"p_title":     req.Title,
			"p_position":  req.Position,
		})
	}
}

func (s *Server) DeleteKanbanColumnHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.call(w, r, rpcDeleteKanbanColumn, rpcParams{"p_column_id": r.PathValue("id")})
	}
}
