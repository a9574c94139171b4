package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jbonatakis/reqmatrix/internal/location"
	"github.com/jbonatakis/reqmatrix/internal/matrix"
)

type rowResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Depth        int             `json:"depth"`
	Expanded     bool            `json:"expanded"`
	HasChildren  bool            `json:"hasChildren"`
	Available    bool            `json:"available"`
	Requirements map[string]bool `json:"requirements"`
}

type pendingResponse struct {
	Count           int      `json:"count"`
	Selected        []string `json:"selected"`
	Deselected      []string `json:"deselected"`
	AvailabilityOn  []string `json:"availabilityOn"`
	AvailabilityOff []string `json:"availabilityOff"`
}

type matrixResponse struct {
	ServiceID         string                 `json:"serviceId"`
	Name              string                 `json:"name"`
	Revision          string                 `json:"revision,omitempty"`
	SavedAt           *time.Time             `json:"savedAt,omitempty"`
	Requirements      []location.Requirement `json:"requirements"`
	Rows              []rowResponse          `json:"rows"`
	HasUnsavedChanges bool                   `json:"hasUnsavedChanges"`
	Pending           pendingResponse        `json:"pending"`
	Written           []string               `json:"written,omitempty"`
	Warning           string                 `json:"warning,omitempty"`
}

type requirementRequest struct {
	LocationID    string `json:"locationId"`
	RequirementID string `json:"requirementId"`
	Checked       *bool  `json:"checked"`
}

type availabilityRequest struct {
	LocationID string `json:"locationId"`
	Checked    *bool  `json:"checked"`
}

type expansionRequest struct {
	LocationID string `json:"locationId"`
}

// badRequest is a client error whose message is safe to return.
type badRequest struct{ message string }

func (e badRequest) Error() string { return e.message }

func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	s.withEntry(w, r, func(e *entry) (any, error) {
		return snapshot(e, nil), nil
	})
}

func (s *Server) handleRequirement(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req requirementRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.run(w, e, func(e *entry) (any, error) {
		if err := checkLocation(e, req.LocationID); err != nil {
			return nil, err
		}
		if req.RequirementID == "" {
			return nil, badRequest{"requirementId is required"}
		}
		if !e.hasRequirement(req.RequirementID) {
			return nil, badRequest{fmt.Sprintf("service %q has no requirement %q", e.service.ID, req.RequirementID)}
		}
		if req.Checked == nil {
			return nil, badRequest{"checked is required"}
		}
		written, err := e.ctrl.HandleRequirementChange(req.LocationID, req.RequirementID, *req.Checked)
		if err != nil {
			return nil, err
		}
		return snapshot(e, written), nil
	})
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req availabilityRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.run(w, e, func(e *entry) (any, error) {
		if err := checkLocation(e, req.LocationID); err != nil {
			return nil, err
		}
		if req.Checked == nil {
			return nil, badRequest{"checked is required"}
		}
		written, err := e.ctrl.HandleAvailabilityChange(req.LocationID, *req.Checked)
		if err != nil {
			return nil, err
		}
		return snapshot(e, written), nil
	})
}

func (s *Server) handleExpansion(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req expansionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.run(w, e, func(e *entry) (any, error) {
		if err := checkLocation(e, req.LocationID); err != nil {
			return nil, err
		}
		e.ctrl.ToggleExpansion(req.LocationID)
		return snapshot(e, nil), nil
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	changes := e.ctrl.Changes()
	if _, err := e.ctrl.Save(r.Context()); err != nil {
		s.logger.Error("save failed", "service", e.service.ID, "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.logger.Info("saved", "service", e.service.ID, "revision", e.revision, "changes", changes.Count())
	writeJSON(w, http.StatusOK, snapshot(e, nil))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.withEntry(w, r, func(e *entry) (any, error) {
		if err := e.ctrl.Cancel(); err != nil {
			return nil, err
		}
		return snapshot(e, nil), nil
	})
}

func (s *Server) withEntry(w http.ResponseWriter, r *http.Request, fn func(*entry) (any, error)) {
	if e, ok := s.lookup(w, r); ok {
		s.run(w, e, fn)
	}
}

// run calls fn with the entry locked and writes its result.
func (s *Server) run(w http.ResponseWriter, e *entry, fn func(*entry) (any, error)) {
	e.mu.Lock()
	payload, err := fn(e)
	e.mu.Unlock()

	var bad badRequest
	switch {
	case errors.As(err, &bad):
		writeError(w, http.StatusBadRequest, bad.message)
	case err != nil:
		s.logger.Error("request failed", "service", e.service.ID, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, payload)
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	e, err := s.registry.get(r.Context(), chi.URLParam(r, "serviceID"))
	switch {
	case errors.Is(err, errUnknownService):
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	case err != nil:
		s.logger.Error("load service", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return e, true
}

func checkLocation(e *entry, id string) error {
	if id == "" {
		return badRequest{"locationId is required"}
	}
	if id != location.RootID && !e.ctrl.Hierarchy().Contains(id) {
		return badRequest{fmt.Sprintf("unknown location %q", id)}
	}
	return nil
}

func snapshot(e *entry, written []string) matrixResponse {
	ctrl := e.ctrl
	rows := ctrl.Rows()
	out := matrixResponse{
		ServiceID:         e.service.ID,
		Name:              e.service.Name,
		Revision:          e.revision,
		Requirements:      e.requirements,
		Rows:              make([]rowResponse, 0, len(rows)),
		HasUnsavedChanges: ctrl.HasUnsavedChanges(),
		Written:           written,
		Warning:           ctrl.Hierarchy().Err,
	}
	if !e.savedAt.IsZero() {
		savedAt := e.savedAt
		out.SavedAt = &savedAt
	}
	if out.Requirements == nil {
		out.Requirements = []location.Requirement{}
	}
	for _, row := range rows {
		values := make(map[string]bool, len(e.requirements))
		for _, req := range e.requirements {
			values[req.ID] = ctrl.IsSelected(row.ID(), req.ID)
		}
		out.Rows = append(out.Rows, rowResponse{
			ID:           row.ID(),
			Name:         row.Node.Name,
			Depth:        row.Level(),
			Expanded:     row.Expanded,
			HasChildren:  row.HasChildren(),
			Available:    ctrl.IsAvailable(row.ID()),
			Requirements: values,
		})
	}
	out.Pending = pending(ctrl.Changes())
	return out
}

func pending(d matrix.DiffSummary) pendingResponse {
	return pendingResponse{
		Count:           d.Count(),
		Selected:        nonNil(d.Selected),
		Deselected:      nonNil(d.Deselected),
		AvailabilityOn:  nonNil(d.AvailabilityOn),
		AvailabilityOff: nonNil(d.AvailabilityOff),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// decodeBody reads exactly one JSON object with no unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %v", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid request body: trailing data")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
