package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"leadflow/agent"
	"leadflow/auth"
	"leadflow/lead"
	"leadflow/pipeline"
)

// intakeRunner is the slice of the pipeline the HTTP layer drives.
type intakeRunner interface {
	Process(ctx context.Context, params lead.CreateParams) (pipeline.Outcome, error)
	Trigger(ctx context.Context, agentType agent.Type, leadID, action string) (agent.Result, error)
}

// leadReader serves the read-side endpoints.
type leadReader interface {
	Get(ctx context.Context, leadID string) (lead.Detail, error)
	List(ctx context.Context, filters lead.Filters) (lead.ListResult, error)
	AdvanceStatus(ctx context.Context, leadID string, to lead.Status) (lead.Lead, error)
}

// authenticator covers registration, login and token checks.
type authenticator interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	VerifyToken(token string) (string, auth.Role, error)
}

type server struct {
	pipeline intakeRunner
	leads    leadReader
	auth     authenticator
	ready    func(ctx context.Context) error
	logger   *zap.Logger
}

func newServer(p intakeRunner, leads leadReader, a authenticator, ready func(ctx context.Context) error, logger *zap.Logger) *server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ready == nil {
		ready = func(ctx context.Context) error { return nil }
	}
	return &server{pipeline: p, leads: leads, auth: a, ready: ready, logger: logger}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.Handle("POST /api/leads/intake", s.requireAuth(s.handleIntake))
	mux.Handle("GET /api/leads", s.requireAuth(s.handleListLeads))
	mux.Handle("GET /api/leads/{id}", s.requireAuth(s.handleGetLead))
	mux.Handle("POST /api/leads/{id}/status", s.requireAuth(s.handleAdvanceStatus))
	mux.Handle("POST /api/agents/trigger", s.requireAuth(s.handleTrigger))

	return mux
}

// requireAuth checks the bearer token before handing off to the handler.
func (s *server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if _, _, err := s.auth.VerifyToken(token); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.ready(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.auth.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrDuplicateEmail):
			writeError(w, http.StatusConflict, err.Error())
		default:
			s.internalError(w, "register", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":        user.ID,
		"email":     user.Email,
		"full_name": user.FullName,
		"role":      user.Role,
	})
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.auth.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.internalError(w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": result.Token,
		"user": map[string]any{
			"id":        result.User.ID,
			"email":     result.User.Email,
			"full_name": result.User.FullName,
			"role":      result.User.Role,
		},
	})
}

type intakeRequest struct {
	CompanyName   string `json:"company_name"`
	ContactName   string `json:"contact_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Website       string `json:"website"`
	Industry      string `json:"industry"`
	EmployeeCount int    `json:"employee_count"`
	Title         string `json:"title"`
	Notes         string `json:"notes"`
	Source        string `json:"source"`
	SheetRow      int    `json:"sheet_row"`
}

func (s *server) handleIntake(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	outcome, err := s.pipeline.Process(r.Context(), lead.CreateParams{
		CompanyName:   req.CompanyName,
		ContactName:   req.ContactName,
		Email:         req.Email,
		Phone:         req.Phone,
		Website:       req.Website,
		Industry:      req.Industry,
		EmployeeCount: req.EmployeeCount,
		Title:         req.Title,
		Notes:         req.Notes,
		Source:        req.Source,
		SheetRow:      req.SheetRow,
	})
	if err != nil {
		if outcome.LeadID == "" {
			// Rejected before the lead existed: caller's fault.
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// The lead was created and classified; surface both the state and
		// the dispatch failure so the caller can re-trigger.
		s.logger.Error("intake dispatch failed", zap.String("lead_id", outcome.LeadID), zap.Error(err))
		writeJSON(w, http.StatusAccepted, map[string]any{
			"lead_id":        outcome.LeadID,
			"classification": classificationBody(outcome),
			"error":          "agent dispatch failed, re-trigger later",
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"lead_id":        outcome.LeadID,
		"classification": classificationBody(outcome),
		"agent_type":     outcome.AgentType,
		"dispatch":       dispatchBody(outcome.Dispatch),
	})
}

func (s *server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	detail, err := s.leads.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, lead.ErrNotFound) {
			writeError(w, http.StatusNotFound, "lead not found")
			return
		}
		s.internalError(w, "get lead", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lead_id":        detail.LeadID,
		"company_name":   detail.CompanyName,
		"website":        detail.Website,
		"industry":       detail.Industry,
		"employee_count": detail.EmployeeCount,
		"location":       detail.Location,
		"contact_name":   strings.TrimSpace(detail.FirstName + " " + detail.LastName),
		"email":          detail.Email,
		"phone":          detail.Phone,
		"title":          detail.Title,
		"track":          detail.Track,
		"status":         detail.Status,
		"priority":       detail.Priority,
		"notes":          detail.Notes,
		"sheet_row":      detail.SheetRow,
	})
}

func (s *server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := lead.Filters{
		Track:     lead.Track(q.Get("track")),
		Status:    lead.Status(q.Get("status")),
		Priority:  lead.Priority(q.Get("priority")),
		SortKey:   q.Get("sort"),
		SortOrder: q.Get("order"),
	}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PageSize, _ = strconv.Atoi(q.Get("page_size"))

	result, err := s.leads.List(r.Context(), filters)
	if err != nil {
		s.internalError(w, "list leads", err)
		return
	}

	items := make([]map[string]any, 0, len(result.Items))
	for _, l := range result.Items {
		items = append(items, map[string]any{
			"id":                        l.ID,
			"track":                     l.Track,
			"source":                    l.Source,
			"status":                    l.Status,
			"priority":                  l.Priority,
			"classification_confidence": l.ClassificationConfidence,
			"created_at":                l.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": result.Total})
}

func (s *server) handleAdvanceStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updated, err := s.leads.AdvanceStatus(r.Context(), r.PathValue("id"), lead.Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, lead.ErrNotFound):
			writeError(w, http.StatusNotFound, "lead not found")
		case errors.Is(err, lead.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		default:
			s.internalError(w, "advance status", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": updated.ID, "status": updated.Status})
}

type triggerRequest struct {
	AgentType string `json:"agent_type"`
	LeadID    string `json:"lead_id"`
	Action    string `json:"action"`
}

func (s *server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.LeadID == "" {
		writeError(w, http.StatusBadRequest, "lead_id is required")
		return
	}

	result, err := s.pipeline.Trigger(r.Context(), agent.Type(req.AgentType), req.LeadID, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, agent.ErrUnknownType):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, lead.ErrNotFound):
			writeError(w, http.StatusNotFound, "lead not found")
		default:
			s.internalError(w, "trigger agent", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, dispatchBody(result))
}

func classificationBody(o pipeline.Outcome) map[string]any {
	return map[string]any{
		"track":      o.Classification.Track,
		"confidence": o.Classification.Confidence,
		"priority":   o.Classification.Priority,
		"reasoning":  o.Classification.Reasoning,
	}
}

func dispatchBody(r agent.Result) map[string]any {
	return map[string]any{
		"summary":         r.Summary,
		"analysis":        r.Analysis,
		"recommendations": r.Recommendations,
		"confidence":      r.Confidence,
		"timestamp":       r.Timestamp,
	}
}

func (s *server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op+" failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
