package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"leadflow/agent"
	"leadflow/auth"
	"leadflow/classify"
	"leadflow/lead"
	"leadflow/pipeline"
)

type fakePipeline struct {
	outcome    pipeline.Outcome
	processErr error
	trigger    agent.Result
	triggerErr error
	action     string
}

func (f *fakePipeline) Process(ctx context.Context, params lead.CreateParams) (pipeline.Outcome, error) {
	return f.outcome, f.processErr
}

func (f *fakePipeline) Trigger(ctx context.Context, agentType agent.Type, leadID, action string) (agent.Result, error) {
	f.action = action
	return f.trigger, f.triggerErr
}

type fakeLeadReader struct {
	detail     lead.Detail
	getErr     error
	list       lead.ListResult
	filters    lead.Filters
	advanced   lead.Status
	advanceErr error
}

func (f *fakeLeadReader) Get(ctx context.Context, leadID string) (lead.Detail, error) {
	return f.detail, f.getErr
}

func (f *fakeLeadReader) List(ctx context.Context, filters lead.Filters) (lead.ListResult, error) {
	f.filters = filters
	return f.list, nil
}

func (f *fakeLeadReader) AdvanceStatus(ctx context.Context, leadID string, to lead.Status) (lead.Lead, error) {
	if f.advanceErr != nil {
		return lead.Lead{}, f.advanceErr
	}
	f.advanced = to
	return lead.Lead{ID: leadID, Status: to}, nil
}

type fakeAuth struct {
	user      auth.User
	loginErr  error
	verifyErr error
}

func (f *fakeAuth) Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error) {
	u := f.user
	return &u, nil
}

func (f *fakeAuth) Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error) {
	if f.loginErr != nil {
		return auth.LoginResult{}, f.loginErr
	}
	return auth.LoginResult{Token: "tok", User: f.user}, nil
}

func (f *fakeAuth) VerifyToken(token string) (string, auth.Role, error) {
	if f.verifyErr != nil {
		return "", "", f.verifyErr
	}
	return f.user.ID, f.user.Role, nil
}

func testServer(p *fakePipeline, leads *fakeLeadReader, a *fakeAuth) http.Handler {
	if p == nil {
		p = &fakePipeline{}
	}
	if leads == nil {
		leads = &fakeLeadReader{}
	}
	if a == nil {
		a = &fakeAuth{user: auth.User{ID: "u1", Role: auth.RoleOperator}}
	}
	return newServer(p, leads, a, nil, zap.NewNop()).routes()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authed {
		req.Header.Set("Authorization", "Bearer tok")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIntakeCreated(t *testing.T) {
	p := &fakePipeline{outcome: pipeline.Outcome{
		LeadID: "lead-1",
		Classification: classify.Result{
			Track:      lead.TrackEnterprise,
			Confidence: 0.9,
			Priority:   lead.PriorityHigh,
		},
		AgentType: agent.EnterpriseResearch,
		Dispatch:  agent.Result{Summary: "done"},
	}}
	h := testServer(p, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/leads/intake",
		`{"company_name":"Acme","contact_name":"Jo Smith","email":"a@acme.com"}`, true)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		LeadID         string `json:"lead_id"`
		AgentType      string `json:"agent_type"`
		Classification struct {
			Track string `json:"track"`
		} `json:"classification"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.LeadID != "lead-1" || body.AgentType != "enterprise_research" || body.Classification.Track != "enterprise" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestIntakeValidationError(t *testing.T) {
	p := &fakePipeline{processErr: errors.New("lead: company name is required")}
	h := testServer(p, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/leads/intake", `{}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestIntakeDispatchFailureReturnsAccepted(t *testing.T) {
	p := &fakePipeline{
		outcome: pipeline.Outcome{
			LeadID:         "lead-1",
			Classification: classify.Result{Track: lead.TrackSMB},
		},
		processErr: errors.New("pipeline: dispatch: upstream down"),
	}
	h := testServer(p, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/leads/intake",
		`{"company_name":"Acme","contact_name":"Jo","email":"a@acme.com"}`, true)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 when classification survived dispatch failure, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "lead-1") {
		t.Errorf("expected lead id in body: %s", rec.Body.String())
	}
}

func TestIntakeRequiresAuth(t *testing.T) {
	h := testServer(nil, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/leads/intake", `{}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestIntakeRejectsBadToken(t *testing.T) {
	a := &fakeAuth{verifyErr: auth.ErrInvalidToken}
	h := testServer(nil, nil, a)

	rec := doJSON(t, h, http.MethodPost, "/api/leads/intake", `{}`, true)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}
}

func TestGetLeadNotFound(t *testing.T) {
	leads := &fakeLeadReader{getErr: lead.ErrNotFound}
	h := testServer(nil, leads, nil)

	rec := doJSON(t, h, http.MethodGet, "/api/leads/missing", "", true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListLeadsParsesFilters(t *testing.T) {
	leads := &fakeLeadReader{list: lead.ListResult{Items: []lead.Lead{{ID: "lead-1"}}, Total: 1}}
	h := testServer(nil, leads, nil)

	rec := doJSON(t, h, http.MethodGet, "/api/leads?track=smb&status=classified&page=2&page_size=10", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if leads.filters.Track != lead.TrackSMB || leads.filters.Status != lead.StatusClassified {
		t.Errorf("unexpected filters %+v", leads.filters)
	}
	if leads.filters.Page != 2 || leads.filters.PageSize != 10 {
		t.Errorf("unexpected paging %+v", leads.filters)
	}
}

func TestAdvanceStatusConflict(t *testing.T) {
	leads := &fakeLeadReader{advanceErr: lead.ErrInvalidTransition}
	h := testServer(nil, leads, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/leads/lead-1/status", `{"status":"closed_won"}`, true)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for invalid transition, got %d", rec.Code)
	}
}

func TestTriggerDefaultsHandledDownstream(t *testing.T) {
	p := &fakePipeline{trigger: agent.Result{Summary: "content ready"}}
	h := testServer(p, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/agents/trigger",
		`{"agent_type":"enterprise_content","lead_id":"lead-1","action":"generate_content"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if p.action != "generate_content" {
		t.Errorf("expected action forwarded, got %q", p.action)
	}
}

func TestTriggerUnknownAgent(t *testing.T) {
	p := &fakePipeline{triggerErr: agent.ErrUnknownType}
	h := testServer(p, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/agents/trigger",
		`{"agent_type":"ghost_agent","lead_id":"lead-1"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown agent, got %d", rec.Code)
	}
}

func TestTriggerRequiresLeadID(t *testing.T) {
	h := testServer(nil, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/agents/trigger", `{"agent_type":"smb_local"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without lead_id, got %d", rec.Code)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	a := &fakeAuth{loginErr: auth.ErrInvalidCredentials}
	h := testServer(nil, nil, a)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", `{"email":"x@y.com","password":"nope"}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := testServer(nil, nil, nil)

	rec := doJSON(t, h, http.MethodGet, "/healthz", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
