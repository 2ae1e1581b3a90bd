package lead

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TxBeginner abstracts pool.Begin so the service can be unit tested without a
// live database.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service handles lead intake and lifecycle.
type Service struct {
	pool        TxBeginner
	repo        Repository
	idGenerator func() string
	now         func() time.Time
}

// CreateParams is the validated intake payload.
type CreateParams struct {
	CompanyName   string
	ContactName   string
	Email         string
	Phone         string
	Website       string
	Industry      string
	EmployeeCount int
	Title         string
	Notes         string
	Source        string
	SheetRow      int
}

// Created reports the rows touched by one intake call. Company and contact
// ids may refer to pre-existing rows.
type Created struct {
	LeadID    string
	CompanyID string
	ContactID string
}

type ListResult struct {
	Items []Lead
	Total int
}

func NewService(pool TxBeginner, repo Repository) *Service {
	return &Service{
		pool:        pool,
		repo:        repo,
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
	}
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create validates the intake payload and creates the lead, reusing the
// company (by name) and contact (by email) when they already exist. All three
// writes share one transaction.
func (s *Service) Create(ctx context.Context, params CreateParams) (Created, error) {
	companyName := strings.TrimSpace(params.CompanyName)
	contactName := strings.TrimSpace(params.ContactName)
	email := strings.TrimSpace(params.Email)

	if companyName == "" {
		return Created{}, fmt.Errorf("lead: company name required")
	}
	if contactName == "" {
		return Created{}, fmt.Errorf("lead: contact name required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return Created{}, fmt.Errorf("lead: valid contact email required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Created{}, fmt.Errorf("lead: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	company, err := s.repo.GetOrCreateCompany(ctx, tx, CompanyParams{
		Name:          companyName,
		Website:       nullable(params.Website),
		Industry:      nullable(params.Industry),
		EmployeeCount: nullableInt(params.EmployeeCount),
	})
	if err != nil {
		return Created{}, err
	}

	firstName, lastName := splitName(contactName)
	contact, err := s.repo.GetOrCreateContact(ctx, tx, ContactParams{
		CompanyID: company.ID,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Phone:     nullable(params.Phone),
		Title:     nullable(params.Title),
	})
	if err != nil {
		return Created{}, err
	}

	source := params.Source
	if source == "" {
		source = "api_intake"
	}

	created, err := s.repo.InsertLead(ctx, tx, Lead{
		ID:        s.idGenerator(),
		CompanyID: company.ID,
		ContactID: contact.ID,
		Track:     TrackUnclassified,
		Source:    source,
		Status:    StatusNew,
		Priority:  PriorityMedium,
		Notes:     nullable(params.Notes),
		SheetRow:  nullableInt(params.SheetRow),
	})
	if err != nil {
		return Created{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Created{}, fmt.Errorf("lead: commit tx: %w", err)
	}

	return Created{
		LeadID:    created.ID,
		CompanyID: company.ID,
		ContactID: contact.ID,
	}, nil
}

// ApplyClassification records a classifier decision onto the lead and moves
// it to the classified status. Valid from new (first classification) or
// classified (re-run).
func (s *Service) ApplyClassification(ctx context.Context, leadID string, track Track, priority Priority, confidence float64) (Lead, error) {
	if leadID == "" {
		return Lead{}, fmt.Errorf("lead: missing lead id")
	}
	if track != TrackEnterprise && track != TrackSMB {
		return Lead{}, fmt.Errorf("lead: cannot classify to track %q", track)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Lead{}, fmt.Errorf("lead: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := s.repo.GetForUpdate(ctx, tx, leadID)
	if err != nil {
		return Lead{}, err
	}
	if current.Status != StatusNew && !CanTransition(current.Status, StatusClassified) {
		return Lead{}, ErrInvalidTransition
	}

	updated, err := s.repo.ApplyClassification(ctx, tx, leadID, track, priority, confidence)
	if err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, fmt.Errorf("lead: commit classification: %w", err)
	}

	return updated, nil
}

// AdvanceStatus moves the lead along the lifecycle table, rejecting moves the
// state machine does not allow.
func (s *Service) AdvanceStatus(ctx context.Context, leadID string, to Status) (Lead, error) {
	if leadID == "" {
		return Lead{}, fmt.Errorf("lead: missing lead id")
	}
	if !isValidStatus(to) {
		return Lead{}, fmt.Errorf("lead: unknown status %q", to)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Lead{}, fmt.Errorf("lead: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := s.repo.GetForUpdate(ctx, tx, leadID)
	if err != nil {
		return Lead{}, err
	}
	if !CanTransition(current.Status, to) {
		return Lead{}, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, tx, leadID, to)
	if err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, fmt.Errorf("lead: commit status: %w", err)
	}

	return updated, nil
}

// Get returns the joined lead detail used for prompt building.
func (s *Service) Get(ctx context.Context, leadID string) (Detail, error) {
	return s.repo.GetDetail(ctx, leadID)
}

// List returns leads matching the filters with a total count.
func (s *Service) List(ctx context.Context, filters Filters) (ListResult, error) {
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

// splitName breaks a free-form contact name into first and last on the first
// space. A single token becomes the first name with an empty last name.
func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func nullable(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func nullableInt(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}
