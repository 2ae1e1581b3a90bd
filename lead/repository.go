package lead

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("lead: not found")
)

// Repository handles data access for companies, contacts and leads.
type Repository interface {
	GetOrCreateCompany(ctx context.Context, tx pgx.Tx, params CompanyParams) (Company, error)
	GetOrCreateContact(ctx context.Context, tx pgx.Tx, params ContactParams) (Contact, error)
	InsertLead(ctx context.Context, tx pgx.Tx, l Lead) (Lead, error)
	GetDetail(ctx context.Context, leadID string) (Detail, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, leadID string) (Lead, error)
	ApplyClassification(ctx context.Context, tx pgx.Tx, leadID string, track Track, priority Priority, confidence float64) (Lead, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, leadID string, status Status) (Lead, error)
	List(ctx context.Context, filters Filters) ([]Lead, int, error)
}

// CompanyParams contains the intake attributes used to match or create a
// company row.
type CompanyParams struct {
	Name          string
	Website       *string
	Industry      *string
	EmployeeCount *int
	Location      *string
}

// ContactParams contains the intake attributes used to match or create a
// contact row.
type ContactParams struct {
	CompanyID string
	FirstName string
	LastName  string
	Email     string
	Phone     *string
	Title     *string
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const companyColumns = `id, name, website, industry, employee_count, location, created_at, updated_at`

// GetOrCreateCompany matches an existing company by name, creating one when
// absent. Matching by name keeps repeated sheet submissions attached to the
// same company row.
func (r *PGRepository) GetOrCreateCompany(ctx context.Context, tx pgx.Tx, params CompanyParams) (Company, error) {
	row := tx.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE name = $1`, params.Name)
	company, err := scanCompany(row)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Company{}, fmt.Errorf("lead: lookup company: %w", err)
	}

	const insert = `
		INSERT INTO companies (name, website, industry, employee_count, location)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + companyColumns

	company, err = scanCompany(tx.QueryRow(ctx, insert,
		params.Name, params.Website, params.Industry, params.EmployeeCount, params.Location))
	if err != nil {
		return Company{}, fmt.Errorf("lead: create company: %w", err)
	}
	return company, nil
}

const contactColumns = `id, company_id, first_name, last_name, email, phone, title, created_at, updated_at`

// GetOrCreateContact matches an existing contact by email, creating one when
// absent.
func (r *PGRepository) GetOrCreateContact(ctx context.Context, tx pgx.Tx, params ContactParams) (Contact, error) {
	row := tx.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE email = $1`, params.Email)
	contact, err := scanContact(row)
	if err == nil {
		return contact, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, fmt.Errorf("lead: lookup contact: %w", err)
	}

	const insert = `
		INSERT INTO contacts (company_id, first_name, last_name, email, phone, title)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + contactColumns

	contact, err = scanContact(tx.QueryRow(ctx, insert,
		params.CompanyID, params.FirstName, params.LastName, params.Email, params.Phone, params.Title))
	if err != nil {
		return Contact{}, fmt.Errorf("lead: create contact: %w", err)
	}
	return contact, nil
}

const leadColumns = `id, company_id, contact_id, track, source, status, priority, classification_confidence, notes, sheet_row, created_at, updated_at`

func (r *PGRepository) InsertLead(ctx context.Context, tx pgx.Tx, l Lead) (Lead, error) {
	const insert = `
		INSERT INTO leads (id, company_id, contact_id, track, source, status, priority, notes, sheet_row)
		VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + leadColumns

	created, err := scanLead(tx.QueryRow(ctx, insert,
		l.ID, l.CompanyID, l.ContactID, l.Track, l.Source, l.Status, l.Priority, l.Notes, l.SheetRow))
	if err != nil {
		return Lead{}, fmt.Errorf("lead: insert: %w", err)
	}
	return created, nil
}

// GetDetail returns the lead joined with its company and contact.
func (r *PGRepository) GetDetail(ctx context.Context, leadID string) (Detail, error) {
	const query = `
		SELECT l.id, l.company_id, l.contact_id,
		       c.name, c.website, c.industry, c.employee_count, c.location,
		       ct.first_name, ct.last_name, ct.email, ct.phone, ct.title,
		       l.track, l.status, l.priority, l.notes, l.sheet_row
		FROM leads l
		JOIN companies c ON l.company_id = c.id
		JOIN contacts ct ON l.contact_id = ct.id
		WHERE l.id = $1
	`

	var d Detail
	err := r.pool.QueryRow(ctx, query, leadID).Scan(
		&d.LeadID, &d.CompanyID, &d.ContactID,
		&d.CompanyName, &d.Website, &d.Industry, &d.EmployeeCount, &d.Location,
		&d.FirstName, &d.LastName, &d.Email, &d.Phone, &d.Title,
		&d.Track, &d.Status, &d.Priority, &d.Notes, &d.SheetRow,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Detail{}, ErrNotFound
		}
		return Detail{}, fmt.Errorf("lead: get detail: %w", err)
	}
	return d, nil
}

func (r *PGRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, leadID string) (Lead, error) {
	const query = `SELECT ` + leadColumns + ` FROM leads WHERE id = $1 FOR UPDATE`

	l, err := scanLead(tx.QueryRow(ctx, query, leadID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, fmt.Errorf("lead: get for update: %w", err)
	}
	return l, nil
}

func (r *PGRepository) ApplyClassification(ctx context.Context, tx pgx.Tx, leadID string, track Track, priority Priority, confidence float64) (Lead, error) {
	const query = `
		UPDATE leads
		SET track = $2,
		    priority = $3,
		    classification_confidence = $4,
		    status = 'classified',
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING ` + leadColumns

	l, err := scanLead(tx.QueryRow(ctx, query, leadID, track, priority, confidence))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, fmt.Errorf("lead: apply classification: %w", err)
	}
	return l, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, leadID string, status Status) (Lead, error) {
	const query = `
		UPDATE leads
		SET status = $2,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING ` + leadColumns

	l, err := scanLead(tx.QueryRow(ctx, query, leadID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, fmt.Errorf("lead: update status: %w", err)
	}
	return l, nil
}

func (r *PGRepository) List(ctx context.Context, filters Filters) ([]Lead, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 200 {
		filters.PageSize = 50
	}
	if filters.SortKey == "" {
		filters.SortKey = "created_at"
	}
	if filters.SortOrder == "" {
		filters.SortOrder = "desc"
	}

	base := `SELECT ` + leadColumns + ` FROM leads`
	where := []string{"1=1"}
	args := []any{}

	if filters.Track != "" {
		where = append(where, fmt.Sprintf("track=$%d", len(args)+1))
		args = append(args, filters.Track)
	}
	if filters.Status != "" {
		where = append(where, fmt.Sprintf("status=$%d", len(args)+1))
		args = append(args, filters.Status)
	}
	if filters.Priority != "" {
		where = append(where, fmt.Sprintf("priority=$%d", len(args)+1))
		args = append(args, filters.Priority)
	}

	whereClause := " WHERE " + strings.Join(where, " AND ")

	sortKey := mapSortKey(filters.SortKey)
	sortOrder := strings.ToUpper(filters.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	limit := filters.PageSize
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`%s%s ORDER BY %s %s LIMIT %d OFFSET %d`, base, whereClause, sortKey, sortOrder, limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("lead: query list: %w", err)
	}
	defer rows.Close()

	list := []Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("lead: scan list: %w", err)
		}
		list = append(list, l)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leads%s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("lead: count list: %w", err)
	}

	return list, total, nil
}

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	return c, row.Scan(
		&c.ID,
		&c.Name,
		&c.Website,
		&c.Industry,
		&c.EmployeeCount,
		&c.Location,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	return c, row.Scan(
		&c.ID,
		&c.CompanyID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.Title,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	return l, row.Scan(
		&l.ID,
		&l.CompanyID,
		&l.ContactID,
		&l.Track,
		&l.Source,
		&l.Status,
		&l.Priority,
		&l.ClassificationConfidence,
		&l.Notes,
		&l.SheetRow,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
}

func mapSortKey(key string) string {
	switch key {
	case "priority":
		return "priority"
	case "track":
		return "track"
	case "status":
		return "status"
	case "confidence":
		return "classification_confidence"
	case "updatedAt":
		return "updated_at"
	case "createdAt":
		fallthrough
	default:
		return "created_at"
	}
}
