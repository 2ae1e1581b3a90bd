package agent

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"leadflow/test/infra"
)

// TestActivityAppend_Integration verifies the append-only audit trail against
// a real PostgreSQL. Same gating as the lead repository integration test.
func TestActivityAppend_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" && os.Getenv("RUN_INTEGRATION_TESTS") == "" {
		t.Skip("set DATABASE_URL or RUN_INTEGRATION_TESTS=1 to run integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgC, dsn, err := infra.StartPostgres16(ctx, dsn)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	pool, err := infra.ApplyMigrations(ctx, dsn)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()

	// Seed the rows the lead foreign key needs.
	suffix := time.Now().UnixNano()
	var companyID, contactID, leadID string
	if err := pool.QueryRow(ctx, `INSERT INTO companies (name) VALUES ($1) RETURNING id`,
		fmt.Sprintf("Initech %d", suffix)).Scan(&companyID); err != nil {
		t.Fatalf("seed company: %v", err)
	}
	if err := pool.QueryRow(ctx, `INSERT INTO contacts (company_id, first_name, email) VALUES ($1, 'Sam', $2) RETURNING id`,
		companyID, fmt.Sprintf("sam+%d@initech.example", suffix)).Scan(&contactID); err != nil {
		t.Fatalf("seed contact: %v", err)
	}
	if err := pool.QueryRow(ctx, `INSERT INTO leads (company_id, contact_id) VALUES ($1, $2) RETURNING id`,
		companyID, contactID).Scan(&leadID); err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	t.Cleanup(func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel2()
		pool.Exec(ctx2, `DELETE FROM agent_activities WHERE lead_id = $1`, leadID)
		pool.Exec(ctx2, `DELETE FROM leads WHERE id = $1`, leadID)
		pool.Exec(ctx2, `DELETE FROM contacts WHERE id = $1`, contactID)
		pool.Exec(ctx2, `DELETE FROM companies WHERE id = $1`, companyID)
	})

	repo := NewActivityRepository(pool)

	first, err := repo.Append(ctx, Activity{
		LeadID:       leadID,
		ActivityType: "enterprise_research_process_lead",
		Description:  "enterprise_research analysis completed",
		OutputData:   map[string]any{"summary": "done", "confidence": 0.85},
		Status:       ActivitySuccess,
		DurationMs:   250,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Errorf("expected generated id and timestamp, got %+v", first)
	}

	if _, err := repo.Append(ctx, Activity{
		LeadID:       leadID,
		ActivityType: "enterprise_content_generate_content",
		Description:  "enterprise_content failed",
		OutputData:   map[string]any{"error": "upstream down"},
		Status:       ActivityError,
	}); err != nil {
		t.Fatalf("append error activity: %v", err)
	}

	list, err := repo.ListByLead(ctx, leadID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(list))
	}
	if list[0].ActivityType != "enterprise_research_process_lead" {
		t.Errorf("expected insert-order listing, got %q first", list[0].ActivityType)
	}
	if got := list[0].OutputData["summary"]; got != "done" {
		t.Errorf("expected jsonb round trip, got %v", got)
	}
	if list[1].Status != ActivityError {
		t.Errorf("expected error status preserved, got %q", list[1].Status)
	}
}
