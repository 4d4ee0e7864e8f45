package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/littleseedlimited/caseview-bot/internal/models"
)

// The JSON columns are nullable; COALESCE keeps them scannable into
// json.RawMessage for rows written before Create defaulted them.
const caseColumns = `id, account_id, ref_code, title, description, COALESCE(analysis, '{}') AS analysis, COALESCE(scenario, '{}') AS scenario, COALESCE(qa_log, '[]') AS qa_log, status, created_at, updated_at`

// CaseRepository provides database access for case matters.
type CaseRepository struct {
	db *sqlx.DB
}

// NewCaseRepository creates a new instance of CaseRepository.
func NewCaseRepository(db *sqlx.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// Create inserts a new case row.
func (r *CaseRepository) Create(ctx context.Context, c *models.Case) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = models.CaseOpen
	}
	if len(c.Analysis) == 0 {
		c.Analysis = json.RawMessage(`{}`)
	}
	if len(c.Scenario) == 0 {
		c.Scenario = json.RawMessage(`{}`)
	}
	if len(c.QALog) == 0 {
		c.QALog = json.RawMessage(`[]`)
	}

	const query = `INSERT INTO cases (id, account_id, ref_code, title, description, analysis, scenario, qa_log, status, created_at, updated_at) VALUES (:id, :account_id, :ref_code, :title, :description, :analysis, :scenario, :qa_log, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("create case: %w", err)
	}
	return nil
}

// FindByID returns a case by identifier.
func (r *CaseRepository) FindByID(ctx context.Context, id string) (*models.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE id = $1 LIMIT 1`, caseColumns)
	var c models.Case
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find case by id: %w", err)
	}
	return &c, nil
}

// FindByRef returns an account's case by its reference code. Reference codes
// are only unique within one organization prefix, so the owner scopes the
// lookup.
func (r *CaseRepository) FindByRef(ctx context.Context, accountID, refCode string) (*models.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE account_id = $1 AND ref_code = $2 LIMIT 1`, caseColumns)
	var c models.Case
	if err := r.db.GetContext(ctx, &c, query, accountID, refCode); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find case by ref: %w", err)
	}
	return &c, nil
}

// ListByAccount returns an account's cases in creation order.
func (r *CaseRepository) ListByAccount(ctx context.Context, accountID string) ([]models.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE account_id = $1 ORDER BY created_at ASC`, caseColumns)
	var cases []models.Case
	if err := r.db.SelectContext(ctx, &cases, query, accountID); err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return cases, nil
}

// CountByAccount returns how many cases an account has created.
func (r *CaseRepository) CountByAccount(ctx context.Context, accountID string) (int, error) {
	const query = `SELECT COUNT(*) FROM cases WHERE account_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, accountID); err != nil {
		return 0, fmt.Errorf("count cases by account: %w", err)
	}
	return count, nil
}

// CountByOrg returns how many cases exist under an organization code,
// spanning the owner and all team members.
func (r *CaseRepository) CountByOrg(ctx context.Context, orgCode string) (int, error) {
	const query = `SELECT COUNT(*) FROM cases c JOIN accounts a ON a.id = c.account_id WHERE a.org_code = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, orgCode); err != nil {
		return 0, fmt.Errorf("count cases by org: %w", err)
	}
	return count, nil
}

// UpdateQALog replaces the serialized question/answer log.
func (r *CaseRepository) UpdateQALog(ctx context.Context, id string, log json.RawMessage) error {
	const query = `UPDATE cases SET qa_log = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, log, time.Now().UTC()); err != nil {
		return fmt.Errorf("update case qa log: %w", err)
	}
	return nil
}

// UpdateScenario replaces the serialized scenario blob.
func (r *CaseRepository) UpdateScenario(ctx context.Context, id string, scenario json.RawMessage) error {
	const query = `UPDATE cases SET scenario = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, scenario, time.Now().UTC()); err != nil {
		return fmt.Errorf("update case scenario: %w", err)
	}
	return nil
}

// UpdateDescription replaces the stored facts text.
func (r *CaseRepository) UpdateDescription(ctx context.Context, id, description string) error {
	const query = `UPDATE cases SET description = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, description, time.Now().UTC()); err != nil {
		return fmt.Errorf("update case description: %w", err)
	}
	return nil
}

// UpdateStatus moves a case between Open and Closed.
func (r *CaseRepository) UpdateStatus(ctx context.Context, id string, status models.CaseStatus) error {
	const query = `UPDATE cases SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, string(status), time.Now().UTC()); err != nil {
		return fmt.Errorf("update case status: %w", err)
	}
	return nil
}

// Delete removes a case row permanently.
func (r *CaseRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM cases WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	return nil
}
