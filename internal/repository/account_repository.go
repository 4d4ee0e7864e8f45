package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/littleseedlimited/caseview-bot/internal/models"
)

const accountColumns = `id, platform_id, account_type, full_name, email, phone, address, job_position, reg_number, org_code, firm_name, firm_state, branch_name, approval, tier, usage_count, usage_reset_at, verified, banned, team_owner_id, created_at, updated_at`

// AccountRepository provides database access for bot accounts.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new instance of AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByPlatformID returns the account owning a platform identity.
func (r *AccountRepository) FindByPlatformID(ctx context.Context, platformID int64) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE platform_id = $1 LIMIT 1`, accountColumns)
	var acct models.Account
	if err := r.db.GetContext(ctx, &acct, query, platformID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find account by platform id: %w", err)
	}
	return &acct, nil
}

// FindByID returns an account by identifier.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE id = $1 LIMIT 1`, accountColumns)
	var acct models.Account
	if err := r.db.GetContext(ctx, &acct, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return &acct, nil
}

// FindByOrgCode returns the team-owning account carrying an organization code.
func (r *AccountRepository) FindByOrgCode(ctx context.Context, orgCode string) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE org_code = $1 AND team_owner_id IS NULL LIMIT 1`, accountColumns)
	var acct models.Account
	if err := r.db.GetContext(ctx, &acct, query, orgCode); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find account by org code: %w", err)
	}
	return &acct, nil
}

// FindOrCreateByPlatformID resolves an account for an inbound platform
// identity, creating a blank Free-tier record on first contact. The upsert
// keeps concurrent first messages from racing two inserts.
func (r *AccountRepository) FindOrCreateByPlatformID(ctx context.Context, platformID int64) (*models.Account, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO accounts (id, platform_id, account_type, approval, tier, usage_count, usage_reset_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $6, $6)
		ON CONFLICT (platform_id) DO UPDATE SET updated_at = EXCLUDED.updated_at
		RETURNING %s`, accountColumns)
	var acct models.Account
	err := r.db.GetContext(ctx, &acct, query,
		uuid.NewString(), platformID, string(models.AccountIndividual),
		string(models.ApprovalApproved), string(models.PlanFree), now)
	if err != nil {
		return nil, fmt.Errorf("find or create account: %w", err)
	}
	return &acct, nil
}

// Update persists the mutable profile and status fields of an account.
func (r *AccountRepository) Update(ctx context.Context, acct *models.Account) error {
	acct.UpdatedAt = time.Now().UTC()
	const query = `UPDATE accounts SET account_type = :account_type, full_name = :full_name, email = :email, phone = :phone, address = :address, job_position = :job_position, reg_number = :reg_number, org_code = :org_code, firm_name = :firm_name, firm_state = :firm_state, branch_name = :branch_name, approval = :approval, tier = :tier, verified = :verified, banned = :banned, team_owner_id = :team_owner_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, acct); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

// UpdateUsage persists the usage counter and its reset timestamp.
func (r *AccountRepository) UpdateUsage(ctx context.Context, id string, usageCount int, resetAt time.Time) error {
	const query = `UPDATE accounts SET usage_count = $2, usage_reset_at = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, usageCount, resetAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("update account usage: %w", err)
	}
	return nil
}

// CountTeamMembers returns how many accounts point at the given owner.
func (r *AccountRepository) CountTeamMembers(ctx context.Context, ownerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM accounts WHERE team_owner_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, ownerID); err != nil {
		return 0, fmt.Errorf("count team members: %w", err)
	}
	return count, nil
}
