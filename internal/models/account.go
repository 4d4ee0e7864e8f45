package models

import "time"

// AccountType classifies who registered the account.
type AccountType string

const (
	AccountIndividual AccountType = "INDIVIDUAL"
	AccountFirm       AccountType = "FIRM"
	AccountBar        AccountType = "BAR"
)

// ApprovalStatus gates firm and bar accounts behind admin review.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
)

// Account represents a registered user of the bot, stored in the accounts table.
type Account struct {
	ID         string      `db:"id" json:"id"`
	PlatformID int64       `db:"platform_id" json:"platform_id"`
	Type       AccountType `db:"account_type" json:"account_type"`

	FullName    string  `db:"full_name" json:"full_name"`
	Email       string  `db:"email" json:"email"`
	Phone       string  `db:"phone" json:"phone"`
	Address     string  `db:"address" json:"address"`
	JobPosition string  `db:"job_position" json:"job_position"`
	RegNumber   string  `db:"reg_number" json:"reg_number"`
	OrgCode     string  `db:"org_code" json:"org_code"`
	FirmName    *string `db:"firm_name" json:"firm_name,omitempty"`
	FirmState   *string `db:"firm_state" json:"firm_state,omitempty"`
	BranchName  *string `db:"branch_name" json:"branch_name,omitempty"`

	Approval ApprovalStatus `db:"approval" json:"approval"`
	Tier     PlanTier       `db:"tier" json:"tier"`

	// UsageCount is only meaningful within the month of UsageResetAt; the
	// quota check resets it on the first touch after a month rollover.
	UsageCount   int       `db:"usage_count" json:"usage_count"`
	UsageResetAt time.Time `db:"usage_reset_at" json:"usage_reset_at"`

	Verified    bool    `db:"verified" json:"verified"`
	Banned      bool    `db:"banned" json:"banned"`
	TeamOwnerID *string `db:"team_owner_id" json:"team_owner_id,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Registered reports whether signup ever completed for this account.
func (a *Account) Registered() bool {
	return a.FullName != ""
}
