package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	appErrors "github.com/littleseedlimited/caseview-bot/pkg/errors"
)

type quotaAccountRepo interface {
	UpdateUsage(ctx context.Context, id string, usageCount int, resetAt time.Time) error
}

// Reservation reports the outcome of a quota check.
type Reservation struct {
	Limit    int
	Used     int
	ResetsAt time.Time
	// NearingQuota is advisory: the post-increment usage crossed 80% of the
	// limit but is still under it. It never blocks.
	NearingQuota bool
}

// QuotaService enforces the monthly case quota per subscription tier. There
// is no separate reset job: the check itself resets the counter on the first
// touch after a calendar-month rollover.
type QuotaService struct {
	repo   quotaAccountRepo
	logger *zap.Logger
	now    func() time.Time
}

// NewQuotaService creates an instance of QuotaService.
func NewQuotaService(repo quotaAccountRepo, logger *zap.Logger) *QuotaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuotaService{repo: repo, logger: logger, now: time.Now}
}

// CheckAndReserve consumes one unit of the account's monthly case quota, or
// fails with ErrQuotaExceeded without consuming anything.
//
// The increment is committed before the caller persists the case. If that
// later persistence fails, the unit is NOT refunded: a failed creation can
// charge quota. That at-least-once-charged semantic is accepted, not a bug.
func (s *QuotaService) CheckAndReserve(ctx context.Context, acct *models.Account) (Reservation, error) {
	now := s.now().UTC()
	if acct.UsageResetAt.UTC().Month() != now.Month() || acct.UsageResetAt.UTC().Year() != now.Year() {
		acct.UsageCount = 0
		acct.UsageResetAt = now
	}

	limits := models.LimitsFor(acct.Tier)
	resetsAt := nextMonthStart(now)

	if acct.UsageCount >= limits.MonthlyCases {
		return Reservation{Limit: limits.MonthlyCases, Used: acct.UsageCount, ResetsAt: resetsAt},
			appErrors.Clone(appErrors.ErrQuotaExceeded, fmt.Sprintf("monthly limit of %d cases reached", limits.MonthlyCases))
	}

	acct.UsageCount++
	if err := s.repo.UpdateUsage(ctx, acct.ID, acct.UsageCount, acct.UsageResetAt); err != nil {
		acct.UsageCount--
		return Reservation{}, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to record quota usage")
	}

	res := Reservation{Limit: limits.MonthlyCases, Used: acct.UsageCount, ResetsAt: resetsAt}
	if acct.UsageCount < limits.MonthlyCases && acct.UsageCount*5 >= limits.MonthlyCases*4 {
		res.NearingQuota = true
		s.logger.Info("account nearing monthly quota",
			zap.String("account_id", acct.ID),
			zap.Int("used", acct.UsageCount),
			zap.Int("limit", limits.MonthlyCases))
	}
	return res, nil
}

func nextMonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
