package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/internal/payment"
	"github.com/littleseedlimited/caseview-bot/internal/reply"
)

func (e *Engine) joinTeam(ctx context.Context, acct *models.Account, orgCode string) reply.Message {
	orgCode = strings.ToUpper(strings.TrimSpace(orgCode))
	if orgCode == "" {
		return reply.Text("Send the team's organization code, like: /jointeam ABC")
	}
	owner, err := e.teams.Join(ctx, acct, orgCode)
	if err != nil {
		return e.failureReply(err, acct)
	}
	ownerName := owner.FullName
	if owner.FirmName != nil && *owner.FirmName != "" {
		ownerName = *owner.FirmName
	}
	return reply.Text(fmt.Sprintf("You've joined %s's team. Your cases now share the %s reference series.", ownerName, owner.OrgCode))
}

func (e *Engine) leaveTeam(ctx context.Context, acct *models.Account) reply.Message {
	if err := e.teams.Leave(ctx, acct); err != nil {
		return e.failureReply(err, acct)
	}
	return reply.Text("You've left the team.")
}

func (e *Engine) startUpgrade(ctx context.Context, acct *models.Account, plan string) reply.Message {
	tier, ok := models.ParsePlanTier(strings.TrimSpace(plan))
	if !ok || tier == models.PlanFree {
		return reply.Text("Which plan would you like? Send /upgrade pro, /upgrade firm or /upgrade bar.")
	}
	if tier == acct.Tier {
		return reply.Text("You're already on that plan.")
	}

	limits := models.LimitsFor(tier)
	url, err := e.payments.Initialize(ctx, payment.InitRequest{
		Email:       acct.Email,
		AmountMinor: limits.PriceMinor,
		Plan:        string(tier),
		AccountRef:  acct.ID,
	})
	if err != nil {
		return e.failureReply(err, acct)
	}
	return reply.Text(fmt.Sprintf("To upgrade to %s, complete the payment here:\n%s\n\nYour plan updates automatically once payment is confirmed.", tier, url))
}
