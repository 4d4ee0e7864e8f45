package flow

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/internal/reply"
	"github.com/littleseedlimited/caseview-bot/internal/session"
)

// editableFields maps the /edit argument onto a profile field.
var editableFields = map[string]string{
	"name":    "full name",
	"email":   "email address",
	"phone":   "phone number",
	"address": "office address",
	"job":     "job position",
}

func profileMessage(acct *models.Account) reply.Message {
	if !acct.Registered() {
		return reply.Text("You haven't signed up yet. Send /start to begin.")
	}
	verified := "no"
	if acct.Verified {
		verified = "yes"
	}
	lines := []string{
		"Your profile:",
		"Name: " + acct.FullName,
		"Email: " + acct.Email,
		"Phone: " + acct.Phone,
		"Address: " + acct.Address,
		"Position: " + acct.JobPosition,
		"Registration no: " + acct.RegNumber,
		"Plan: " + string(acct.Tier),
		"Verified: " + verified,
	}
	if acct.OrgCode != "" {
		lines = append(lines, "Organization code: "+acct.OrgCode)
	}
	lines = append(lines, "", "Send /edit name|email|phone|address|job to change a field.")
	return reply.Text(strings.Join(lines, "\n"))
}

func (e *Engine) startProfileEdit(sess *session.Session, field string) reply.Message {
	field = strings.ToLower(strings.TrimSpace(field))
	label, ok := editableFields[field]
	if !ok {
		return reply.Text("I can edit one of: name, email, phone, address, job. For example: /edit email")
	}
	sess.Active = &session.ProfileEditState{Field: field}
	e.sessions.Put(sess)
	return reply.Text(fmt.Sprintf("What should your %s be?", label))
}

func (e *Engine) commitProfileEdit(ctx context.Context, acct *models.Account, sess *session.Session, state *session.ProfileEditState, text string) reply.Message {
	switch state.Field {
	case "name":
		acct.FullName = text
	case "email":
		if err := validate.Var(text, "required,email"); err != nil {
			return reply.Text("That doesn't look like an email address. Please try again.")
		}
		acct.Email = text
	case "phone":
		acct.Phone = text
	case "address":
		acct.Address = text
	case "job":
		acct.JobPosition = text
	default:
		e.toIdle(sess)
		return reply.Text("That field can't be edited. Send /profile to see the editable ones.")
	}

	if err := e.accounts.Update(ctx, acct); err != nil {
		// The edit state stays active so the user can resend the value.
		e.logger.Error("profile edit persist failed", zap.String("account_id", acct.ID), zap.Error(err))
		return reply.Text("I couldn't save that just now. Please send the value again.")
	}

	e.toIdle(sess)
	e.metrics.CountWizardCompleted("profile_edit")
	return reply.Text("Saved.")
}
