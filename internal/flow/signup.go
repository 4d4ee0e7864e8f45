package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/internal/reply"
	"github.com/littleseedlimited/caseview-bot/internal/session"
)

var validate = validator.New()

func (e *Engine) startSignupOrWelcome(acct *models.Account, sess *session.Session) reply.Message {
	if acct.Registered() {
		if gate := e.approvalGate(acct); gate != nil {
			return *gate
		}
		return reply.Text(fmt.Sprintf("Welcome back, %s. Send /newcase to describe a new matter or /cases to see your existing ones.", acct.FullName))
	}
	sess.Active = &session.SignupState{Step: session.SignupAccountType}
	e.sessions.Put(sess)
	return reply.Text("Welcome to CaseView. Are you registering as an individual lawyer, a law firm, or a bar association branch? Reply with one of: individual, firm, bar.")
}

func (e *Engine) advanceSignup(ctx context.Context, acct *models.Account, sess *session.Session, state *session.SignupState, text string) reply.Message {
	switch state.Step {
	case session.SignupAccountType:
		switch strings.ToLower(text) {
		case "individual":
			state.AccountType = string(models.AccountIndividual)
			state.Step = session.SignupFullName
			e.sessions.Put(sess)
			return reply.Text("What is your full name?")
		case "firm":
			state.AccountType = string(models.AccountFirm)
			state.Step = session.SignupFirmName
			e.sessions.Put(sess)
			return reply.Text("What is the firm's registered name?")
		case "bar":
			state.AccountType = string(models.AccountBar)
			state.Step = session.SignupBranchName
			e.sessions.Put(sess)
			return reply.Text("Which bar association branch are you registering for?")
		default:
			return reply.Text("Please reply with one of: individual, firm, bar.")
		}

	case session.SignupFirmName:
		state.FirmName = text
		state.Step = session.SignupFirmState
		e.sessions.Put(sess)
		return reply.Text("In which state is the firm registered?")

	case session.SignupFirmState:
		state.FirmState = text
		state.Step = session.SignupFullName
		e.sessions.Put(sess)
		return reply.Text("What is your full name?")

	case session.SignupBranchName:
		state.BranchName = text
		state.Step = session.SignupFullName
		e.sessions.Put(sess)
		return reply.Text("What is your full name?")

	case session.SignupFullName:
		state.FullName = text
		state.Step = session.SignupEmail
		e.sessions.Put(sess)
		return reply.Text("What email address should we use?")

	case session.SignupEmail:
		if err := validate.Var(text, "required,email"); err != nil {
			return reply.Text("That doesn't look like an email address. Please try again.")
		}
		state.Email = text
		state.Step = session.SignupPhone
		e.sessions.Put(sess)
		return reply.Text("What is your phone number?")

	case session.SignupPhone:
		state.Phone = text
		state.Step = session.SignupAddress
		e.sessions.Put(sess)
		return reply.Text("What is your office address?")

	case session.SignupAddress:
		state.Address = text
		state.Step = session.SignupJob
		e.sessions.Put(sess)
		return reply.Text("What is your job position?")

	case session.SignupJob:
		state.Job = text
		state.Step = session.SignupRegNumber
		e.sessions.Put(sess)
		return reply.Text("Finally, what is your practice registration number?")

	case session.SignupRegNumber:
		return e.finishSignup(ctx, acct, sess, state, text)
	}

	return reply.Text("Please answer the question above, or send /cancel to stop.")
}

func (e *Engine) finishSignup(ctx context.Context, acct *models.Account, sess *session.Session, state *session.SignupState, regNumber string) reply.Message {
	acct.Type = models.AccountType(state.AccountType)
	acct.FullName = state.FullName
	acct.Email = state.Email
	acct.Phone = state.Phone
	acct.Address = state.Address
	acct.JobPosition = state.Job
	acct.RegNumber = regNumber

	switch acct.Type {
	case models.AccountIndividual:
		acct.Approval = models.ApprovalApproved
	default:
		// Firm and bar accounts wait for admin review.
		acct.Approval = models.ApprovalPending
	}
	if state.FirmName != "" {
		acct.FirmName = &state.FirmName
	}
	if state.FirmState != "" {
		acct.FirmState = &state.FirmState
	}
	if state.BranchName != "" {
		acct.BranchName = &state.BranchName
	}
	if acct.Type != models.AccountIndividual && acct.OrgCode == "" {
		acct.OrgCode = orgCodeFromName(firstNonEmpty(state.FirmName, state.BranchName, state.FullName))
	}
	if acct.UsageResetAt.IsZero() {
		acct.UsageResetAt = time.Now().UTC()
	}

	if err := e.accounts.Update(ctx, acct); err != nil {
		// Session answers are kept so the user can just resend the number.
		e.logger.Error("signup persist failed", zap.String("account_id", acct.ID), zap.Error(err))
		return reply.Text("I couldn't save your profile just now. Please resend your registration number in a moment.")
	}

	e.toIdle(sess)
	e.metrics.CountWizardCompleted("signup")

	if acct.Approval == models.ApprovalPending {
		return reply.Text(fmt.Sprintf("Thanks, %s. Your organization account is registered and awaiting approval. You will be notified once it is reviewed.", acct.FullName))
	}
	return reply.Text(fmt.Sprintf("You're all set, %s. Send /newcase to describe your first matter, or just send me a document.", acct.FullName))
}

// orgCodeFromName derives a short uppercase prefix from the organization
// name, used in case reference codes.
func orgCodeFromName(name string) string {
	var letters []rune
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
			if r >= 'A' && r <= 'Z' {
				letters = append(letters, r)
			}
			break
		}
	}
	if len(letters) >= 2 {
		if len(letters) > 4 {
			letters = letters[:4]
		}
		return string(letters)
	}
	upper := strings.ToUpper(strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, name))
	if len(upper) > 3 {
		upper = upper[:3]
	}
	return upper
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
