package flow

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/internal/reply"
	"github.com/littleseedlimited/caseview-bot/internal/session"
)

// startVerification shows a random 8-digit code and waits for it to be
// echoed back. The code travels in the same channel, so this is
// trust-on-first-use, not an out-of-band identity proof.
func (e *Engine) startVerification(acct *models.Account, sess *session.Session) reply.Message {
	if !acct.Registered() {
		return reply.Text("Please finish signing up first. Send /start to begin.")
	}
	if acct.Verified {
		return reply.Text("Your account is already verified.")
	}

	code, err := verificationCode()
	if err != nil {
		e.logger.Error("verification code generation failed", zap.Error(err))
		return reply.Text("Something went wrong on our side. Please try again in a moment.")
	}
	sess.Active = &session.VerifyState{Code: code}
	e.sessions.Put(sess)
	return reply.Text(fmt.Sprintf("Your verification code is %s. Type it back exactly to confirm.", code))
}

func (e *Engine) checkVerification(ctx context.Context, acct *models.Account, sess *session.Session, state *session.VerifyState, text string) reply.Message {
	if strings.TrimSpace(text) == state.Code {
		acct.Verified = true
		if err := e.accounts.Update(ctx, acct); err != nil {
			e.logger.Error("verification persist failed", zap.String("account_id", acct.ID), zap.Error(err))
			return reply.Text("I couldn't save that just now. Please type the code again.")
		}
		e.toIdle(sess)
		e.metrics.CountWizardCompleted("verify")
		return reply.Text("Verified. Thanks!")
	}

	state.Attempts++
	if state.Attempts >= session.MaxVerifyAttempts {
		e.toIdle(sess)
		return reply.Text("That code didn't match three times, so I've cancelled verification. Send /verify to get a fresh code.")
	}
	e.sessions.Put(sess)
	return reply.Text(fmt.Sprintf("That doesn't match. %d attempt(s) left.", session.MaxVerifyAttempts-state.Attempts))
}

func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%08d", n.Int64()), nil
}
