package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/internal/reply"
	"github.com/littleseedlimited/caseview-bot/internal/session"
)

// armDelete is step one of two: nothing is removed until the user confirms.
func (e *Engine) armDelete(ctx context.Context, acct *models.Account, sess *session.Session, ref string) reply.Message {
	c, err := e.resolveCase(ctx, acct, sess, ref)
	if err != nil {
		return e.failureReply(err, acct)
	}
	sess.CaseID = c.ID
	sess.Active = &session.DeleteState{CaseID: c.ID}
	e.sessions.Put(sess)
	return reply.Text(fmt.Sprintf("Delete case %s (%s) permanently? This cannot be undone. Reply \"yes\" to confirm, anything else cancels.", c.RefCode, c.Title)).
		WithButtons(reply.Button{Label: "Yes, delete it", Action: reply.ActionConfirmDelete, CaseID: c.ID})
}

func (e *Engine) confirmDelete(ctx context.Context, acct *models.Account, sess *session.Session, state *session.DeleteState, text string) reply.Message {
	answer := strings.ToLower(strings.TrimSpace(text))
	if answer != "yes" && answer != "confirm" {
		e.toIdle(sess)
		return reply.Text("Okay, the case stays.")
	}

	if err := e.cases.Delete(ctx, acct.ID, state.CaseID); err != nil {
		e.toIdle(sess)
		return e.failureReply(err, acct)
	}
	if sess.CaseID == state.CaseID {
		sess.CaseID = ""
	}
	e.toIdle(sess)
	e.metrics.CountWizardCompleted("delete")
	return reply.Text("The case has been deleted.")
}
