package flow

import (
	"context"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/internal/reply"
	"github.com/littleseedlimited/caseview-bot/internal/session"
	appErrors "github.com/littleseedlimited/caseview-bot/pkg/errors"
)

func (e *Engine) startAsk(ctx context.Context, acct *models.Account, sess *session.Session, ref string) reply.Message {
	c, err := e.resolveCase(ctx, acct, sess, ref)
	if err != nil {
		return e.failureReply(err, acct)
	}
	sess.CaseID = c.ID
	sess.Active = &session.AskState{CaseID: c.ID}
	e.sessions.Put(sess)
	return reply.Text("Ask me anything about " + c.RefCode + ". Every message is a new question; send /done when you're finished.")
}

// answerQuestion is the one re-entrant step: the session stays in the ask
// loop after every answer until the user ends it explicitly.
func (e *Engine) answerQuestion(ctx context.Context, acct *models.Account, sess *session.Session, state *session.AskState, text string) reply.Message {
	answer, err := e.cases.Ask(ctx, acct.ID, state.CaseID, text)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrAnalysisFailed) {
			// A dead model would trap the user in the loop, so drop to idle.
			e.toIdle(sess)
		}
		return e.failureReply(err, acct)
	}
	return reply.Text(answer)
}
