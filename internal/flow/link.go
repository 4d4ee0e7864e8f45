package flow

import (
	"context"
	"strings"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/internal/reply"
	"github.com/littleseedlimited/caseview-bot/internal/session"
)

func (e *Engine) startLink(ctx context.Context, acct *models.Account, sess *session.Session, ref string) reply.Message {
	c, err := e.resolveCase(ctx, acct, sess, ref)
	if err != nil {
		return e.failureReply(err, acct)
	}
	sess.CaseID = c.ID
	sess.Active = &session.LinkState{CaseID: c.ID}
	e.sessions.Put(sess)
	return reply.Text("Send me the link and I'll add its content to " + c.RefCode + ".")
}

func (e *Engine) ingestLink(ctx context.Context, acct *models.Account, sess *session.Session, state *session.LinkState, text string) reply.Message {
	url := strings.TrimSpace(text)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return reply.Text("That doesn't look like a link. Please send a full http(s) URL, or /cancel.")
	}

	content, err := e.links.Fetch(ctx, url)
	if err != nil {
		// Stay on this step; the user may retry with another URL.
		return reply.Text("I couldn't read that page. Try a different link, or /cancel.")
	}
	if err := e.cases.AppendMaterial(ctx, acct.ID, state.CaseID, "From "+url+":\n"+content); err != nil {
		return e.failureReply(err, acct)
	}

	e.toIdle(sess)
	e.metrics.CountWizardCompleted("link")
	return reply.Text("Added the page content to the case facts.")
}
