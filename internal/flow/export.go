package flow

import (
	"context"
	"strconv"
	"strings"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/internal/reply"
	"github.com/littleseedlimited/caseview-bot/internal/service"
	"github.com/littleseedlimited/caseview-bot/internal/session"
	"github.com/littleseedlimited/caseview-bot/pkg/export"
)

func (e *Engine) startExport(ctx context.Context, acct *models.Account, sess *session.Session, ref string) reply.Message {
	c, err := e.resolveCase(ctx, acct, sess, ref)
	if err != nil {
		return e.failureReply(err, acct)
	}
	sess.CaseID = c.ID
	sess.Active = &session.ExportState{CaseID: c.ID, Step: session.ExportChooseFormat}
	e.sessions.Put(sess)
	return reply.Text("Which format would you like for " + c.RefCode + ": pdf or word?")
}

func (e *Engine) advanceExport(ctx context.Context, acct *models.Account, sess *session.Session, state *session.ExportState, text string) reply.Message {
	switch state.Step {
	case session.ExportChooseFormat:
		format, ok := export.ParseFormat(strings.TrimSpace(text))
		if !ok {
			return reply.Text("Please reply with pdf or word.")
		}
		state.Format = string(format)
		state.Step = session.ExportChooseWordCount
		e.sessions.Put(sess)
		return reply.Text("Roughly how many words should the document be? Reply with a number, or \"default\" for the full document.")

	case session.ExportChooseWordCount:
		wordLimit := 0
		answer := strings.ToLower(strings.TrimSpace(text))
		if answer != "default" && answer != "full" {
			n, err := strconv.Atoi(answer)
			if err != nil || n <= 0 {
				return reply.Text("Please reply with a number, or \"default\".")
			}
			wordLimit = n
		}

		format, _ := export.ParseFormat(state.Format)
		err := e.exports.Request(ctx, service.ExportRequest{
			AccountID:  acct.ID,
			PlatformID: acct.PlatformID,
			CaseID:     state.CaseID,
			Format:     format,
			Extent:     export.ExtentFull,
			WordLimit:  wordLimit,
		})
		if err != nil {
			return e.failureReply(err, acct)
		}
		e.toIdle(sess)
		e.metrics.CountWizardCompleted("export")
		return reply.Text("On it. I'll send you a download link as soon as the document is ready.")
	}

	return reply.Text("Please answer the question above, or send /cancel to stop.")
}
