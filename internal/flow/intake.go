package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/internal/reply"
	"github.com/littleseedlimited/caseview-bot/internal/service"
	"github.com/littleseedlimited/caseview-bot/internal/session"
	appErrors "github.com/littleseedlimited/caseview-bot/pkg/errors"
)

func (e *Engine) startIntake(sess *session.Session) reply.Message {
	sess.Active = &session.IntakeState{Step: session.IntakeJurisdiction}
	e.sessions.Put(sess)
	return reply.Text("Let's open a new case. Which jurisdiction does the matter fall under?")
}

func (e *Engine) advanceIntake(ctx context.Context, acct *models.Account, sess *session.Session, state *session.IntakeState, text string) reply.Message {
	switch state.Step {
	case session.IntakeJurisdiction:
		state.Jurisdiction = text
		state.Step = session.IntakeCourt
		e.sessions.Put(sess)
		return reply.Text("Which court is (or would be) seized of the matter?")

	case session.IntakeCourt:
		state.Court = text
		state.Step = session.IntakeParties
		e.sessions.Put(sess)
		return reply.Text("Who are the parties involved?")

	case session.IntakeParties:
		state.Parties = text
		state.Step = session.IntakeFacts
		e.sessions.Put(sess)
		return reply.Text("Now describe the facts of the case. You can type them, or send a document, image or voice note.")

	case session.IntakeFacts:
		e.toIdle(sess)
		return e.runAssembly(ctx, acct, sess, service.RawInput{
			Kind:         session.InputText,
			Text:         intakeDescription(state, text),
			Jurisdiction: state.Jurisdiction,
		}, "intake")
	}

	return reply.Text("Please answer the question above, or send /cancel to stop.")
}

// assemblyInputFromFile routes an upload received at the facts step into the
// pipeline, keeping the structured intake answers as a preamble.
func assemblyInputFromFile(file session.StagedInput, state *session.IntakeState) service.RawInput {
	return service.RawInput{
		Kind:         session.InputFile,
		FileRef:      file.FileRef,
		MediaType:    file.MediaType,
		Jurisdiction: state.Jurisdiction,
		Title:        strings.TrimSpace(state.Parties),
	}
}

func intakeDescription(state *session.IntakeState, facts string) string {
	var b strings.Builder
	if state.Jurisdiction != "" {
		fmt.Fprintf(&b, "Jurisdiction: %s\n", state.Jurisdiction)
	}
	if state.Court != "" {
		fmt.Fprintf(&b, "Court: %s\n", state.Court)
	}
	if state.Parties != "" {
		fmt.Fprintf(&b, "Parties: %s\n", state.Parties)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(facts)
	return b.String()
}

// runAssembly invokes the pipeline and composes the post-creation summary.
// On catastrophic failure the caller has already dropped the session to idle,
// so the user is never left stuck mid-wizard.
func (e *Engine) runAssembly(ctx context.Context, acct *models.Account, sess *session.Session, in service.RawInput, wizard string) reply.Message {
	started := time.Now()
	res, err := e.assembly.Assemble(ctx, acct, in)
	if err != nil {
		return e.failureReply(err, acct)
	}

	sess.CaseID = res.Case.ID
	e.sessions.Put(sess)
	e.metrics.CountCaseAssembled(time.Since(started))
	e.metrics.CountWizardCompleted(wizard)

	return caseSummary(res).WithButtons(reply.CaseActions(res.Case.ID)...)
}

func caseSummary(res *service.AssemblyResult) reply.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Case %s saved: %s\n\n", res.Case.RefCode, res.Case.Title)

	if res.Degraded {
		b.WriteString("I couldn't run the full analysis right now, so this case is saved with a neutral assessment. You can re-run it later by asking a question.\n")
	} else {
		fmt.Fprintf(&b, "Category: %s\n", res.Analysis.Category)
		fmt.Fprintf(&b, "Viability: %d/100\n", res.Analysis.ViabilityScore)
		if res.Analysis.Prediction != "" {
			fmt.Fprintf(&b, "Outlook: %s\n", res.Analysis.Prediction)
		}
		if len(res.Analysis.KeyIssues) > 0 {
			fmt.Fprintf(&b, "Key issues: %s\n", strings.Join(res.Analysis.KeyIssues, "; "))
		}
		for _, sc := range res.Analysis.Scenarios {
			fmt.Fprintf(&b, "- %s (%.0f%%): %s\n", sc.Name, sc.Probability*100, sc.RecommendedAction)
		}
	}

	if len(res.Research) > 0 {
		b.WriteString("\nRelated authorities:\n")
		for _, r := range res.Research {
			fmt.Fprintf(&b, "- %s %s\n", r.Name, r.URL)
		}
	}

	if res.Reservation.NearingQuota {
		fmt.Fprintf(&b, "\nHeads up: you've used %d of your %d cases this month.", res.Reservation.Used, res.Reservation.Limit)
	}
	return reply.Text(strings.TrimRight(b.String(), "\n"))
}

func (e *Engine) listCases(ctx context.Context, acct *models.Account) reply.Message {
	cases, err := e.cases.List(ctx, acct.ID)
	if err != nil {
		return e.failureReply(err, acct)
	}
	if len(cases) == 0 {
		return reply.Text("You have no cases yet. Send /newcase to open one.")
	}
	var b strings.Builder
	b.WriteString("Your cases:\n")
	for _, c := range cases {
		status := ""
		if c.Status == models.CaseClosed {
			status = " (closed)"
		}
		fmt.Fprintf(&b, "%s - %s%s\n", c.RefCode, c.Title, status)
	}
	b.WriteString("\nSend /case REF to see one in detail.")
	return reply.Text(b.String())
}

// resolveCase finds the case named by ref, falling back to the session's
// focused case when ref is empty or already a case id.
func (e *Engine) resolveCase(ctx context.Context, acct *models.Account, sess *session.Session, ref string) (*models.Case, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		if sess.CaseID == "" {
			return nil, appErrors.Clone(appErrors.ErrNoActiveFlow, "which case do you mean? Send /cases to list them, then /case REF")
		}
		return e.cases.Get(ctx, acct.ID, sess.CaseID)
	}
	if c, err := e.cases.GetByRef(ctx, acct.ID, ref); err == nil {
		return c, nil
	}
	return e.cases.Get(ctx, acct.ID, ref)
}

func (e *Engine) showCase(ctx context.Context, acct *models.Account, sess *session.Session, ref string) reply.Message {
	c, err := e.resolveCase(ctx, acct, sess, ref)
	if err != nil {
		return e.failureReply(err, acct)
	}
	sess.CaseID = c.ID
	e.sessions.Put(sess)

	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s [%s]\n\n", c.RefCode, c.Title, strings.ToLower(string(c.Status)))
	if analysis, aerr := c.ParsedAnalysis(); aerr == nil && analysis.Category != "" {
		fmt.Fprintf(&b, "Category: %s, viability %d/100\n", analysis.Category, analysis.ViabilityScore)
		if len(analysis.KeyIssues) > 0 {
			fmt.Fprintf(&b, "Key issues: %s\n", strings.Join(analysis.KeyIssues, "; "))
		}
	}
	if log, lerr := c.ParsedQALog(); lerr == nil && len(log) > 0 {
		fmt.Fprintf(&b, "%d question(s) asked so far.\n", len(log))
	}
	return reply.Text(strings.TrimRight(b.String(), "\n")).WithButtons(reply.CaseActions(c.ID)...)
}

func (e *Engine) closeCase(ctx context.Context, acct *models.Account, sess *session.Session, ref string) reply.Message {
	c, err := e.resolveCase(ctx, acct, sess, ref)
	if err != nil {
		return e.failureReply(err, acct)
	}
	if err := e.cases.Close(ctx, acct.ID, c.ID); err != nil {
		return e.failureReply(err, acct)
	}
	return reply.Text(fmt.Sprintf("Case %s is closed. It stays in /cases if you need it again.", c.RefCode))
}

func (e *Engine) appendStagedToCase(ctx context.Context, acct *models.Account, sess *session.Session, caseID string) reply.Message {
	staged, ok := e.staging.Take(acct.ID)
	if !ok {
		return reply.Text("That upload is no longer available. Please send the file again.")
	}
	c, err := e.resolveCase(ctx, acct, sess, caseID)
	if err != nil {
		// The upload survives a bad case reference so the user can pick
		// again instead of re-sending the file.
		e.staging.Stage(acct.ID, staged)
		return e.failureReply(err, acct)
	}

	text := staged.Text
	if staged.Kind == session.InputFile {
		text, err = e.extractStaged(ctx, staged)
		if err != nil {
			e.staging.Stage(acct.ID, staged)
			return e.failureReply(err, acct)
		}
	}
	if err := e.cases.AppendMaterial(ctx, acct.ID, c.ID, text); err != nil {
		e.staging.Stage(acct.ID, staged)
		return e.failureReply(err, acct)
	}
	return reply.Text(fmt.Sprintf("Added to case %s.", c.RefCode))
}

func (e *Engine) extractStaged(ctx context.Context, staged session.StagedInput) (string, error) {
	if strings.HasPrefix(staged.MediaType, "audio/") {
		return e.extractor.Transcribe(ctx, staged.FileRef)
	}
	return e.extractor.ExtractText(ctx, staged.FileRef, staged.MediaType)
}
