package flow

import (
	"context"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/internal/reply"
	"github.com/littleseedlimited/caseview-bot/internal/session"
)

var scenarioQuestions = map[session.ScenarioStep]string{
	session.ScenarioOutcome:      "Question 1 of 5: what outcome do you want to explore?",
	session.ScenarioEvidence:     "Question 2 of 5: what is the key evidence supporting that outcome?",
	session.ScenarioOpposing:     "Question 3 of 5: what is the strongest opposing argument?",
	session.ScenarioJurisdiction: "Question 4 of 5: any jurisdiction or judge nuances to take into account?",
	session.ScenarioCaveats:      "Question 5 of 5: any caveats or constraints I should respect?",
}

func (e *Engine) startScenario(ctx context.Context, acct *models.Account, sess *session.Session, ref string) reply.Message {
	c, err := e.resolveCase(ctx, acct, sess, ref)
	if err != nil {
		return e.failureReply(err, acct)
	}
	sess.CaseID = c.ID
	sess.Active = &session.ScenarioState{CaseID: c.ID, Step: session.ScenarioOutcome}
	e.sessions.Put(sess)
	return reply.Text("Let's simulate an alternative outcome for " + c.RefCode + ".\n" + scenarioQuestions[session.ScenarioOutcome])
}

// advanceScenario stores each answer under its own key and asks the next of
// the five fixed questions, in order, no skipping. The terminal answer runs
// the simulation.
func (e *Engine) advanceScenario(ctx context.Context, acct *models.Account, sess *session.Session, state *session.ScenarioState, text string) reply.Message {
	switch state.Step {
	case session.ScenarioOutcome:
		state.Outcome = text
	case session.ScenarioEvidence:
		state.Evidence = text
	case session.ScenarioOpposing:
		state.Opposing = text
	case session.ScenarioJurisdiction:
		state.Jurisdiction = text
	case session.ScenarioCaveats:
		state.Caveats = text
		return e.finishScenario(ctx, acct, sess, state)
	}

	state.Step++
	e.sessions.Put(sess)
	return reply.Text(scenarioQuestions[state.Step])
}

func (e *Engine) finishScenario(ctx context.Context, acct *models.Account, sess *session.Session, state *session.ScenarioState) reply.Message {
	narrative, err := e.cases.RunScenario(ctx, acct.ID, state.CaseID, models.ScenarioParams{
		Outcome:      state.Outcome,
		Evidence:     state.Evidence,
		Opposing:     state.Opposing,
		Jurisdiction: state.Jurisdiction,
		Caveats:      state.Caveats,
	})
	if err != nil {
		// The answers are kept; resending the last one retries the simulation.
		return e.failureReply(err, acct)
	}
	e.toIdle(sess)
	e.metrics.CountWizardCompleted("scenario")
	return reply.Text(narrative).WithButtons(
		reply.Button{Label: "Run another scenario", Action: reply.ActionScenario, CaseID: state.CaseID},
		reply.Button{Label: "Export", Action: reply.ActionExport, CaseID: state.CaseID},
	)
}
