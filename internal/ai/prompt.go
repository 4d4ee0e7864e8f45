package ai

import (
	"fmt"
	"strings"

	"github.com/littleseedlimited/caseview-bot/internal/models"
)

func buildAnalysisPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are a legal case analyst. Analyse the following case facts and respond with a single JSON object using exactly these keys: ")
	b.WriteString(`"category", "viability_score" (0-100), "prediction", "key_issues" (array of strings), "scenarios" (array of {"name","probability","description","recommended_action"}).`)
	b.WriteString("\n\nCase facts:\n")
	b.WriteString(text)
	return b.String()
}

func buildAskPrompt(caseContext, question string) string {
	var b strings.Builder
	b.WriteString("You are a legal assistant. Answer the question using only the case facts below. Be short and specific.\n\nCase facts:\n")
	b.WriteString(caseContext)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

func buildSimulationPrompt(facts string, params *models.ScenarioParams) string {
	var b strings.Builder
	b.WriteString("You are a litigation strategist. Write a realistic outcome simulation for the case facts below.\n\nCase facts:\n")
	b.WriteString(facts)
	if params != nil {
		fmt.Fprintf(&b, "\n\nConstrain the simulation with these parameters:\n- Target outcome: %s\n- Key evidence: %s\n- Opposing argument: %s\n- Jurisdiction/judge nuance: %s\n- Caveats: %s",
			params.Outcome, params.Evidence, params.Opposing, params.Jurisdiction, params.Caveats)
	}
	return b.String()
}
