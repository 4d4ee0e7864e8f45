package models

import "time"

// Analysis is the structured result of the AI pipeline for a case.
type Analysis struct {
	Category       string             `json:"category"`
	ViabilityScore int                `json:"viability_score"`
	Prediction     string             `json:"prediction"`
	KeyIssues      []string           `json:"key_issues"`
	Scenarios      []AnalysisScenario `json:"scenarios"`
}

// AnalysisScenario is one named outcome with its probability and suggested move.
type AnalysisScenario struct {
	Name              string  `json:"name"`
	Probability       float64 `json:"probability"`
	Description       string  `json:"description"`
	RecommendedAction string  `json:"recommended_action"`
}

// FallbackAnalysis is the neutral placeholder used when the AI call fails:
// case creation still proceeds, degraded rather than dropped.
func FallbackAnalysis() Analysis {
	return Analysis{
		Category:       "Unknown",
		ViabilityScore: 50,
		KeyIssues:      []string{"Analysis Failed"},
	}
}

// QAEntry is one question/answer turn appended to a case's log.
type QAEntry struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}

// ScenarioParams are the five structured answers of the scenario wizard.
type ScenarioParams struct {
	Outcome      string `json:"outcome"`
	Evidence     string `json:"evidence"`
	Opposing     string `json:"opposing"`
	Jurisdiction string `json:"jurisdiction"`
	Caveats      string `json:"caveats"`
}

// ResearchResult is one supplementary authority attached to a summary.
type ResearchResult struct {
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}
