// Package reply defines the closed set of outbound messages the bot can
// send: plain text plus optional action buttons that re-enter a flow.
package reply

// Action identifies what a pressed button does. The flow engine routes
// callbacks by this value.
type Action string

const (
	ActionAsk           Action = "ask"
	ActionScenario      Action = "scenario"
	ActionExport        Action = "export"
	ActionAddLink       Action = "add_link"
	ActionDelete        Action = "delete"
	ActionConfirmDelete Action = "confirm_delete"
	ActionClose         Action = "close"
	ActionViewCase      Action = "view_case"
	ActionNewCase       Action = "new_case"
	ActionAppendCase    Action = "append_case"
	ActionSaveOnly      Action = "save_only"
	ActionDiscard       Action = "discard"
	ActionUpgrade       Action = "upgrade"
)

// Button is one tappable affordance under a message.
type Button struct {
	Label  string `json:"label"`
	Action Action `json:"action"`
	CaseID string `json:"case_id,omitempty"`
}

// Message is a single outbound bot message.
type Message struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons,omitempty"`

	// DocumentURL, when set, attaches a downloadable file to the message.
	DocumentURL  string `json:"document_url,omitempty"`
	DocumentName string `json:"document_name,omitempty"`
}

// Text builds a plain message.
func Text(text string) Message {
	return Message{Text: text}
}

// WithButtons attaches buttons to a message.
func (m Message) WithButtons(buttons ...Button) Message {
	m.Buttons = append(m.Buttons, buttons...)
	return m
}

// CaseActions is the standard affordance row shown under a case summary.
func CaseActions(caseID string) []Button {
	return []Button{
		{Label: "Ask a question", Action: ActionAsk, CaseID: caseID},
		{Label: "Run a scenario", Action: ActionScenario, CaseID: caseID},
		{Label: "Export", Action: ActionExport, CaseID: caseID},
		{Label: "Add a link", Action: ActionAddLink, CaseID: caseID},
		{Label: "Delete", Action: ActionDelete, CaseID: caseID},
	}
}

// StagedInputChoices is shown when an upload arrives with no obvious
// destination.
func StagedInputChoices() []Button {
	return []Button{
		{Label: "Analyze as a new case", Action: ActionNewCase},
		{Label: "Add to an existing case", Action: ActionAppendCase},
		{Label: "Just save it", Action: ActionSaveOnly},
		{Label: "Discard", Action: ActionDiscard},
	}
}
