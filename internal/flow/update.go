package flow

import (
	"strings"

	"github.com/littleseedlimited/caseview-bot/internal/reply"
	"github.com/littleseedlimited/caseview-bot/internal/session"
)

// Update is one normalized inbound event from the chat transport: a command,
// free text, a pressed button, or a file reference. The engine is
// transport-agnostic; the handler layer maps its wire format onto this.
type Update struct {
	PlatformID int64  `json:"platform_id" binding:"required"`
	Text       string `json:"text"`

	// Action and ActionCaseID are set when the user pressed a button.
	Action       reply.Action `json:"action"`
	ActionCaseID string       `json:"action_case_id"`

	// File is set when the update carries an upload or voice note.
	File *session.StagedInput `json:"file"`
}

// Command returns the directive name without its leading slash, or "" when
// the text is not a command.
func (u Update) Command() string {
	if !strings.HasPrefix(u.Text, "/") {
		return ""
	}
	cmd := strings.TrimPrefix(strings.Fields(u.Text)[0], "/")
	return strings.ToLower(cmd)
}

// Args returns everything after the command word.
func (u Update) Args() string {
	fields := strings.SplitN(u.Text, " ", 2)
	if len(fields) < 2 {
		return ""
	}
	return strings.TrimSpace(fields[1])
}
