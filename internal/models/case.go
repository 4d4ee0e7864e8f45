package models

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

// CaseStatus tracks the case lifecycle.
type CaseStatus string

const (
	CaseOpen   CaseStatus = "OPEN"
	CaseClosed CaseStatus = "CLOSED"
)

// MaxDescriptionLength bounds the stored raw facts of a case.
const MaxDescriptionLength = 16000

// Case is one legal matter owned by an account, stored in the cases table.
type Case struct {
	ID        string `db:"id" json:"id"`
	AccountID string `db:"account_id" json:"account_id"`
	RefCode   string `db:"ref_code" json:"ref_code"`
	Title     string `db:"title" json:"title"`

	// Description holds the raw or extracted facts, truncated to
	// MaxDescriptionLength. Link-ingested content is appended here.
	Description string `db:"description" json:"description"`

	Analysis json.RawMessage `db:"analysis" json:"analysis,omitempty"`
	Scenario json.RawMessage `db:"scenario" json:"scenario,omitempty"`
	QALog    json.RawMessage `db:"qa_log" json:"qa_log,omitempty"`

	Status    CaseStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// ParsedAnalysis decodes the stored analysis blob.
func (c *Case) ParsedAnalysis() (Analysis, error) {
	var a Analysis
	if len(c.Analysis) == 0 {
		return a, nil
	}
	err := json.Unmarshal(c.Analysis, &a)
	return a, err
}

// HasScenario reports whether a simulation has been recorded. The column
// defaults to an empty object, which does not count.
func (c *Case) HasScenario() bool {
	switch strings.TrimSpace(string(c.Scenario)) {
	case "", "{}", "null":
		return false
	}
	return true
}

// ParsedQALog decodes the stored question/answer log.
func (c *Case) ParsedQALog() ([]QAEntry, error) {
	if len(c.QALog) == 0 {
		return nil, nil
	}
	var log []QAEntry
	err := json.Unmarshal(c.QALog, &log)
	return log, err
}

// TruncateDescription bounds a facts string to the storable size, cutting
// back to a rune boundary so the stored text stays valid UTF-8.
func TruncateDescription(s string) string {
	if len(s) <= MaxDescriptionLength {
		return s
	}
	cut := MaxDescriptionLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
