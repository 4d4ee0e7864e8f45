// Package session holds the per-account conversation state: the active wizard,
// its collected answers, and the staging area for unclassified uploads. All of
// it is in-flight intent only; the database stays the source of truth and a
// process restart drops every session, which users recover from by re-issuing
// commands from idle.
package session

import (
	"sync"
	"time"
)

// Wizard is the closed set of multi-step dialogues. Exactly one wizard (or
// none) is active per session; starting a wizard replaces whatever was active,
// so no wizard's answers can leak into another's.
type Wizard interface {
	wizard()
}

// SignupStep enumerates the signup dialogue states.
type SignupStep int

const (
	SignupAccountType SignupStep = iota
	SignupFirmName
	SignupFirmState
	SignupBranchName
	SignupFullName
	SignupEmail
	SignupPhone
	SignupAddress
	SignupJob
	SignupRegNumber
)

// SignupState collects profile answers, branching by account type.
type SignupState struct {
	Step        SignupStep
	AccountType string

	FirmName   string
	FirmState  string
	BranchName string
	FullName   string
	Email      string
	Phone      string
	Address    string
	Job        string
}

func (*SignupState) wizard() {}

// IntakeStep enumerates the new-case intake states.
type IntakeStep int

const (
	IntakeJurisdiction IntakeStep = iota
	IntakeCourt
	IntakeParties
	IntakeFacts
)

// IntakeState collects the four structured intake answers; the facts answer
// triggers case assembly.
type IntakeState struct {
	Step         IntakeStep
	Jurisdiction string
	Court        string
	Parties      string
}

func (*IntakeState) wizard() {}

// ScenarioStep enumerates the five fixed scenario questions, asked in order
// with no skipping.
type ScenarioStep int

const (
	ScenarioOutcome ScenarioStep = iota
	ScenarioEvidence
	ScenarioOpposing
	ScenarioJurisdiction
	ScenarioCaveats
)

// ScenarioState collects simulation answers for one case.
type ScenarioState struct {
	CaseID string
	Step   ScenarioStep

	Outcome      string
	Evidence     string
	Opposing     string
	Jurisdiction string
	Caveats      string
}

func (*ScenarioState) wizard() {}

// ExportStep enumerates the export wizard states.
type ExportStep int

const (
	ExportChooseFormat ExportStep = iota
	ExportChooseWordCount
)

// ExportState collects the export format and optional word budget.
type ExportState struct {
	CaseID string
	Step   ExportStep
	Format string
}

func (*ExportState) wizard() {}

// ProfileEditState waits for a single replacement value for one field.
type ProfileEditState struct {
	Field string
}

func (*ProfileEditState) wizard() {}

// VerifyState waits for the user to echo back the displayed code. This is
// trust-on-first-use, not an out-of-band identity proof.
type VerifyState struct {
	Code     string
	Attempts int
}

func (*VerifyState) wizard() {}

// MaxVerifyAttempts bounds code retries; the session resets afterwards and a
// new code must be requested.
const MaxVerifyAttempts = 3

// LinkState waits for one URL whose content gets appended to the case facts.
type LinkState struct {
	CaseID string
}

func (*LinkState) wizard() {}

// AskState is the one re-entrant wizard: every free-text message is a new
// question against the same case until the user explicitly ends the loop.
type AskState struct {
	CaseID string
}

func (*AskState) wizard() {}

// DeleteState is the armed half of the two-step case deletion.
type DeleteState struct {
	CaseID string
}

func (*DeleteState) wizard() {}

// Session is the per-account conversation record.
type Session struct {
	AccountID string
	// Active is the wizard in progress; nil means idle.
	Active Wizard
	// CaseID is the currently focused case, surviving wizard completion so
	// follow-up affordances (ask, export, scenario) bind to it.
	CaseID    string
	StartedAt time.Time
}

// Store owns session lifecycle. Injected rather than global so the host
// decides concurrency policy and can swap in a durable store.
type Store interface {
	Get(accountID string) (*Session, bool)
	Put(sess *Session)
	Clear(accountID string)
}

// MemoryStore is the baseline process-lifetime Store. Concurrent updates for
// one account are last-write-wins, the accepted baseline semantics.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Get returns the session for an account if one exists.
func (s *MemoryStore) Get(accountID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[accountID]
	return sess, ok
}

// Put stores (or replaces) the session keyed by its account.
func (s *MemoryStore) Put(sess *Session) {
	if sess == nil || sess.AccountID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.AccountID] = sess
}

// Clear drops the session for an account.
func (s *MemoryStore) Clear(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, accountID)
}
