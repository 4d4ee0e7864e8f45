package session

import "sync"

// InputKind distinguishes raw text from fetchable uploads.
type InputKind string

const (
	InputText InputKind = "text"
	InputFile InputKind = "file"
)

// StagedInput is one pending unclassified input: something the user sent
// before telling the bot what to do with it.
type StagedInput struct {
	Kind      InputKind
	Text      string
	FileRef   string
	MediaType string
}

// StagingArea holds at most one staged input per account. A second stage for
// the same account overwrites the first: last upload wins, no queueing.
type StagingArea struct {
	mu     sync.Mutex
	staged map[string]StagedInput
}

// NewStagingArea builds an empty staging area.
func NewStagingArea() *StagingArea {
	return &StagingArea{staged: make(map[string]StagedInput)}
}

// Stage records the pending input for an account, replacing any prior one.
func (s *StagingArea) Stage(accountID string, in StagedInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged[accountID] = in
}

// Take retrieves and clears the staged input atomically. There is
// deliberately no peek: consumers take or ignore, never hold a stale
// reference across turns.
func (s *StagingArea) Take(accountID string) (StagedInput, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.staged[accountID]
	if ok {
		delete(s.staged, accountID)
	}
	return in, ok
}
