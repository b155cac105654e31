// Package exam holds the in-memory exam session, the terminal result
// variants and the pure functions that interpret them.
package exam

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/stemsi/exstem-certify/internal/model"
)

// Session mutation errors.
var (
	ErrUnknownQuestion = errors.New("question is not part of this session")
	ErrEmptyAnswer     = errors.New("answer has no value")
	ErrSessionLocked   = errors.New("session is being submitted")
	ErrSessionClosed   = errors.New("session has been closed")
	ErrIncomplete      = errors.New("session is incomplete")
)

// State is the submission lifecycle state of a session.
type State string

const (
	StateIdle       State = "IDLE"
	StateSubmitting State = "SUBMITTING"
	StateCertified  State = "CERTIFIED"
	StateScored     State = "SCORED"
	StateFailed     State = "FAILED"
)

// Terminal reports whether no further submission is possible.
func (s State) Terminal() bool {
	return s == StateCertified || s == StateScored
}

// Session is one exam attempt. Questions are fixed at creation; answers and
// the candidate name change until the session is submitted or cleared.
type Session struct {
	mu            sync.Mutex
	id            string
	questions     []model.Question
	index         map[string]struct{}
	answers       map[string]model.Answer
	candidateName string
	state         State
	lastErr       error
}

// NewSession creates an idle session with no answers and an empty name.
func NewSession(id string, questions []model.Question) *Session {
	qs := make([]model.Question, len(questions))
	index := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		qs[i] = q
		index[q.ID] = struct{}{}
	}
	return &Session{
		id:        id,
		questions: qs,
		index:     index,
		answers:   make(map[string]model.Answer, len(questions)),
		state:     StateIdle,
	}
}

// ID returns the server-issued session identifier, "" once cleared.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Questions returns a copy of the ordered question set.
func (s *Session) Questions() []model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// State returns the current submission state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the error of the most recent failed submission.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// RecordAnswer upserts the answer for questionID. The zero Answer is
// rejected so it never counts toward completeness.
func (s *Session) RecordAnswer(questionID string, answer model.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutableLocked(); err != nil {
		return err
	}
	if _, ok := s.index[questionID]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownQuestion, questionID)
	}
	if answer.IsZero() {
		return fmt.Errorf("%w: %q", ErrEmptyAnswer, questionID)
	}
	s.answers[questionID] = answer
	return nil
}

// SetCandidateName stores name as typed. Trimming happens only when
// readiness is checked.
func (s *Session) SetCandidateName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutableLocked(); err != nil {
		return err
	}
	s.candidateName = name
	return nil
}

// CandidateName returns the raw name.
func (s *Session) CandidateName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidateName
}

// Answer returns the recorded answer for questionID.
func (s *Session) Answer(questionID string) (model.Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[questionID]
	return a, ok
}

// IsComplete reports whether every question has an answer and the trimmed
// candidate name is non-empty.
func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completeLocked()
}

// Missing returns the unanswered question ids in question order.
func (s *Session) Missing() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var missing []string
	for _, q := range s.questions {
		if _, ok := s.answers[q.ID]; !ok {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// Snapshot is a point-in-time copy of a session's submittable content.
type Snapshot struct {
	SessionID     string
	Answers       map[string]model.Answer
	CandidateName string
}

// Snapshot copies the session's id, answers and raw name.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Clear drops questions, answers, name and id. A cleared session accepts
// no further mutation or submission.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// ────────────────────────────────────────────────────────────────────────────
// Submission transitions, driven by the submission engine
// ────────────────────────────────────────────────────────────────────────────

// BeginSubmit moves an idle or failed, complete session to Submitting and
// returns the snapshot to send. The session stays locked until Fail or
// Finish.
func (s *Session) BeginSubmit() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == StateSubmitting:
		return Snapshot{}, ErrSessionLocked
	case s.id == "" || s.state.Terminal():
		return Snapshot{}, ErrSessionClosed
	case !s.completeLocked():
		return Snapshot{}, ErrIncomplete
	}
	s.state = StateSubmitting
	s.lastErr = nil
	return s.snapshotLocked(), nil
}

// Fail records a failed submission and unlocks the session with its answers
// and name untouched.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSubmitting {
		return
	}
	s.state = StateFailed
	s.lastErr = err
}

// Finish records the terminal state and clears the session.
func (s *Session) Finish(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.state = state
}

func (s *Session) mutableLocked() error {
	switch {
	case s.state == StateSubmitting:
		return ErrSessionLocked
	case s.id == "":
		return ErrSessionClosed
	}
	return nil
}

func (s *Session) completeLocked() bool {
	if strings.TrimSpace(s.candidateName) == "" {
		return false
	}
	for _, q := range s.questions {
		if _, ok := s.answers[q.ID]; !ok {
			return false
		}
	}
	return true
}

func (s *Session) snapshotLocked() Snapshot {
	answers := make(map[string]model.Answer, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	return Snapshot{
		SessionID:     s.id,
		Answers:       answers,
		CandidateName: s.candidateName,
	}
}

func (s *Session) clearLocked() {
	s.id = ""
	s.questions = nil
	s.index = map[string]struct{}{}
	s.answers = map[string]model.Answer{}
	s.candidateName = ""
	s.lastErr = nil
}
