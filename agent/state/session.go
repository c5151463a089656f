package state

import (
	"errors"
	"fmt"
	"time"

	contractx "github.com/bancoagil/atendimento/agent/contract"
)

const (
	// MaxAuthAttempts ends the session once reached while unauthenticated.
	MaxAuthAttempts = 3
	// MaxAnswerAttempts ends the session once one interview question has
	// been answered invalidly this many consecutive times.
	MaxAnswerAttempts = 3
	// InterviewLength is the number of questions in the fixed sequence.
	InterviewLength = 5
)

var (
	ErrNotAuthenticated  = errors.New("customer not authenticated")
	ErrInvalidAgent      = errors.New("unknown agent type")
	ErrInvalidStep       = errors.New("interview step out of range")
	ErrInvariantViolated = errors.New("session invariant violated")
)

// CustomerSnapshot is the in-session copy of the mutable customer fields.
// It mirrors the store while the conversation runs; persistence is always
// the store's job.
type CustomerSnapshot struct {
	Score       float64 `json:"score"`
	CreditLimit float64 `json:"credit_limit"`
}

// SessionState drives routing for one conversation. It is owned by the
// router, mutated only through its own methods, and processed strictly
// turn-by-turn, so no locking is required.
type SessionState struct {
	SessionID string `json:"session_id"`

	Authenticated bool              `json:"authenticated"`
	CustomerCPF   string            `json:"customer_cpf,omitempty"`
	Customer      *CustomerSnapshot `json:"customer,omitempty"`
	AuthAttempts  int               `json:"auth_attempts"`

	CurrentAgent contractx.AgentType `json:"current_agent"`

	// InterviewActive distinguishes the handoff turn that starts the
	// interview from an actual first answer: the triggering message is
	// redelivered to the interview agent and must not count as invalid.
	InterviewActive   bool              `json:"interview_active"`
	InterviewStep     int               `json:"interview_step"`
	InterviewData     map[string]string `json:"interview_data,omitempty"`
	InterviewAttempts map[string]int    `json:"interview_attempts,omitempty"`

	// RateCache pins exchange rates per currency for the session, so the
	// same code quoted twice in one conversation reports the same rate.
	RateCache map[string]float64 `json:"rate_cache,omitempty"`

	Ended bool `json:"ended"`

	History []contractx.Message `json:"history,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSessionState(sessionID string, now time.Time) *SessionState {
	return &SessionState{
		SessionID:         sessionID,
		CurrentAgent:      contractx.AgentTypeTriage,
		InterviewData:     make(map[string]string, InterviewLength),
		InterviewAttempts: make(map[string]int, InterviewLength),
		CreatedAt:         now.UTC(),
		UpdatedAt:         now.UTC(),
	}
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// EnsureMaps makes sure the interview maps are initialized, e.g. after a
// JSON round trip through the store dropped the empty maps.
func (s *SessionState) EnsureMaps() {
	if s.InterviewData == nil {
		s.InterviewData = make(map[string]string, InterviewLength)
	}
	if s.InterviewAttempts == nil {
		s.InterviewAttempts = make(map[string]int, InterviewLength)
	}
	if s.RateCache == nil {
		s.RateCache = make(map[string]float64, 4)
	}
}

// CachedRate returns the session-pinned rate for a currency, if any.
func (s *SessionState) CachedRate(code string) (float64, bool) {
	rate, ok := s.RateCache[code]
	return rate, ok
}

// CacheRate pins a rate for the rest of the session.
func (s *SessionState) CacheRate(code string, rate float64) {
	s.EnsureMaps()
	s.RateCache[code] = rate
}

// Authenticate marks the customer as verified and snapshots the record.
// The attempt counter resets so a later logout/retry flow starts clean.
func (s *SessionState) Authenticate(cpf string, rec contractx.CustomerRecord) {
	s.Authenticated = true
	s.CustomerCPF = cpf
	s.Customer = &CustomerSnapshot{
		Score:       rec.Score,
		CreditLimit: rec.CreditLimit,
	}
	s.AuthAttempts = 0
}

// FailAuth counts one failed authentication attempt and reports whether the
// session must end because the limit was reached.
func (s *SessionState) FailAuth() (exhausted bool) {
	s.AuthAttempts++
	if s.AuthAttempts >= MaxAuthAttempts {
		s.Ended = true
		return true
	}
	return false
}

// CanRetryAuth reports whether another authentication attempt is allowed.
func (s *SessionState) CanRetryAuth() bool {
	return !s.Ended && s.AuthAttempts < MaxAuthAttempts
}

// SwitchAgent moves the conversation to another agent. Switching to the
// interview agent requires authentication.
func (s *SessionState) SwitchAgent(target contractx.AgentType) error {
	if !target.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAgent, target)
	}
	if target == contractx.AgentTypeInterview && !s.Authenticated {
		return ErrNotAuthenticated
	}
	s.CurrentAgent = target
	return nil
}

// StoreAnswer records a validated interview answer and advances the step.
// It reports whether the sequence is complete; the caller finalizes and
// resets in the same turn.
func (s *SessionState) StoreAnswer(question, answer string) (complete bool, err error) {
	if s.InterviewStep < 0 || s.InterviewStep >= InterviewLength {
		return false, fmt.Errorf("%w: %d", ErrInvalidStep, s.InterviewStep)
	}
	s.EnsureMaps()
	s.InterviewData[question] = answer
	delete(s.InterviewAttempts, question)
	s.InterviewStep++
	return s.InterviewStep == InterviewLength, nil
}

// FailAnswer counts one invalid answer for a question and reports whether
// the session must end. Counters are per question and reset on success.
func (s *SessionState) FailAnswer(question string) (attempts int, exhausted bool) {
	s.EnsureMaps()
	s.InterviewAttempts[question]++
	attempts = s.InterviewAttempts[question]
	if attempts >= MaxAnswerAttempts {
		s.Ended = true
		return attempts, true
	}
	return attempts, false
}

// ResetInterview clears the interview flow, after finalization or abort.
func (s *SessionState) ResetInterview() {
	s.InterviewActive = false
	s.InterviewStep = 0
	s.InterviewData = make(map[string]string, InterviewLength)
	s.InterviewAttempts = make(map[string]int, InterviewLength)
}

// SetScore updates the in-session snapshot only.
func (s *SessionState) SetScore(score float64) {
	if s.Customer != nil {
		s.Customer.Score = score
	}
}

// SetCreditLimit updates the in-session snapshot only.
func (s *SessionState) SetCreditLimit(limit float64) {
	if s.Customer != nil {
		s.Customer.CreditLimit = limit
	}
}

// Score returns the snapshot score, 0 when unauthenticated.
func (s *SessionState) Score() float64 {
	if s.Customer == nil {
		return 0
	}
	return s.Customer.Score
}

// CreditLimit returns the snapshot limit, 0 when unauthenticated.
func (s *SessionState) CreditLimit() float64 {
	if s.Customer == nil {
		return 0
	}
	return s.Customer.CreditLimit
}

// End closes the session; further turns are refused by the router.
func (s *SessionState) End() {
	s.Ended = true
}

// AppendHistory records one (role, text) pair. History is append-only.
func (s *SessionState) AppendHistory(role, text string) {
	s.History = append(s.History, contractx.Message{Role: role, Text: text})
}

// Validate checks the cross-field invariants the router relies on.
func (s *SessionState) Validate() error {
	if !s.CurrentAgent.Valid() {
		return fmt.Errorf("%w: current agent %q", ErrInvariantViolated, s.CurrentAgent)
	}
	if !s.Authenticated && !s.Ended && s.AuthAttempts >= MaxAuthAttempts {
		return fmt.Errorf("%w: %d auth attempts on open unauthenticated session", ErrInvariantViolated, s.AuthAttempts)
	}
	if s.CurrentAgent == contractx.AgentTypeInterview && !s.Authenticated {
		return fmt.Errorf("%w: interview agent without authentication", ErrInvariantViolated)
	}
	if s.InterviewStep < 0 || s.InterviewStep > InterviewLength {
		return fmt.Errorf("%w: interview step %d", ErrInvariantViolated, s.InterviewStep)
	}
	if s.Authenticated != (s.Customer != nil) {
		return fmt.Errorf("%w: customer snapshot does not match authentication", ErrInvariantViolated)
	}
	return nil
}
