package state

import (
	"errors"
	"testing"
	"time"

	contractx "github.com/bancoagil/atendimento/agent/contract"
)

func newTestState() *SessionState {
	return NewSessionState("sess-1", time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
}

func authenticate(st *SessionState) {
	st.Authenticate("12345678900", contractx.CustomerRecord{
		CPF:         "12345678900",
		Birthdate:   "15/03/1990",
		Score:       600,
		CreditLimit: 3000,
	})
}

func TestFailAuthEndsSessionAtLimit(t *testing.T) {
	t.Parallel()

	st := newTestState()
	for i := 1; i < MaxAuthAttempts; i++ {
		if exhausted := st.FailAuth(); exhausted {
			t.Fatalf("attempt %d: exhausted too early", i)
		}
		if !st.CanRetryAuth() {
			t.Fatalf("attempt %d: retry should still be allowed", i)
		}
	}

	if exhausted := st.FailAuth(); !exhausted {
		t.Fatal("final attempt should exhaust the limit")
	}
	if !st.Ended {
		t.Fatal("session should be ended after exhausting auth attempts")
	}
	if st.CanRetryAuth() {
		t.Fatal("no retries on an ended session")
	}
}

func TestAuthenticateSnapshotsCustomerAndResetsAttempts(t *testing.T) {
	t.Parallel()

	st := newTestState()
	st.FailAuth()
	authenticate(st)

	if !st.Authenticated || st.CustomerCPF != "12345678900" {
		t.Fatalf("unexpected auth state: %+v", st)
	}
	if st.AuthAttempts != 0 {
		t.Fatalf("AuthAttempts = %d, want 0", st.AuthAttempts)
	}
	if st.Score() != 600 || st.CreditLimit() != 3000 {
		t.Fatalf("snapshot = (%v, %v), want (600, 3000)", st.Score(), st.CreditLimit())
	}
	if err := st.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestSwitchAgent(t *testing.T) {
	t.Parallel()

	st := newTestState()

	if err := st.SwitchAgent(contractx.AgentTypeInterview); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("interview switch without auth: err = %v, want ErrNotAuthenticated", err)
	}
	if err := st.SwitchAgent("bolsa"); !errors.Is(err, ErrInvalidAgent) {
		t.Fatalf("unknown agent: err = %v, want ErrInvalidAgent", err)
	}

	authenticate(st)
	if err := st.SwitchAgent(contractx.AgentTypeInterview); err != nil {
		t.Fatalf("SwitchAgent: %v", err)
	}
	if st.CurrentAgent != contractx.AgentTypeInterview {
		t.Fatalf("CurrentAgent = %q", st.CurrentAgent)
	}
}

func TestInterviewAnswerFlow(t *testing.T) {
	t.Parallel()

	st := newTestState()
	authenticate(st)

	questions := []string{"renda_mensal", "tipo_emprego", "despesas_fixas", "num_dependentes", "tem_dividas"}
	answers := []string{"6000", "autônomo", "3500", "0", "não"}

	for i, q := range questions {
		complete, err := st.StoreAnswer(q, answers[i])
		if err != nil {
			t.Fatalf("StoreAnswer(%s): %v", q, err)
		}
		if wantComplete := i == len(questions)-1; complete != wantComplete {
			t.Fatalf("StoreAnswer(%s) complete = %v, want %v", q, complete, wantComplete)
		}
	}
	if _, err := st.StoreAnswer("extra", "x"); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("answer past the end: err = %v, want ErrInvalidStep", err)
	}

	st.ResetInterview()
	if st.InterviewStep != 0 || len(st.InterviewData) != 0 || st.InterviewActive {
		t.Fatalf("interview not reset: %+v", st)
	}
}

func TestFailAnswerCountersArePerQuestion(t *testing.T) {
	t.Parallel()

	st := newTestState()
	authenticate(st)

	if attempts, exhausted := st.FailAnswer("renda_mensal"); attempts != 1 || exhausted {
		t.Fatalf("first failure = (%d, %v)", attempts, exhausted)
	}
	if attempts, exhausted := st.FailAnswer("renda_mensal"); attempts != 2 || exhausted {
		t.Fatalf("second failure = (%d, %v)", attempts, exhausted)
	}

	// A valid answer wipes the question's counter.
	if _, err := st.StoreAnswer("renda_mensal", "6000"); err != nil {
		t.Fatalf("StoreAnswer: %v", err)
	}
	if st.InterviewAttempts["renda_mensal"] != 0 {
		t.Fatalf("attempts not reset: %d", st.InterviewAttempts["renda_mensal"])
	}

	for i := 0; i < MaxAnswerAttempts-1; i++ {
		if _, exhausted := st.FailAnswer("tipo_emprego"); exhausted {
			t.Fatalf("exhausted at attempt %d", i+1)
		}
	}
	if _, exhausted := st.FailAnswer("tipo_emprego"); !exhausted {
		t.Fatal("third consecutive failure should end the session")
	}
	if !st.Ended {
		t.Fatal("session should be ended")
	}
}

func TestRateCache(t *testing.T) {
	t.Parallel()

	st := newTestState()
	if _, ok := st.CachedRate("USD"); ok {
		t.Fatal("empty cache should miss")
	}
	st.CacheRate("USD", 5.4321)
	if rate, ok := st.CachedRate("USD"); !ok || rate != 5.4321 {
		t.Fatalf("CachedRate = (%v, %v)", rate, ok)
	}
}

func TestValidateCatchesBrokenInvariants(t *testing.T) {
	t.Parallel()

	st := newTestState()
	st.AuthAttempts = MaxAuthAttempts
	if err := st.Validate(); !errors.Is(err, ErrInvariantViolated) {
		t.Fatalf("open unauthenticated session at attempt limit: err = %v", err)
	}

	st = newTestState()
	st.CurrentAgent = contractx.AgentTypeInterview
	if err := st.Validate(); !errors.Is(err, ErrInvariantViolated) {
		t.Fatalf("interview agent without auth: err = %v", err)
	}

	st = newTestState()
	st.Customer = &CustomerSnapshot{}
	if err := st.Validate(); !errors.Is(err, ErrInvariantViolated) {
		t.Fatalf("snapshot without authentication: err = %v", err)
	}
}
