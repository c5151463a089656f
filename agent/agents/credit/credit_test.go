package credit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/bancoagil/atendimento/agent/contract"
	statex "github.com/bancoagil/atendimento/agent/state"
)

type fakeCustomers struct {
	record    contractx.CustomerRecord
	getErr    error
	limitSets []float64
}

func (f *fakeCustomers) Get(context.Context, string) (contractx.CustomerRecord, error) {
	if f.getErr != nil {
		return contractx.CustomerRecord{}, f.getErr
	}
	return f.record, nil
}

func (f *fakeCustomers) SetScore(context.Context, string, float64) error { return nil }

func (f *fakeCustomers) SetLimit(_ context.Context, _ string, limit float64) error {
	f.limitSets = append(f.limitSets, limit)
	return nil
}

type fakePolicy struct {
	rows []contractx.PolicyRow
	err  error
}

func (f *fakePolicy) Rows(context.Context) ([]contractx.PolicyRow, error) {
	return f.rows, f.err
}

type fakeLedger struct {
	entries []contractx.IncreaseRequest
	err     error
}

func (f *fakeLedger) Append(_ context.Context, req contractx.IncreaseRequest) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, req)
	return nil
}

type fakeClassifier struct {
	label string
	err   error
}

func (f *fakeClassifier) Classify(context.Context, string, []contractx.Message, []string) (string, error) {
	return f.label, f.err
}

func defaultPolicy() *fakePolicy {
	return &fakePolicy{rows: []contractx.PolicyRow{
		{MinimumScore: 300, MaximumLimit: 1000},
		{MinimumScore: 500, MaximumLimit: 3000},
		{MinimumScore: 650, MaximumLimit: 6000},
		{MinimumScore: 800, MaximumLimit: 10000},
	}}
}

func authedSession(score, limit float64) *statex.SessionState {
	st := statex.NewSessionState("sess-credit", time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC))
	st.Authenticate("12345678900", contractx.CustomerRecord{Score: score, CreditLimit: limit})
	st.CurrentAgent = contractx.AgentTypeCredit
	return st
}

func newAgent(t *testing.T, customers *fakeCustomers, policy *fakePolicy, ledger *fakeLedger, label string) *Agent {
	t.Helper()
	agent, err := New(customers, policy, ledger, &fakeClassifier{label: label})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return agent
}

func TestUnauthenticatedHandsBackToTriage(t *testing.T) {
	t.Parallel()

	agent := newAgent(t, &fakeCustomers{}, defaultPolicy(), &fakeLedger{}, contractx.ActionCheckLimit)
	st := statex.NewSessionState("sess", time.Now())

	reply, err := agent.Process(context.Background(), "meu limite", st)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if reply.Handoff == nil || reply.Handoff.Target != contractx.AgentTypeTriage || !reply.Handoff.Redeliver {
		t.Fatalf("handoff = %+v", reply.Handoff)
	}
}

func TestInterviewKeywordHandsOff(t *testing.T) {
	t.Parallel()

	agent := newAgent(t, &fakeCustomers{}, defaultPolicy(), &fakeLedger{}, contractx.ActionOther)
	st := authedSession(600, 3000)

	reply, err := agent.Process(context.Background(), "quero fazer a ENTREVISTA", st)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if reply.Handoff == nil || reply.Handoff.Target != contractx.AgentTypeInterview {
		t.Fatalf("handoff = %+v", reply.Handoff)
	}
}

func TestCheckLimitReadsFreshRecord(t *testing.T) {
	t.Parallel()

	customers := &fakeCustomers{record: contractx.CustomerRecord{Score: 700, CreditLimit: 5200}}
	agent := newAgent(t, customers, defaultPolicy(), &fakeLedger{}, contractx.ActionCheckLimit)
	st := authedSession(700, 5200)

	reply, err := agent.Process(context.Background(), "qual meu limite?", st)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(reply.Text, "R$ 5200.00") || !strings.Contains(reply.Text, "700") {
		t.Fatalf("reply = %q", reply.Text)
	}
}

func TestIncreaseApproved(t *testing.T) {
	t.Parallel()

	customers := &fakeCustomers{record: contractx.CustomerRecord{Score: 700, CreditLimit: 3000}}
	ledger := &fakeLedger{}
	agent := newAgent(t, customers, defaultPolicy(), ledger, contractx.ActionRequestIncrease)
	st := authedSession(700, 3000)

	reply, err := agent.Process(context.Background(), "quero aumentar para R$ 5.000", st)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(reply.Text, "aprovado") {
		t.Fatalf("reply = %q", reply.Text)
	}
	if len(customers.limitSets) != 1 || customers.limitSets[0] != 5000 {
		t.Fatalf("limit updates = %v, want [5000]", customers.limitSets)
	}
	if st.CreditLimit() != 5000 {
		t.Fatalf("session limit = %v, want 5000", st.CreditLimit())
	}
	if len(ledger.entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(ledger.entries))
	}
	entry := ledger.entries[0]
	if entry.Status != contractx.StatusApproved || entry.RequestedLimit != 5000 || entry.PriorLimit != 3000 {
		t.Fatalf("ledger entry = %+v", entry)
	}
}

func TestIncreaseRejectedNeverMutatesLimit(t *testing.T) {
	t.Parallel()

	customers := &fakeCustomers{record: contractx.CustomerRecord{Score: 550, CreditLimit: 2000}}
	ledger := &fakeLedger{}
	agent := newAgent(t, customers, defaultPolicy(), ledger, contractx.ActionRequestIncrease)
	st := authedSession(550, 2000)

	reply, err := agent.Process(context.Background(), "quero 8000 de limite", st)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(reply.Text, "entrevista") {
		t.Fatalf("rejection should invite the interview, got %q", reply.Text)
	}
	if len(customers.limitSets) != 0 {
		t.Fatalf("rejected request must not touch the limit: %v", customers.limitSets)
	}
	if st.CreditLimit() != 2000 {
		t.Fatalf("session limit changed to %v", st.CreditLimit())
	}
	if len(ledger.entries) != 1 || ledger.entries[0].Status != contractx.StatusRejected {
		t.Fatalf("ledger entries = %+v", ledger.entries)
	}
}

func TestIncreaseWithoutAmountAsksForIt(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{}
	agent := newAgent(t, &fakeCustomers{}, defaultPolicy(), ledger, contractx.ActionRequestIncrease)
	st := authedSession(700, 3000)

	reply, err := agent.Process(context.Background(), "quero aumentar meu limite", st)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if reply.Text != msgAskAmount {
		t.Fatalf("reply = %q, want %q", reply.Text, msgAskAmount)
	}
	if len(ledger.entries) != 0 {
		t.Fatal("no amount, no ledger entry")
	}
}

func TestLedgerFailureBlocksApproval(t *testing.T) {
	t.Parallel()

	customers := &fakeCustomers{record: contractx.CustomerRecord{Score: 700, CreditLimit: 3000}}
	ledger := &fakeLedger{err: errors.New("db down")}
	agent := newAgent(t, customers, defaultPolicy(), ledger, contractx.ActionRequestIncrease)
	st := authedSession(700, 3000)

	reply, err := agent.Process(context.Background(), "5000", st)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if reply.Text != msgTechError {
		t.Fatalf("reply = %q", reply.Text)
	}
	if len(customers.limitSets) != 0 {
		t.Fatal("limit must not change when the ledger write fails")
	}
}

func TestEvaluatePolicy(t *testing.T) {
	t.Parallel()

	rows := defaultPolicy().rows
	tests := []struct {
		name      string
		score     float64
		requested float64
		want      bool
	}{
		{name: "tier match", score: 700, requested: 5000, want: true},
		{name: "amount above every eligible tier", score: 550, requested: 8000, want: false},
		{name: "score below every tier", score: 200, requested: 500, want: false},
		{name: "boundary score and amount", score: 650, requested: 6000, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := evaluatePolicy(rows, tt.score, tt.requested); got != tt.want {
				t.Fatalf("evaluatePolicy(%v, %v) = %v, want %v", tt.score, tt.requested, got, tt.want)
			}
		})
	}
}
