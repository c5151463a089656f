package contract

import "time"

// AgentType identifies which agent owns the current turn. The set is closed:
// routing happens over a static dispatch table, never over free-form strings.
type AgentType string

const (
	AgentTypeTriage    AgentType = "triage"
	AgentTypeCredit    AgentType = "credit"
	AgentTypeInterview AgentType = "interview"
	AgentTypeExchange  AgentType = "exchange"
)

// AgentTypes returns every member of the agent enum, in routing order.
func AgentTypes() []AgentType {
	return []AgentType{AgentTypeTriage, AgentTypeCredit, AgentTypeInterview, AgentTypeExchange}
}

// Valid reports whether t is one of the four known agents.
func (t AgentType) Valid() bool {
	switch t {
	case AgentTypeTriage, AgentTypeCredit, AgentTypeInterview, AgentTypeExchange:
		return true
	}
	return false
}

// Intent labels produced by the triage classifier.
const (
	IntentCredit    = "credito"
	IntentExchange  = "cambio"
	IntentInterview = "entrevista"
	IntentOther     = "outros"
)

// Action labels produced by the credit classifier.
const (
	ActionCheckLimit      = "consulta_limite"
	ActionRequestIncrease = "aumento_limite"
	ActionOther           = "outros"
)

// CustomerRecord is the stored view of a customer.
type CustomerRecord struct {
	CPF         string    `json:"cpf"`
	Birthdate   string    `json:"birthdate"` // DD/MM/YYYY
	Score       float64   `json:"score"`
	CreditLimit float64   `json:"credit_limit"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PolicyRow is one tier of the score/limit approval table. A requested
// increase is approved iff some row satisfies both bounds.
type PolicyRow struct {
	MinimumScore float64 `json:"minimum_score"`
	MaximumLimit float64 `json:"maximum_limit"`
}

// Increase request outcomes recorded in the ledger.
const (
	StatusApproved = "aprovado"
	StatusRejected = "rejeitado"
)

// IncreaseRequest is one append-only ledger entry.
type IncreaseRequest struct {
	CPF            string    `json:"cpf"`
	RequestedAt    time.Time `json:"requested_at"`
	PriorLimit     float64   `json:"prior_limit"`
	RequestedLimit float64   `json:"requested_limit"`
	Status         string    `json:"status"`
}

// Message is one entry of the conversation history fed to the classifier.
type Message struct {
	Role string `json:"role"` // "user" | "assistant"
	Text string `json:"text"`
}

// Credentials carries the identity fields extracted from free text during
// triage. Either field may be empty when the user has not provided it yet.
type Credentials struct {
	CPF       string `json:"cpf"`
	Birthdate string `json:"birthdate"`
}
