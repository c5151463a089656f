package contract

import "context"

// CustomerStore reads and updates customer records keyed by CPF.
// Get returns ErrNotFound (possibly wrapped) for unknown CPFs.
type CustomerStore interface {
	Get(ctx context.Context, cpf string) (CustomerRecord, error)
	SetScore(ctx context.Context, cpf string, score float64) error
	SetLimit(ctx context.Context, cpf string, limit float64) error
}

// PolicyTable exposes the ordered score/limit approval tiers.
type PolicyTable interface {
	Rows(ctx context.Context) ([]PolicyRow, error)
}

// RequestLedger records every increase request, approved or not.
type RequestLedger interface {
	Append(ctx context.Context, req IncreaseRequest) error
}

// RateProvider looks up the BRL rate for an ISO currency code. Failures are
// the sentinel errors ErrRateTimeout, ErrRateUnsupported, and ErrRateService.
type RateProvider interface {
	Latest(ctx context.Context, code string) (float64, error)
}

// IntentClassifier maps free text to one label out of the given set.
// Callers treat any error as the "outros" default; the classifier never
// decides control flow on its own.
type IntentClassifier interface {
	Classify(ctx context.Context, text string, history []Message, labels []string) (string, error)
}

// CredentialExtractor pulls CPF and birthdate out of free text when the
// deterministic parsers cannot.
type CredentialExtractor interface {
	Extract(ctx context.Context, text string) (Credentials, error)
}
