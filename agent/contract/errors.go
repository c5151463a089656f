package contract

import "errors"

var (
	ErrNotFound        = errors.New("record not found")
	ErrValidation      = errors.New("validation failed")
	ErrPolicyDenied    = errors.New("denied by policy table")
	ErrExternalService = errors.New("external service failed")
	ErrAttemptLimit    = errors.New("attempt limit exceeded")
	ErrSessionEnded    = errors.New("session already ended")

	ErrRateTimeout     = errors.New("rate lookup timed out")
	ErrRateUnsupported = errors.New("currency not supported")
	ErrRateService     = errors.New("rate service error")
)
