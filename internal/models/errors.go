package models

import (
	"errors"
	"fmt"
)

// APIError is any non-200 answer from the upstream API, carried as a value so
// callers decide on retry instead of the client.
type APIError struct {
	Code   int
	Reason string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream error code %d: %s", e.Code, e.Reason)
}

// Step identifies which stage of a retrieval failed.
type Step string

const (
	StepToken          Step = "token"
	StepMeteringPoints Step = "metering_points"
	StepTimeSeries     Step = "time_series"
	StepMasterCharge   Step = "master_charge"
	StepStore          Step = "store"
)

// StepError wraps a failure with the retrieval stage it happened in. Message
// matches the operator-facing wording used in logs and notifications.
type StepError struct {
	Step    Step
	Message string
	Cause   error
}

func (e *StepError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

// ErrPrecondition signals a caller contract violation: a retrieval was
// requested with neither a refresh token nor an access token. Not a retry
// candidate.
var ErrPrecondition = errors.New("models: neither refresh token nor access token supplied")
