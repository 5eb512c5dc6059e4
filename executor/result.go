package executor

import (
	"encoding/json"
	"fmt"
)

// ResultKind tags every executor outcome so the protocol layer never
// forwards an unexpected shape.
type ResultKind string

const (
	ResultSuccess         ResultKind = "success"
	ResultNotConfirmed    ResultKind = "confirmation_required"
	ResultNotFound        ResultKind = "not_found"
	ResultValidationError ResultKind = "validation_error"
	ResultBackendError    ResultKind = "backend_error"
)

// Result is the uniform textual payload every operation produces. Backend
// failures are flattened into it rather than propagated as transport
// faults, so callers always receive a well-formed envelope.
type Result struct {
	Kind    ResultKind `json:"kind"`
	Text    string     `json:"text"`
	IsError bool       `json:"is_error,omitempty"`
}

func successResult(payload any) *Result {
	text, ok := payload.(string)
	if !ok {
		raw, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return &Result{Kind: ResultBackendError, Text: "failed to encode result", IsError: true}
		}
		text = string(raw)
	}
	return &Result{Kind: ResultSuccess, Text: text}
}

func notConfirmedResult(operation string) *Result {
	return &Result{
		Kind:    ResultNotConfirmed,
		Text:    fmt.Sprintf("not confirmed: %s is destructive and requires confirm=true", operation),
		IsError: true,
	}
}

func notFoundResult(detail string) *Result {
	return &Result{Kind: ResultNotFound, Text: detail, IsError: true}
}

func validationResult(detail string) *Result {
	return &Result{Kind: ResultValidationError, Text: detail, IsError: true}
}

func backendErrorResult(operation string) *Result {
	// Collaborator internals are deliberately not leaked to the caller.
	return &Result{
		Kind:    ResultBackendError,
		Text:    fmt.Sprintf("backend call failed for operation %q", operation),
		IsError: true,
	}
}
