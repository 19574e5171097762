package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError is a user-correctable problem with the request.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func Invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

// NotFoundError means a referenced vendor, category or item does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Kind, e.ID) }

func NotFound(kind, id string) error { return &NotFoundError{Kind: kind, ID: id} }

// PartialFailureError reports a cascade that completed only some sub-deletions.
type PartialFailureError struct {
	Op        string
	Succeeded []string
	Failed    map[string]error
}

func (e *PartialFailureError) Error() string {
	ids := e.FailedIDs()
	return fmt.Sprintf("%s: %d of %d sub-operations failed (%s)",
		e.Op, len(ids), len(ids)+len(e.Succeeded), strings.Join(ids, ","))
}

// FailedIDs returns the failed ids in sorted order.
func (e *PartialFailureError) FailedIDs() []string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UpstreamUnavailable wraps a store error that survived the adapter's retries.
type UpstreamUnavailable struct {
	Store string
	Err   error
}

func (e *UpstreamUnavailable) Error() string { return e.Store + " unavailable: " + e.Err.Error() }

func (e *UpstreamUnavailable) Unwrap() error { return e.Err }
