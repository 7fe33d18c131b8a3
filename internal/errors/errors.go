package errors

import (
	"errors"
	"fmt"
	"strings"
)

// SyncError is the error type carried through the sync pipeline. It tags an
// underlying error with a kind and optional page identity so log lines and
// the run report can attribute failures.
type SyncError struct {
	Kind    ErrorKind
	Message string
	PageID  string
	Err     error
}

// Error implements the error interface
func (e *SyncError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.PageID != "" {
		fmt.Fprintf(&b, " (page: %s)", e.PageID)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes the underlying cause to errors.Is/As chains.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// WithPage attaches page identity to an error for failure attribution.
func (e *SyncError) WithPage(pageID string) *SyncError {
	e.PageID = pageID
	return e
}

// Config creates a CONFIG_ERROR listing the missing settings.
func Config(missing []string) *SyncError {
	return &SyncError{
		Kind:    KindConfig,
		Message: fmt.Sprintf("missing required configuration: %s", strings.Join(missing, ", ")),
	}
}

// Connectivity creates a CONNECTIVITY_ERROR for a failed store probe.
func Connectivity(err error) *SyncError {
	return &SyncError{
		Kind:    KindConnectivity,
		Message: "data store is unreachable",
		Err:     err,
	}
}

// RunLocked creates a RUN_LOCKED error for an overlapping invocation.
func RunLocked() *SyncError {
	return &SyncError{
		Kind:    KindRunLocked,
		Message: "another sync run is already in flight",
	}
}

// Refresh creates a REFRESH_ERROR for a failed credential refresh.
func Refresh(platform string, err error) *SyncError {
	return &SyncError{
		Kind:    KindRefresh,
		Message: fmt.Sprintf("%s token refresh failed", platform),
		Err:     err,
	}
}

// Fetch creates a FETCH_ERROR for a failed analytics call.
func Fetch(platform string, err error) *SyncError {
	return &SyncError{
		Kind:    KindFetch,
		Message: fmt.Sprintf("%s analytics fetch failed", platform),
		Err:     err,
	}
}

// Persistence creates a PERSISTENCE_ERROR for a failed store write.
func Persistence(operation string, err error) *SyncError {
	return &SyncError{
		Kind:    KindPersistence,
		Message: fmt.Sprintf("%s failed", operation),
		Err:     err,
	}
}

// Internal creates an INTERNAL_ERROR for anything else.
func Internal(message string, err error) *SyncError {
	return &SyncError{
		Kind:    KindInternal,
		Message: message,
		Err:     err,
	}
}

// KindOf extracts the ErrorKind from err, or KindInternal when err is not a
// SyncError.
func KindOf(err error) ErrorKind {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
