package dto

import (
	"time"

	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/storage"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// RunResponse represents a reconciliation run in API responses.
type RunResponse struct {
	ID           int64  `json:"id"`
	Kind         string `json:"kind"`
	Owner        string `json:"owner"`
	Peer         string `json:"peer,omitempty"`
	AccountID    string `json:"account_id,omitempty"`
	StartedAt    string `json:"started_at"`
	CompletedAt  string `json:"completed_at,omitempty"`
	DryRun       bool   `json:"dry_run"`
	Missing      int    `json:"missing"`
	Extra        int    `json:"extra"`
	Matched      int    `json:"matched"`
	Created      int    `json:"created"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// NewRunResponse converts a storage run.
func NewRunResponse(run storage.ReconcileRun) RunResponse {
	resp := RunResponse{
		ID:           run.ID,
		Kind:         run.Kind,
		Owner:        run.Owner,
		Peer:         run.Peer,
		AccountID:    run.AccountID,
		StartedAt:    run.StartedAt.UTC().Format(time.RFC3339),
		DryRun:       run.DryRun,
		Missing:      run.Counts.Missing,
		Extra:        run.Counts.Extra,
		Matched:      run.Counts.Matched,
		Created:      run.Counts.Created,
		Status:       run.Status,
		ErrorMessage: run.ErrorMessage,
	}
	if run.CompletedAt != nil {
		resp.CompletedAt = run.CompletedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// CallResponse represents a logged remote call.
type CallResponse struct {
	ID         int64  `json:"id"`
	Operation  string `json:"operation"`
	Pushed     int    `json:"pushed"`
	Received   int    `json:"received"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	CalledAt   string `json:"called_at"`
}

// CallListResponse is returned when listing remote calls.
type CallListResponse struct {
	Calls []CallResponse `json:"calls"`
	Count int            `json:"count"`
}

// NewCallResponse converts a storage call.
func NewCallResponse(c storage.RemoteCall) CallResponse {
	return CallResponse{
		ID:         c.ID,
		Operation:  c.Operation,
		Pushed:     c.Pushed,
		Received:   c.Received,
		Error:      c.Error,
		DurationMs: c.DurationMs,
		CalledAt:   c.CalledAt.UTC().Format(time.RFC3339),
	}
}
