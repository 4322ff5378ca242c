package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/zenmoney-reconcile/internal/api/dto"
	"github.com/eshaffer321/zenmoney-reconcile/internal/api/handlers"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/storage"
)

func TestRunsHandler_List(t *testing.T) {
	t.Run("returns empty list when no runs", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewRunsHandler(handlers.NewBase(repo, nil))

		rec := serve(t, http.MethodGet, "/api/runs", "/api/runs", nil, handler.List)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RunListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Empty(t, response.Runs)
		assert.Equal(t, 0, response.Count)
	})

	t.Run("returns runs newest first", func(t *testing.T) {
		repo := storage.NewMockRepository()

		bankID, _ := repo.StartRun(storage.RunStart{Kind: storage.RunKindBank, Owner: "alice", AccountID: "card"})
		_ = repo.CompleteRun(bankID, storage.RunCounts{Missing: 2, Matched: 8, Created: 2}, storage.RunStatusCompleted, "")

		peerID, _ := repo.StartRun(storage.RunStart{Kind: storage.RunKindPeer, Owner: "alice", Peer: "bob", DryRun: true})
		_ = repo.CompleteRun(peerID, storage.RunCounts{Matched: 5}, storage.RunStatusCompleted, "")

		handler := handlers.NewRunsHandler(handlers.NewBase(repo, nil))

		rec := serve(t, http.MethodGet, "/api/runs", "/api/runs", nil, handler.List)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RunListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Equal(t, 2, response.Count)
		assert.Equal(t, "peer", response.Runs[0].Kind)
		assert.Equal(t, "bob", response.Runs[0].Peer)
		assert.True(t, response.Runs[0].DryRun)
		assert.Equal(t, "bank", response.Runs[1].Kind)
		assert.Equal(t, 2, response.Runs[1].Missing)
		assert.Equal(t, 2, response.Runs[1].Created)
		assert.NotEmpty(t, response.Runs[1].CompletedAt)
	})

	t.Run("respects limit parameter", func(t *testing.T) {
		repo := storage.NewMockRepository()
		for i := 0; i < 5; i++ {
			_, _ = repo.StartRun(storage.RunStart{Kind: storage.RunKindBank, Owner: "alice"})
		}
		handler := handlers.NewRunsHandler(handlers.NewBase(repo, nil))

		rec := serve(t, http.MethodGet, "/api/runs", "/api/runs?limit=2", nil, handler.List)

		var response dto.RunListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 2, response.Count)
	})

	t.Run("returns 500 when the repository fails", func(t *testing.T) {
		repo := storage.NewMockRepository()
		repo.ListRunsErr = errors.New("database locked")
		handler := handlers.NewRunsHandler(handlers.NewBase(repo, nil))

		rec := serve(t, http.MethodGet, "/api/runs", "/api/runs", nil, handler.List)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRunsHandler_Get(t *testing.T) {
	repo := storage.NewMockRepository()
	runID, _ := repo.StartRun(storage.RunStart{Kind: storage.RunKindBank, Owner: "alice", AccountID: "card"})
	_ = repo.CompleteRun(runID, storage.RunCounts{}, storage.RunStatusFailed, "remote ledger unavailable")
	handler := handlers.NewRunsHandler(handlers.NewBase(repo, nil))

	t.Run("returns run by ID", func(t *testing.T) {
		rec := serve(t, http.MethodGet, "/api/runs/{id}", "/api/runs/1", nil, handler.Get)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RunResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, runID, response.ID)
		assert.Equal(t, "failed", response.Status)
		assert.Equal(t, "remote ledger unavailable", response.ErrorMessage)
	})

	t.Run("returns 404 for unknown run", func(t *testing.T) {
		rec := serve(t, http.MethodGet, "/api/runs/{id}", "/api/runs/99", nil, handler.Get)

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var response dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, dto.ErrCodeNotFound, response.Code)
	})

	t.Run("returns 400 for invalid ID", func(t *testing.T) {
		rec := serve(t, http.MethodGet, "/api/runs/{id}", "/api/runs/abc", nil, handler.Get)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
