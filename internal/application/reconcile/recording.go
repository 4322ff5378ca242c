package reconcile

import (
	"time"

	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/storage"
)

// runRecorder persists a run and its metrics. Storage failures are
// logged and never fail the reconciliation itself.
type runRecorder struct {
	deps  Deps
	kind  string
	id    int64
	start time.Time
}

func startRun(deps Deps, run storage.RunStart) *runRecorder {
	r := &runRecorder{deps: deps, kind: run.Kind, start: time.Now()}
	if deps.Runs == nil {
		return r
	}
	id, err := deps.Runs.StartRun(run)
	if err != nil {
		deps.Logger.Error("Failed to record run start", "kind", run.Kind, "error", err)
		return r
	}
	r.id = id
	return r
}

func (r *runRecorder) finish(counts storage.RunCounts, outcome Outcome, runErr error) {
	status := storage.RunStatusCompleted
	errMsg := ""
	switch {
	case runErr != nil:
		status = storage.RunStatusFailed
		errMsg = runErr.Error()
	case outcome == OutcomeDeclined:
		status = storage.RunStatusDeclined
	}

	r.deps.Metrics.RecordRun(r.kind, status, time.Since(r.start))
	r.deps.Metrics.RecordEntriesCreated(r.kind, counts.Created)

	if r.deps.Runs == nil || r.id == 0 {
		return
	}
	if err := r.deps.Runs.CompleteRun(r.id, counts, status, errMsg); err != nil {
		r.deps.Logger.Error("Failed to record run completion", "run_id", r.id, "error", err)
	}
}
