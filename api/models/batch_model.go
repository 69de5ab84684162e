package models

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/moyoez/localsend-uploader/batch"
	"github.com/moyoez/localsend-uploader/types"
)

var (
	BatchTTL       = 60 * time.Minute
	batches        = ttlworker.NewCache[string, *BatchEntry](BatchTTL)
	runningBatches atomic.Int32
)

// BatchEntry tracks one batch submitted through the API. It observes the orchestrator
// and serves snapshots to pollers.
type BatchEntry struct {
	mu       sync.RWMutex
	snapshot types.BatchSnapshot
	cancel   context.CancelFunc
	done     chan struct{}
}

var _ batch.Observer = (*BatchEntry)(nil)

// RegisterBatch stores a new running batch. cancel stops the batch's context.
func RegisterBatch(batchId string, request *types.UploadBatchRequest, cancel context.CancelFunc) *BatchEntry {
	results := make([]types.UploadResult, len(request.Records))
	for i, record := range request.Records {
		results[i] = types.UploadResult{Index: i, Filename: record.Filename, Status: types.StatusPending}
	}
	entry := &BatchEntry{
		snapshot: types.BatchSnapshot{
			BatchId: batchId,
			Action:  request.Config.Action,
			Total:   len(request.Records),
			Results: results,
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	batches.Set(batchId, entry)
	runningBatches.Add(1)
	return entry
}

// GetBatch returns the entry or nil when unknown or expired.
func GetBatch(batchId string) *BatchEntry {
	return batches.Get(batchId)
}

// RunningBatches returns the number of batches that have not finished.
func RunningBatches() int {
	return int(runningBatches.Load())
}

// OnProgress fills in terminal results as they arrive.
func (e *BatchEntry) OnProgress(p batch.Progress) {
	if p.Kind != batch.EventCompleted || p.Result == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if p.Index >= 0 && p.Index < len(e.snapshot.Results) {
		e.snapshot.Results[p.Index] = *p.Result
	}
	e.snapshot.Completed = p.Completed
}

// Finish stores the final results. Safe to call once.
func (e *BatchEntry) Finish(results []types.UploadResult, err error) {
	e.mu.Lock()
	if results != nil {
		e.snapshot.Results = results
		e.snapshot.Completed = len(results)
	}
	summary := types.Summarize(e.snapshot.Results)
	e.snapshot.Summary = &summary
	e.snapshot.Done = true
	if err != nil {
		e.snapshot.Error = err.Error()
	}
	e.mu.Unlock()

	runningBatches.Add(-1)
	close(e.done)
}

// Cancel requests cancellation. It reports false when the batch already finished.
func (e *BatchEntry) Cancel() bool {
	select {
	case <-e.done:
		return false
	default:
	}
	e.mu.Lock()
	e.snapshot.Cancelled = true
	e.mu.Unlock()
	e.cancel()
	return true
}

// Done is closed when the batch has finished.
func (e *BatchEntry) Done() <-chan struct{} {
	return e.done
}

// Snapshot returns a copy safe to serialize while the batch is running.
func (e *BatchEntry) Snapshot() types.BatchSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	snap := e.snapshot
	snap.Results = make([]types.UploadResult, len(e.snapshot.Results))
	copy(snap.Results, e.snapshot.Results)
	if e.snapshot.Summary != nil {
		summary := *e.snapshot.Summary
		snap.Summary = &summary
	}
	return snap
}
