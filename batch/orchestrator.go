package batch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/moyoez/localsend-uploader/tool"
	"github.com/moyoez/localsend-uploader/transfer"
	"github.com/moyoez/localsend-uploader/types"
)

// ErrMissingAction is returned by SubmitBatch before anything is dispatched.
var ErrMissingAction = errors.New("upload config has no action")

// ConfigError marks every record of a batch whose action URL is unusable.
type ConfigError struct {
	Action string
	Cause  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid action %q: %v", e.Action, e.Cause)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Orchestrator submits batches of records with bounded concurrency.
// It keeps no state between SubmitBatch calls except the optional rate limiter.
type Orchestrator struct {
	fetcher   transfer.Fetcher
	submitter transfer.Submitter
	opts      Options
	limiter   *rate.Limiter
}

func NewOrchestrator(fetcher transfer.Fetcher, submitter transfer.Submitter, opts Options) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Logger == nil {
		opts.Logger = tool.DefaultLogger
	}
	o := &Orchestrator{fetcher: fetcher, submitter: submitter, opts: opts}
	if opts.RateLimit > 0 {
		burst := int(math.Ceil(opts.RateLimit))
		o.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(burst, 1))
	}
	return o
}

// Concurrency returns the bound on simultaneously running tasks.
func (o *Orchestrator) Concurrency() int {
	return o.opts.Concurrency
}

// batchState belongs to one SubmitBatch call and is written only by its scheduling loop.
// inFlight is the one counter touched on task start and finish.
type batchState struct {
	total     int
	completed int
	inFlight  atomic.Int32
	results   []types.UploadResult
	terminal  []bool
}

func newBatchState(total int) *batchState {
	return &batchState{
		total:    total,
		results:  make([]types.UploadResult, total),
		terminal: make([]bool, total),
	}
}

// taskMessage carries either an attempt notification or a final result back to the loop.
type taskMessage struct {
	progress *Progress
	result   *types.UploadResult
}

// SubmitBatch uploads every record to cfg.Action and returns one result per record in input order.
// Per-record failures are reported in the results; the error is non-nil only when cfg has no action.
func (o *Orchestrator) SubmitBatch(ctx context.Context, records []types.FileRecord, cfg types.UploadConfig) ([]types.UploadResult, error) {
	if strings.TrimSpace(cfg.Action) == "" {
		return nil, ErrMissingAction
	}
	logger := o.opts.Logger
	state := newBatchState(len(records))

	if _, err := tool.ParseActionURL(cfg.Action); err != nil {
		cfgErr := &ConfigError{Action: cfg.Action, Cause: err}
		logger.Errorf("[Batch] %v, failing %d records", cfgErr, len(records))
		for i, record := range records {
			o.complete(state, types.UploadResult{
				Index:     i,
				Filename:  record.Filename,
				Status:    types.StatusFailed,
				ErrorKind: types.ErrorKindConfig,
				Error:     cfgErr.Error(),
				Err:       cfgErr,
			})
		}
		return state.results, nil
	}

	fields := transfer.ResolveExtraData(cfg.ExtraData)
	logger.Infof("[Batch] submitting %d records to %s (concurrency=%d, extra fields=%d, blob=%t)",
		len(records), cfg.Action, o.opts.Concurrency, len(fields.Fields), fields.HasBlob)

	msgs := make(chan taskMessage, o.opts.Concurrency*2)
	done := ctx.Done()
	cancelled := false
	next := 0

	for {
		if !cancelled && ctx.Err() != nil {
			cancelled = true
			logger.Infof("[Batch] cancelled with %d running and %d queued", state.inFlight.Load(), len(records)-next)
		}
		for !cancelled && next < len(records) && int(state.inFlight.Load()) < o.opts.Concurrency {
			o.start(ctx, state, msgs, next, records[next], cfg.Action, fields)
			next++
		}
		if state.inFlight.Load() == 0 {
			break
		}

		select {
		case msg := <-msgs:
			if msg.progress != nil {
				o.notify(*msg.progress)
				continue
			}
			state.inFlight.Add(-1)
			o.complete(state, *msg.result)
		case <-done:
			done = nil
		}
	}

	for i := next; i < len(records); i++ {
		o.complete(state, cancelledResult(i, records[i].Filename, 0, nil))
	}

	summary := types.Summarize(state.results)
	logger.Infof("[Batch] finished: %d succeeded, %d failed, %d cancelled", summary.Success, summary.Failed, summary.Cancelled)
	return state.results, nil
}

func (o *Orchestrator) start(ctx context.Context, state *batchState, msgs chan<- taskMessage, index int, record types.FileRecord, action string, fields types.ResolvedFields) {
	task := &Task{
		Index:         index,
		Record:        record,
		Action:        action,
		Fields:        fields,
		fetcher:       o.fetcher,
		submitter:     o.submitter,
		policy:        o.opts.Retry,
		fetchTimeout:  o.opts.FetchTimeout,
		submitTimeout: o.opts.SubmitTimeout,
		limiter:       o.limiter,
		logger:        o.opts.Logger,
		report: func(p Progress) {
			msgs <- taskMessage{progress: &p}
		},
	}
	state.inFlight.Add(1)
	go func() {
		result := task.Run(ctx)
		msgs <- taskMessage{result: &result}
	}()
}

// complete records a terminal result and emits the completion event.
func (o *Orchestrator) complete(state *batchState, result types.UploadResult) {
	if state.terminal[result.Index] {
		return
	}
	state.terminal[result.Index] = true
	state.results[result.Index] = result
	state.completed++
	o.notify(Progress{
		Kind:      EventCompleted,
		Index:     result.Index,
		Filename:  result.Filename,
		Attempt:   result.Attempts,
		Err:       result.Err,
		Completed: state.completed,
		Total:     state.total,
		Result:    &state.results[result.Index],
	})
}

func (o *Orchestrator) notify(p Progress) {
	if o.opts.Observer != nil {
		o.opts.Observer.OnProgress(p)
	}
}

// WithObserver returns a copy of o that reports to observer. The rate limiter is shared.
func (o *Orchestrator) WithObserver(observer Observer) *Orchestrator {
	clone := *o
	clone.opts.Observer = observer
	return &clone
}

// WithConcurrency returns a copy of o with a different concurrency bound; n <= 0 keeps the current one.
func (o *Orchestrator) WithConcurrency(n int) *Orchestrator {
	if n <= 0 {
		return o
	}
	clone := *o
	clone.opts.Concurrency = n
	return &clone
}
