package batch

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/moyoez/localsend-uploader/transfer"
	"github.com/moyoez/localsend-uploader/types"
)

// Task uploads one record: fetch the content, submit it with the batch fields,
// retry transient failures with backoff.
type Task struct {
	Index  int
	Record types.FileRecord
	Action string
	Fields types.ResolvedFields

	fetcher       transfer.Fetcher
	submitter     transfer.Submitter
	policy        RetryPolicy
	fetchTimeout  time.Duration
	submitTimeout time.Duration
	limiter       *rate.Limiter
	report        func(Progress)
	logger        *log.Logger
}

// Run executes attempts until success, a permanent failure, the attempt ceiling or
// cancellation of ctx. A started attempt always runs to completion; ctx only stops
// further attempts.
func (t *Task) Run(ctx context.Context) types.UploadResult {
	maxAttempts := t.policy.attempts()
	var lastErr error

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return t.cancelled(attempt-1, lastErr)
		}
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return t.cancelled(attempt-1, lastErr)
				}
				t.logger.Warnf("[Task] rate limiter: %v", err)
			}
		}

		err := t.attempt(context.WithoutCancel(ctx))
		if err == nil {
			t.emitAttempt(attempt, OutcomeSucceeded, nil)
			return types.UploadResult{
				Index:    t.Index,
				Filename: t.Record.Filename,
				Status:   types.StatusSucceeded,
				Attempts: attempt,
			}
		}
		lastErr = err

		transient := transfer.IsTransient(err)
		if !transient || attempt >= maxAttempts {
			t.emitAttempt(attempt, OutcomeFailed, err)
			if transient {
				t.logger.Warnf("[Task] %s: giving up after %d attempts: %v", t.Record.Filename, attempt, err)
			} else {
				t.logger.Warnf("[Task] %s: permanent failure: %v", t.Record.Filename, err)
			}
			return t.failed(attempt, err, transient)
		}

		t.emitAttempt(attempt, OutcomeRetrying, err)
		delay := t.policy.Backoff(attempt)
		t.logger.Debugf("[Task] %s: attempt %d/%d failed, retrying in %v: %v", t.Record.Filename, attempt, maxAttempts, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return t.cancelled(attempt, lastErr)
		}
	}
}

// attempt is one independent fetch+submit; nothing carries over between attempts.
func (t *Task) attempt(ctx context.Context) error {
	fetchCtx, cancelFetch := withOptionalTimeout(ctx, t.fetchTimeout)
	content, err := t.fetcher.Fetch(fetchCtx, t.Record.URL)
	cancelFetch()
	if err != nil {
		return transfer.AsRetrievalError(t.Record.URL, err)
	}

	submitCtx, cancelSubmit := withOptionalTimeout(ctx, t.submitTimeout)
	defer cancelSubmit()
	err = t.submitter.Submit(submitCtx, t.Action, transfer.Submission{
		Filename: t.Record.Filename,
		Content:  content,
		Fields:   t.Fields,
	})
	if err != nil {
		return transfer.AsSubmissionError(t.Action, err)
	}
	return nil
}

func (t *Task) emitAttempt(attempt int, outcome AttemptOutcome, err error) {
	if t.report == nil {
		return
	}
	t.report(Progress{
		Kind:     EventAttempt,
		Index:    t.Index,
		Filename: t.Record.Filename,
		Attempt:  attempt,
		Outcome:  outcome,
		Err:      err,
	})
}

func (t *Task) failed(attempts int, err error, transient bool) types.UploadResult {
	kind := types.ErrorKindSubmission
	var retrievalErr *transfer.RetrievalError
	if errors.As(err, &retrievalErr) {
		kind = types.ErrorKindRetrieval
	}
	return types.UploadResult{
		Index:     t.Index,
		Filename:  t.Record.Filename,
		Status:    types.StatusFailed,
		ErrorKind: kind,
		Transient: transient,
		Attempts:  attempts,
		Error:     err.Error(),
		Err:       err,
	}
}

func (t *Task) cancelled(attempts int, lastErr error) types.UploadResult {
	return cancelledResult(t.Index, t.Record.Filename, attempts, lastErr)
}

func cancelledResult(index int, filename string, attempts int, lastErr error) types.UploadResult {
	msg := "batch cancelled"
	if lastErr != nil {
		msg = "batch cancelled after: " + lastErr.Error()
	}
	return types.UploadResult{
		Index:     index,
		Filename:  filename,
		Status:    types.StatusCancelled,
		ErrorKind: types.ErrorKindCancelled,
		Attempts:  attempts,
		Error:     msg,
		Err:       context.Canceled,
	}
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
