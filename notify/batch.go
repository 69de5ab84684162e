package notify

import (
	"fmt"
	"sync"

	"github.com/moyoez/localsend-uploader/batch"
	"github.com/moyoez/localsend-uploader/tool"
	"github.com/moyoez/localsend-uploader/types"
)

const notifyQueueSize = 256

// BatchNotifier turns batch progress into notifications for the websocket hub and the
// Unix socket. Delivery happens on its own goroutine so a slow client never stalls scheduling.
type BatchNotifier struct {
	batchId    string
	hub        types.NotifyHub
	socketPath string

	queue chan *types.Notification
	wg    sync.WaitGroup
	once  sync.Once
}

// NewBatchNotifier starts the delivery goroutine. Either sink may be empty.
func NewBatchNotifier(batchId string, hub types.NotifyHub, socketPath string) *BatchNotifier {
	n := &BatchNotifier{
		batchId:    batchId,
		hub:        hub,
		socketPath: socketPath,
		queue:      make(chan *types.Notification, notifyQueueSize),
	}
	n.wg.Add(1)
	go n.run()
	return n
}

func (n *BatchNotifier) run() {
	defer n.wg.Done()
	for notification := range n.queue {
		if n.hub != nil {
			n.hub.Broadcast(notification)
		}
		if n.socketPath != "" {
			if err := SendNotification(notification, n.socketPath); err != nil {
				tool.DefaultLogger.Debugf("[Notify] %s: %v", notification.Type, err)
			}
		}
	}
}

func (n *BatchNotifier) enqueue(notification *types.Notification) {
	select {
	case n.queue <- notification:
	default:
		// progress is best effort; batch_end is sent by Finish after draining
		tool.DefaultLogger.Debugf("[Notify] queue full, dropping %s for batch %s", notification.Type, n.batchId)
	}
}

// BatchStarted announces a new batch.
func (n *BatchNotifier) BatchStarted(total int, action string) {
	n.enqueue(&types.Notification{
		Type:    types.NotifyTypeBatchStart,
		Title:   "Upload Started",
		Message: fmt.Sprintf("Uploading %d files to %s", total, action),
		Data: map[string]any{
			"batchId": n.batchId,
			"total":   total,
			"action":  action,
		},
	})
}

// OnProgress implements batch.Observer.
func (n *BatchNotifier) OnProgress(p batch.Progress) {
	data := map[string]any{
		"batchId":  n.batchId,
		"index":    p.Index,
		"filename": p.Filename,
	}
	if p.Err != nil {
		data["error"] = truncate(p.Err.Error(), MaxNotifyErrorLen)
	}

	switch p.Kind {
	case batch.EventAttempt:
		data["attempt"] = p.Attempt
		data["outcome"] = string(p.Outcome)
		n.enqueue(&types.Notification{
			Type:    types.NotifyTypeUploadAttempt,
			Title:   "Upload Attempt",
			Message: fmt.Sprintf("%s: attempt %d %s", p.Filename, p.Attempt, p.Outcome),
			Data:    data,
		})
	case batch.EventCompleted:
		data["completed"] = p.Completed
		data["total"] = p.Total
		if p.Result != nil {
			data["status"] = string(p.Result.Status)
			data["attempts"] = p.Result.Attempts
			if p.Result.ErrorKind != types.ErrorKindNone {
				data["errorKind"] = string(p.Result.ErrorKind)
			}
		}
		n.enqueue(&types.Notification{
			Type:    types.NotifyTypeUploadProgress,
			Title:   "Uploading",
			Message: fmt.Sprintf("%d/%d %s", p.Completed, p.Total, p.Filename),
			Data:    data,
		})
	}
}

// Finish sends batch_end, drains the queue and stops the delivery goroutine.
func (n *BatchNotifier) Finish(results []types.UploadResult, err error) {
	n.once.Do(func() {
		summary := types.Summarize(results)
		failedNames := make([]string, 0)
		for _, r := range results {
			if !r.Succeeded() && len(failedNames) < 10 {
				failedNames = append(failedNames, r.Filename)
			}
		}
		data := map[string]any{
			"batchId":     n.batchId,
			"total":       summary.Total,
			"success":     summary.Success,
			"failed":      summary.Failed,
			"cancelled":   summary.Cancelled,
			"failedFiles": failedNames,
		}
		if err != nil {
			data["error"] = truncate(err.Error(), MaxNotifyErrorLen)
		}
		end := &types.Notification{
			Type:    types.NotifyTypeBatchEnd,
			Title:   "Upload Completed",
			Message: fmt.Sprintf("%d succeeded, %d failed, %d cancelled", summary.Success, summary.Failed, summary.Cancelled),
			Data:    data,
		}
		n.queue <- end
		close(n.queue)
		n.wg.Wait()
	})
}
