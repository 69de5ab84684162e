package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/localsend-uploader/api/models"
	"github.com/moyoez/localsend-uploader/api/notifyhub"
	"github.com/moyoez/localsend-uploader/batch"
	"github.com/moyoez/localsend-uploader/notify"
	"github.com/moyoez/localsend-uploader/tool"
	"github.com/moyoez/localsend-uploader/types"
)

// BatchController starts, inspects and cancels upload batches.
type BatchController struct {
	orchestrator *batch.Orchestrator
	hub          *notifyhub.Hub
	socketPath   string
}

// NewBatchController wires the controller. hub may be nil when the websocket stream is disabled.
func NewBatchController(orchestrator *batch.Orchestrator, hub *notifyhub.Hub, socketPath string) *BatchController {
	return &BatchController{
		orchestrator: orchestrator,
		hub:          hub,
		socketPath:   socketPath,
	}
}

func validateBatchRequest(request *types.UploadBatchRequest) error {
	if len(request.Records) == 0 {
		return errors.New("no files provided")
	}
	if strings.TrimSpace(request.Config.Action) == "" {
		return batch.ErrMissingAction
	}
	for i, record := range request.Records {
		if record.Filename == "" {
			return fmt.Errorf("record %d has an empty filename", i)
		}
	}
	if request.Concurrency < 0 {
		return errors.New("concurrency must not be negative")
	}
	return nil
}

// HandleUploadBatch starts a batch.
// POST /api/self/v1/upload-batch[?wait=true]
func (ctrl *BatchController) HandleUploadBatch(c *gin.Context) {
	var request types.UploadBatchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid JSON request: "+err.Error()))
		return
	}
	if err := validateBatchRequest(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}

	wait := c.Query("wait") == "true"
	parent := context.Background()
	if wait {
		// a synchronous caller that goes away cancels its batch
		parent = c.Request.Context()
	}
	ctx, cancel := context.WithCancel(parent)

	batchId := tool.GenerateBatchID()
	entry := models.RegisterBatch(batchId, &request, cancel)

	var hub types.NotifyHub
	if ctrl.hub != nil {
		hub = ctrl.hub
	}
	notifier := notify.NewBatchNotifier(batchId, hub, ctrl.socketPath)
	orch := ctrl.orchestrator.
		WithConcurrency(request.Concurrency).
		WithObserver(batch.MultiObserver{entry, notifier})

	tool.BatchLogger(batchId).Infof("[UploadBatch] %d records -> %s", len(request.Records), request.Config.Action)
	notifier.BatchStarted(len(request.Records), request.Config.Action)

	run := func() {
		defer cancel()
		results, err := orch.SubmitBatch(ctx, request.Records, request.Config)
		notifier.Finish(results, err)
		entry.Finish(results, err)
	}

	if !wait {
		go run()
		c.JSON(http.StatusAccepted, tool.FastReturnSuccessWithData(gin.H{"batchId": batchId}))
		return
	}

	run()
	snapshot := entry.Snapshot()
	summary := snapshot.Summary
	switch {
	case snapshot.Error != "":
		c.JSON(http.StatusBadRequest, tool.FastReturnResult(snapshot.Error, true, snapshot))
	case summary.Success == summary.Total:
		c.JSON(http.StatusOK, tool.FastReturnResult("All files uploaded successfully", false, snapshot))
	case summary.Success == 0:
		c.JSON(http.StatusInternalServerError, tool.FastReturnResult("All files failed to upload", true, snapshot))
	default:
		c.JSON(http.StatusMultiStatus, tool.FastReturnResult("Batch upload completed with some failures", false, snapshot))
	}
}

// HandleGetBatch returns the current snapshot of a batch.
// GET /api/self/v1/batches/:id
func (ctrl *BatchController) HandleGetBatch(c *gin.Context) {
	entry := models.GetBatch(strings.TrimSpace(c.Param("id")))
	if entry == nil {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Batch not found or expired"))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(entry.Snapshot()))
}

// HandleCancelBatch cancels a running batch; running attempts finish, nothing new starts.
// POST /api/self/v1/cancel?batchId=
func (ctrl *BatchController) HandleCancelBatch(c *gin.Context) {
	batchId := strings.TrimSpace(c.Query("batchId"))
	if batchId == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing required parameter: batchId"))
		return
	}
	entry := models.GetBatch(batchId)
	if entry == nil {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Batch not found or expired"))
		return
	}
	if !entry.Cancel() {
		c.JSON(http.StatusConflict, tool.FastReturnError("Batch already finished"))
		return
	}
	tool.BatchLogger(batchId).Infof("[CancelBatch] cancellation requested")
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}
