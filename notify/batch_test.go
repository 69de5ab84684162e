package notify

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/localsend-uploader/batch"
	"github.com/moyoez/localsend-uploader/types"
)

type recordingHub struct {
	mu   sync.Mutex
	sent []*types.Notification
}

func (h *recordingHub) Broadcast(n *types.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, n)
}

func (h *recordingHub) kinds() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.sent))
	for i, n := range h.sent {
		out[i] = n.Type
	}
	return out
}

func TestBatchNotifierLifecycle(t *testing.T) {
	hub := &recordingHub{}
	n := NewBatchNotifier("batch-1", hub, "")

	n.BatchStarted(2, "https://srv/upload")
	n.OnProgress(batch.Progress{Kind: batch.EventAttempt, Index: 0, Filename: "a.txt", Attempt: 1, Outcome: batch.OutcomeRetrying, Err: errors.New("busy")})
	result := types.UploadResult{Index: 0, Filename: "a.txt", Status: types.StatusSucceeded, Attempts: 2}
	n.OnProgress(batch.Progress{Kind: batch.EventCompleted, Index: 0, Filename: "a.txt", Completed: 1, Total: 2, Result: &result})

	results := []types.UploadResult{
		result,
		{Index: 1, Filename: "b.txt", Status: types.StatusFailed, ErrorKind: types.ErrorKindSubmission},
	}
	n.Finish(results, nil)
	// a second Finish is a no-op
	n.Finish(results, nil)

	assert.Equal(t, []string{
		types.NotifyTypeBatchStart,
		types.NotifyTypeUploadAttempt,
		types.NotifyTypeUploadProgress,
		types.NotifyTypeBatchEnd,
	}, hub.kinds())

	attempt := hub.sent[1].Data
	assert.Equal(t, "busy", attempt["error"])
	assert.Equal(t, "retrying", attempt["outcome"])

	end := hub.sent[3].Data
	assert.Equal(t, "batch-1", end["batchId"])
	assert.Equal(t, 1, end["success"])
	assert.Equal(t, 1, end["failed"])
	assert.Equal(t, []string{"b.txt"}, end["failedFiles"])
}

func TestSendNotificationOverUnixSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "notify.sock")
	ln, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan types.Notification, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		lengthBuf := make([]byte, 4)
		if _, err := io.ReadFull(conn, lengthBuf); err != nil {
			return
		}
		payload := make([]byte, binary.LittleEndian.Uint32(lengthBuf))
		if _, err := io.ReadFull(conn, payload); err != nil {
			return
		}
		var n types.Notification
		_ = sonic.Unmarshal(payload, &n)
		received <- n
		_, _ = conn.Write([]byte(`{"status":"ok"}`))
	}()

	err = SendNotification(&types.Notification{Type: types.NotifyTypeBatchEnd, Title: "done"}, socketPath)
	require.NoError(t, err)
	got := <-received
	assert.Equal(t, types.NotifyTypeBatchEnd, got.Type)
	assert.Equal(t, "done", got.Title)
}

func TestSendNotificationSkipsEmptyPath(t *testing.T) {
	assert.NoError(t, SendNotification(&types.Notification{Type: types.NotifyTypeInfo}, ""))
	assert.Error(t, SendNotification(&types.Notification{Type: types.NotifyTypeInfo}, filepath.Join(t.TempDir(), "absent.sock")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))

	// "é" is two bytes; a cut inside it backs off to the rune start
	cut := truncate("aé b", 2)
	assert.Equal(t, "a...", cut)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, "aé...", truncate("aé b", 3))
}
