package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	published [][]byte
	err       error
}

func (p *fakePublisher) PublishWithRetry(_ context.Context, body []byte, _ string) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, body)
	return nil
}

func TestRouter_EnqueueSyncTask(t *testing.T) {
	pub := &fakePublisher{}
	r := newTestRouterWithTasks(t, pub)

	w, body := doJSON(t, r, http.MethodPost, "/api/v1/sync/tasks", `{"taskType":"remote_backfill"}`)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "queued", body["status"])
	assert.Equal(t, "remote_backfill", body["taskType"])
	assert.NotEmpty(t, body["taskId"])

	require.Len(t, pub.published, 1)
	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(pub.published[0], &msg))
	assert.Equal(t, "remote_backfill", msg["task_type"])
	assert.Equal(t, body["taskId"], msg["task_id"])
}

func TestRouter_EnqueueSyncTask_UnknownType(t *testing.T) {
	pub := &fakePublisher{}
	r := newTestRouterWithTasks(t, pub)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/sync/tasks", `{"taskType":"vacuum"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, pub.published)
}

func TestRouter_EnqueueSyncTask_QueueNotConfigured(t *testing.T) {
	r := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/sync/tasks", `{"taskType":"asset_migration"}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_EnqueueSyncTask_BrokerDown(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	r := newTestRouterWithTasks(t, pub)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/sync/tasks", `{"taskType":"asset_migration"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
