package worker

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewops/opsync/internal/assets"
	"github.com/crewops/opsync/internal/domain"
	"github.com/crewops/opsync/internal/localstore"
	"github.com/crewops/opsync/internal/objectstore"
	"github.com/crewops/opsync/internal/remote"
	"github.com/crewops/opsync/internal/syncer"
	"github.com/crewops/opsync/shared/logger"
	"github.com/crewops/opsync/shared/sqlite"
)

func newTestWorker(t *testing.T, serverURL string) (*Worker, *localstore.Store) {
	t.Helper()

	log := logger.NewDefault()
	client, err := sqlite.NewClient(&sqlite.Config{Path: ":memory:"}, log.Logger)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	store, err := localstore.NewStore(client, log.Logger)
	require.NoError(t, err)

	credential := "test-key"
	if serverURL == "" {
		credential = ""
	}
	settings := remote.NewSettings(serverURL, credential, "photos")
	mirror := remote.NewMirror(remote.NewClient(settings, 2*time.Second, log.Logger), store, log.Logger)
	uploader := objectstore.NewUploader(settings, 2*time.Second, log.Logger)
	pipeline := assets.NewPipeline(uploader, assets.NewCache(), log.Logger)

	w := &Worker{
		logger:      log.Logger,
		dispatch:    syncer.NewDispatchService(store, mirror, pipeline, log.Logger),
		inspection:  syncer.NewInspectionService(store, mirror, pipeline, log.Logger),
		taskTimeout: 5 * time.Second,
		workerID:    "test-worker",
	}
	return w, store
}

func TestProcessTask_BackfillPushesLocalCache(t *testing.T) {
	var upserts atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			upserts.Add(1)
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			w.Write(body)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	w, store := newTestWorker(t, server.URL)

	ctx := context.Background()
	data := localstore.SeedDispatch()
	data.Jobs = []domain.Job{{JobID: "j1", Title: "t"}}
	data.Employees = []domain.Employee{{EmployeeID: "e1", Name: "Dana"}}
	data.CustomerProfiles = []domain.CustomerProfile{{ProfileID: "p1", Name: "Tanaka"}}
	require.True(t, store.SaveDispatch(ctx, data))
	require.True(t, store.SaveLocations(ctx, map[string]domain.EmployeeLocation{
		"e1": {EmployeeID: "e1", Latitude: 1, Longitude: 2, ReportedAt: time.Now().UTC()},
	}))
	require.True(t, store.SaveTemplates(ctx, []domain.PropertyTemplate{{TemplateID: "tpl-1", PropertyName: "Loft"}}))

	err := w.processTask(ctx, &SyncTask{TaskID: "task-1", TaskType: TaskRemoteBackfill})
	require.NoError(t, err)

	// 1 profile + 1 employee + 1 job + 1 location + 1 template
	assert.Equal(t, int64(5), upserts.Load())
}

func TestProcessTask_BackfillWithoutRemoteIsTerminal(t *testing.T) {
	w, _ := newTestWorker(t, "")

	err := w.processTask(context.Background(), &SyncTask{TaskID: "task-1", TaskType: TaskRemoteBackfill})
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.False(t, w.shouldRequeueTask(err), "detached backend must not spin the queue")
}

func TestProcessTask_NetworkFailureIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	w, store := newTestWorker(t, serverURL)

	ctx := context.Background()
	data := localstore.SeedDispatch()
	data.Jobs = []domain.Job{{JobID: "j1"}}
	require.True(t, store.SaveDispatch(ctx, data))

	err := w.processTask(ctx, &SyncTask{TaskID: "task-1", TaskType: TaskRemoteBackfill})
	require.Error(t, err)
	assert.True(t, w.shouldRequeueTask(err), "transport failures are worth a retry")
}

func TestProcessTask_UnknownTypeIsInvalid(t *testing.T) {
	w, _ := newTestWorker(t, "")

	err := w.processTask(context.Background(), &SyncTask{TaskID: "task-1", TaskType: "vacuum"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTask)
	assert.False(t, w.shouldRequeueTask(err))
}

func TestProcessTask_AssetMigrationSweepsRemote(t *testing.T) {
	inline := "data:image/png;base64,aGVsbG8=" // "hello"

	var uploads, reportUpserts atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/rest/v1/inspection_reports" && r.Method == http.MethodGet:
			w.Write([]byte(`[{"id":"rep-1","property_id":"p1","status":"SUBMITTED","submitted_at":"2024-03-03T09:00:00Z","payload":{"noteImages":["` + inline + `"]}}]`))
		case r.URL.Path == "/rest/v1/inspection_reports" && r.Method == http.MethodPost:
			reportUpserts.Add(1)
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			w.Write(body)
		case r.URL.Path == "/rest/v1/property_templates" || r.URL.Path == "/rest/v1/jobs":
			w.Write([]byte(`[]`))
		default:
			uploads.Add(1)
			w.Write([]byte(`{"Key":"ok"}`))
		}
	}))
	defer server.Close()

	w, _ := newTestWorker(t, server.URL)

	err := w.processTask(context.Background(), &SyncTask{TaskID: "task-1", TaskType: TaskAssetMigration})
	require.NoError(t, err)

	assert.Equal(t, int64(1), uploads.Load(), "one inline payload uploaded")
	assert.Equal(t, int64(1), reportUpserts.Load(), "rewritten report stored back")
}

func TestValidTaskType(t *testing.T) {
	assert.True(t, ValidTaskType(TaskRemoteBackfill))
	assert.True(t, ValidTaskType(TaskAssetMigration))
	assert.False(t, ValidTaskType(""))
	assert.False(t, ValidTaskType("vacuum"))
}
