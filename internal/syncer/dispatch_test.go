package syncer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
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
	"github.com/crewops/opsync/shared/logger"
	"github.com/crewops/opsync/shared/sqlite"
)

func newTestDispatch(t *testing.T, serverURL string) (*DispatchService, *localstore.Store) {
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
	return NewDispatchService(store, mirror, pipeline, log.Logger), store
}

// echoServer accepts every upsert and echoes the submitted rows back,
// and answers every list with an empty array.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			w.Write(body)
		case http.MethodDelete:
			w.Write([]byte(`[]`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
}

func TestDispatch_SaveJob_RemoteOutcome(t *testing.T) {
	server := echoServer(t)
	defer server.Close()

	svc, store := newTestDispatch(t, server.URL)

	job := domain.Job{JobID: "j1", Title: "Deep clean", Status: domain.JobStatusPending, ScheduledDate: "2024-03-06"}
	saved, result, err := svc.SaveJob(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeRemote, result.Outcome)
	assert.Equal(t, "j1", saved.JobID)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.False(t, saved.UpdatedAt.Before(saved.CreatedAt))

	cached := store.LoadDispatch(context.Background())
	require.Len(t, cached.Jobs, 1)
	assert.Equal(t, "Deep clean", cached.Jobs[0].Title)
}

func TestDispatch_SaveJob_RelationMissingFallsBackLocally(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"42P01","message":"relation \"public.jobs\" does not exist"}`))
	}))
	defer server.Close()

	svc, store := newTestDispatch(t, server.URL)

	saved, result, err := svc.SaveJob(context.Background(), domain.Job{JobID: "j1", Title: "Offline job"})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeLocalFallback, result.Outcome)
	assert.NotEmpty(t, result.Detail)
	assert.Equal(t, "j1", saved.JobID)

	cached := store.LoadDispatch(context.Background())
	require.Len(t, cached.Jobs, 1)
}

func TestDispatch_SaveJob_NetworkFailureFallsBackLocally(t *testing.T) {
	// Point the mirror at a server that is already gone.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	svc, store := newTestDispatch(t, serverURL)

	_, result, err := svc.SaveJob(context.Background(), domain.Job{JobID: "j1"})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeLocalFallback, result.Outcome)
	assert.Len(t, store.LoadDispatch(context.Background()).Jobs, 1)
}

func TestDispatch_SaveJob_UnauthorizedPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"JWT expired"}`))
	}))
	defer server.Close()

	svc, store := newTestDispatch(t, server.URL)

	_, _, err := svc.SaveJob(context.Background(), domain.Job{JobID: "j1"})
	require.Error(t, err)

	ge, ok := remote.AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, remote.KindUnauthorized, ge.Class.Kind)

	assert.Empty(t, store.LoadDispatch(context.Background()).Jobs, "failed write must not pretend success")
}

func TestDispatch_SaveJob_NotConfiguredIsLocalOnly(t *testing.T) {
	svc, store := newTestDispatch(t, "")

	_, result, err := svc.SaveJob(context.Background(), domain.Job{JobID: "j1"})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeLocalFallback, result.Outcome)
	assert.Equal(t, "remote not configured", result.Detail)
	assert.Len(t, store.LoadDispatch(context.Background()).Jobs, 1)
}

func TestDispatch_LoadBoard_MergesRemoteAndCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/v1/jobs":
			json.NewEncoder(w).Encode([]map[string]interface{}{
				{"id": "j1", "title": "remote title"},
			})
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer server.Close()

	svc, store := newTestDispatch(t, server.URL)

	data := localstore.SeedDispatch()
	data.Jobs = []domain.Job{
		{JobID: "j1", Title: "stale local title"},
		{JobID: "j2", Title: "offline-only job"},
	}
	require.True(t, store.SaveDispatch(context.Background(), data))

	board, result, err := svc.LoadBoard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeRemote, result.Outcome)
	require.Len(t, board.Jobs, 2)
	assert.Equal(t, "remote title", board.Jobs[0].Title)
	assert.Equal(t, "offline-only job", board.Jobs[1].Title)

	// The merged board became the new cache baseline.
	cached := store.LoadDispatch(context.Background())
	assert.Equal(t, "remote title", cached.Jobs[0].Title)
}

func TestDispatch_LoadBoard_PartialRelationMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rest/v1/schedules" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"code":"42P01","message":"relation \"public.schedules\" does not exist"}`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	svc, store := newTestDispatch(t, server.URL)

	data := localstore.SeedDispatch()
	data.Schedules = []domain.ScheduleEntry{{ScheduleID: "s1", EmployeeID: "e1", Date: "2024-03-06"}}
	require.True(t, store.SaveDispatch(context.Background(), data))

	board, result, err := svc.LoadBoard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeLocalFallback, result.Outcome)
	assert.Len(t, board.Schedules, 1, "unprovisioned collection served from cache")
}

func TestDispatch_DeleteEmployee_Cascades(t *testing.T) {
	server := echoServer(t)
	defer server.Close()

	svc, store := newTestDispatch(t, server.URL)

	ctx := context.Background()
	data := localstore.SeedDispatch()
	data.Employees = []domain.Employee{{EmployeeID: "e1", Name: "Dana"}}
	data.Jobs = []domain.Job{
		{JobID: "j1", Status: domain.JobStatusAssigned, AssignedEmployees: []string{"e1"}},
		{JobID: "j2", Status: domain.JobStatusAssigned, AssignedEmployees: []string{"e1", "e2"}},
	}
	require.True(t, store.SaveDispatch(ctx, data))
	require.True(t, store.SaveInspectionEmployees(ctx, []domain.InspectionEmployee{{EmployeeID: "e1", Name: "Dana"}}))

	result, err := svc.DeleteEmployee(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRemote, result.Outcome)

	cached := store.LoadDispatch(ctx)
	assert.Empty(t, cached.Employees)

	require.Len(t, cached.Jobs, 2)
	assert.Empty(t, cached.Jobs[0].AssignedEmployees)
	assert.Equal(t, domain.JobStatusPending, cached.Jobs[0].Status, "job with no assignees left falls back to pending")
	assert.Equal(t, []string{"e2"}, cached.Jobs[1].AssignedEmployees)
	assert.Equal(t, domain.JobStatusAssigned, cached.Jobs[1].Status)

	assert.Empty(t, store.LoadInspectionEmployees(ctx), "mirrored inspection record removed")
}

func TestDispatch_SaveEmployee_MirrorsInspectionRecord(t *testing.T) {
	server := echoServer(t)
	defer server.Close()

	svc, store := newTestDispatch(t, server.URL)

	ctx := context.Background()
	_, result, err := svc.SaveEmployee(ctx, domain.Employee{
		EmployeeID:   "e1",
		Name:         "Dana",
		NameAlt:      "ダナ",
		Availability: domain.AvailabilityAvailable,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRemote, result.Outcome)

	mirrored := store.LoadInspectionEmployees(ctx)
	require.Len(t, mirrored, 1)
	assert.Equal(t, "Dana", mirrored[0].Name)
	assert.Equal(t, "ダナ", mirrored[0].Alias)
}

func TestDispatch_ReportLocation_OverwritesPreviousReport(t *testing.T) {
	svc, store := newTestDispatch(t, "")

	ctx := context.Background()
	_, _, err := svc.ReportLocation(ctx, domain.EmployeeLocation{EmployeeID: "e1", Latitude: 1, Longitude: 1})
	require.NoError(t, err)
	_, _, err = svc.ReportLocation(ctx, domain.EmployeeLocation{EmployeeID: "e1", Latitude: 2, Longitude: 2})
	require.NoError(t, err)

	locations := store.LoadLocations(ctx)
	require.Len(t, locations, 1)
	assert.Equal(t, float64(2), locations["e1"].Latitude, "no history: each report overwrites the last")
	assert.False(t, locations["e1"].ReportedAt.IsZero())
}

func TestDispatch_DeleteJob_NotFoundRemotelyStillPrunesCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"not found"}`))
	}))
	defer server.Close()

	svc, store := newTestDispatch(t, server.URL)

	ctx := context.Background()
	data := localstore.SeedDispatch()
	data.Jobs = []domain.Job{{JobID: "j1"}}
	require.True(t, store.SaveDispatch(ctx, data))

	result, err := svc.DeleteJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRemote, result.Outcome)
	assert.Empty(t, store.LoadDispatch(ctx).Jobs)
}

func TestDispatch_SaveJob_MigratesInlineImages(t *testing.T) {
	inline := "data:image/png;base64,aGVsbG8=" // "hello"

	var uploads atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/storage/v1/object/"):
			uploads.Add(1)
			w.Write([]byte(`{"Key":"photos/x"}`))
		case r.URL.Path == "/rest/v1/jobs" && r.Method == http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			assert.NotContains(t, string(body), "data:image", "mirror must never store inline payloads")
			w.WriteHeader(http.StatusCreated)
			w.Write(body)
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer server.Close()

	svc, store := newTestDispatch(t, server.URL)

	saved, result, err := svc.SaveJob(context.Background(), domain.Job{
		JobID:     "j1",
		Title:     "Deep clean",
		ImageURLs: []string{inline, "https://cdn.example.com/kept.png"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeRemote, result.Outcome)
	assert.Equal(t, int64(1), uploads.Load(), "only the inline payload needs an upload")
	require.Len(t, saved.ImageURLs, 2)
	assert.Contains(t, saved.ImageURLs[0], "/storage/v1/object/public/photos/")
	assert.Equal(t, "https://cdn.example.com/kept.png", saved.ImageURLs[1])

	cached := store.LoadDispatch(context.Background())
	require.Len(t, cached.Jobs, 1)
	assert.NotContains(t, cached.Jobs[0].ImageURLs[0], "data:image")
}

func TestDispatch_MigrateRemoteAssets_RewritesInlinePayloads(t *testing.T) {
	inline := "data:image/png;base64,aGVsbG8="

	var uploads, upserts atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/storage/v1/object/"):
			uploads.Add(1)
			w.Write([]byte(`{"Key":"ok"}`))
		case r.URL.Path == "/rest/v1/jobs" && r.Method == http.MethodGet:
			w.Write([]byte(`[{"id":"j1","title":"Turnover","status":"PENDING","image_urls":["` + inline + `"]},{"id":"j2","title":"Clean","status":"PENDING"}]`))
		case r.URL.Path == "/rest/v1/jobs" && r.Method == http.MethodPost:
			upserts.Add(1)
			body, _ := io.ReadAll(r.Body)
			assert.NotContains(t, string(body), "data:image")
			w.WriteHeader(http.StatusCreated)
			w.Write(body)
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer server.Close()

	svc, _ := newTestDispatch(t, server.URL)

	uploaded, err := svc.MigrateRemoteAssets(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, uploaded)
	assert.Equal(t, int64(1), uploads.Load())
	assert.Equal(t, int64(1), upserts.Load(), "only the rewritten job is stored back")
}

func TestDispatch_MigrateRemoteAssets_NotConfigured(t *testing.T) {
	svc, _ := newTestDispatch(t, "")

	_, err := svc.MigrateRemoteAssets(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestDispatch_DeleteEmployee_CascadesToRemoteOnlyJobs(t *testing.T) {
	var jobUpserts atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/rest/v1/jobs" && r.Method == http.MethodGet:
			w.Write([]byte(`[{"id":"j-remote","title":"Remote turnover","status":"ASSIGNED","assigned_employees":["e1"]}]`))
		case r.URL.Path == "/rest/v1/jobs" && r.Method == http.MethodPost:
			jobUpserts.Add(1)
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			w.Write(body)
		case r.Method == http.MethodDelete:
			w.Write([]byte(`[]`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer server.Close()

	svc, store := newTestDispatch(t, server.URL)

	ctx := context.Background()
	data := localstore.SeedDispatch()
	data.Employees = []domain.Employee{{EmployeeID: "e1", Name: "Dana"}}
	require.True(t, store.SaveDispatch(ctx, data))

	result, err := svc.DeleteEmployee(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRemote, result.Outcome)

	// The job only existed remotely; the cascade must still reach it so
	// the next board merge cannot re-introduce the dangling assignment.
	cached := store.LoadDispatch(ctx)
	assert.Empty(t, cached.Employees)
	require.Len(t, cached.Jobs, 1)
	assert.Equal(t, "j-remote", cached.Jobs[0].JobID)
	assert.Empty(t, cached.Jobs[0].AssignedEmployees)
	assert.Equal(t, domain.JobStatusPending, cached.Jobs[0].Status)
	assert.Equal(t, int64(1), jobUpserts.Load(), "unassignment pushed to the mirror")
}

func TestDispatch_LoadBoard_SurvivesFailedCacheRefresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rest/v1/jobs" {
			w.Write([]byte(`[{"id":"j1","title":"remote title"}]`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	log := logger.NewDefault()
	client, err := sqlite.NewClient(&sqlite.Config{Path: ":memory:"}, log.Logger)
	require.NoError(t, err)

	store, err := localstore.NewStore(client, log.Logger)
	require.NoError(t, err)

	settings := remote.NewSettings(server.URL, "test-key", "photos")
	mirror := remote.NewMirror(remote.NewClient(settings, 2*time.Second, log.Logger), store, log.Logger)
	pipeline := assets.NewPipeline(objectstore.NewUploader(settings, 2*time.Second, log.Logger), assets.NewCache(), log.Logger)
	svc := NewDispatchService(store, mirror, pipeline, log.Logger)

	// Every cache write fails from here on.
	require.NoError(t, client.Close())

	board, result, err := svc.LoadBoard(context.Background())
	require.NoError(t, err, "a failed cache refresh must not fail the read")
	assert.Equal(t, domain.OutcomeRemote, result.Outcome)
	require.Len(t, board.Jobs, 1)
	assert.Equal(t, "remote title", board.Jobs[0].Title)
}

func TestDispatch_PatchJob(t *testing.T) {
	svc, store := newTestDispatch(t, "")

	ctx := context.Background()
	data := localstore.SeedDispatch()
	data.Jobs = []domain.Job{{JobID: "j1", Title: "Turnover", Status: domain.JobStatusPending}}
	require.True(t, store.SaveDispatch(ctx, data))

	assignees := []string{"e1", "e2"}
	patched, _, err := svc.PatchJob(ctx, "j1", JobPatch{AssignedEmployees: &assignees})
	require.NoError(t, err)

	assert.Equal(t, assignees, patched.AssignedEmployees)
	assert.Equal(t, domain.JobStatusAssigned, patched.Status, "assignment promotes a pending job")
	assert.Equal(t, "Turnover", patched.Title, "untouched fields survive")

	none := []string{}
	patched, _, err = svc.PatchJob(ctx, "j1", JobPatch{AssignedEmployees: &none})
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, patched.Status, "emptying the assignment demotes the job")
}

func TestDispatch_PatchJob_InvalidStatus(t *testing.T) {
	svc, store := newTestDispatch(t, "")

	ctx := context.Background()
	data := localstore.SeedDispatch()
	data.Jobs = []domain.Job{{JobID: "j1", Status: domain.JobStatusPending}}
	require.True(t, store.SaveDispatch(ctx, data))

	bogus := "DONE"
	_, _, err := svc.PatchJob(ctx, "j1", JobPatch{Status: &bogus})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDispatch_PatchJob_UnknownJob(t *testing.T) {
	svc, _ := newTestDispatch(t, "")

	status := domain.JobStatusCompleted
	_, _, err := svc.PatchJob(context.Background(), "missing", JobPatch{Status: &status})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
