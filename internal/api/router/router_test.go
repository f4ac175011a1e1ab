package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewops/opsync/internal/api/handler"
	"github.com/crewops/opsync/internal/assets"
	"github.com/crewops/opsync/internal/localstore"
	"github.com/crewops/opsync/internal/objectstore"
	"github.com/crewops/opsync/internal/remote"
	"github.com/crewops/opsync/internal/syncer"
	"github.com/crewops/opsync/shared/logger"
	"github.com/crewops/opsync/shared/sqlite"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	return newTestRouterWithTasks(t, nil)
}

func newTestRouterWithTasks(t *testing.T, tasks handler.TaskPublisher) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewDefault()
	client, err := sqlite.NewClient(&sqlite.Config{Path: ":memory:"}, log.Logger)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	store, err := localstore.NewStore(client, log.Logger)
	require.NoError(t, err)

	// Unconfigured backend: every write takes the local-fallback path.
	settings := remote.NewSettings("", "", "photos")
	gateway := remote.NewClient(settings, time.Second, log.Logger)
	mirror := remote.NewMirror(gateway, store, log.Logger)
	uploader := objectstore.NewUploader(settings, time.Second, log.Logger)
	pipeline := assets.NewPipeline(uploader, assets.NewCache(), log.Logger)

	return SetupRouter(&handler.Dependencies{
		Logger:     log.Logger,
		Dispatch:   syncer.NewDispatchService(store, mirror, pipeline, log.Logger),
		Inspection: syncer.NewInspectionService(store, mirror, pipeline, log.Logger),
		Settings:   settings,
		Tasks:      tasks,
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t)

	w, body := doJSON(t, r, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "opsync-api", body["service"])
	assert.Equal(t, false, body["remote"])
}

func TestRouter_SaveJob_LocalFallbackWithoutRemote(t *testing.T) {
	r := newTestRouter(t)

	w, body := doJSON(t, r, http.MethodPost, "/api/v1/dispatch/jobs",
		`{"title":"Deep clean","scheduledDate":"2024-03-06","startTime":"09:00"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "local-fallback", body["outcome"])
	assert.Equal(t, "remote not configured", body["detail"])

	job := body["job"].(map[string]interface{})
	assert.NotEmpty(t, job["jobId"], "id generated server-side")
	assert.Equal(t, "PENDING", job["status"])
}

func TestRouter_SaveJob_RejectsMissingTitle(t *testing.T) {
	r := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/dispatch/jobs",
		`{"scheduledDate":"2024-03-06"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_SaveJob_RejectsUnknownStatus(t *testing.T) {
	r := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/dispatch/jobs",
		`{"title":"x","scheduledDate":"2024-03-06","status":"SNOOZED"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_BoardRoundTrip(t *testing.T) {
	r := newTestRouter(t)

	_, saved := doJSON(t, r, http.MethodPost, "/api/v1/dispatch/jobs",
		`{"title":"Deep clean","scheduledDate":"2024-03-06"}`)
	jobID := saved["job"].(map[string]interface{})["jobId"].(string)

	w, body := doJSON(t, r, http.MethodGet, "/api/v1/dispatch/board", "")
	require.Equal(t, http.StatusOK, w.Code)

	jobs := body["jobs"].([]interface{})
	require.Len(t, jobs, 1)
	assert.Equal(t, jobID, jobs[0].(map[string]interface{})["jobId"])
}

func TestRouter_GenerateRecurringJobs(t *testing.T) {
	r := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/dispatch/profiles",
		`{"name":"Tanaka residence","recurringEnabled":true,"recurringWeekday":3,"recurringStartTime":"09:00","recurringEndTime":"11:00"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, r, http.MethodPost, "/api/v1/dispatch/generate",
		`{"weekStart":"2024-03-04"}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, float64(1), body["generated"])
	jobs := body["jobs"].([]interface{})
	require.Len(t, jobs, 1)
	assert.Equal(t, "2024-03-06", jobs[0].(map[string]interface{})["scheduledDate"])

	// Idempotent: the same window generates nothing the second time.
	w, body = doJSON(t, r, http.MethodPost, "/api/v1/dispatch/generate",
		`{"weekStart":"2024-03-04"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), body["generated"])
}

func TestRouter_GenerateRejectsBadWeekStart(t *testing.T) {
	r := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/dispatch/generate",
		`{"weekStart":"03/04/2024"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_BackupImportRejectsMissingData(t *testing.T) {
	r := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/dispatch/backup",
		`{"version":"v1","exportedAt":"2024-03-04T00:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_BackupExportImportRoundTrip(t *testing.T) {
	r := newTestRouter(t)

	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/dispatch/jobs",
		`{"title":"Keep me","scheduledDate":"2024-03-06"}`)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dispatch/backup", nil))
	require.Equal(t, http.StatusOK, w.Code)
	exported := w.Body.String()

	w2, _ := doJSON(t, r, http.MethodPost, "/api/v1/dispatch/backup", exported)
	require.Equal(t, http.StatusOK, w2.Code)

	_, body := doJSON(t, r, http.MethodGet, "/api/v1/dispatch/board", "")
	assert.Len(t, body["jobs"].([]interface{}), 1)
}

func TestRouter_SettingsLifecycle(t *testing.T) {
	r := newTestRouter(t)

	w, body := doJSON(t, r, http.MethodGet, "/api/v1/settings/remote", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["configured"])

	w, body = doJSON(t, r, http.MethodPut, "/api/v1/settings/remote",
		`{"endpoint":"https://example.supabase.co","credential":"service-role-key-1234"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["configured"])

	w, body = doJSON(t, r, http.MethodGet, "/api/v1/settings/remote", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://example.supabase.co", body["endpoint"])
	credential := body["credential"].(string)
	assert.NotEqual(t, "service-role-key-1234", credential, "credential must be masked")
	assert.Contains(t, credential, "...")

	w, _ = doJSON(t, r, http.MethodPut, "/api/v1/settings/remote",
		`{"endpoint":"https://example.supabase.co"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "endpoint without credential is rejected")
}

func TestRouter_InspectionReportLifecycleWithoutRemote(t *testing.T) {
	r := newTestRouter(t)

	w, body := doJSON(t, r, http.MethodPost, "/api/v1/inspection/reports",
		`{"propertyId":"p1","propertyName":"Harbor Loft","noteImages":["https://cdn.example.com/a.png"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "local-fallback", body["outcome"])

	report := body["report"].(map[string]interface{})
	assert.Equal(t, "DRAFT", report["status"])
	assert.Equal(t, float64(1), report["noteImageCount"], "response carries the light variant")

	w, body = doJSON(t, r, http.MethodGet, "/api/v1/inspection/reports", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["reports"].([]interface{}), 1)

	// The canonical variant needs the remote store.
	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/inspection/reports/"+report["reportId"].(string), "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_ReportLocation_AcceptsZeroCoordinates(t *testing.T) {
	r := newTestRouter(t)

	// 0/0 is a point in the Gulf of Guinea, not a missing field.
	w, body := doJSON(t, r, http.MethodPost, "/api/v1/dispatch/locations",
		`{"employeeId":"e1","latitude":0,"longitude":0}`)
	require.Equal(t, http.StatusOK, w.Code)

	location := body["location"].(map[string]interface{})
	assert.Equal(t, float64(0), location["latitude"])
	assert.Equal(t, float64(0), location["longitude"])

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/dispatch/locations",
		`{"employeeId":"e1","longitude":12.5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "absent latitude is still rejected")
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/dispatch/board", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_PatchJob(t *testing.T) {
	r := newTestRouter(t)

	_, body := doJSON(t, r, http.MethodPost, "/api/v1/dispatch/jobs",
		`{"title":"Turnover","scheduledDate":"2024-03-06"}`)
	jobID := body["job"].(map[string]interface{})["jobId"].(string)

	w, body := doJSON(t, r, http.MethodPatch, "/api/v1/dispatch/jobs/"+jobID,
		`{"status":"IN_PROGRESS"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "IN_PROGRESS", body["job"].(map[string]interface{})["status"])

	w, _ = doJSON(t, r, http.MethodPatch, "/api/v1/dispatch/jobs/"+jobID,
		`{"status":"DONE"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPatch, "/api/v1/dispatch/jobs/missing",
		`{"status":"COMPLETED"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ListJobs(t *testing.T) {
	r := newTestRouter(t)

	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/dispatch/jobs",
		`{"title":"Turnover","scheduledDate":"2024-03-06"}`)

	w, body := doJSON(t, r, http.MethodGet, "/api/v1/dispatch/jobs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["jobs"].([]interface{}), 1)
}
