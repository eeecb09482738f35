package transport

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-c2rcc/internal/algorithm"
	"go-c2rcc/internal/config"
	"go-c2rcc/internal/factory"
	"go-c2rcc/internal/nettest"
	"go-c2rcc/internal/processor"
	"go-c2rcc/internal/repository"
	"go-c2rcc/internal/sensor"
	"go-c2rcc/internal/service"
	"go-c2rcc/internal/storage"
	"go-c2rcc/pkg/models"
	"go-c2rcc/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	p, err := sensor.Lookup("meris")
	require.NoError(t, err)
	dir := t.TempDir()
	nettest.WriteDefaultSet(t, dir, p)

	if cfg == nil {
		cfg = config.Default()
	}
	svc := service.NewProcessingService(
		factory.NewAlgorithmFactory(storage.NewFileFetcher(dir), ""),
		processor.NewRunner(2, 4),
		repository.NewMemoryJobRepository(),
		processor.NewWorkerPool(1, 4),
		validation.NewObservationValidator(),
		service.Options{Defaults: algorithm.DefaultConfig(), ProcessTimeout: 10 * time.Second},
	)
	t.Cleanup(svc.Close)
	return NewHandler(svc, cfg)
}

func pixelJSON(x int) map[string]interface{} {
	p, _ := sensor.Lookup("meris")
	cosSun := math.Cos(40 * math.Pi / 180)
	rad := make([]float64, p.InputBands)
	for i, f0 := range p.DefaultSolarFlux {
		rad[i] = 0.05 * f0 * cosSun / math.Pi
	}
	return map[string]interface{}{
		"x": x, "y": 0, "lat": 54.2, "lon": 7.9,
		"sun_zenith": 40, "sun_azimuth": 150, "view_zenith": 20, "view_azimuth": 100,
		"radiances": rad,
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	h := newTestRouter(t, nil)

	w := doJSON(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "available", resp.Status)
	assert.Equal(t, Version, resp.Version)
	assert.Empty(t, resp.LoadedSets)
	assert.Equal(t, 1, resp.Queue.Workers)
	_, err := time.Parse(time.RFC3339, resp.Time)
	assert.NoError(t, err)
}

func TestCatalogRoutes(t *testing.T) {
	h := newTestRouter(t, nil)

	w := doJSON(t, h, http.MethodGet, "/v1/sensors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sensors struct {
		Sensors []models.SensorInfo `json:"sensors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sensors))
	require.NotEmpty(t, sensors.Sensors)
	assert.Equal(t, "meris", sensors.Sensors[0].Name)

	w = doJSON(t, h, http.MethodGet, "/v1/flags", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var flags struct {
		Flags []models.FlagInfo `json:"flags"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &flags))
	assert.Len(t, flags.Flags, len(algorithm.AllFlags()))

	w = doJSON(t, h, http.MethodGet, "/v1/config", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cfg algorithm.Config
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.Equal(t, algorithm.DefaultConfig(), cfg)
}

func TestDescribeNets(t *testing.T) {
	h := newTestRouter(t, nil)

	w := doJSON(t, h, http.MethodGet, "/v1/nets/meris", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info models.NetSetInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, sensor.NetSetC2RCC, info.Name)
	assert.Len(t, info.Roles, 10)

	w = doJSON(t, h, http.MethodGet, "/v1/nets/meris?net_set=C2X-Nets", nil)
	assert.Equal(t, http.StatusFailedDependency, w.Code)
	assert.Equal(t, "load", decodeError(t, w).Error)

	w = doJSON(t, h, http.MethodGet, "/health", nil)
	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, []string{"meris/C2RCC-Nets"}, health.LoadedSets)
}

func TestProcessPixels(t *testing.T) {
	h := newTestRouter(t, nil)

	w := doJSON(t, h, http.MethodPost, "/v1/process", map[string]interface{}{
		"sensor": "meris",
		"pixels": []interface{}{pixelJSON(0), pixelJSON(1)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.ProcessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "meris", resp.Sensor)
	assert.Equal(t, sensor.NetSetC2RCC, resp.NetSet)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 1, resp.Results[1].X)
	assert.Contains(t, resp.Results[0].FlagNames, "Valid_PE")
	assert.Greater(t, resp.Results[0].Kd489, 0.0)
	assert.Equal(t, 2, resp.Summary.ValidPixels)
}

func TestProcessPixels_PartialConfig(t *testing.T) {
	h := newTestRouter(t, nil)

	w := doJSON(t, h, http.MethodPost, "/v1/process", map[string]interface{}{
		"sensor": "meris",
		"config": map[string]interface{}{"output_kd": false},
		"pixels": []interface{}{pixelJSON(0)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.ProcessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	// kd disabled, everything else from the defaults
	assert.Zero(t, resp.Results[0].Kd489)
	assert.NotEmpty(t, resp.Results[0].RTosa)
	assert.Greater(t, resp.Results[0].Unc.Btot, 0.0)
}

func TestProcessPixels_Errors(t *testing.T) {
	cfg := config.Default()
	cfg.MaxRequestBodySize = 2048
	h := newTestRouter(t, cfg)

	tests := []struct {
		name      string
		body      interface{}
		wantCode  int
		wantError string
		details   string
	}{
		{"malformed json", `{"sensor":`, http.StatusBadRequest, "validation", ""},
		{"missing pixels", map[string]interface{}{"sensor": "meris"}, http.StatusBadRequest, "validation", "Pixels"},
		{"missing sensor", map[string]interface{}{"pixels": []interface{}{pixelJSON(0)}}, http.StatusBadRequest, "validation", "Sensor"},
		{"unknown sensor", map[string]interface{}{"sensor": "mers", "pixels": []interface{}{pixelJSON(0)}}, http.StatusBadRequest, "validation", "did you mean"},
		{"bad salinity", map[string]interface{}{"sensor": "meris", "config": map[string]interface{}{"salinity": 99}, "pixels": []interface{}{pixelJSON(0)}}, http.StatusBadRequest, "config", ""},
		{"too large", map[string]interface{}{"sensor": "meris", "pixels": []interface{}{pixelJSON(0), pixelJSON(1), pixelJSON(2), pixelJSON(3), pixelJSON(4), pixelJSON(5), pixelJSON(6), pixelJSON(7)}}, http.StatusRequestEntityTooLarge, "Request Entity Too Large", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, http.MethodPost, "/v1/process", tt.body)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			resp := decodeError(t, w)
			assert.Equal(t, tt.wantError, resp.Error)
			if tt.details != "" {
				assert.Contains(t, resp.Details, tt.details)
			}
		})
	}
}

func TestJobs(t *testing.T) {
	h := newTestRouter(t, nil)

	w := doJSON(t, h, http.MethodPost, "/v1/jobs", map[string]interface{}{
		"sensor": "meris",
		"pixels": []interface{}{pixelJSON(0)},
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var accepted models.JobAccepted
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	assert.Equal(t, models.JobQueued, accepted.Status)
	assert.Equal(t, "/v1/jobs/"+accepted.ID, accepted.StatusURL)
	assert.Equal(t, accepted.StatusURL, w.Header().Get("Location"))

	var job models.Job
	require.Eventually(t, func() bool {
		w := doJSON(t, h, http.MethodGet, accepted.StatusURL, nil)
		if w.Code != http.StatusOK {
			return false
		}
		job = models.Job{}
		return json.Unmarshal(w.Body.Bytes(), &job) == nil && job.Status.Done()
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, models.JobSucceeded, job.Status)
	require.NotNil(t, job.Result)
	assert.Len(t, job.Result.Results, 1)

	w = doJSON(t, h, http.MethodGet, "/v1/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Jobs []models.Job `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Jobs, 1)
	assert.Nil(t, list.Jobs[0].Result)
}

func TestGetJob_Errors(t *testing.T) {
	h := newTestRouter(t, nil)

	w := doJSON(t, h, http.MethodGet, "/v1/jobs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodGet, "/v1/jobs/4f1c2a60-1b7e-4d6c-9a55-0c8f2e7b9d11", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Error)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, nil)
	doJSON(t, h, http.MethodGet, "/health", nil)

	w := doJSON(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "c2rcc_http_requests_total"))
}
