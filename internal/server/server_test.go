package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/schedview/internal/config"
	"github.com/me/schedview/pkg/model"
)

func testServer(opts ...Option) *Server {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg := config.DefaultSimConfig()
	cfg.MemorySize = 1024
	cfg.OSSize = 128
	return New(cfg, nil, logger, opts...)
}

// envelope is used to decode the standard response envelope.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "%s %s: invalid JSON: %s", method, path, w.Body.String())
	}
	return w, env
}

func createProcess(t *testing.T, srv *Server, body string) model.Process {
	t.Helper()
	w, env := do(t, srv, "POST", "/process", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, model.CodeOK, env.Code)
	var p model.Process
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

func TestHealth(t *testing.T) {
	srv := testServer()
	w, env := do(t, srv, "GET", "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var data healthResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "healthy", data.Status)
	assert.Equal(t, 2, data.Processors)
	assert.Equal(t, 896, data.MemoryFree)
}

func TestStatus_Initial(t *testing.T) {
	srv := testServer()
	w, env := do(t, srv, "GET", "/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.CodeOK, env.Code)
	// Empty buckets are sent as arrays, never null.
	assert.Contains(t, string(env.Data), `"ready":[]`)

	var st model.SystemState
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, 1024, st.Memory.TotalSize)
	assert.Equal(t, []model.MemoryBlock{{Start: 128, Length: 896}}, st.Memory.Blocks)
	assert.NoError(t, st.Validate())
}

func TestCreateProcess(t *testing.T) {
	srv := testServer()
	p := createProcess(t, srv, `{"name":"P1","requiredTime":3,"priority":2,"memorySize":100}`)
	assert.Equal(t, 1, p.PID)
	assert.Equal(t, 3, p.TotalTime)
	assert.Equal(t, 128, p.MemoryStart)
	assert.Equal(t, model.ProcessStateReady, p.State)
	assert.Equal(t, model.Unassigned, p.ProcessorID)
}

func TestCreateProcess_Failures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"malformed body", `{"name":`, "invalid request body"},
		{"validation", `{"name":"","requiredTime":0,"memorySize":10}`, "invalid process info"},
		{"no memory", `{"name":"big","requiredTime":1,"memorySize":4096}`, "memory allocation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer()
			w, env := do(t, srv, "POST", "/process", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, 400, env.Code)
			assert.Equal(t, tt.message, env.Message)

			var detail string
			require.NoError(t, json.Unmarshal(env.Data, &detail))
			assert.NotEmpty(t, detail)
		})
	}
}

func TestScheduleAndProcessorStatus(t *testing.T) {
	srv := testServer()
	createProcess(t, srv, `{"name":"A","requiredTime":2,"priority":1,"memorySize":10}`)
	createProcess(t, srv, `{"name":"B","requiredTime":2,"priority":7,"memorySize":10}`)

	w, env := do(t, srv, "POST", "/schedule", "")
	require.Equal(t, http.StatusOK, w.Code)
	var partial model.PartialQueue
	require.NoError(t, json.Unmarshal(env.Data, &partial))
	require.NotNil(t, partial.Running)
	require.Len(t, *partial.Running, 2)
	assert.Equal(t, 2, (*partial.Running)[0].PID, "higher priority runs on processor 0")

	_, env = do(t, srv, "GET", "/processor-status", "")
	var procs model.ProcessorStatusData
	require.NoError(t, json.Unmarshal(env.Data, &procs))
	require.Len(t, procs.Processors, 2)
	assert.Equal(t, 2, procs.Processors[0].PID)
	assert.Equal(t, 1, procs.Processors[1].PID)
}

func TestSuspendResume(t *testing.T) {
	srv := testServer()
	createProcess(t, srv, `{"name":"A","requiredTime":2,"memorySize":10}`)

	w, env := do(t, srv, "POST", "/suspend/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "process 1 suspended", env.Message)

	w, env = do(t, srv, "POST", "/suspend/1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "suspend failed", env.Message)

	w, env = do(t, srv, "POST", "/resume/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "process 1 resumed", env.Message)

	w, env = do(t, srv, "POST", "/resume/42", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "resume failed", env.Message)

	w, env = do(t, srv, "POST", "/suspend/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid process id", env.Message)
}

func TestReset(t *testing.T) {
	srv := testServer()
	createProcess(t, srv, `{"name":"A","requiredTime":2,"memorySize":10}`)
	do(t, srv, "POST", "/schedule", "")

	w, env := do(t, srv, "POST", "/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "system reset", env.Message)
	assert.Equal(t, "null", string(env.Data))

	st := srv.Scheduler().Status()
	assert.Zero(t, st.Queue.Len())
	assert.Equal(t, model.ProcessorAssignment{nil, nil}, srv.Scheduler().Processors())
}

func TestUnknownRoute(t *testing.T) {
	srv := testServer()
	w, _ := do(t, srv, "GET", "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestIDPropagated(t *testing.T) {
	srv := testServer()
	req := httptest.NewRequest("GET", "/status", nil)
	req.Header.Set("X-Request-ID", "req_fixed")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, "req_fixed", w.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	srv := testServer(WithCORS())
	req := httptest.NewRequest("OPTIONS", "/process", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	_, env := do(t, testServer(), "GET", "/status", "")
	assert.Equal(t, model.CodeOK, env.Code)
}
