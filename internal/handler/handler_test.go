package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"order-printer/internal/config"
	internalDriver "order-printer/internal/driver"
	"order-printer/internal/job"
	"order-printer/internal/queue"
	"order-printer/internal/receipt"
	"order-printer/internal/service"
	"order-printer/internal/utils"
)

type testServer struct {
	router  *gin.Engine
	service *service.PrintService
	events  *service.EventBus
	ws      *WebSocketHandler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	cfg := &config.Config{App: config.AppConfig{Name: "order-printer", Version: "test"}}

	registry := internalDriver.NewRegistry(logger)
	internalDriver.RegisterDefaultDrivers(registry)
	require.NoError(t, registry.Build([]config.PrinterConfig{
		{Target: "desk", Name: "Desk", Driver: internalDriver.DriverPreview},
	}, 32))

	controller := queue.NewController(registry, queue.DefaultOptions(), logger)
	monitor := service.NewStatusMonitor(controller, logger)
	events := service.NewEventBus(logger)
	go events.Start()

	svc := service.NewPrintService(controller, registry, receipt.NewCompiler(receipt.Layout{PrintWidth: 32}),
		service.NewPrinterSession(), monitor, events, logger)
	ws := NewWebSocketHandler(svc, events, []string{"*"}, logger)

	router := gin.New()
	NewHealthHandler(svc, cfg, logger).RegisterRoutes(router)
	ws.RegisterRoutes(router)
	api := router.Group("/api/v1")
	NewPrintHandler(svc, logger).RegisterRoutes(api)
	NewPrinterHandler(svc, logger).RegisterRoutes(api)

	t.Cleanup(func() {
		ws.Close()
		svc.Close()
		monitor.Close()
		controller.Close()
		events.Stop()
	})
	return &testServer{router: router, service: svc, events: events, ws: ws}
}

func (s *testServer) do(method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

const orderJSON = `{"id":"A1","cartItems":[{"name":"Tea","quantity":2,"price":150}],"cost":{"subtotalAmount":300}}`

const orderYAML = `
id: A1
cartItems:
  - name: Tea
    quantity: 2
    price: 150
cost:
  subtotalAmount: 300
`

func TestListPrinters(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/printers", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.True(t, resp.Success)
	printers, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, printers, 1)
	assert.Equal(t, "desk", printers[0].(map[string]interface{})["target"])
}

func TestSessionSelection(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/session/printer", "application/json", `{"target":"nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w).Error.Code)

	w = s.do(http.MethodPost, "/api/v1/session/printer", "application/json", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/session/printer", "application/json", `{"target":"desk"}`)
	require.Equal(t, http.StatusOK, w.Code)
	session := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, "desk", session["device"].(map[string]interface{})["target"])

	w = s.do(http.MethodDelete, "/api/v1/session/printer", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w).Data.(map[string]interface{})["device"])
}

func TestPrintWithoutPrinter(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/print", "application/json", orderJSON)
	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "No printer available", resp.Message)

	w = s.do(http.MethodGet, "/api/v1/session", "", "")
	session := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, "No printer available", session["last_error"])
}

func TestPrintOrder(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"json", "application/json", orderJSON},
		{"json without content type", "", orderJSON},
		{"yaml", "application/x-yaml", orderYAML},
		{"yaml alias", "application/yaml; charset=utf-8", orderYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			_, err := s.service.SelectPrinter("desk")
			require.NoError(t, err)

			w := s.do(http.MethodPost, "/api/v1/print", tt.contentType, tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			result := decode(t, w).Data.(map[string]interface{})
			assert.Equal(t, "A1", result["order_id"])
			assert.NotEmpty(t, result["job_id"])
		})
	}
}

func TestPrintRejectsBadBodies(t *testing.T) {
	s := newTestServer(t)
	_, err := s.service.SelectPrinter("desk")
	require.NoError(t, err)

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantCode    string
	}{
		{"unsupported media type", "text/plain", orderJSON, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE"},
		{"malformed json", "application/json", `{"id":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"empty body", "application/json", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"invalid order", "application/json", `{"id":"A1","cartItems":[{"name":"","quantity":0}]}`, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/v1/print", tt.contentType, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestPreview(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/preview?width=32&format=text", "application/json", orderJSON)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2x Tea"+strings.Repeat(".", 21)+"$3.00")
	assert.True(t, strings.HasSuffix(w.Body.String(), strings.Repeat("-", 32)+"\n"))

	w = s.do(http.MethodPost, "/api/v1/preview", "application/x-yaml", orderYAML)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.EqualValues(t, 32, data["width"])
	assert.Contains(t, data["preview"], "ORDER RECEIPT")

	w = s.do(http.MethodPost, "/api/v1/preview?width=abc", "application/json", orderJSON)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/preview?width=8", "application/json", orderJSON)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrinterStatus(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/printers/nope/status", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/printers/desk/status", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, false, data["busy"])
	assert.Equal(t, "UNKNOWN", data["status"].(map[string]interface{})["online"].(map[string]interface{})["statusCode"])
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "order-printer", health.Service)
	assert.EqualValues(t, 1, health.Checks["printers"].Data["configured"])

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/ready", "", "").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/live", "", "").Code)
}

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidOrder, http.StatusBadRequest},
		{fmt.Errorf("%w: 4", service.ErrInvalidWidth), http.StatusBadRequest},
		{job.ErrInvalidJob, http.StatusBadRequest},
		{fmt.Errorf("%w: x", internalDriver.ErrUnknownPrinter), http.StatusNotFound},
		{queue.ErrNoDeviceAvailable, http.StatusConflict},
		{queue.ErrDeviceBusy, http.StatusConflict},
		{fmt.Errorf("%w after 3 attempts: refused", queue.ErrConnectionTimeout), http.StatusGatewayTimeout},
		{fmt.Errorf("%w: cover open", queue.ErrExecutionFailure), http.StatusBadGateway},
		{fmt.Errorf("%w: %w", queue.ErrExecutionFailure, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{queue.ErrControllerClosed, http.StatusServiceUnavailable},
		{context.Canceled, http.StatusRequestTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusCode(tt.err))
		})
	}
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
