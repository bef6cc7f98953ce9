package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Aaditya7171/event-platform/internal/domain"
	"github.com/Aaditya7171/event-platform/internal/ingest"
	"github.com/Aaditya7171/event-platform/internal/repository"
	"github.com/Aaditya7171/event-platform/internal/service"
	"github.com/Aaditya7171/event-platform/internal/source"
	"github.com/Aaditya7171/event-platform/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRunner struct {
	report *ingest.Report
	err    error
	last   *ingest.Report
}

func (s *stubRunner) Run(ctx context.Context, d *source.Descriptor) (*ingest.Report, error) {
	return s.report, s.err
}

func (s *stubRunner) LastReport() *ingest.Report {
	return s.last
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type testServer struct {
	router *gin.Engine
	events *repository.MemoryEventRepository
	leads  *repository.MemoryLeadRepository
	runner *stubRunner
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	events := repository.NewMemoryEventRepository()
	leads := repository.NewMemoryLeadRepository()
	runner := &stubRunner{}

	routes := &Routes{
		Health: NewHealthHandler(stubPinger{}, "event-platform"),
		Event:  NewEventHandler(service.NewEventService(events, leads, nil, nil)),
		Lead:   NewLeadHandler(service.NewLeadService(events, leads, nil, nil)),
		Ingest: NewIngestHandler(runner, source.DefaultDescriptor()),
		JWT:    &middleware.JWTConfig{Secret: testSecret},
	}
	router := gin.New()
	routes.Register(router)

	return &testServer{router: router, events: events, leads: leads, runner: runner}
}

func (s *testServer) seed(t *testing.T, title, url string, at time.Time) *domain.Event {
	t.Helper()
	e, err := domain.NewEvent(domain.Sighting{
		Title: title, OriginalURL: url, Source: "TimeOut", City: "Sydney", Datetime: &at, SeenAt: at,
	})
	require.NoError(t, err)
	require.NoError(t, s.events.Create(context.Background(), e))
	return e
}

func (s *testServer) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func operatorToken(role string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "op-1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	s, _ := token.SignedString([]byte(testSecret))
	return s
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", nil, "").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/ready", nil, "").Code)
}

func TestReady_DatabaseDown(t *testing.T) {
	h := NewHealthHandler(stubPinger{err: errors.New("down")}, "event-platform")
	router := gin.New()
	router.GET("/ready", h.Ready)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListEvents_OrderedByDatetime(t *testing.T) {
	s := newTestServer(t)
	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	s.seed(t, "Later", "https://example.com/later", base.Add(time.Hour))
	s.seed(t, "Sooner", "https://example.com/sooner", base)

	w := s.do(http.MethodGet, "/api/v1/events?limit=10", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decode(t, w)
	var events []struct {
		Title       string `json:"title"`
		OriginalURL string `json:"originalUrl"`
		Status      string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &events))
	require.Len(t, events, 2)
	assert.Equal(t, "Sooner", events[0].Title)
	assert.Equal(t, "new", events[0].Status)
	assert.Equal(t, int64(2), env.Meta.Total)
}

func TestListEvents_BadStatus(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/v1/events?status=archived", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", decode(t, w).Error.Code)
}

func TestGetEvent_NotFound(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/v1/events/does-not-exist", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitLead(t *testing.T) {
	s := newTestServer(t)
	e := s.seed(t, "Jazz Night", "https://example.com/events/jazz", time.Now())

	w := s.do(http.MethodPost, "/api/v1/leads", map[string]interface{}{
		"email":   "viewer@example.com",
		"consent": true,
		"eventId": e.ID,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		LeadID      string `json:"leadId"`
		RedirectURL string `json:"redirectUrl"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
	assert.NotEmpty(t, resp.LeadID)
	assert.Equal(t, "https://example.com/events/jazz", resp.RedirectURL)

	stored, err := s.leads.ListByEvent(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSubmitLead_Rejections(t *testing.T) {
	s := newTestServer(t)
	e := s.seed(t, "Jazz Night", "https://example.com/events/jazz", time.Now())

	tests := []struct {
		name string
		body map[string]interface{}
		want int
	}{
		{"missing consent", map[string]interface{}{"email": "a@example.com", "eventId": e.ID}, http.StatusBadRequest},
		{"invalid email", map[string]interface{}{"email": "nope", "consent": true, "eventId": e.ID}, http.StatusBadRequest},
		{"missing email", map[string]interface{}{"consent": true, "eventId": e.ID}, http.StatusBadRequest},
		{"unknown event", map[string]interface{}{"email": "a@example.com", "consent": true, "eventId": "3f1c2a52-0a7e-4b8c-9d5e-1f2a3b4c5d6e"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/v1/leads", tt.body, "")
			assert.Equal(t, tt.want, w.Code)
		})
	}

	stored, err := s.leads.ListByEvent(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestImportEvent_RequiresOperator(t *testing.T) {
	s := newTestServer(t)
	e := s.seed(t, "Jazz Night", "https://example.com/events/jazz", time.Now())
	path := "/api/v1/events/" + e.ID + "/import"

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, path, nil, "").Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, path, nil, operatorToken("viewer")).Code)

	for i := 0; i < 2; i++ {
		w := s.do(http.MethodPost, path, nil, operatorToken(middleware.RoleOperator))
		require.Equal(t, http.StatusOK, w.Code)

		var got struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
		assert.Equal(t, "imported", got.Status)
	}
}

func TestImportEvent_NotFound(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/api/v1/events/3f1c2a52-0a7e-4b8c-9d5e-1f2a3b4c5d6e/import", nil, operatorToken(middleware.RoleAdmin))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListLeads(t *testing.T) {
	s := newTestServer(t)
	e := s.seed(t, "Jazz Night", "https://example.com/events/jazz", time.Now())
	lead, err := domain.NewLead("viewer@example.com", true, e.ID)
	require.NoError(t, err)
	require.NoError(t, s.leads.Create(context.Background(), lead))

	w := s.do(http.MethodGet, "/api/v1/events/"+e.ID+"/leads", nil, operatorToken(middleware.RoleOperator))
	require.Equal(t, http.StatusOK, w.Code)

	var leads []struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &leads))
	require.Len(t, leads, 1)
	assert.Equal(t, "viewer@example.com", leads[0].Email)
}

func TestIngestRun(t *testing.T) {
	token := operatorToken(middleware.RoleOperator)

	t.Run("success", func(t *testing.T) {
		s := newTestServer(t)
		s.runner.report = &ingest.Report{Source: "TimeOut", Seen: 2, Created: 2, Errors: []*ingest.CandidateError{}}

		w := s.do(http.MethodPost, "/api/v1/ingest/runs", nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		var report struct {
			Created int `json:"created"`
		}
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &report))
		assert.Equal(t, 2, report.Created)
	})

	t.Run("in progress", func(t *testing.T) {
		s := newTestServer(t)
		s.runner.err = ingest.ErrRunInProgress

		w := s.do(http.MethodPost, "/api/v1/ingest/runs", nil, token)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "RUN_IN_PROGRESS", decode(t, w).Error.Code)
	})

	t.Run("source down", func(t *testing.T) {
		s := newTestServer(t)
		s.runner.err = &source.FetchError{URL: "https://example.com", StatusCode: 503, Attempts: 3}

		w := s.do(http.MethodPost, "/api/v1/ingest/runs", nil, token)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "SOURCE_UNAVAILABLE", decode(t, w).Error.Code)
	})

	t.Run("latest", func(t *testing.T) {
		s := newTestServer(t)
		assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/ingest/runs/latest", nil, token).Code)

		s.runner.last = &ingest.Report{Source: "TimeOut"}
		assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/ingest/runs/latest", nil, token).Code)
	})
}
