package test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lostfound/internal/auth"
	"lostfound/internal/config"
	handlers "lostfound/internal/handler"
	"lostfound/internal/service"
)

type testHandler struct {
	*handlers.Handlers
	auth    *MockAuthService
	items   *MockItemService
	follows *MockFollowService
	msgs    *MockMessageService
	notify  *MockNotificationService
	db      *MockHealthChecker
}

func createTestHandler(t *testing.T) *testHandler {
	t.Helper()

	th := &testHandler{
		auth:    new(MockAuthService),
		items:   new(MockItemService),
		follows: new(MockFollowService),
		msgs:    new(MockMessageService),
		notify:  new(MockNotificationService),
		db:      new(MockHealthChecker),
	}

	cfg := &config.Config{
		JWTSecretKey:  "test-secret-key",
		ServerPort:    8080,
		MaxUploadSize: 1 << 20,
	}

	services := &service.Service{
		Auth:         th.auth,
		Item:         th.items,
		Follow:       th.follows,
		Message:      th.msgs,
		Notification: th.notify,
	}

	th.Handlers = handlers.NewHandlers(services, th.db, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Cleanup(func() {
		th.auth.AssertExpectations(t)
		th.items.AssertExpectations(t)
		th.follows.AssertExpectations(t)
		th.msgs.AssertExpectations(t)
		th.notify.AssertExpectations(t)
		th.db.AssertExpectations(t)
	})

	return th
}

// asUser attaches an authenticated caller the way the auth middleware does.
func asUser(r *http.Request, userID string) *http.Request {
	claims := &auth.Claims{UserID: userID, Email: userID + "@campus.edu"}
	return r.WithContext(auth.WithClaims(r.Context(), claims))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

// assertJSONError checks the {success:false, message} envelope.
func assertJSONError(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, expectedMessage string) {
	t.Helper()
	assert.Equal(t, expectedStatus, rr.Code)

	body := decodeBody(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], expectedMessage)
}

func assertJSONSuccess(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int) map[string]any {
	t.Helper()
	assert.Equal(t, expectedStatus, rr.Code)

	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	return body
}

func TestNewHandlers(t *testing.T) {
	th := createTestHandler(t)

	assert.NotNil(t, th.AuthService)
	assert.NotNil(t, th.ItemService)
	assert.NotNil(t, th.FollowService)
	assert.NotNil(t, th.MessageService)
	assert.NotNil(t, th.NotificationService)
	assert.NotNil(t, th.Cfg)
	assert.NotNil(t, th.Validate)
	assert.NotNil(t, th.Logger)
}

func TestNewHandlers_DefaultLogger(t *testing.T) {
	h := handlers.NewHandlers(&service.Service{}, nil, &config.Config{}, nil)
	assert.NotNil(t, h.Logger)
}

func TestHealth(t *testing.T) {
	t.Run("database up", func(t *testing.T) {
		th := createTestHandler(t)
		th.db.On("HealthCheck", mock.Anything).Return(nil)

		rr := httptest.NewRecorder()
		th.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		body := assertJSONSuccess(t, rr, http.StatusOK)
		assert.Equal(t, "ok", body["database"])
	})

	t.Run("database down", func(t *testing.T) {
		th := createTestHandler(t)
		th.db.On("HealthCheck", mock.Anything).Return(context.DeadlineExceeded)

		rr := httptest.NewRecorder()
		th.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "unavailable", body["database"])
	})
}

func TestInternalErrorsAreHidden(t *testing.T) {
	th := createTestHandler(t)
	th.items.On("ListItems", mock.Anything, mock.Anything).
		Return(nil, errors.New("pq: relation \"items\" does not exist"))

	rr := httptest.NewRecorder()
	th.ListItems(rr, httptest.NewRequest(http.MethodGet, "/items", nil))

	assertJSONError(t, rr, http.StatusInternalServerError, "internal server error")
	assert.NotContains(t, rr.Body.String(), "relation")
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	handlers.WriteError(rr, "Too many requests", http.StatusTooManyRequests)

	assertJSONError(t, rr, http.StatusTooManyRequests, "Too many requests")
}
