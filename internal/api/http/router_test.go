package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/ratelimit"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

const (
	adminEmail    = "root@example.com"
	adminPassword = "rootpass"
)

type testServer struct {
	app *fiber.App
	t   *testing.T
}

func newTestServer(t *testing.T, limiter fiber.Handler) *testServer {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()

	tokens, err := auth.NewTokenManager("router-secret", time.Hour)
	require.NoError(t, err)

	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics := observability.NewMetrics()
	metrics.SubscribeTo(dispatcher)

	authService := service.NewAuthService(store.Users(), tokens, config.AuthConfig{BcryptCost: bcrypt.MinCost}, logger)
	require.NoError(t, authService.EnsureAdmin(context.Background(), config.AdminConfig{
		Name: "Root", Email: adminEmail, Password: adminPassword,
	}))
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: store.Tickets(),
		UserRepo:   store.Users(),
		Dispatcher: dispatcher,
		Policy:     config.TicketsConfig{AllowReopen: true},
		Logger:     logger,
	})

	app := NewApp("helpdesk-test")
	RegisterMiddlewares(app, MiddlewareConfig{Logger: logger, Metrics: metrics, Timeout: 5 * time.Second, CORSOrigins: "*"})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk-test", "test", nil),
		Users:          handlers.NewUsersHandler(authService, service.NewUserService(store.Users(), authService, dispatcher, logger), service.NewStatsService(store.Users(), store.Tickets())),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, authService),
		AuthLimiter:    limiter,
		Metrics:        metrics.Handler(),
	})
	return &testServer{app: app, t: t}
}

func (s *testServer) do(method, path, token string, body any) (int, map[string]any, []any) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)

	var obj map[string]any
	if json.Unmarshal(raw, &obj) == nil {
		return resp.StatusCode, obj, nil
	}
	var list []any
	require.NoError(s.t, json.Unmarshal(raw, &list), string(raw))
	return resp.StatusCode, nil, list
}

func (s *testServer) register(name, email string) (token, id string) {
	s.t.Helper()
	status, body, _ := s.do(fiber.MethodPost, "/user/register", "", map[string]any{
		"name": name, "email": email, "password": "secret1",
	})
	require.Equal(s.t, fiber.StatusCreated, status, body)
	return body["token"].(string), body["newUser"].(map[string]any)["_id"].(string)
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	status, body, _ := s.do(fiber.MethodPost, "/user/login", "", map[string]any{"email": email, "password": password})
	require.Equal(s.t, fiber.StatusOK, status, body)
	return body["token"].(string)
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t, nil)

	status, body, _ := s.do(fiber.MethodPost, "/user/register", "", map[string]any{
		"name": "Cara", "email": "cara@example.com", "password": "secret1",
	})
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "User registered successfully", body["message"])
	newUser := body["newUser"].(map[string]any)
	assert.Equal(t, "customer", newUser["role"])
	assert.NotContains(t, newUser, "password")
	assert.NotEmpty(t, body["token"])

	status, body, _ = s.do(fiber.MethodPost, "/user/register", "", map[string]any{
		"name": "Cara", "email": "cara@example.com", "password": "secret1",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "User already exists", body["message"])

	status, body, _ = s.do(fiber.MethodPost, "/user/login", "", map[string]any{"email": "cara@example.com", "password": "secret1"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "User login successfully", body["message"])

	status, body, _ = s.do(fiber.MethodPost, "/user/login", "", map[string]any{"email": "cara@example.com", "password": "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	unknownStatus, unknownBody, _ := s.do(fiber.MethodPost, "/user/login", "", map[string]any{"email": "nobody@example.com", "password": "wrong"})
	assert.Equal(t, status, unknownStatus)
	assert.Equal(t, body["message"], unknownBody["message"])
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t, nil)

	status, body, _ := s.do(fiber.MethodPost, "/user/register", "", map[string]any{"name": "X", "email": "not-an-email", "password": "1"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", errorCode(body))

	status, _, _ = s.do(fiber.MethodPost, "/user/register", "", map[string]any{
		"name": "Eve", "email": "eve@example.com", "password": "secret1", "role": "admin",
	})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _, _ = s.do(fiber.MethodPost, "/user/register", "", map[string]any{
		"name": "Eve", "email": "eve@example.com", "password": "secret1", "role": "wizard",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestPasswordOverBcryptByteLimit(t *testing.T) {
	s := newTestServer(t, nil)
	long := strings.Repeat("é", 40)

	status, body, _ := s.do(fiber.MethodPost, "/user/register", "", map[string]any{
		"name": "Noor", "email": "noor@example.com", "password": long,
	})
	assert.Equal(t, fiber.StatusBadRequest, status, body)
	assert.Equal(t, "INVALID_INPUT", errorCode(body))

	token, _ := s.register("Noor", "noor@example.com")
	status, body, _ = s.do(fiber.MethodPut, "/user/profile", token, map[string]any{"password": long})
	assert.Equal(t, fiber.StatusBadRequest, status, body)
	assert.Equal(t, "INVALID_INPUT", errorCode(body))

	s.login("noor@example.com", "secret1")
}

func TestTicketLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	customer, customerID := s.register("Cara", "cara@example.com")
	admin := s.login(adminEmail, adminPassword)

	status, body, _ := s.do(fiber.MethodGet, "/tickets/get/customer", customer, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body, _ = s.do(fiber.MethodPost, "/tickets", customer, map[string]any{"title": "VPN down"})
	require.Equal(t, fiber.StatusCreated, status, body)
	ticketID := body["_id"].(string)
	assert.Equal(t, "Active", body["status"])
	assert.Equal(t, customerID, body["customer"].(map[string]any)["_id"])
	assert.Empty(t, body["notes"])

	status, _, _ = s.do(fiber.MethodGet, "/tickets/get/all", customer, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _, list := s.do(fiber.MethodGet, "/tickets/get/all", admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, list, 1)
	assert.Equal(t, "Cara", list[0].(map[string]any)["customer"].(map[string]any)["name"])

	status, body, _ = s.do(fiber.MethodPost, "/tickets/addNote", customer, map[string]any{"ticketId": ticketID, "note": "still broken"})
	require.Equal(t, fiber.StatusOK, status, body)

	status, body, _ = s.do(fiber.MethodPost, "/tickets/agent/addNote", admin, map[string]any{
		"notes": map[string]any{"selectedTicketId": ticketID, "newNote": "looking into it"},
	})
	require.Equal(t, fiber.StatusOK, status, body)
	notes := body["notes"].([]any)
	require.Len(t, notes, 2)
	assert.Equal(t, "still broken", notes[0].(map[string]any)["text"])
	assert.Equal(t, "Root", notes[1].(map[string]any)["addedBy"].(map[string]any)["name"])

	status, _, _ = s.do(fiber.MethodPost, "/tickets/agent/addNote", customer, map[string]any{
		"notes": map[string]any{"selectedTicketId": ticketID, "newNote": "sneaky"},
	})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body, _ = s.do(fiber.MethodPut, "/tickets/agent/updateStatus", admin, map[string]any{"selectedTicketId": ticketID, "status": "Pending"})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "Pending", body["ticket"].(map[string]any)["status"])

	status, body, _ = s.do(fiber.MethodPut, "/tickets/agent/updateStatus", admin, map[string]any{"selectedTicketId": ticketID, "status": "Resolved"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_STATE", errorCode(body))

	status, _, list = s.do(fiber.MethodGet, "/tickets/"+ticketID+"/notes", customer, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, list, 2)

	status, _, _ = s.do(fiber.MethodDelete, "/tickets/"+ticketID, customer, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, body, _ = s.do(fiber.MethodDelete, "/tickets/"+ticketID, admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Ticket deleted successfully", body["message"])
	status, _, _ = s.do(fiber.MethodDelete, "/tickets/"+ticketID, admin, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestCustomerCannotTouchOtherTickets(t *testing.T) {
	s := newTestServer(t, nil)
	owner, _ := s.register("Cara", "cara@example.com")
	other, _ := s.register("Otto", "otto@example.com")

	_, body, _ := s.do(fiber.MethodPost, "/tickets", owner, map[string]any{"title": "Mine"})
	ticketID := body["_id"].(string)

	status, _, _ := s.do(fiber.MethodPost, "/tickets/addNote", other, map[string]any{"ticketId": ticketID, "note": "hi"})
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _, _ = s.do(fiber.MethodGet, "/tickets/"+ticketID+"/notes", other, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _, _ = s.do(fiber.MethodGet, "/tickets/get/customer", other, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t, nil)
	token, _ := s.register("Cara", "cara@example.com")

	status, body, _ := s.do(fiber.MethodGet, "/tickets/get/customer", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHENTICATED", errorCode(body))

	status, _, _ = s.do(fiber.MethodGet, "/tickets/get/customer", "garbage", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	// Quoted tokens are accepted.
	status, _, _ = s.do(fiber.MethodPost, "/tickets", `"`+token+`"`, map[string]any{"title": "Quoted"})
	assert.Equal(t, fiber.StatusCreated, status)
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	customer, customerID := s.register("Cara", "cara@example.com")
	admin := s.login(adminEmail, adminPassword)

	status, _, _ := s.do(fiber.MethodGet, "/user/stats", customer, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	_, _, _ = s.do(fiber.MethodPost, "/tickets", customer, map[string]any{"title": "One"})
	status, body, _ := s.do(fiber.MethodGet, "/user/stats", admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["customers"])
	assert.EqualValues(t, 1, body["tickets"])

	status, body, _ = s.do(fiber.MethodPost, "/user/customer", admin, map[string]any{
		"name": "Cole", "email": "cole@example.com", "password": "secret1",
	})
	require.Equal(t, fiber.StatusCreated, status, body)

	status, body, _ = s.do(fiber.MethodGet, "/user/customer/all", admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["customers"], 2)

	status, body, _ = s.do(fiber.MethodPut, "/user/customer/"+customerID, admin, map[string]any{"role": "agent"})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "agent", body["user"].(map[string]any)["role"])

	// The directory is re-read per request, so the promotion is effective
	// with the old token.
	status, _, _ = s.do(fiber.MethodGet, "/tickets/get/all", customer, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _, _ = s.do(fiber.MethodDelete, "/user/customer/"+customerID, admin, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _, _ = s.do(fiber.MethodGet, "/tickets/get/all", customer, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAuthRateLimit(t *testing.T) {
	limiter := ratelimit.Middleware(ratelimit.NewMemoryLimiter(2, time.Minute), zap.NewNop(), ratelimit.Options{Scope: "auth"})
	s := newTestServer(t, limiter)

	for i := 0; i < 2; i++ {
		status, _, _ := s.do(fiber.MethodPost, "/user/login", "", map[string]any{"email": "x@example.com", "password": "nope"})
		assert.Equal(t, fiber.StatusUnauthorized, status)
	}
	status, body, _ := s.do(fiber.MethodPost, "/user/login", "", map[string]any{"email": "x@example.com", "password": "nope"})
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_LIMITED", errorCode(body))
}

func TestUnknownRouteAndHealth(t *testing.T) {
	s := newTestServer(t, nil)

	status, body, _ := s.do(fiber.MethodGet, "/nope", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body, _ = s.do(fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body, _ = s.do(fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])
}
