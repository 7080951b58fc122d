package auth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/ewa-delivery/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/apperr"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/session"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
	authservice "github.com/magabrotheeeer/ewa-delivery/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Register(ctx context.Context, req models.DummyUser) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *ServiceMock) Login(ctx context.Context, email, password string) (*authservice.LoginResult, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*authservice.LoginResult)
	return res, args.Error(1)
}

func (m *ServiceMock) CurrentUser(ctx context.Context, tokenID string) session.State {
	return m.Called(ctx, tokenID).Get(0).(session.State)
}

func (m *ServiceMock) Logout(ctx context.Context, tokenID string) error {
	return m.Called(ctx, tokenID).Error(0)
}

func (m *ServiceMock) UpdateProfile(ctx context.Context, actor models.Actor, tokenID string, req models.DummyProfile) (*models.User, error) {
	args := m.Called(ctx, actor, tokenID, req)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "req-id")
	return req.WithContext(ctx)
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name string
		body string
		setupMock  func(*ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "success",
			body: `{"name":"Jane","email":"jane@example.com","password":"secret123"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, mock.AnythingOfType("models.DummyUser")).Return("u1", nil).Once()
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"id":"u1"`,
		},
		{
			name:       "invalid json",
			body:       `not json`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:       "short password",
			body:       `{"name":"Jane","email":"jane@example.com","password":"123"}`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `field Password must be at least 8`,
		},
		{
			name: "email taken",
			body: `{"name":"Jane","email":"jane@example.com","password":"secret123"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, mock.Anything).Return("", apperr.New(apperr.KindConflict, "email already registered")).Once()
			},
			wantStatus: http.StatusConflict,
			wantBody:   `email already registered`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)
			w := httptest.NewRecorder()

			New(newNoopLogger(), svc).Register(w, newRequest(http.MethodPost, tt.body))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestLogin(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("Login", mock.Anything, "jane@example.com", "secret123").Return(&authservice.LoginResult{
		Token: "tok",
		User:  &session.UserInfo{ID: "u1", Name: "Jane", Role: models.RoleCustomer},
	}, nil).Once()
	svc.On("Login", mock.Anything, "jane@example.com", "wrong").Return(nil, apperr.Unauthorized("invalid credentials")).Once()
	h := New(newNoopLogger(), svc)

	w := httptest.NewRecorder()
	h.Login(w, newRequest(http.MethodPost, `{"email":"jane@example.com","password":"secret123"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"tok"`)

	w = httptest.NewRecorder()
	h.Login(w, newRequest(http.MethodPost, `{"email":"jane@example.com","password":"wrong"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"status":"Error","error":"unauthorized"}`, w.Body.String())
}

func TestSessionAndLogout(t *testing.T) {
	svc := new(ServiceMock)
	actor := models.Actor{ID: "u1", Role: models.RoleCustomer}
	svc.On("CurrentUser", mock.Anything, "jti-1").Return(session.State{
		Version: session.CurrentVersion,
		User:    &session.UserInfo{ID: "u1"},
	}).Once()
	svc.On("Logout", mock.Anything, "jti-1").Return(errors.New("redis down")).Once()
	h := New(newNoopLogger(), svc)

	req := newRequest(http.MethodGet, "")
	req = req.WithContext(middlewarectx.WithActor(req.Context(), actor, "jti-1"))

	w := httptest.NewRecorder()
	h.Session(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"u1"`)

	w = httptest.NewRecorder()
	h.Logout(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	svc.AssertExpectations(t)
}

func TestUpdateProfile_Unauthorized(t *testing.T) {
	svc := new(ServiceMock)
	w := httptest.NewRecorder()

	New(newNoopLogger(), svc).UpdateProfile(w, newRequest(http.MethodPatch, `{"name":"Jane"}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
