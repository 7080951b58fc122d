package ticket

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/ewa-delivery/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/apperr"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Create(ctx context.Context, actor models.Actor, req models.DummyTicket) (*models.SupportTicket, error) {
	args := m.Called(ctx, actor, req)
	t, _ := args.Get(0).(*models.SupportTicket)
	return t, args.Error(1)
}

func (m *ServiceMock) List(ctx context.Context, actor models.Actor) ([]models.SupportTicket, error) {
	args := m.Called(ctx, actor)
	list, _ := args.Get(0).([]models.SupportTicket)
	return list, args.Error(1)
}

func (m *ServiceMock) Get(ctx context.Context, actor models.Actor, id string) (*models.SupportTicket, error) {
	args := m.Called(ctx, actor, id)
	t, _ := args.Get(0).(*models.SupportTicket)
	return t, args.Error(1)
}

func (m *ServiceMock) Reply(ctx context.Context, actor models.Actor, id string, req models.DummyReply) (*models.TicketMessage, error) {
	args := m.Called(ctx, actor, id, req)
	msg, _ := args.Get(0).(*models.TicketMessage)
	return msg, args.Error(1)
}

func (m *ServiceMock) SetStatus(ctx context.Context, actor models.Actor, id string, status string) (*models.SupportTicket, error) {
	args := m.Called(ctx, actor, id, status)
	t, _ := args.Get(0).(*models.SupportTicket)
	return t, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var (
	customer = models.Actor{ID: "u1", Role: models.RoleCustomer}
	support  = models.Actor{ID: "s1", Role: models.RoleSupport}
)

func newRouter(svc Service, actor models.Actor) http.Handler {
	h := New(newNoopLogger(), svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middlewarectx.WithActor(req.Context(), actor, "jti")))
		})
	})
	r.Get("/tickets", h.List)
	r.Post("/tickets", h.Create)
	r.Get("/tickets/{id}", h.Get)
	r.Post("/tickets/{id}/messages", h.Reply)
	r.Put("/tickets/{id}/status", h.SetStatus)
	return r
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name string
		body string
		setupMock  func(*ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "success",
			body: `{"subject":"Late delivery","description":"Courier was late"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Create", mock.Anything, customer, models.DummyTicket{Subject: "Late delivery", Description: "Courier was late"}).
					Return(&models.SupportTicket{ID: "t1", Status: models.TicketOpen, Priority: models.PriorityMedium}, nil).Once()
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"status":"open"`,
		},
		{
			name:       "bad priority",
			body:       `{"subject":"s","description":"d","priority":"asap"}`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `field Priority must be one of [low medium high urgent]`,
		},
		{
			name:       "broken json",
			body:       `{"subject":`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `invalid request body`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)

			w := httptest.NewRecorder()
			newRouter(svc, customer).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tickets", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestGet_ForeignTicket(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("Get", mock.Anything, customer, "t2").Return(nil, apperr.NotFound("ticket not found")).Once()

	w := httptest.NewRecorder()
	newRouter(svc, customer).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tickets/t2", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `ticket not found`)
	svc.AssertExpectations(t)
}

func TestReply_Internal(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("Reply", mock.Anything, support, "t1", models.DummyReply{Content: "check route", IsInternal: true}).
		Return(&models.TicketMessage{ID: "m1", IsInternal: true}, nil).Once()

	w := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"content":"check route","is_internal":true}`)
	newRouter(svc, support).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tickets/t1/messages", body))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"is_internal":true`)
	svc.AssertExpectations(t)
}

func TestSetStatus(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("SetStatus", mock.Anything, support, "t1", "resolved").
		Return(&models.SupportTicket{ID: "t1", Status: models.TicketResolved}, nil).Once()

	w := httptest.NewRecorder()
	newRouter(svc, support).ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/tickets/t1/status", bytes.NewBufferString(`{"status":"resolved"}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"resolved"`)
	svc.AssertExpectations(t)
}

func TestList_ServiceError(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("List", mock.Anything, support).Return(nil, apperr.Fetch(assert.AnError, "tickets")).Once()

	w := httptest.NewRecorder()
	newRouter(svc, support).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tickets", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `could not load data`)
	svc.AssertExpectations(t)
}
