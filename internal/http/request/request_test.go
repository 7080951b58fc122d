package request

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestDecode_SkipReasonRule(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantStatus int
		wantBody   string
	}{
		{
			name:   "vacation",
			body:   `{"reason":"vacation"}`,
			wantOK: true,
		},
		{
			name:       "other without text",
			body:       `{"reason":"other","custom_reason":"  "}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `field CustomReason is required when reason is other`,
		},
		{
			name:   "other with text",
			body:   `{"reason":"other","custom_reason":"moving out"}`,
			wantOK: true,
		},
		{
			name:       "unknown reason",
			body:       `{"reason":"tired"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `field Reason must be one of`,
		},
		{
			name:       "broken json",
			body:       `{"reason":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"status":"Error","error":"invalid request body"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var req models.DummySkip
			ok := Decode(w, r, newNoopLogger(), NewValidator(), &req)

			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, tt.wantStatus, w.Code)
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestPage(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{query: "", wantLimit: DefaultLimit},
		{query: "?limit=5&offset=10", wantLimit: 5, wantOffset: 10},
		{query: "?limit=1000", wantLimit: MaxLimit},
		{query: "?limit=-1", wantErr: true},
		{query: "?offset=abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			limit, offset, err := Page(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPage)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}
