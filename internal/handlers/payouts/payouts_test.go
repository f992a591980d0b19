package payouts

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumeva/creditcore/internal/dto"
	"github.com/lumeva/creditcore/internal/service/payoutservice"
	"github.com/lumeva/creditcore/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

const testSecret = "payout-secret"

func NewMock(t *testing.T) (*PayoutHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	hasher := &auth.HashService{}
	hash, err := hasher.HashSecret(testSecret)
	require.NoError(t, err)
	handler := New(service, hasher, hash)
	return handler, service
}

func TestRunHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name         string
		secret       string
		body         []byte
		prepareMock  func()
		expectedCode int
		expectedBody dto.PayoutRunResponseDTO
	}{
		{
			name:   "Run with explicit run ID",
			secret: testSecret,
			body:   []byte(`{"run_id": "run-1"}`),
			prepareMock: func() {
				service.EXPECT().
					Run(gomock.Any(), "run-1").
					Return(&payoutservice.RunSummary{RunID: "run-1", Eligible: 3, Transferred: 2, Skipped: 1}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: dto.PayoutRunResponseDTO{RunID: "run-1", Eligible: 3, Transferred: 2, Skipped: 1},
		},
		{
			name:   "Empty body generates a run ID",
			secret: testSecret,
			body:   nil,
			prepareMock: func() {
				service.EXPECT().
					Run(gomock.Any(), gomock.Not("")).
					DoAndReturn(func(_ any, runID string) (*payoutservice.RunSummary, error) {
						return &payoutservice.RunSummary{RunID: runID}, nil
					})
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Missing secret",
			secret:       "",
			body:         []byte(`{}`),
			prepareMock:  func() {},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "Wrong secret",
			secret:       "guess",
			body:         []byte(`{}`),
			prepareMock:  func() {},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "Invalid request body",
			secret:       testSecret,
			body:         []byte(`not json`),
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:   "Run failure",
			secret: testSecret,
			body:   []byte(`{"run_id": "run-2"}`),
			prepareMock: func() {
				service.EXPECT().
					Run(gomock.Any(), "run-2").
					Return(nil, errors.New("error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			var r *http.Request
			if tt.body != nil {
				r = httptest.NewRequest(http.MethodPost, "/internal/payouts/run", bytes.NewBuffer(tt.body))
			} else {
				r = httptest.NewRequest(http.MethodPost, "/internal/payouts/run", nil)
			}
			if tt.secret != "" {
				r.Header.Set(SecretHeader, tt.secret)
			}
			w := httptest.NewRecorder()
			handler.Run(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK && tt.expectedBody.RunID != "" {
				var body dto.PayoutRunResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Equal(t, tt.expectedBody, body)
			}
		})
	}
}

func TestRunHandlerNoSecretConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service, &auth.HashService{}, "")

	r := httptest.NewRequest(http.MethodPost, "/internal/payouts/run", bytes.NewBufferString(`{}`))
	r.Header.Set(SecretHeader, testSecret)
	w := httptest.NewRecorder()
	handler.Run(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
