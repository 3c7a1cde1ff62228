package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kinetichq/kinetic/internal/domain"
	"github.com/kinetichq/kinetic/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockActivityLogStore mocks the ActivityLogStore interface.
type MockActivityLogStore struct {
	mock.Mock
}

func (m *MockActivityLogStore) Create(ctx context.Context, l *domain.ActivityLog) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockActivityLogStore) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.ActivityLog, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ActivityLog), args.Error(1)
}

func (m *MockActivityLogStore) ListByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.ActivityLog, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ActivityLog), args.Error(1)
}

func (m *MockActivityLogStore) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ActivityLog, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ActivityLog), args.Error(1)
}

func (m *MockActivityLogStore) LatestByCategory(ctx context.Context, userID uuid.UUID, category domain.ActivityCategory) (*domain.ActivityLog, error) {
	args := m.Called(ctx, userID, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ActivityLog), args.Error(1)
}

func TestCreateLog(t *testing.T) {
	store := new(MockActivityLogStore)
	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	parser := llm.NewMockParser()
	h := NewLogsHandler(store, parser, zap.NewNop())

	userID := uuid.New()
	body, _ := json.Marshal(createLogRequest{UserID: userID.String(), Text: "ran 5k easy"})
	req := httptest.NewRequest(http.MethodPost, "/v1/logs", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var got domain.ActivityLog
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "ran 5k easy", got.RawText)
	store.AssertExpectations(t)
}

func TestCreateLog_ParserFailure(t *testing.T) {
	store := new(MockActivityLogStore)
	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	parser := llm.NewMockParser()
	parser.ParseError = errors.New("upstream timeout")
	h := NewLogsHandler(store, parser, zap.NewNop())

	body, _ := json.Marshal(createLogRequest{UserID: uuid.New().String(), Text: "felt weird today"})
	req := httptest.NewRequest(http.MethodPost, "/v1/logs", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	// Parse failures still persist the raw text at zero confidence.
	assert.Equal(t, http.StatusCreated, rec.Code)
	var got domain.ActivityLog
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, domain.ParseConfidenceZero, got.Confidence)
	assert.Equal(t, domain.CategoryMood, got.Category)
	assert.Equal(t, "felt weird today", got.RawText)
}

func TestCreateLog_Validation(t *testing.T) {
	h := NewLogsHandler(new(MockActivityLogStore), llm.NewMockParser(), zap.NewNop())

	cases := []struct {
		name string
		body string
	}{
		{"bad json", "{"},
		{"bad user id", `{"user_id":"nope","text":"hi"}`},
		{"empty text", `{"user_id":"` + uuid.New().String() + `","text":"  "}`},
		{"bad logged_at", `{"user_id":"` + uuid.New().String() + `","text":"hi","logged_at":"yesterday"}`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/v1/logs", bytes.NewReader([]byte(tc.body)))
		rec := httptest.NewRecorder()
		h.Create(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.name)
	}
}

func TestListLogs(t *testing.T) {
	store := new(MockActivityLogStore)
	userID := uuid.New()
	store.On("ListRecent", mock.Anything, userID, 50).Return(nil, nil)
	h := NewLogsHandler(store, llm.NewMockParser(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/logs?user_id="+userID.String(), nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	// An empty history serializes as an empty array, not null.
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestListLogs_InvalidLimit(t *testing.T) {
	h := NewLogsHandler(new(MockActivityLogStore), llm.NewMockParser(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/logs?user_id="+uuid.New().String()+"&limit=-3", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
