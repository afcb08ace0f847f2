package get

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"mebel-mes/internal/storage"
)

type MockEventsProvider struct {
	mock.Mock
}

func (m *MockEventsProvider) Events(limit int) []storage.Event {
	return m.Called(limit).Get(0).([]storage.Event)
}

func TestGetEvents(t *testing.T) {
	p := new(MockEventsProvider)
	p.On("Events", defaultLimit).Return([]storage.Event{{Action: storage.ActionTimerStart, Actor: "ivanov"}})
	p.On("Events", 5).Return([]storage.Event{})

	h := GetEvents(slog.Default(), p)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"user":"ivanov"`)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/events?limit=5", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	p.AssertExpectations(t)
}

func TestGetEvents_BadLimit(t *testing.T) {
	p := new(MockEventsProvider)
	h := GetEvents(slog.Default(), p)

	for _, q := range []string{"abc", "0", "-3"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/events?limit="+q, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
	p.AssertNotCalled(t, "Events", mock.Anything)
}
