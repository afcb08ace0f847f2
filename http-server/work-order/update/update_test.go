package update

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"mebel-mes/internal/service/production"
	"mebel-mes/internal/storage"
)

type MockWorkOrderUpdater struct {
	mock.Mock
}

func (m *MockWorkOrderUpdater) UpdateFields(ctx context.Context, id string, patch production.FieldsPatch) (storage.WorkOrder, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(storage.WorkOrder), args.Error(1)
}

func (m *MockWorkOrderUpdater) ToggleChecklistItem(ctx context.Context, id, label string, value bool) (storage.WorkOrder, error) {
	args := m.Called(ctx, id, label, value)
	return args.Get(0).(storage.WorkOrder), args.Error(1)
}

func (m *MockWorkOrderUpdater) SetSkipFlags(ctx context.Context, id string, flags production.SkipFlagsPatch) (storage.WorkOrder, error) {
	args := m.Called(ctx, id, flags)
	return args.Get(0).(storage.WorkOrder), args.Error(1)
}

func newRouter(u WorkOrderUpdater) http.Handler {
	r := chi.NewRouter()
	r.Put("/api/work-orders/{id}", UpdateWorkOrder(slog.Default(), u))
	r.Put("/api/work-orders/{id}/checklist", ToggleChecklist(slog.Default(), u))
	r.Put("/api/work-orders/{id}/skip-flags", SetSkipFlags(slog.Default(), u))
	return r
}

func do(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestUpdateWorkOrder_Success(t *testing.T) {
	u := new(MockWorkOrderUpdater)
	u.On("UpdateFields", mock.Anything, "wo-1", mock.MatchedBy(func(p production.FieldsPatch) bool {
		return p.PackingListURL != nil && *p.PackingListURL == "https://example.com/pl.pdf" &&
			len(p.Photos) == 1 && p.Name == nil && p.Status == nil
	})).Return(storage.WorkOrder{ID: "wo-1"}, nil)

	rr := do(newRouter(u), "/api/work-orders/wo-1",
		`{"packingListUrl": "https://example.com/pl.pdf", "photos": ["https://example.com/1.jpg"]}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	u.AssertExpectations(t)
}

func TestUpdateWorkOrder_StatusDoneRejected(t *testing.T) {
	u := new(MockWorkOrderUpdater)

	rr := do(newRouter(u), "/api/work-orders/wo-1", `{"status": "DONE"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	u.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateWorkOrder_TimerRunning(t *testing.T) {
	u := new(MockWorkOrderUpdater)
	u.On("UpdateFields", mock.Anything, "wo-1", mock.Anything).
		Return(storage.WorkOrder{}, fmt.Errorf("service: status change while timer running: %w", production.ErrInvalidField))

	rr := do(newRouter(u), "/api/work-orders/wo-1", `{"status": "REWORK"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "timer running")
}

func TestToggleChecklist(t *testing.T) {
	u := new(MockWorkOrderUpdater)
	u.On("ToggleChecklistItem", mock.Anything, "wo-1", "Снятие фаски", true).
		Return(storage.WorkOrder{ID: "wo-1", Checklist: map[string]bool{"Снятие фаски": true}}, nil)

	rr := do(newRouter(u), "/api/work-orders/wo-1/checklist", `{"item": "Снятие фаски", "value": true}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"Снятие фаски":true`)
	u.AssertExpectations(t)
}

func TestToggleChecklist_EmptyItem(t *testing.T) {
	u := new(MockWorkOrderUpdater)

	rr := do(newRouter(u), "/api/work-orders/wo-1/checklist", `{"item": "", "value": true}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "field item is required")
}

func TestToggleChecklist_NotFound(t *testing.T) {
	u := new(MockWorkOrderUpdater)
	u.On("ToggleChecklistItem", mock.Anything, "nope", "x", false).
		Return(storage.WorkOrder{}, fmt.Errorf("service: %w", storage.ErrWorkOrderNotFound))

	rr := do(newRouter(u), "/api/work-orders/nope/checklist", `{"item": "x", "value": false}`)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSetSkipFlags(t *testing.T) {
	u := new(MockWorkOrderUpdater)
	u.On("SetSkipFlags", mock.Anything, "wo-1", mock.MatchedBy(func(p production.SkipFlagsPatch) bool {
		return p.NoDrill == nil && p.NoPaint != nil && *p.NoPaint
	})).Return(storage.WorkOrder{ID: "wo-1", SkipFlags: storage.SkipFlags{NoPaint: true}}, nil)

	rr := do(newRouter(u), "/api/work-orders/wo-1/skip-flags", `{"noPaint": true}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	u.AssertExpectations(t)

	rr = do(newRouter(u), "/api/work-orders/wo-1/skip-flags", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
