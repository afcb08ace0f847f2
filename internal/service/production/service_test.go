package production

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mebel-mes/internal/config"
	"mebel-mes/internal/identity"
	"mebel-mes/internal/storage"
	"mebel-mes/internal/storage/memory"
)

type MockPersister struct {
	mock.Mock
}

func (m *MockPersister) SaveWorkOrder(ctx context.Context, wo storage.WorkOrder) error {
	args := m.Called(ctx, wo)
	return args.Error(0)
}

func (m *MockPersister) GetAllWorkOrders(ctx context.Context) ([]storage.WorkOrder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.WorkOrder), args.Error(1)
}

func (m *MockPersister) SaveEvent(ctx context.Context, ev storage.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockPersister) GetRecentEvents(ctx context.Context, limit int) ([]storage.Event, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Event), args.Error(1)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) ObserveEvent(action string)    { m.Called(action) }
func (m *MockRecorder) ObserveAdvance(outcome string) { m.Called(outcome) }
func (m *MockRecorder) ObserveWIP(loads []StageLoad)  { m.Called(loads) }

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Add(d time.Duration) { c.now = c.now.Add(d) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, cfg config.Production, opts Options) (*Service, *clock) {
	t.Helper()

	c := &clock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	if opts.Now == nil {
		opts.Now = c.Now
	}

	return NewService(discardLogger(), memory.New(), cfg, opts), c
}

func TestService_CreateDefaults(t *testing.T) {
	s, _ := newTestService(t, config.Production{}, Options{})

	wo, err := s.CreateWorkOrder(context.Background(), CreateRequest{ProjectID: "p-1"})
	require.NoError(t, err)

	assert.Equal(t, storage.StagePurchase, wo.Stage)
	assert.Equal(t, storage.StatusQueued, wo.Status)
	assert.Equal(t, "Новая партия", wo.Name)
	assert.Equal(t, map[string]bool{
		"Счет оплачен":              false,
		"Материал в наличии/резерв": false,
		"ETA занесена":              false,
	}, wo.Checklist)

	events := s.Events(10)
	require.Len(t, events, 1)
	assert.Equal(t, storage.ActionWorkOrderCreate, events[0].Action)
}

func TestService_CreateRejectsUnknownStage(t *testing.T) {
	s, _ := newTestService(t, config.Production{}, Options{})

	_, err := s.CreateWorkOrder(context.Background(), CreateRequest{Stage: "ASSEMBLY"})
	assert.ErrorIs(t, err, ErrInvalidField)
	assert.Empty(t, s.ListWorkOrders(storage.WorkOrderFilter{}))
}

func TestService_NotFound(t *testing.T) {
	s, _ := newTestService(t, config.Production{}, Options{})
	ctx := context.Background()

	_, _, err := s.AdvanceStage(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrWorkOrderNotFound)

	_, err = s.StartTimer(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrWorkOrderNotFound)

	_, err = s.StopTimer(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrWorkOrderNotFound)

	_, err = s.ToggleChecklistItem(ctx, "nope", "x", true)
	assert.ErrorIs(t, err, storage.ErrWorkOrderNotFound)

	_, err = s.GetWorkOrder("nope")
	assert.ErrorIs(t, err, storage.ErrWorkOrderNotFound)

	assert.Empty(t, s.Events(0))
}

func TestService_AdvanceBlockedLeavesNoTrace(t *testing.T) {
	s, _ := newTestService(t, config.Production{}, Options{})
	ctx := context.Background()

	wo, err := s.CreateWorkOrder(ctx, CreateRequest{Stage: storage.StageEdge})
	require.NoError(t, err)

	res, got, err := s.AdvanceStage(ctx, wo.ID)
	require.NoError(t, err)

	assert.Equal(t, OutcomeBlocked, res.Outcome)
	assert.Equal(t, ReasonChecklistIncomplete, res.Reason)
	assert.Equal(t, wo, got)
	assert.Len(t, s.Events(0), 1)
}

func TestService_AdvanceSkipsAndLogsMove(t *testing.T) {
	s, _ := newTestService(t, config.Production{}, Options{})
	ctx := identity.WithActor(context.Background(), "ivanov")

	wo, err := s.CreateWorkOrder(ctx, CreateRequest{
		Stage:     storage.StageEdge,
		Checklist: map[string]bool{},
		SkipFlags: storage.SkipFlags{NoDrill: true, NoPaint: true},
	})
	require.NoError(t, err)

	res, got, err := s.AdvanceStage(ctx, wo.ID)
	require.NoError(t, err)

	assert.Equal(t, OutcomeStageChanged, res.Outcome)
	assert.Equal(t, storage.StageQAPack, got.Stage)

	ev := s.Events(1)[0]
	assert.Equal(t, storage.ActionWorkOrderMove, ev.Action)
	assert.Equal(t, "ivanov", ev.Actor)
	assert.Equal(t, storage.StageEdge, ev.Meta["from"])
	assert.Equal(t, storage.StageQAPack, ev.Meta["to"])
}

func TestService_CompletionEmitsDone(t *testing.T) {
	s, _ := newTestService(t, config.Production{}, Options{})
	ctx := context.Background()

	wo, err := s.CreateWorkOrder(ctx, CreateRequest{Stage: storage.StageQAPack, Checklist: map[string]bool{}})
	require.NoError(t, err)

	_, err = s.UpdateFields(ctx, wo.ID, FieldsPatch{
		PackingListURL: ptr("https://example.com/pl.pdf"),
		Photos:         []string{"https://example.com/1.jpg"},
	})
	require.NoError(t, err)

	res, got, err := s.AdvanceStage(ctx, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.Equal(t, storage.StatusDone, got.Status)
	assert.Equal(t, storage.ActionWorkOrderDone, s.Events(1)[0].Action)

	res, _, err = s.AdvanceStage(ctx, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, ReasonAlreadyDone, res.Reason)
}

func TestService_TimerFlow(t *testing.T) {
	s, c := newTestService(t, config.Production{}, Options{})
	ctx := context.Background()

	wo, err := s.CreateWorkOrder(ctx, CreateRequest{Stage: storage.StageDrill})
	require.NoError(t, err)

	started, err := s.StartTimer(ctx, wo.ID)
	require.NoError(t, err)
	assert.True(t, started.OK)
	assert.Equal(t, storage.StatusInProgress, started.WorkOrder.Status)

	again, err := s.StartTimer(ctx, wo.ID)
	require.NoError(t, err)
	assert.False(t, again.OK)
	assert.Equal(t, ReasonTimerRunning, again.Reason)

	loads := s.WipSnapshot()
	for _, l := range loads {
		if l.Stage == storage.StageDrill {
			assert.Equal(t, 1, l.Active)
		}
	}

	c.Add(90 * time.Second)
	stopped, err := s.StopTimer(ctx, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stopped.DeltaMinutes)
	assert.Equal(t, 2, stopped.WorkOrder.TimeMinutes)
	assert.Nil(t, stopped.WorkOrder.TimerStartAt)

	ev := s.Events(1)[0]
	assert.Equal(t, storage.ActionTimerStop, ev.Action)
	assert.Equal(t, 2, ev.Meta["minutes"])
}

func TestService_MaterialsPolicy(t *testing.T) {
	s, _ := newTestService(t, config.Production{RequireMaterialsReady: true}, Options{})
	ctx := context.Background()

	wo, err := s.CreateWorkOrder(ctx, CreateRequest{})
	require.NoError(t, err)

	res, err := s.StartTimer(ctx, wo.ID)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonMaterialsNotReady, res.Reason)

	_, err = s.UpdateFields(ctx, wo.ID, FieldsPatch{MaterialsReady: ptr(true)})
	require.NoError(t, err)

	res, err = s.StartTimer(ctx, wo.ID)
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func TestService_ToggleChecklist(t *testing.T) {
	s, _ := newTestService(t, config.Production{}, Options{})
	ctx := context.Background()

	wo, err := s.CreateWorkOrder(ctx, CreateRequest{Checklist: map[string]bool{}})
	require.NoError(t, err)

	_, err = s.ToggleChecklistItem(ctx, wo.ID, "", true)
	assert.ErrorIs(t, err, ErrInvalidField)

	got, err := s.ToggleChecklistItem(ctx, wo.ID, "Доп. контроль", false)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"Доп. контроль": false}, got.Checklist)

	res, _, err := s.AdvanceStage(ctx, wo.ID)
	require.NoError(t, err)
	assert.True(t, res.Blocked())
}

func TestService_SetSkipFlagsPartial(t *testing.T) {
	s, _ := newTestService(t, config.Production{}, Options{})
	ctx := context.Background()

	wo, err := s.CreateWorkOrder(ctx, CreateRequest{SkipFlags: storage.SkipFlags{NoDrill: true}})
	require.NoError(t, err)

	got, err := s.SetSkipFlags(ctx, wo.ID, SkipFlagsPatch{NoPaint: ptr(true)})
	require.NoError(t, err)

	assert.Equal(t, storage.SkipFlags{NoDrill: true, NoPaint: true}, got.SkipFlags)
}

func TestService_UpdateFieldsValidation(t *testing.T) {
	s, _ := newTestService(t, config.Production{}, Options{})
	ctx := context.Background()

	wo, err := s.CreateWorkOrder(ctx, CreateRequest{})
	require.NoError(t, err)

	_, err = s.UpdateFields(ctx, wo.ID, FieldsPatch{Stage: ptr(storage.ShopStage("ASSEMBLY"))})
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = s.UpdateFields(ctx, wo.ID, FieldsPatch{Status: ptr(storage.StatusDone)})
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = s.StartTimer(ctx, wo.ID)
	require.NoError(t, err)

	_, err = s.UpdateFields(ctx, wo.ID, FieldsPatch{Status: ptr(storage.StatusRework)})
	assert.ErrorIs(t, err, ErrInvalidField)

	got, err := s.UpdateFields(ctx, wo.ID, FieldsPatch{Name: ptr("Кухня Петровых"), Assignee: ptr("smirnov")})
	require.NoError(t, err)
	assert.Equal(t, "Кухня Петровых", got.Name)
	assert.Equal(t, "smirnov", got.Assignee)
	assert.Equal(t, storage.StatusInProgress, got.Status)

	ev := s.Events(1)[0]
	assert.Equal(t, storage.ActionWorkOrderUpdate, ev.Action)
	assert.Equal(t, []string{"name", "assignee"}, ev.Meta["fields"])
}

func TestService_QueryByStage(t *testing.T) {
	s, _ := newTestService(t, config.Production{}, Options{})
	ctx := context.Background()

	_, err := s.CreateWorkOrder(ctx, CreateRequest{Stage: storage.StagePaint})
	require.NoError(t, err)
	_, err = s.CreateWorkOrder(ctx, CreateRequest{Stage: storage.StageEdge})
	require.NoError(t, err)

	got, err := s.QueryByStage(storage.StagePaint)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = s.QueryByStage("ASSEMBLY")
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestService_PersistsAndRecords(t *testing.T) {
	p := new(MockPersister)
	r := new(MockRecorder)

	p.On("SaveWorkOrder", mock.Anything, mock.AnythingOfType("storage.WorkOrder")).Return(nil)
	p.On("SaveEvent", mock.Anything, mock.MatchedBy(func(ev storage.Event) bool {
		return ev.Action == storage.ActionWorkOrderCreate
	})).Return(errors.New("disk full"))
	r.On("ObserveEvent", storage.ActionWorkOrderCreate).Return()
	r.On("ObserveWIP", mock.Anything).Return()

	s, _ := newTestService(t, config.Production{}, Options{Persister: p, Recorder: r})

	// ошибка хранилища не отменяет изменение в памяти
	wo, err := s.CreateWorkOrder(context.Background(), CreateRequest{})
	require.NoError(t, err)

	_, err = s.GetWorkOrder(wo.ID)
	require.NoError(t, err)

	p.AssertExpectations(t)
	r.AssertExpectations(t)
}

func TestService_Restore(t *testing.T) {
	p := new(MockPersister)

	orders := []storage.WorkOrder{
		{ID: "wo-1", Stage: storage.StageEdge, Status: storage.StatusQueued},
		{ID: "wo-2", Stage: storage.StagePaint, Status: storage.StatusInProgress},
	}
	events := []storage.Event{
		{Action: storage.ActionTimerStart},
		{Action: storage.ActionWorkOrderCreate},
	}

	p.On("GetAllWorkOrders", mock.Anything).Return(orders, nil)
	p.On("GetRecentEvents", mock.Anything, 50).Return(events, nil)

	s, _ := newTestService(t, config.Production{EventLogSize: 50}, Options{Persister: p})

	require.NoError(t, s.Restore(context.Background()))

	assert.Len(t, s.ListWorkOrders(storage.WorkOrderFilter{}), 2)
	recent := s.Events(0)
	require.Len(t, recent, 2)
	assert.Equal(t, storage.ActionTimerStart, recent[0].Action)

	p.AssertExpectations(t)
}

func TestService_RestoreFails(t *testing.T) {
	p := new(MockPersister)

	p.On("GetAllWorkOrders", mock.Anything).Return(nil, errors.New("connection refused"))
	p.On("GetRecentEvents", mock.Anything, mock.Anything).Return([]storage.Event{}, nil).Maybe()

	s, _ := newTestService(t, config.Production{}, Options{Persister: p})

	err := s.Restore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

// finishOrder проводит партию на упаковке через завершение
func finishOrder(t *testing.T, s *Service) storage.WorkOrder {
	t.Helper()
	ctx := context.Background()

	wo, err := s.CreateWorkOrder(ctx, CreateRequest{Stage: storage.StageQAPack, Checklist: map[string]bool{}})
	require.NoError(t, err)

	_, err = s.UpdateFields(ctx, wo.ID, FieldsPatch{
		PackingListURL: ptr("https://example.com/pl.pdf"),
		Photos:         []string{"https://example.com/1.jpg"},
	})
	require.NoError(t, err)

	res, done, err := s.AdvanceStage(ctx, wo.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeCompleted, res.Outcome)

	return done
}

func TestService_StopTimerOnDoneOrder(t *testing.T) {
	s, _ := newTestService(t, config.Production{}, Options{})
	ctx := context.Background()

	done := finishOrder(t, s)
	eventsBefore := len(s.Events(0))

	res, err := s.StopTimer(ctx, done.ID)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonAlreadyDone, res.Reason)
	assert.Equal(t, storage.StatusDone, res.WorkOrder.Status)

	got, err := s.GetWorkOrder(done.ID)
	require.NoError(t, err)
	assert.Equal(t, done, got)
	assert.Len(t, s.Events(0), eventsBefore)

	// повторного завершения нет
	adv, _, err := s.AdvanceStage(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, ReasonAlreadyDone, adv.Reason)
	assert.Len(t, s.Events(0), eventsBefore)
}

func TestService_StartTimerOnDoneOrder(t *testing.T) {
	s, _ := newTestService(t, config.Production{}, Options{})

	done := finishOrder(t, s)
	eventsBefore := len(s.Events(0))

	res, err := s.StartTimer(context.Background(), done.ID)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonAlreadyDone, res.Reason)

	got, err := s.GetWorkOrder(done.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusDone, got.Status)
	assert.Nil(t, got.TimerStartAt)
	assert.Len(t, s.Events(0), eventsBefore)
}

// stallingPersister задерживает первую запись снимка, пока тест не отпустит release
type stallingPersister struct {
	mu      sync.Mutex
	stalled bool
	saved   []storage.ShopStage

	stall   bool
	entered chan struct{}
	release chan struct{}
}

func (p *stallingPersister) SaveWorkOrder(ctx context.Context, wo storage.WorkOrder) error {
	p.mu.Lock()
	hold := p.stall && !p.stalled
	if hold {
		p.stalled = true
	}
	p.mu.Unlock()

	if hold {
		close(p.entered)
		<-p.release
	}

	p.mu.Lock()
	p.saved = append(p.saved, wo.Stage)
	p.mu.Unlock()
	return nil
}

func (p *stallingPersister) GetAllWorkOrders(ctx context.Context) ([]storage.WorkOrder, error) {
	return nil, nil
}

func (p *stallingPersister) SaveEvent(ctx context.Context, ev storage.Event) error { return nil }

func (p *stallingPersister) GetRecentEvents(ctx context.Context, limit int) ([]storage.Event, error) {
	return nil, nil
}

func (p *stallingPersister) last() storage.ShopStage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved[len(p.saved)-1]
}

func TestService_ConcurrentAdvancesPersistLatestSnapshot(t *testing.T) {
	p := &stallingPersister{entered: make(chan struct{}), release: make(chan struct{})}
	s, _ := newTestService(t, config.Production{}, Options{Persister: p})
	ctx := context.Background()

	wo, err := s.CreateWorkOrder(ctx, CreateRequest{Stage: storage.StageCutCNC, Checklist: map[string]bool{}})
	require.NoError(t, err)

	p.mu.Lock()
	p.stall = true
	p.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_, _, _ = s.AdvanceStage(ctx, wo.ID)
	}()
	<-p.entered

	go func() {
		defer wg.Done()
		_, _, _ = s.AdvanceStage(ctx, wo.ID)
	}()

	require.Eventually(t, func() bool {
		got, err := s.GetWorkOrder(wo.ID)
		return err == nil && got.Stage == storage.StageDrill
	}, time.Second, 5*time.Millisecond)

	close(p.release)
	wg.Wait()

	assert.Equal(t, storage.StageDrill, p.last())
}

func TestService_PersistOutlivesCanceledRequest(t *testing.T) {
	p := new(MockPersister)
	alive := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })

	p.On("SaveWorkOrder", alive, mock.AnythingOfType("storage.WorkOrder")).Return(nil).Once()
	p.On("SaveEvent", alive, mock.AnythingOfType("storage.Event")).Return(nil).Once()

	s, _ := newTestService(t, config.Production{}, Options{Persister: p})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.CreateWorkOrder(ctx, CreateRequest{})
	require.NoError(t, err)

	p.AssertExpectations(t)
}

func ptr[T any](v T) *T { return &v }
