package service_test

import (
	"context"
	"testing"
	"time"

	"tasktracker/internal/metrics"
	"tasktracker/internal/model"
	"tasktracker/internal/repository"
	"tasktracker/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNextDue(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	last := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		recurrence *model.Recurrence
		last       *time.Time
		want       time.Time
		ok         bool
	}{
		{"daily from creation", ptr(model.RecurrenceDaily), nil, created.AddDate(0, 0, 1), true},
		{"weekly from creation", ptr(model.RecurrenceWeekly), nil, created.AddDate(0, 0, 7), true},
		{"monthly is thirty days", ptr(model.RecurrenceMonthly), nil, time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC), true},
		{"daily from last occurrence", ptr(model.RecurrenceDaily), &last, last.AddDate(0, 0, 1), true},
		{"not recurring", nil, nil, time.Time{}, false},
		{"unknown recurrence", ptr(model.Recurrence("")), nil, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &model.Task{CreatedAt: created, Recurrence: tt.recurrence, LastRecurrenceAt: tt.last}

			due, ok := service.NextDue(task)

			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(due), "want %s, got %s", tt.want, due)
		})
	}
}

func newTemplate(t *testing.T, repo *repository.TaskRepository, owner uuid.UUID, r model.Recurrence, created time.Time, last *time.Time) *model.Task {
	t.Helper()
	template, err := repo.CreateWithDependencies(context.Background(), &model.Task{
		UserID:           owner,
		Title:            "stand-up notes",
		Description:      ptr("daily"),
		Status:           model.StatusDone,
		Priority:         model.PriorityHigh,
		Recurrence:       &r,
		CreatedAt:        created,
		LastRecurrenceAt: last,
	}, nil)
	require.NoError(t, err)
	return template
}

func TestRecurrenceEngine_SpawnsDueTemplate(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	owner := uuid.New()
	now := time.Now().UTC()
	template := newTemplate(t, repo, owner, model.RecurrenceDaily, now.Add(-48*time.Hour), nil)
	engine := service.NewRecurrenceEngine(repo, 10, nil)

	spawned, err := engine.Tick(ctx, now)

	require.NoError(t, err)
	assert.Equal(t, 1, spawned)

	tasks, err := repo.List(ctx, owner, repository.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	var occurrence, reloaded *model.Task
	for i := range tasks {
		if tasks[i].ID == template.ID {
			reloaded = &tasks[i]
		} else {
			occurrence = &tasks[i]
		}
	}
	require.NotNil(t, occurrence)
	require.NotNil(t, reloaded)
	assert.Nil(t, occurrence.Recurrence)
	assert.Equal(t, model.StatusNotDone, occurrence.Status)
	assert.Equal(t, model.PriorityHigh, occurrence.Priority)
	assert.Equal(t, template.Title, occurrence.Title)
	assert.Empty(t, occurrence.DependsOnIDs())
	require.NotNil(t, reloaded.LastRecurrenceAt)
	assert.WithinDuration(t, now, *reloaded.LastRecurrenceAt, time.Second)
}

// P6
func TestRecurrenceEngine_IdempotentWithinPeriod(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	owner := uuid.New()
	now := time.Now().UTC()
	last := now.Add(-25 * time.Hour)
	newTemplate(t, repo, owner, model.RecurrenceDaily, now.Add(-72*time.Hour), &last)
	engine := service.NewRecurrenceEngine(repo, 10, nil)

	first, err := engine.Tick(ctx, now)
	require.NoError(t, err)
	second, err := engine.Tick(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, 1, first)
	assert.Equal(t, 0, second)
	tasks, err := repo.List(ctx, owner, repository.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestRecurrenceEngine_SkipsTemplatesNotDue(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	owner := uuid.New()
	now := time.Now().UTC()
	newTemplate(t, repo, owner, model.RecurrenceWeekly, now.Add(-72*time.Hour), nil)
	last := now.Add(-20 * time.Hour)
	newTemplate(t, repo, owner, model.RecurrenceDaily, now.Add(-72*time.Hour), &last)
	engine := service.NewRecurrenceEngine(repo, 10, nil)

	spawned, err := engine.Tick(ctx, now)

	require.NoError(t, err)
	assert.Zero(t, spawned)
}

func TestRecurrenceEngine_CrossTenantAcrossPages(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	now := time.Now().UTC()
	owners := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, owner := range owners {
		newTemplate(t, repo, owner, model.RecurrenceDaily, now.Add(-48*time.Hour), nil)
	}
	engine := service.NewRecurrenceEngine(repo, 2, metrics.New())

	spawned, err := engine.Tick(ctx, now)

	require.NoError(t, err)
	assert.Equal(t, 3, spawned)
	for _, owner := range owners {
		tasks, err := repo.List(ctx, owner, repository.TaskFilter{})
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
	}
}

func TestRecurrenceEngine_Paginates(t *testing.T) {
	store := new(MockTaskStore)
	engine := service.NewRecurrenceEngine(store, 2, nil)
	now := time.Now()
	old := now.Add(-30 * 24 * time.Hour)
	daily := model.RecurrenceDaily
	page1 := []model.Task{
		{ID: uuid.New(), Recurrence: &daily, CreatedAt: old},
		{ID: uuid.New(), Recurrence: &daily, CreatedAt: now},
	}
	page2 := []model.Task{{ID: uuid.New(), Recurrence: &daily, CreatedAt: old}}

	store.On("ListRecurring", mock.Anything, uuid.Nil, 2).Return(page1, nil).Once()
	store.On("ListRecurring", mock.Anything, page1[1].ID, 2).Return(page2, nil).Once()
	store.On("SpawnOccurrence", mock.Anything, mock.Anything, now).Return(&model.Task{}, nil).Twice()

	spawned, err := engine.Tick(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 2, spawned)
	store.AssertExpectations(t)
}

func TestRecurrenceEngine_AbortsOnStoreFailure(t *testing.T) {
	store := new(MockTaskStore)
	engine := service.NewRecurrenceEngine(store, 10, nil)
	now := time.Now()
	old := now.Add(-48 * time.Hour)
	daily := model.RecurrenceDaily
	page := []model.Task{
		{ID: uuid.New(), Recurrence: &daily, CreatedAt: old},
		{ID: uuid.New(), Recurrence: &daily, CreatedAt: old},
	}
	store.On("ListRecurring", mock.Anything, uuid.Nil, 10).Return(page, nil)
	store.On("SpawnOccurrence", mock.Anything, mock.Anything, now).Return(nil, assert.AnError).Once()

	spawned, err := engine.Tick(context.Background(), now)

	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, spawned)
	store.AssertNumberOfCalls(t, "SpawnOccurrence", 1)
}

func TestRecurrenceEngine_SkipsTemplateDeletedMidTick(t *testing.T) {
	store := new(MockTaskStore)
	engine := service.NewRecurrenceEngine(store, 10, nil)
	now := time.Now()
	old := now.Add(-48 * time.Hour)
	daily := model.RecurrenceDaily
	gone := model.Task{ID: uuid.New(), Recurrence: &daily, CreatedAt: old}
	kept := model.Task{ID: uuid.New(), Recurrence: &daily, CreatedAt: old}
	store.On("ListRecurring", mock.Anything, uuid.Nil, 10).Return([]model.Task{gone, kept}, nil)
	store.On("SpawnOccurrence", mock.Anything, mock.MatchedBy(func(t *model.Task) bool { return t.ID == gone.ID }), now).
		Return(nil, repository.ErrTaskNotFound)
	store.On("SpawnOccurrence", mock.Anything, mock.MatchedBy(func(t *model.Task) bool { return t.ID == kept.ID }), now).
		Return(&model.Task{}, nil)

	spawned, err := engine.Tick(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 1, spawned)
}

func TestRecurrenceEngine_ListFailure(t *testing.T) {
	store := new(MockTaskStore)
	engine := service.NewRecurrenceEngine(store, 0, nil)
	store.On("ListRecurring", mock.Anything, uuid.Nil, 100).Return(nil, assert.AnError)

	_, err := engine.Tick(context.Background(), time.Now())

	assert.ErrorIs(t, err, assert.AnError)
}
