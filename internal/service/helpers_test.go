package service_test

import (
	"context"
	"testing"
	"time"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRepo(t *testing.T) *repository.TaskRepository {
	t.Helper()
	db, err := repository.OpenSQLite("file:"+uuid.NewString()+"?mode=memory", &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return repository.NewTaskRepository(db)
}

// MockTaskStore implements service.TaskStore and service.RecurrenceStore.
type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) CountOwned(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskStore) GetOwned(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, ownerID, id)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

func (m *MockTaskStore) List(ctx context.Context, ownerID uuid.UUID, filter repository.TaskFilter) ([]model.Task, error) {
	args := m.Called(ctx, ownerID, filter)
	tasks := args.Get(0)
	if tasks == nil {
		return nil, args.Error(1)
	}
	// callers may sort in place
	return append([]model.Task(nil), tasks.([]model.Task)...), args.Error(1)
}

func (m *MockTaskStore) HasUnmetDependencies(ctx context.Context, taskID uuid.UUID) (bool, error) {
	args := m.Called(ctx, taskID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskStore) CreateWithDependencies(ctx context.Context, task *model.Task, dependsOnIDs []uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, task, dependsOnIDs)
	created := args.Get(0)
	if created == nil {
		return nil, args.Error(1)
	}
	return created.(*model.Task), args.Error(1)
}

func (m *MockTaskStore) Update(ctx context.Context, taskID uuid.UUID, changes repository.TaskChanges) (*model.Task, error) {
	args := m.Called(ctx, taskID, changes)
	updated := args.Get(0)
	if updated == nil {
		return nil, args.Error(1)
	}
	return updated.(*model.Task), args.Error(1)
}

func (m *MockTaskStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockTaskStore) ListRecurring(ctx context.Context, afterID uuid.UUID, limit int) ([]model.Task, error) {
	args := m.Called(ctx, afterID, limit)
	tasks := args.Get(0)
	if tasks == nil {
		return nil, args.Error(1)
	}
	return tasks.([]model.Task), args.Error(1)
}

func (m *MockTaskStore) SpawnOccurrence(ctx context.Context, template *model.Task, now time.Time) (*model.Task, error) {
	args := m.Called(ctx, template, now)
	occurrence := args.Get(0)
	if occurrence == nil {
		return nil, args.Error(1)
	}
	return occurrence.(*model.Task), args.Error(1)
}

func ptr[T any](v T) *T {
	return &v
}
