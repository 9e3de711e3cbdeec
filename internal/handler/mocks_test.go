package handler_test

import (
	"context"

	"tasktracker/internal/handler"
	"tasktracker/internal/middleware"
	"tasktracker/internal/model"
	"tasktracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*model.User, error) {
	args := m.Called(ctx, id, changes)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

type MockTaskService struct {
	mock.Mock
}

var _ handler.TaskService = (*MockTaskService)(nil)

func (m *MockTaskService) Create(ctx context.Context, ownerID uuid.UUID, in service.CreateTaskInput) (*model.Task, error) {
	args := m.Called(ctx, ownerID, in)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, ownerID, taskID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, ownerID, taskID)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, ownerID, taskID uuid.UUID, in service.UpdateTaskInput) (*model.Task, error) {
	args := m.Called(ctx, ownerID, taskID, in)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	args := m.Called(ctx, ownerID, taskID)
	return args.Error(0)
}

func (m *MockTaskService) List(ctx context.Context, ownerID uuid.UUID, q service.ListTasksQuery) ([]model.Task, error) {
	args := m.Called(ctx, ownerID, q)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskService) Stats(ctx context.Context, ownerID uuid.UUID) (*service.TaskStats, error) {
	args := m.Called(ctx, ownerID)
	stats, _ := args.Get(0).(*service.TaskStats)
	return stats, args.Error(1)
}

func taskOrNil(v interface{}) *model.Task {
	if v == nil {
		return nil
	}
	return v.(*model.Task)
}

// authenticatedAs stands in for JWTAuthMiddleware.
func authenticatedAs(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func ptr[T any](v T) *T {
	return &v
}
