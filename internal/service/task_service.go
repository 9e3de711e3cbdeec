package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"
)

const maxDescriptionLength = 2000

// TaskStore is the persistence the lifecycle manager relies on. Every
// multi-row method is expected to run in a single transaction.
type TaskStore interface {
	DependencyLookup
	GetOwned(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context, ownerID uuid.UUID, filter repository.TaskFilter) ([]model.Task, error)
	HasUnmetDependencies(ctx context.Context, taskID uuid.UUID) (bool, error)
	CreateWithDependencies(ctx context.Context, task *model.Task, dependsOnIDs []uuid.UUID) (*model.Task, error)
	Update(ctx context.Context, taskID uuid.UUID, changes repository.TaskChanges) (*model.Task, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type CreateTaskInput struct {
	Title        string
	Description  *string
	Priority     model.Priority
	Recurrence   *model.Recurrence
	DependsOnIDs []string
}

// UpdateTaskInput carries a partial update; nil / unset fields keep their
// stored value. A non-nil DependsOnIDs replaces the whole dependency set.
type UpdateTaskInput struct {
	Title        *string
	Description  Nullable[string]
	Status       *model.Status
	Priority     *model.Priority
	Recurrence   Nullable[model.Recurrence]
	DependsOnIDs *[]string
}

type SortKey string

const (
	SortByPriority  SortKey = "priority"
	SortByStatus    SortKey = "status"
	SortByCreatedAt SortKey = "createdAt"
)

type ListTasksQuery struct {
	Search     string
	Status     model.Status
	Priority   model.Priority
	Sort       SortKey
	Descending bool
}

type TaskStats struct {
	Total      int                    `json:"total"`
	Done       int                    `json:"done"`
	NotDone    int                    `json:"notDone"`
	Recurring  int                    `json:"recurring"`
	ByPriority map[model.Priority]int `json:"byPriority"`
}

// TaskService enforces the task lifecycle rules on top of a TaskStore.
type TaskService struct {
	store TaskStore
	deps  *DependencyValidator
}

func NewTaskService(store TaskStore) *TaskService {
	return &TaskService{
		store: store,
		deps:  NewDependencyValidator(store),
	}
}

func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, in CreateTaskInput) (*model.Task, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() || (in.Recurrence != nil && !in.Recurrence.Valid()) {
		return nil, ErrInvalidEnum
	}

	dependsOnIDs, err := s.deps.Validate(ctx, ownerID, in.DependsOnIDs, nil)
	if err != nil {
		return nil, err
	}

	task := &model.Task{
		UserID:      ownerID,
		Title:       title,
		Description: in.Description,
		Status:      model.StatusNotDone,
		Priority:    priority,
		Recurrence:  in.Recurrence,
	}
	created, err := s.store.CreateWithDependencies(ctx, task, dependsOnIDs)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return created, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, taskID uuid.UUID) (*model.Task, error) {
	task, err := s.store.GetOwned(ctx, ownerID, taskID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return task, nil
}

// Update applies a partial update. A transition to DONE with unfinished
// prerequisites rejects the whole request.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID uuid.UUID, in UpdateTaskInput) (*model.Task, error) {
	if _, err := s.store.GetOwned(ctx, ownerID, taskID); err != nil {
		return nil, translateStoreErr(err)
	}

	fields, err := updateFields(in)
	if err != nil {
		return nil, err
	}

	if in.Status != nil && *in.Status == model.StatusDone {
		unmet, err := s.store.HasUnmetDependencies(ctx, taskID)
		if err != nil {
			return nil, fmt.Errorf("check dependencies: %w", err)
		}
		if unmet {
			return nil, ErrUnmetDependencies
		}
	}

	changes := repository.TaskChanges{Fields: fields}
	if in.DependsOnIDs != nil {
		ids, err := s.deps.Validate(ctx, ownerID, *in.DependsOnIDs, &taskID)
		if err != nil {
			return nil, err
		}
		changes.Dependencies = &ids
	}

	updated, err := s.store.Update(ctx, taskID, changes)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	if _, err := s.store.GetOwned(ctx, ownerID, taskID); err != nil {
		return translateStoreErr(err)
	}
	if err := s.store.Delete(ctx, ownerID, taskID); err != nil {
		return translateStoreErr(err)
	}
	return nil
}

// List filters in the store and sorts in memory; ties keep store order.
func (s *TaskService) List(ctx context.Context, ownerID uuid.UUID, q ListTasksQuery) ([]model.Task, error) {
	tasks, err := s.store.List(ctx, ownerID, repository.TaskFilter{
		Search:   q.Search,
		Status:   q.Status,
		Priority: q.Priority,
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	if less := lessFunc(tasks, q.Sort); less != nil {
		sort.SliceStable(tasks, func(i, j int) bool {
			if q.Descending {
				return less(j, i)
			}
			return less(i, j)
		})
	}
	return tasks, nil
}

func (s *TaskService) Stats(ctx context.Context, ownerID uuid.UUID) (*TaskStats, error) {
	tasks, err := s.store.List(ctx, ownerID, repository.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	stats := &TaskStats{
		ByPriority: map[model.Priority]int{
			model.PriorityLow:    0,
			model.PriorityMedium: 0,
			model.PriorityHigh:   0,
		},
	}
	for i := range tasks {
		stats.Total++
		if tasks[i].Status == model.StatusDone {
			stats.Done++
		} else {
			stats.NotDone++
		}
		if tasks[i].IsRecurring() {
			stats.Recurring++
		}
		stats.ByPriority[tasks[i].Priority]++
	}
	return stats, nil
}

var (
	priorityRank = map[model.Priority]int{model.PriorityLow: 0, model.PriorityMedium: 1, model.PriorityHigh: 2}
	statusRank   = map[model.Status]int{model.StatusNotDone: 0, model.StatusDone: 1}
)

func lessFunc(tasks []model.Task, key SortKey) func(i, j int) bool {
	switch key {
	case SortByPriority:
		return func(i, j int) bool { return priorityRank[tasks[i].Priority] < priorityRank[tasks[j].Priority] }
	case SortByStatus:
		return func(i, j int) bool { return statusRank[tasks[i].Status] < statusRank[tasks[j].Status] }
	case SortByCreatedAt:
		return func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) }
	}
	return nil
}

func updateFields(in UpdateTaskInput) (map[string]interface{}, error) {
	fields := make(map[string]interface{})

	if in.Title != nil {
		title, err := normalizeTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		fields["title"] = title
	}
	if in.Description.Set {
		if err := validateDescription(in.Description.Value); err != nil {
			return nil, err
		}
		if in.Description.Value == nil {
			fields["description"] = nil
		} else {
			fields["description"] = *in.Description.Value
		}
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, ErrInvalidEnum
		}
		fields["status"] = *in.Status
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, ErrInvalidEnum
		}
		fields["priority"] = *in.Priority
	}
	if in.Recurrence.Set {
		if in.Recurrence.Value == nil {
			fields["recurrence"] = nil
		} else {
			if !in.Recurrence.Value.Valid() {
				return nil, ErrInvalidEnum
			}
			fields["recurrence"] = *in.Recurrence.Value
		}
	}
	return fields, nil
}

// normalizeTitle trims surrounding whitespace; the stored title is never blank.
func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	return title, nil
}

func validateDescription(desc *string) error {
	if desc != nil && utf8.RuneCountInString(*desc) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func translateStoreErr(err error) error {
	if errors.Is(err, repository.ErrTaskNotFound) {
		return ErrTaskNotFound
	}
	return err
}
