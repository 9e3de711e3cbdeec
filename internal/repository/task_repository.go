package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tasktracker/internal/model"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// TaskFilter narrows List. Zero values mean "no filter".
type TaskFilter struct {
	Search   string
	Status   model.Status
	Priority model.Priority
}

// TaskChanges describes an update. Fields is keyed by column name; a nil
// Dependencies leaves the existing edges untouched, a non-nil one replaces them.
type TaskChanges struct {
	Fields       map[string]interface{}
	Dependencies *[]uuid.UUID
}

// GetOwned retrieves a task with its dependency edges, scoped to the owner
func (r *TaskRepository) GetOwned(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Preload("Dependencies").
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// likeEscaper makes a search string match literally inside a LIKE pattern
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List retrieves the owner's tasks matching the filter, oldest first
func (r *TaskRepository) List(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]model.Task, error) {
	query := r.db.WithContext(ctx).
		Preload("Dependencies").
		Where("user_id = ?", ownerID)

	if filter.Search != "" {
		query = query.Where(`title LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(filter.Search)+"%")
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}

	var tasks []model.Task
	if err := query.Order("created_at").Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// CountOwned counts how many of ids name tasks belonging to the owner
func (r *TaskRepository) CountOwned(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND id IN ?", ownerID, ids).
		Count(&count).Error
	return count, err
}

// HasUnmetDependencies reports whether any prerequisite of the task is not done
func (r *TaskRepository) HasUnmetDependencies(ctx context.Context, taskID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TaskDependency{}).
		Joins("JOIN tasks ON tasks.id = task_dependencies.depends_on_id").
		Where("task_dependencies.task_id = ? AND tasks.status = ?", taskID, model.StatusNotDone).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateWithDependencies inserts the task and its edges in one transaction
// and returns the stored task with its dependencies loaded
func (r *TaskRepository) CreateWithDependencies(ctx context.Context, task *model.Task, dependsOnIDs []uuid.UUID) (*model.Task, error) {
	var created model.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		if err := insertEdges(tx, task.ID, dependsOnIDs); err != nil {
			return err
		}
		return tx.Preload("Dependencies").First(&created, "id = ?", task.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update applies the changes in one transaction and returns the stored task
func (r *TaskRepository) Update(ctx context.Context, taskID uuid.UUID, changes TaskChanges) (*model.Task, error) {
	var updated model.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := make(map[string]interface{}, len(changes.Fields)+1)
		for k, v := range changes.Fields {
			fields[k] = v
		}
		fields["updated_at"] = time.Now()

		result := tx.Model(&model.Task{}).Where("id = ?", taskID).Updates(fields)
		if result.Error != nil {
			return fmt.Errorf("update task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}

		if changes.Dependencies != nil {
			if err := tx.Where("task_id = ?", taskID).Delete(&model.TaskDependency{}).Error; err != nil {
				return fmt.Errorf("clear dependencies: %w", err)
			}
			if err := insertEdges(tx, taskID, *changes.Dependencies); err != nil {
				return err
			}
		}

		return tx.Preload("Dependencies").First(&updated, "id = ?", taskID).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the owner's task together with every edge touching it
func (r *TaskRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ? OR depends_on_id = ?", id, id).
			Delete(&model.TaskDependency{}).Error; err != nil {
			return fmt.Errorf("delete dependencies: %w", err)
		}

		result := tx.Where("id = ? AND user_id = ?", id, ownerID).Delete(&model.Task{})
		if result.Error != nil {
			return fmt.Errorf("delete task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		return nil
	})
}

// ListRecurring returns up to limit recurring templates of all owners with
// an id greater than afterID, ordered by id.
func (r *TaskRepository) ListRecurring(ctx context.Context, afterID uuid.UUID, limit int) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("recurrence IS NOT NULL AND recurrence <> ''").
		Where("id > ?", afterID).
		Order("id").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}

// SpawnOccurrence inserts a one-off copy of the template and advances the
// template's last_recurrence_at to now, atomically.
func (r *TaskRepository) SpawnOccurrence(ctx context.Context, template *model.Task, now time.Time) (*model.Task, error) {
	occurrence := &model.Task{
		UserID:      template.UserID,
		Title:       template.Title,
		Description: template.Description,
		Status:      model.StatusNotDone,
		Priority:    template.Priority,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(occurrence).Error; err != nil {
			return fmt.Errorf("create occurrence: %w", err)
		}

		result := tx.Model(&model.Task{}).
			Where("id = ?", template.ID).
			Updates(map[string]interface{}{
				"last_recurrence_at": now,
				"updated_at":         now,
			})
		if result.Error != nil {
			return fmt.Errorf("advance template: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return occurrence, nil
}

func insertEdges(tx *gorm.DB, taskID uuid.UUID, dependsOnIDs []uuid.UUID) error {
	if len(dependsOnIDs) == 0 {
		return nil
	}
	edges := make([]model.TaskDependency, 0, len(dependsOnIDs))
	for _, id := range dependsOnIDs {
		edges = append(edges, model.TaskDependency{TaskID: taskID, DependsOnID: id})
	}
	if err := tx.Omit(clause.Associations).Create(&edges).Error; err != nil {
		return fmt.Errorf("create dependencies: %w", err)
	}
	return nil
}
