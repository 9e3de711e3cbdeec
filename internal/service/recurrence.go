package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tasktracker/internal/metrics"
	"tasktracker/internal/model"
	"tasktracker/internal/repository"
)

const defaultBatchSize = 100

// RecurrenceStore is the cross-tenant view the recurrence engine works on.
type RecurrenceStore interface {
	ListRecurring(ctx context.Context, afterID uuid.UUID, limit int) ([]model.Task, error)
	SpawnOccurrence(ctx context.Context, template *model.Task, now time.Time) (*model.Task, error)
}

// RecurrenceEngine spawns occurrences of recurring templates that are due.
type RecurrenceEngine struct {
	store     RecurrenceStore
	batchSize int
	metrics   *metrics.Metrics
}

func NewRecurrenceEngine(store RecurrenceStore, batchSize int, m *metrics.Metrics) *RecurrenceEngine {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &RecurrenceEngine{store: store, batchSize: batchSize, metrics: m}
}

// NextDue returns when the template's next occurrence is due: one period
// after the last occurrence, or after creation if none was spawned yet.
// ok is false for tasks that do not recur.
func NextDue(task *model.Task) (due time.Time, ok bool) {
	if !task.IsRecurring() {
		return time.Time{}, false
	}
	base := task.CreatedAt
	if task.LastRecurrenceAt != nil {
		base = *task.LastRecurrenceAt
	}
	return base.AddDate(0, 0, task.Recurrence.PeriodDays()), true
}

// Tick scans every recurring template and spawns one occurrence for each
// template due at now. It stops at the first store failure.
func (e *RecurrenceEngine) Tick(ctx context.Context, now time.Time) (int, error) {
	spawned := 0
	defer func() { e.metrics.AddOccurrences(spawned) }()

	after := uuid.Nil
	for {
		batch, err := e.store.ListRecurring(ctx, after, e.batchSize)
		if err != nil {
			return spawned, fmt.Errorf("list recurring tasks: %w", err)
		}

		for i := range batch {
			template := &batch[i]
			due, ok := NextDue(template)
			if !ok || due.After(now) {
				continue
			}

			_, err := e.store.SpawnOccurrence(ctx, template, now)
			if errors.Is(err, repository.ErrTaskNotFound) {
				// deleted since the scan
				continue
			}
			if err != nil {
				return spawned, fmt.Errorf("spawn occurrence of %s: %w", template.ID, err)
			}
			spawned++
		}

		if len(batch) < e.batchSize {
			return spawned, nil
		}
		after = batch[len(batch)-1].ID
	}
}
