package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusNotDone Status = "NOT_DONE"
	StatusDone    Status = "DONE"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

type Recurrence string

const (
	RecurrenceDaily   Recurrence = "DAILY"
	RecurrenceWeekly  Recurrence = "WEEKLY"
	RecurrenceMonthly Recurrence = "MONTHLY"
)

func (s Status) Valid() bool {
	return s == StatusNotDone || s == StatusDone
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// PeriodDays is the number of calendar days between two occurrences.
// Months are approximated as 30 days.
func (r Recurrence) PeriodDays() int {
	switch r {
	case RecurrenceDaily:
		return 1
	case RecurrenceWeekly:
		return 7
	case RecurrenceMonthly:
		return 30
	}
	return 0
}

type Task struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID   `gorm:"type:uuid;not null;index"`
	Title            string      `gorm:"not null"`
	Description      *string     `gorm:"size:2000"`
	Status           Status      `gorm:"type:varchar(16);not null"`
	Priority         Priority    `gorm:"type:varchar(16);not null"`
	Recurrence       *Recurrence `gorm:"type:varchar(16);index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastRecurrenceAt *time.Time

	User         User             `gorm:"foreignKey:UserID"`
	Dependencies []TaskDependency `gorm:"foreignKey:TaskID"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsRecurring reports whether the task is a template for new occurrences.
func (t *Task) IsRecurring() bool {
	return t.Recurrence != nil && t.Recurrence.Valid()
}

// DependsOnIDs returns the prerequisite ids of the loaded dependency edges.
func (t *Task) DependsOnIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.Dependencies))
	for _, dep := range t.Dependencies {
		ids = append(ids, dep.DependsOnID)
	}
	return ids
}
