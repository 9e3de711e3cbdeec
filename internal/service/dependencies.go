package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// DependencyLookup resolves candidate prerequisites against the store.
type DependencyLookup interface {
	CountOwned(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error)
}

// DependencyValidator normalises a requested dependency set for one task.
type DependencyValidator struct {
	store DependencyLookup
}

func NewDependencyValidator(store DependencyLookup) *DependencyValidator {
	return &DependencyValidator{store: store}
}

// Validate parses and deduplicates refs and checks that every one names a
// task of ownerID. taskID is the task being edited, or nil on creation.
// Unknown and foreign ids are reported the same way.
func (v *DependencyValidator) Validate(ctx context.Context, ownerID uuid.UUID, refs []string, taskID *uuid.UUID) ([]uuid.UUID, error) {
	if len(refs) == 0 {
		return []uuid.UUID{}, nil
	}

	seen := make(map[uuid.UUID]struct{}, len(refs))
	ids := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		id, err := uuid.Parse(ref)
		if err != nil {
			return nil, ErrInvalidDependency
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if taskID != nil {
		if _, self := seen[*taskID]; self {
			return nil, ErrSelfDependency
		}
	}

	count, err := v.store.CountOwned(ctx, ownerID, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve dependencies: %w", err)
	}
	if count != int64(len(ids)) {
		return nil, ErrInvalidDependency
	}
	return ids, nil
}
