package service

import "errors"

// Kind classifies errors for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	}
	return "internal"
}

// Error is a categorised, user-facing failure of a task operation.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrTitleRequired      = &Error{Kind: KindValidation, Message: "Title is required"}
	ErrDescriptionTooLong = &Error{Kind: KindValidation, Message: "Description must be at most 2000 characters"}
	ErrInvalidEnum        = &Error{Kind: KindValidation, Message: "Invalid status, priority or recurrence"}
	ErrSelfDependency     = &Error{Kind: KindValidation, Message: "Task cannot depend on itself"}
	ErrInvalidDependency  = &Error{Kind: KindValidation, Message: "One or more dependencies are invalid"}
	ErrTaskNotFound       = &Error{Kind: KindNotFound, Message: "Task not found"}
	ErrUnmetDependencies  = &Error{Kind: KindConflict, Message: "Complete dependencies first"}
	ErrTickInProgress     = errors.New("recurrence tick already in progress")
	ErrSchedulerStarted   = errors.New("recurrence scheduler already started")
)

// KindOf returns the category of err; errors that are not *Error are internal.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}
