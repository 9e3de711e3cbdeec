package handler

import (
	"sync"

	"tasktracker/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the task enum tags (priority, status, recurrence)
// to gin's validator. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
			return model.Priority(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
			return model.Status(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("recurrence", func(fl validator.FieldLevel) bool {
			return model.Recurrence(fl.Field().String()).Valid()
		})
	})
}
