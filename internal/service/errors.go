package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

var (
	// ErrScriptNotFound indicates the script does not exist.
	ErrScriptNotFound = errors.New("script not found")
	// ErrProjectNotFound indicates the project does not exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrTopicNotFound indicates the topic does not exist.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrUserNotFound indicates the user has never been synchronised.
	ErrUserNotFound = errors.New("user not found")
	// ErrProjectInUse indicates the project still owns scripts.
	ErrProjectInUse = errors.New("project still owns scripts")

	// ErrPermissionDenied re-exports the evaluator's denial.
	ErrPermissionDenied = workflow.ErrPermissionDenied
	// ErrInvalidTransition re-exports the state machine's rejection.
	ErrInvalidTransition = workflow.ErrInvalidTransition
)

// ValidationError carries field-level problems with the input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", key, e.Fields[key]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a problem for field, keeping the first message per field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// OrNil returns nil when nothing was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// StorageError wraps a failing persistence call. Callers decide whether to retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// lookupError maps gorm.ErrRecordNotFound to notFound and wraps anything else.
func lookupError(op string, err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return storageError(op, err)
}
