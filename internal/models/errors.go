package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidTask  = errors.New("invalid task")
)

const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 1000
)

// Normalize trims the text fields, fills in the default status and priority
// and validates the result. Errors wrap ErrInvalidTask.
func (f TaskFields) Normalize() (TaskFields, error) {
	f.Title = strings.TrimSpace(f.Title)
	if f.Title == "" {
		return TaskFields{}, fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if utf8.RuneCountInString(f.Title) > MaxTitleLength {
		return TaskFields{}, fmt.Errorf("%w: title must be at most %d characters",
			ErrInvalidTask, MaxTitleLength)
	}
	if utf8.RuneCountInString(f.Description) > MaxDescriptionLength {
		return TaskFields{}, fmt.Errorf("%w: description must be at most %d characters",
			ErrInvalidTask, MaxDescriptionLength)
	}

	if f.Status == "" {
		f.Status = StatusTodo
	}
	if !f.Status.Valid() {
		return TaskFields{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTask, f.Status)
	}

	if f.Priority == "" {
		f.Priority = PriorityMedium
	}
	if !f.Priority.Valid() {
		return TaskFields{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, f.Priority)
	}
	return f, nil
}

func ValidateStatus(status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTask, status)
	}
	return nil
}
