package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

type TodoStatus string

const (
	TodoStatusPending    TodoStatus = "pending"
	TodoStatusInProgress TodoStatus = "in-progress"
	TodoStatusCompleted  TodoStatus = "completed"
)

const MinTitleLength = 3

type Todo struct {
	ID          string
	Title       string
	Description string
	Status      TodoStatus
	Icon        string
	Label       string
	UserID      string
	SubTodoIDs  []string
	SubTodos    []SubTodo
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type SubTodo struct {
	ID          string
	Title       string
	IsCompleted bool
	TodoID      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s TodoStatus) IsValid() bool {
	switch s {
	case TodoStatusPending, TodoStatusInProgress, TodoStatusCompleted:
		return true
	}

	return false
}

func (s TodoStatus) String() string {
	return string(s)
}

// ParseTodoStatus maps a wire value to a status; empty means pending.
func ParseTodoStatus(status string) (TodoStatus, error) {
	if status == "" {
		return TodoStatusPending, nil
	}

	s := TodoStatus(strings.ToLower(strings.TrimSpace(status)))

	if !s.IsValid() {
		return "", WrapError(CodeValidation, "status must be one of pending, in-progress, completed", fmt.Errorf("invalid status: %s", status))
	}

	return s, nil
}

func (t *Todo) BelongsToUser(userID string) bool {
	return t.UserID != "" && t.UserID == userID
}

func (t *Todo) HasSubTodo(subTodoID string) bool {
	return slices.Contains(t.SubTodoIDs, subTodoID)
}

func (t *Todo) AppendSubTodo(subTodoID string) {
	if t.HasSubTodo(subTodoID) {
		return
	}

	t.SubTodoIDs = append(t.SubTodoIDs, subTodoID)
}

func (t *Todo) RemoveSubTodo(subTodoID string) {
	t.SubTodoIDs = slices.DeleteFunc(t.SubTodoIDs, func(id string) bool {
		return id == subTodoID
	})
}

// Validate checks the invariants a stored todo must hold.
func (t *Todo) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(t.Title)) < MinTitleLength {
		return NewError(CodeValidation, fmt.Sprintf("title must have at least %d characters", MinTitleLength))
	}

	if strings.TrimSpace(t.Description) == "" {
		return NewError(CodeValidation, "description is required")
	}

	if !t.Status.IsValid() {
		return NewError(CodeValidation, "status must be one of pending, in-progress, completed")
	}

	return nil
}

func (s *SubTodo) BelongsToTodo(todoID string) bool {
	return s.TodoID != "" && s.TodoID == todoID
}

func (s *SubTodo) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(s.Title)) < MinTitleLength {
		return NewError(CodeValidation, fmt.Sprintf("title must have at least %d characters", MinTitleLength))
	}

	return nil
}
