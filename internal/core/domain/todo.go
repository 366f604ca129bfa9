package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Todo field constraints.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 1000
)

// Todo is a single task item.
type Todo struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTodo creates an unsaved todo. ID is assigned by the repository.
func NewTodo(title, description string, completed bool) *Todo {
	now := time.Now().UTC()
	return &Todo{
		Title:       strings.TrimSpace(title),
		Description: description,
		Completed:   completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks the todo fields against constraints.
// Returns ErrTodoValidation with the violations joined in Details.
func (t *Todo) Validate() error {
	var violations []string

	if strings.TrimSpace(t.Title) == "" {
		violations = append(violations, "title is required")
	}
	if utf8.RuneCountInString(t.Title) > MaxTitleLength {
		violations = append(violations, fmt.Sprintf("title exceeds %d characters", MaxTitleLength))
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		violations = append(violations, fmt.Sprintf("description exceeds %d characters", MaxDescriptionLength))
	}

	if len(violations) > 0 {
		return ErrTodoValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// Clone returns a copy of the todo.
func (t *Todo) Clone() *Todo {
	c := *t
	return &c
}

// TodoPatch is a partial update. Nil fields are left unchanged.
type TodoPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TodoPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// Apply writes the patch onto t and bumps UpdatedAt. The result must be
// validated by the caller.
func (p TodoPatch) Apply(t *Todo) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	t.UpdatedAt = time.Now().UTC()
}

// Todo states used by the todo_items gauge.
const (
	StateOpen      = "open"
	StateCompleted = "completed"
)

// State returns StateCompleted or StateOpen.
func (t *Todo) State() string {
	if t.Completed {
		return StateCompleted
	}
	return StateOpen
}
