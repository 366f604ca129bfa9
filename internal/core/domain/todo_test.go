package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewTodo(t *testing.T) {
	todo := NewTodo("  Set up Prometheus ", "scrape every 15s", false)

	assert.Equal(t, "Set up Prometheus", todo.Title)
	assert.Equal(t, int64(0), todo.ID, "id is assigned by the repository")
	assert.False(t, todo.CreatedAt.IsZero())
	assert.Equal(t, todo.CreatedAt, todo.UpdatedAt)
	assert.Equal(t, StateOpen, todo.State())
	require.NoError(t, todo.Validate())
}

func TestTodo_Validate(t *testing.T) {
	tests := []struct {
		name    string
		todo    Todo
		wantErr string
	}{
		{"valid", Todo{Title: "a"}, ""},
		{"empty title", Todo{Title: ""}, "title is required"},
		{"blank title", Todo{Title: "   "}, "title is required"},
		{"title at limit", Todo{Title: strings.Repeat("x", MaxTitleLength)}, ""},
		{"title too long", Todo{Title: strings.Repeat("x", MaxTitleLength+1)}, "title exceeds 255 characters"},
		{"multibyte title at limit", Todo{Title: strings.Repeat("é", MaxTitleLength)}, ""},
		{"description too long", Todo{Title: "a", Description: strings.Repeat("d", MaxDescriptionLength+1)}, "description exceeds 1000 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.todo.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTodoValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTodo_ValidateCollectsViolations(t *testing.T) {
	todo := Todo{Description: strings.Repeat("d", MaxDescriptionLength+1)}
	err := todo.Validate()

	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "title is required; description exceeds 1000 characters", de.Details)
}

func TestTodoPatch_Apply(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	todo := &Todo{ID: 1, Title: "old", Description: "keep", CreatedAt: created, UpdatedAt: created}

	TodoPatch{Title: ptr(" new "), Completed: ptr(true)}.Apply(todo)

	assert.Equal(t, "new", todo.Title)
	assert.Equal(t, "keep", todo.Description)
	assert.True(t, todo.Completed)
	assert.Equal(t, StateCompleted, todo.State())
	assert.Equal(t, created, todo.CreatedAt)
	assert.True(t, todo.UpdatedAt.After(created))
}

func TestTodoPatch_IsEmpty(t *testing.T) {
	assert.True(t, TodoPatch{}.IsEmpty())
	assert.False(t, TodoPatch{Description: ptr("")}.IsEmpty())
}

func TestTodo_Clone(t *testing.T) {
	orig := &Todo{ID: 3, Title: "a"}
	c := orig.Clone()
	c.Title = "b"
	assert.Equal(t, "a", orig.Title)
}
