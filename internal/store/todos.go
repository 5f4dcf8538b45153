package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyText       = errors.New("text is empty")
	ErrUnknownCategory = errors.New("unknown category")
	ErrTodoNotFound    = errors.New("todo not found")
)

// NewTodo builds a todo with a fresh id. Text is trimmed; an empty category
// means none.
func NewTodo(text, category string, now time.Time) (Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Todo{}, ErrEmptyText
	}
	if category != "" && !slices.Contains(TodoCategories, category) {
		return Todo{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return Todo{
		ID:        uuid.NewString(),
		Text:      text,
		Category:  category,
		CreatedAt: now.UnixMilli(),
	}, nil
}

// PrependTodo returns a new list with t first.
func PrependTodo(todos []Todo, t Todo) []Todo {
	out := make([]Todo, 0, len(todos)+1)
	out = append(out, t)
	return append(out, todos...)
}

func ToggleTodo(todos []Todo, id string) ([]Todo, error) {
	i := slices.IndexFunc(todos, func(t Todo) bool { return t.ID == id })
	if i < 0 {
		return todos, fmt.Errorf("%w: %s", ErrTodoNotFound, id)
	}
	out := slices.Clone(todos)
	out[i].Completed = !out[i].Completed
	return out, nil
}

func DeleteTodo(todos []Todo, id string) ([]Todo, error) {
	i := slices.IndexFunc(todos, func(t Todo) bool { return t.ID == id })
	if i < 0 {
		return todos, fmt.Errorf("%w: %s", ErrTodoNotFound, id)
	}
	return slices.Delete(slices.Clone(todos), i, i+1), nil
}

// CountTodos returns how many todos are completed and how many exist.
func CountTodos(todos []Todo) (completed, total int) {
	for _, t := range todos {
		if t.Completed {
			completed++
		}
	}
	return completed, len(todos)
}

func (s *Store) CreateTodo(ctx context.Context, text, category string) (Todo, error) {
	t, err := NewTodo(text, category, time.Now())
	if err != nil {
		return Todo{}, fmt.Errorf("create todo: %w", err)
	}
	todos := Get(ctx, s, KeyTodos)
	if err := Set(ctx, s, KeyTodos, PrependTodo(todos, t)); err != nil {
		return Todo{}, fmt.Errorf("create todo: %w", err)
	}
	return t, nil
}

// FindTodo resolves a todo by full id or unique id prefix.
func FindTodo(todos []Todo, ref string) (Todo, error) {
	var found []Todo
	for _, t := range todos {
		if t.ID == ref {
			return t, nil
		}
		if ref != "" && strings.HasPrefix(t.ID, ref) {
			found = append(found, t)
		}
	}
	if len(found) != 1 {
		return Todo{}, fmt.Errorf("%w: %s", ErrTodoNotFound, ref)
	}
	return found[0], nil
}

func (s *Store) ToggleTodo(ctx context.Context, ref string) (Todo, error) {
	todos := Get(ctx, s, KeyTodos)
	t, err := FindTodo(todos, ref)
	if err != nil {
		return Todo{}, err
	}
	updated, err := ToggleTodo(todos, t.ID)
	if err != nil {
		return Todo{}, err
	}
	if err := Set(ctx, s, KeyTodos, updated); err != nil {
		return Todo{}, fmt.Errorf("toggle todo: %w", err)
	}
	t.Completed = !t.Completed
	return t, nil
}

func (s *Store) DeleteTodo(ctx context.Context, ref string) error {
	todos := Get(ctx, s, KeyTodos)
	t, err := FindTodo(todos, ref)
	if err != nil {
		return err
	}
	updated, err := DeleteTodo(todos, t.ID)
	if err != nil {
		return err
	}
	if err := Set(ctx, s, KeyTodos, updated); err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}
