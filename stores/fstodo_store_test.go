package stores_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tasknest/tasknest"
	"github.com/tasknest/tasknest/stores"
)

func seedTodos(t *testing.T, store *stores.FSTodoStore, userId string, todos ...*tasknest.Todo) {
	t.Helper()
	for _, todo := range todos {
		todo.UserID = userId
		if err := store.CreateTodo(todo); err != nil {
			t.Fatalf("CreateTodo(%s) failed: %v", todo.ID, err)
		}
	}
}

func TestFSTodoStore_CRUD(t *testing.T) {
	store := stores.NewFSTodoStore(t.TempDir())

	todo := &tasknest.Todo{ID: "todo-1", UserID: "user-1", Title: "Buy milk", Priority: "medium", Category: "shopping"}
	if err := store.CreateTodo(todo); err != nil {
		t.Fatalf("CreateTodo failed: %v", err)
	}

	got, err := store.GetTodoById("todo-1")
	if err != nil {
		t.Fatalf("GetTodoById failed: %v", err)
	}
	if got.Title != "Buy milk" || got.UserID != "user-1" {
		t.Errorf("unexpected todo: %+v", got)
	}

	got.Title = "Buy oat milk"
	if err := store.SaveTodo(got); err != nil {
		t.Fatalf("SaveTodo failed: %v", err)
	}
	got, err = store.GetTodoById("todo-1")
	if err != nil {
		t.Fatalf("GetTodoById failed: %v", err)
	}
	if got.Title != "Buy oat milk" {
		t.Errorf("expected saved title, got %q", got.Title)
	}

	if err := store.DeleteTodo("todo-1"); err != nil {
		t.Fatalf("DeleteTodo failed: %v", err)
	}
	if _, err := store.GetTodoById("todo-1"); !errors.Is(err, tasknest.ErrTodoNotFound) {
		t.Errorf("expected ErrTodoNotFound after delete, got %v", err)
	}
	if err := store.SaveTodo(todo); !errors.Is(err, tasknest.ErrTodoNotFound) {
		t.Errorf("SaveTodo on missing todo: expected ErrTodoNotFound, got %v", err)
	}
}

func TestFSTodoStore_ListFilters(t *testing.T) {
	store := stores.NewFSTodoStore(t.TempDir())
	due := time.Now().Add(48 * time.Hour)

	seedTodos(t, store, "user-1",
		&tasknest.Todo{ID: "t1", Title: "Finish report", Priority: "high", Category: "work", DueDate: &due},
		&tasknest.Todo{ID: "t2", Title: "Buy groceries", Priority: "low", Category: "shopping", Tags: []string{"errands"}},
		&tasknest.Todo{ID: "t3", Title: "Morning run", Priority: "medium", Category: "health", Completed: true},
	)
	// another user's todos never leak into the listing
	seedTodos(t, store, "user-2", &tasknest.Todo{ID: "t4", Title: "Other user's report", Category: "work"})

	tests := []struct {
		name    string
		filter  tasknest.TodoFilter
		wantIds []string
	}{
		{"no filter", tasknest.TodoFilter{Sort: "title"}, []string{"t2", "t1", "t3"}},
		{"by category", tasknest.TodoFilter{Category: "work"}, []string{"t1"}},
		{"by priority", tasknest.TodoFilter{Priority: "low"}, []string{"t2"}},
		{"completed only", tasknest.TodoFilter{Completed: boolPtr(true)}, []string{"t3"}},
		{"search title", tasknest.TodoFilter{Search: "report"}, []string{"t1"}},
		{"search tag", tasknest.TodoFilter{Search: "errands"}, []string{"t2"}},
		{"due before", tasknest.TodoFilter{DueDateTo: timePtr(due.Add(time.Hour))}, []string{"t1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			todos, total, err := store.ListTodos("user-1", tt.filter)
			if err != nil {
				t.Fatalf("ListTodos failed: %v", err)
			}
			if int(total) != len(tt.wantIds) {
				t.Errorf("expected total %d, got %d", len(tt.wantIds), total)
			}
			if len(todos) != len(tt.wantIds) {
				t.Fatalf("expected %d todos, got %d", len(tt.wantIds), len(todos))
			}
			if tt.filter.Sort == "title" {
				for i, id := range tt.wantIds {
					if todos[i].ID != id {
						t.Errorf("position %d: expected %s, got %s", i, id, todos[i].ID)
					}
				}
			}
		})
	}
}

func TestFSTodoStore_SortAndPaginate(t *testing.T) {
	store := stores.NewFSTodoStore(t.TempDir())
	for i := 0; i < 5; i++ {
		seedTodos(t, store, "user-1", &tasknest.Todo{
			ID:       fmt.Sprintf("t%d", i),
			Title:    fmt.Sprintf("todo %d", i),
			Priority: []string{"low", "medium", "high", "low", "high"}[i],
		})
		time.Sleep(5 * time.Millisecond) // distinct CreatedAt stamps
	}

	// default sort is newest first
	todos, total, err := store.ListTodos("user-1", tasknest.TodoFilter{})
	if err != nil {
		t.Fatalf("ListTodos failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected total 5, got %d", total)
	}
	if todos[0].ID != "t4" || todos[4].ID != "t0" {
		t.Errorf("expected newest first, got %s..%s", todos[0].ID, todos[4].ID)
	}

	// priority descending puts high first
	todos, _, err = store.ListTodos("user-1", tasknest.TodoFilter{Sort: "-priority"})
	if err != nil {
		t.Fatalf("ListTodos failed: %v", err)
	}
	if todos[0].Priority != "high" || todos[4].Priority != "low" {
		t.Errorf("expected high..low, got %s..%s", todos[0].Priority, todos[4].Priority)
	}

	// page past the end is empty but keeps the total
	todos, total, err = store.ListTodos("user-1", tasknest.TodoFilter{Page: 3, Limit: 2})
	if err != nil {
		t.Fatalf("ListTodos failed: %v", err)
	}
	if total != 5 || len(todos) != 1 {
		t.Errorf("expected 1 todo on last page of 5, got %d (total %d)", len(todos), total)
	}
	todos, total, err = store.ListTodos("user-1", tasknest.TodoFilter{Page: 9, Limit: 2})
	if err != nil {
		t.Fatalf("ListTodos failed: %v", err)
	}
	if total != 5 || len(todos) != 0 {
		t.Errorf("expected empty page with total 5, got %d (total %d)", len(todos), total)
	}
}

func TestFSTodoStore_BulkAndCascade(t *testing.T) {
	store := stores.NewFSTodoStore(t.TempDir())
	seedTodos(t, store, "user-1",
		&tasknest.Todo{ID: "a1", Title: "one"},
		&tasknest.Todo{ID: "a2", Title: "two"},
	)
	seedTodos(t, store, "user-2", &tasknest.Todo{ID: "b1", Title: "other"})

	// DeleteTodos only removes the caller's todos
	deleted, err := store.DeleteTodos("user-1", []string{"a1", "b1", "missing"})
	if err != nil {
		t.Fatalf("DeleteTodos failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
	if _, err := store.GetTodoById("b1"); err != nil {
		t.Error("other user's todo must survive")
	}

	deleted, err = store.DeleteUserTodos("user-1")
	if err != nil {
		t.Fatalf("DeleteUserTodos failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 remaining todo deleted, got %d", deleted)
	}
	if _, total, _ := store.ListTodos("user-1", tasknest.TodoFilter{}); total != 0 {
		t.Errorf("expected no todos left, got %d", total)
	}
}

func TestFSTodoStore_Stats(t *testing.T) {
	store := stores.NewFSTodoStore(t.TempDir())
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	seedTodos(t, store, "user-1",
		&tasknest.Todo{ID: "t1", Title: "late", Priority: "high", Category: "work", DueDate: &past},
		&tasknest.Todo{ID: "t2", Title: "ok", Priority: "medium", Category: "work", DueDate: &future},
		&tasknest.Todo{ID: "t3", Title: "done late", Priority: "low", Category: "personal", Completed: true, DueDate: &past},
	)

	stats, categories, err := store.Stats("user-1", now)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 3 || stats.Completed != 1 || stats.Pending != 2 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.HighPriority != 1 || stats.MediumPriority != 1 || stats.LowPriority != 1 {
		t.Errorf("unexpected priority counts: %+v", stats)
	}
	// a completed todo past its due date is not overdue
	if stats.Overdue != 1 {
		t.Errorf("expected 1 overdue, got %d", stats.Overdue)
	}

	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}
	// sorted by category name
	if categories[0].Category != "personal" || categories[1].Category != "work" {
		t.Errorf("unexpected category order: %+v", categories)
	}
	if categories[1].Count != 2 || categories[1].Completed != 0 {
		t.Errorf("unexpected work stats: %+v", categories[1])
	}
}

func boolPtr(b bool) *bool           { return &b }
func timePtr(v time.Time) *time.Time { return &v }
