package stores

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tasknest/tasknest"
)

// FSTodoStore stores todos as JSON files under <root>/todos. Filtering,
// sorting and paging happen in memory after loading the user's records.
type FSTodoStore struct {
	StoragePath string
	mu          sync.Mutex
}

func NewFSTodoStore(storagePath string) *FSTodoStore {
	return &FSTodoStore{StoragePath: storagePath}
}

func (s *FSTodoStore) todoPath(todoId string) string {
	return filepath.Join(s.StoragePath, "todos", todoId+".json")
}

// fsTodo adds the owner to the serialized shape; tasknest.Todo hides it from
// API responses.
type fsTodo struct {
	tasknest.Todo
	UserID string `json:"user_id"`
}

func (s *FSTodoStore) CreateTodo(todo *tasknest.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	todo.CreatedAt = time.Now()
	todo.UpdatedAt = todo.CreatedAt
	return s.writeUnlocked(todo)
}

func (s *FSTodoStore) GetTodoById(todoId string) (*tasknest.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readUnlocked(s.todoPath(todoId))
}

func (s *FSTodoStore) SaveTodo(todo *tasknest.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.todoPath(todo.ID)); err != nil {
		return tasknest.ErrTodoNotFound
	}
	todo.UpdatedAt = time.Now()
	return s.writeUnlocked(todo)
}

func (s *FSTodoStore) DeleteTodo(todoId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.todoPath(todoId)); err != nil {
		if os.IsNotExist(err) {
			return tasknest.ErrTodoNotFound
		}
		return err
	}
	return nil
}

func (s *FSTodoStore) DeleteTodos(userId string, todoIds []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for _, id := range todoIds {
		todo, err := s.readUnlocked(s.todoPath(id))
		if err != nil || todo.UserID != userId {
			continue
		}
		if err := os.Remove(s.todoPath(id)); err == nil {
			deleted++
		}
	}
	return deleted, nil
}

func (s *FSTodoStore) DeleteUserTodos(userId string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todos, err := s.loadUserTodosUnlocked(userId)
	if err != nil {
		return 0, err
	}
	var deleted int64
	for _, todo := range todos {
		if err := os.Remove(s.todoPath(todo.ID)); err == nil {
			deleted++
		}
	}
	return deleted, nil
}

func (s *FSTodoStore) ListTodos(userId string, filter tasknest.TodoFilter) ([]*tasknest.Todo, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	filter.Normalize()

	todos, err := s.loadUserTodosUnlocked(userId)
	if err != nil {
		return nil, 0, err
	}

	matched := todos[:0]
	for _, todo := range todos {
		if matchesFilter(todo, filter) {
			matched = append(matched, todo)
		}
	}
	sortTodos(matched, filter.Sort)

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return []*tasknest.Todo{}, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *FSTodoStore) Stats(userId string, now time.Time) (*tasknest.TodoStats, []tasknest.CategoryStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todos, err := s.loadUserTodosUnlocked(userId)
	if err != nil {
		return nil, nil, err
	}

	stats := &tasknest.TodoStats{}
	byCategory := map[string]*tasknest.CategoryStat{}
	for _, todo := range todos {
		stats.Total++
		if todo.Completed {
			stats.Completed++
		} else {
			stats.Pending++
		}
		switch todo.Priority {
		case tasknest.PriorityHigh:
			stats.HighPriority++
		case tasknest.PriorityMedium:
			stats.MediumPriority++
		case tasknest.PriorityLow:
			stats.LowPriority++
		}
		if !todo.Completed && todo.DueDate != nil && todo.DueDate.Before(now) {
			stats.Overdue++
		}

		cs := byCategory[todo.Category]
		if cs == nil {
			cs = &tasknest.CategoryStat{Category: todo.Category}
			byCategory[todo.Category] = cs
		}
		cs.Count++
		if todo.Completed {
			cs.Completed++
		}
	}

	categories := make([]tasknest.CategoryStat, 0, len(byCategory))
	for _, cs := range byCategory {
		categories = append(categories, *cs)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Category < categories[j].Category })
	return stats, categories, nil
}

func (s *FSTodoStore) writeUnlocked(todo *tasknest.Todo) error {
	path := s.todoPath(todo.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&fsTodo{Todo: *todo, UserID: todo.UserID}, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomicFile(path, data)
}

func (s *FSTodoStore) readUnlocked(path string) (*tasknest.Todo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tasknest.ErrTodoNotFound
		}
		return nil, err
	}
	var record fsTodo
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	todo := record.Todo
	todo.UserID = record.UserID
	return &todo, nil
}

func (s *FSTodoStore) loadUserTodosUnlocked(userId string) ([]*tasknest.Todo, error) {
	dir := filepath.Join(s.StoragePath, "todos")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var todos []*tasknest.Todo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		todo, err := s.readUnlocked(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		if todo.UserID == userId {
			todos = append(todos, todo)
		}
	}
	return todos, nil
}

func matchesFilter(todo *tasknest.Todo, filter tasknest.TodoFilter) bool {
	if filter.Completed != nil && todo.Completed != *filter.Completed {
		return false
	}
	if filter.Priority != "" && todo.Priority != filter.Priority {
		return false
	}
	if filter.Category != "" && todo.Category != filter.Category {
		return false
	}
	if filter.DueDateFrom != nil && (todo.DueDate == nil || todo.DueDate.Before(*filter.DueDateFrom)) {
		return false
	}
	if filter.DueDateTo != nil && (todo.DueDate == nil || todo.DueDate.After(*filter.DueDateTo)) {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(todo.Title), needle) &&
			!strings.Contains(strings.ToLower(todo.Description), needle) &&
			!tagsContain(todo.Tags, needle) {
			return false
		}
	}
	return true
}

func tagsContain(tags []string, needle string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

var priorityRank = map[string]int{
	tasknest.PriorityLow:    0,
	tasknest.PriorityMedium: 1,
	tasknest.PriorityHigh:   2,
}

func sortTodos(todos []*tasknest.Todo, sortSpec string) {
	field := sortSpec
	descending := false
	if strings.HasPrefix(field, "-") {
		descending = true
		field = field[1:]
	}

	less := func(a, b *tasknest.Todo) bool {
		switch field {
		case "dueDate":
			switch {
			case a.DueDate == nil:
				return false
			case b.DueDate == nil:
				return true
			default:
				return a.DueDate.Before(*b.DueDate)
			}
		case "priority":
			return priorityRank[a.Priority] < priorityRank[b.Priority]
		case "title":
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}

	sort.SliceStable(todos, func(i, j int) bool {
		if descending {
			return less(todos[j], todos[i])
		}
		return less(todos[i], todos[j])
	})
}
