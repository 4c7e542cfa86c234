package tasknest

import (
	"time"
)

// Priority levels a todo can carry.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Categories a todo can belong to.
var todoCategories = map[string]bool{
	"personal": true, "work": true, "shopping": true, "health": true,
	"education": true, "travel": true, "other": true,
}

func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

func ValidCategory(c string) bool {
	return todoCategories[c]
}

// Subtask is an embedded checklist item on a todo.
type Subtask struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// Attachment is file metadata attached to a todo. The file itself lives
// elsewhere; only the reference is stored.
type Attachment struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	Type       string    `json:"type"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Todo is a user-owned task.
type Todo struct {
	ID          string       `json:"id"`
	UserID      string       `json:"-"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Completed   bool         `json:"completed"`
	Priority    string       `json:"priority"`
	Category    string       `json:"category"`
	DueDate     *time.Time   `json:"dueDate"`
	Reminder    *time.Time   `json:"reminder"`
	Tags        []string     `json:"tags"`
	Subtasks    []Subtask    `json:"subtasks"`
	Attachments []Attachment `json:"attachments"`
	CompletedAt *time.Time   `json:"completedAt"`
	Position    int          `json:"position"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// SetCompleted flips completion and maintains the CompletedAt timestamp.
func (t *Todo) SetCompleted(completed bool, now time.Time) {
	t.Completed = completed
	if completed {
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
}

// CompletionPercentage is the share of completed subtasks, 0 when there are none.
func (t *Todo) CompletionPercentage() int {
	if len(t.Subtasks) == 0 {
		return 0
	}
	done := 0
	for _, st := range t.Subtasks {
		if st.Completed {
			done++
		}
	}
	return (done*100 + len(t.Subtasks)/2) / len(t.Subtasks)
}

// Sort orders accepted by ListTodos; a leading '-' means descending.
var todoSortFields = map[string]bool{
	"createdAt": true, "dueDate": true, "priority": true, "title": true,
}

func ValidTodoSort(sort string) bool {
	field := sort
	if len(field) > 0 && field[0] == '-' {
		field = field[1:]
	}
	return todoSortFields[field]
}

// TodoFilter narrows and pages a todo listing.
type TodoFilter struct {
	Completed   *bool
	Priority    string
	Category    string
	Search      string
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	Sort        string // defaults to -createdAt
	Page        int    // 1-based, defaults to 1
	Limit       int    // defaults to 25, capped at 100
}

// Normalize fills defaults and clamps the page size.
func (f *TodoFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 25
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Sort == "" {
		f.Sort = "-createdAt"
	}
}

// TodoStats is the per-user aggregate overview.
type TodoStats struct {
	Total          int64 `json:"total"`
	Completed      int64 `json:"completed"`
	Pending        int64 `json:"pending"`
	HighPriority   int64 `json:"highPriority"`
	MediumPriority int64 `json:"mediumPriority"`
	LowPriority    int64 `json:"lowPriority"`
	Overdue        int64 `json:"overdue"`
}

// CategoryStat is the per-category breakdown.
type CategoryStat struct {
	Category  string `json:"category"`
	Count     int64  `json:"count"`
	Completed int64  `json:"completed"`
}

// TodoStore manages persisted todos. Ownership checks happen in the endpoint
// layer; stores only key by id and user id.
type TodoStore interface {
	// CreateTodo persists a new todo.
	CreateTodo(todo *Todo) error

	// GetTodoById retrieves a todo. Returns ErrTodoNotFound if missing.
	GetTodoById(todoId string) (*Todo, error)

	// ListTodos returns the filtered page of a user's todos plus the total
	// count matching the filter.
	ListTodos(userId string, filter TodoFilter) ([]*Todo, int64, error)

	// SaveTodo updates an existing todo.
	SaveTodo(todo *Todo) error

	// DeleteTodo removes a todo.
	DeleteTodo(todoId string) error

	// DeleteTodos removes the given ids owned by userId, returning how many
	// were deleted.
	DeleteTodos(userId string, todoIds []string) (int64, error)

	// DeleteUserTodos removes every todo a user owns.
	DeleteUserTodos(userId string) (int64, error)

	// Stats computes the aggregate overview and category breakdown.
	Stats(userId string, now time.Time) (*TodoStats, []CategoryStat, error)
}
