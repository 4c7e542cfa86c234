package tasknest

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 1000
	maxTagLength         = 20
	maxSubtaskTitleLen   = 100
)

type todoRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Completed   *bool        `json:"completed"`
	Priority    string       `json:"priority"`
	Category    string       `json:"category"`
	DueDate     *time.Time   `json:"dueDate"`
	Reminder    *time.Time   `json:"reminder"`
	Tags        []string     `json:"tags"`
	Attachments []Attachment `json:"attachments"`
	Position    *int         `json:"position"`
}

func (req *todoRequest) validate(requireTitle bool) *AuthError {
	if requireTitle && req.Title == "" {
		return NewAuthError(ErrCodeValidationFailed, "Please add a title", "title")
	}
	if len(req.Title) > maxTitleLength {
		return NewAuthError(ErrCodeValidationFailed, "Title cannot be more than 200 characters", "title")
	}
	if len(req.Description) > maxDescriptionLength {
		return NewAuthError(ErrCodeValidationFailed, "Description cannot be more than 1000 characters", "description")
	}
	if req.Priority != "" && !ValidPriority(req.Priority) {
		return NewAuthError(ErrCodeValidationFailed, "Invalid priority", "priority")
	}
	if req.Category != "" && !ValidCategory(req.Category) {
		return NewAuthError(ErrCodeValidationFailed, "Invalid category", "category")
	}
	for _, tag := range req.Tags {
		if len(tag) > maxTagLength {
			return NewAuthError(ErrCodeValidationFailed, "Tag cannot be more than 20 characters", "tags")
		}
	}
	return nil
}

// loadOwnedTodo fetches the {id} todo and enforces ownership. A todo owned
// by someone else is indistinguishable from a missing one.
func (s *Server) loadOwnedTodo(w http.ResponseWriter, r *http.Request) (*Todo, bool) {
	user := UserFrom(r.Context())
	todo, err := s.Todos.GetTodoById(mux.Vars(r)["id"])
	if err != nil || todo.UserID != user.ID {
		if err != nil && !errors.Is(err, ErrTodoNotFound) {
			s.writeError(w, err)
			return nil, false
		}
		writeAuthError(w, http.StatusNotFound, NewAuthError(ErrCodeNotFound, "Todo not found", ""))
		return nil, false
	}
	return todo, true
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	q := r.URL.Query()

	var filter TodoFilter
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			writeAuthError(w, http.StatusBadRequest,
				NewAuthError(ErrCodeValidationFailed, "Page must be a positive integer", "page"))
			return
		}
		filter.Page = page
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 100 {
			writeAuthError(w, http.StatusBadRequest,
				NewAuthError(ErrCodeValidationFailed, "Limit must be between 1 and 100", "limit"))
			return
		}
		filter.Limit = limit
	}
	if v := q.Get("sort"); v != "" {
		if !ValidTodoSort(v) {
			writeAuthError(w, http.StatusBadRequest,
				NewAuthError(ErrCodeValidationFailed, "Invalid sort field", "sort"))
			return
		}
		filter.Sort = v
	}
	if v := q.Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			writeAuthError(w, http.StatusBadRequest,
				NewAuthError(ErrCodeValidationFailed, "Completed must be a boolean", "completed"))
			return
		}
		filter.Completed = &completed
	}
	if v := q.Get("priority"); v != "" {
		if !ValidPriority(v) {
			writeAuthError(w, http.StatusBadRequest,
				NewAuthError(ErrCodeValidationFailed, "Invalid priority", "priority"))
			return
		}
		filter.Priority = v
	}
	if v := q.Get("category"); v != "" {
		if !ValidCategory(v) {
			writeAuthError(w, http.StatusBadRequest,
				NewAuthError(ErrCodeValidationFailed, "Invalid category", "category"))
			return
		}
		filter.Category = v
	}
	if v := q.Get("search"); v != "" {
		if len(v) > 100 {
			writeAuthError(w, http.StatusBadRequest,
				NewAuthError(ErrCodeValidationFailed, "Search term must be between 1 and 100 characters", "search"))
			return
		}
		filter.Search = v
	}
	for param, dst := range map[string]**time.Time{"dueDateFrom": &filter.DueDateFrom, "dueDateTo": &filter.DueDateTo} {
		if v := q.Get(param); v != "" {
			parsed, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeAuthError(w, http.StatusBadRequest,
					NewAuthError(ErrCodeValidationFailed, "Invalid date format", param))
				return
			}
			*dst = &parsed
		}
	}
	filter.Normalize()

	todos, total, err := s.Todos.ListTodos(user.ID, filter)
	if err != nil {
		s.writeError(w, err)
		return
	}

	pages := (total + int64(filter.Limit) - 1) / int64(filter.Limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(todos),
		"pagination": map[string]any{
			"current": filter.Page,
			"pages":   pages,
			"total":   total,
			"hasNext": int64(filter.Page) < pages,
			"hasPrev": filter.Page > 1,
		},
		"todos": todos,
	})
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	var req todoRequest
	if authErr := decodeJSON(r, &req); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}
	if authErr := req.validate(true); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}

	todo := &Todo{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Category:    req.Category,
		DueDate:     req.DueDate,
		Reminder:    req.Reminder,
		Tags:        req.Tags,
		Attachments: req.Attachments,
	}
	if todo.Priority == "" {
		todo.Priority = PriorityMedium
	}
	if todo.Category == "" {
		todo.Category = "personal"
	}
	if req.Position != nil {
		todo.Position = *req.Position
	}

	if err := s.Todos.CreateTodo(todo); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "todo": todo})
}

func (s *Server) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	todo, ok := s.loadOwnedTodo(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "todo": todo})
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	todo, ok := s.loadOwnedTodo(w, r)
	if !ok {
		return
	}
	var req todoRequest
	if authErr := decodeJSON(r, &req); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}
	if authErr := req.validate(false); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}

	if req.Title != "" {
		todo.Title = req.Title
	}
	if req.Description != "" {
		todo.Description = req.Description
	}
	if req.Priority != "" {
		todo.Priority = req.Priority
	}
	if req.Category != "" {
		todo.Category = req.Category
	}
	if req.DueDate != nil {
		todo.DueDate = req.DueDate
	}
	if req.Reminder != nil {
		todo.Reminder = req.Reminder
	}
	if req.Tags != nil {
		todo.Tags = req.Tags
	}
	if req.Attachments != nil {
		todo.Attachments = req.Attachments
	}
	if req.Position != nil {
		todo.Position = *req.Position
	}
	if req.Completed != nil && *req.Completed != todo.Completed {
		todo.SetCompleted(*req.Completed, time.Now())
	}

	if err := s.Todos.SaveTodo(todo); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "todo": todo})
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	todo, ok := s.loadOwnedTodo(w, r)
	if !ok {
		return
	}
	if err := s.Todos.DeleteTodo(todo.ID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Todo deleted"})
}

func (s *Server) handleClearTodos(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	deleted, err := s.Todos.DeleteUserTodos(user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": deleted})
}

func (s *Server) handleToggleTodo(w http.ResponseWriter, r *http.Request) {
	todo, ok := s.loadOwnedTodo(w, r)
	if !ok {
		return
	}
	todo.SetCompleted(!todo.Completed, time.Now())
	if err := s.Todos.SaveTodo(todo); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "todo": todo})
}

// ----------------------------------------------------------------------------
// Subtasks

func (s *Server) handleAddSubtask(w http.ResponseWriter, r *http.Request) {
	todo, ok := s.loadOwnedTodo(w, r)
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if authErr := decodeJSON(r, &req); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}
	if req.Title == "" || len(req.Title) > maxSubtaskTitleLen {
		writeAuthError(w, http.StatusBadRequest,
			NewAuthError(ErrCodeValidationFailed, "Subtask title must be between 1 and 100 characters", "title"))
		return
	}

	todo.Subtasks = append(todo.Subtasks, Subtask{
		ID:        uuid.NewString(),
		Title:     req.Title,
		CreatedAt: time.Now(),
	})
	if err := s.Todos.SaveTodo(todo); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "todo": todo})
}

func (s *Server) handleUpdateSubtask(w http.ResponseWriter, r *http.Request) {
	todo, ok := s.loadOwnedTodo(w, r)
	if !ok {
		return
	}
	var req struct {
		Title     *string `json:"title"`
		Completed *bool   `json:"completed"`
	}
	if authErr := decodeJSON(r, &req); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}

	subtaskId := mux.Vars(r)["subtaskId"]
	found := false
	for i := range todo.Subtasks {
		if todo.Subtasks[i].ID != subtaskId {
			continue
		}
		if req.Title != nil {
			if *req.Title == "" || len(*req.Title) > maxSubtaskTitleLen {
				writeAuthError(w, http.StatusBadRequest,
					NewAuthError(ErrCodeValidationFailed, "Subtask title must be between 1 and 100 characters", "title"))
				return
			}
			todo.Subtasks[i].Title = *req.Title
		}
		if req.Completed != nil {
			todo.Subtasks[i].Completed = *req.Completed
		}
		found = true
		break
	}
	if !found {
		writeAuthError(w, http.StatusNotFound, NewAuthError(ErrCodeNotFound, "Subtask not found", ""))
		return
	}

	if err := s.Todos.SaveTodo(todo); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "todo": todo})
}

func (s *Server) handleDeleteSubtask(w http.ResponseWriter, r *http.Request) {
	todo, ok := s.loadOwnedTodo(w, r)
	if !ok {
		return
	}
	subtaskId := mux.Vars(r)["subtaskId"]
	kept := todo.Subtasks[:0]
	found := false
	for _, st := range todo.Subtasks {
		if st.ID == subtaskId {
			found = true
			continue
		}
		kept = append(kept, st)
	}
	if !found {
		writeAuthError(w, http.StatusNotFound, NewAuthError(ErrCodeNotFound, "Subtask not found", ""))
		return
	}
	todo.Subtasks = kept

	if err := s.Todos.SaveTodo(todo); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "todo": todo})
}

// ----------------------------------------------------------------------------
// Bulk operations

func (s *Server) handleBulkUpdateTodos(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	var req struct {
		TodoIDs []string `json:"ids"`
		Update  struct {
			Completed *bool   `json:"completed"`
			Priority  *string `json:"priority"`
			Category  *string `json:"category"`
		} `json:"update"`
	}
	if authErr := decodeJSON(r, &req); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}
	if len(req.TodoIDs) == 0 {
		writeAuthError(w, http.StatusBadRequest,
			NewAuthError(ErrCodeValidationFailed, "Please provide todo ids", "ids"))
		return
	}
	if req.Update.Priority != nil && !ValidPriority(*req.Update.Priority) {
		writeAuthError(w, http.StatusBadRequest,
			NewAuthError(ErrCodeValidationFailed, "Invalid priority", "priority"))
		return
	}
	if req.Update.Category != nil && !ValidCategory(*req.Update.Category) {
		writeAuthError(w, http.StatusBadRequest,
			NewAuthError(ErrCodeValidationFailed, "Invalid category", "category"))
		return
	}

	updated := 0
	for _, id := range req.TodoIDs {
		todo, err := s.Todos.GetTodoById(id)
		if err != nil || todo.UserID != user.ID {
			continue
		}
		if req.Update.Completed != nil && *req.Update.Completed != todo.Completed {
			todo.SetCompleted(*req.Update.Completed, time.Now())
		}
		if req.Update.Priority != nil {
			todo.Priority = *req.Update.Priority
		}
		if req.Update.Category != nil {
			todo.Category = *req.Update.Category
		}
		if err := s.Todos.SaveTodo(todo); err != nil {
			s.writeError(w, err)
			return
		}
		updated++
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": updated})
}

func (s *Server) handleBulkDeleteTodos(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	var req struct {
		TodoIDs []string `json:"ids"`
	}
	if authErr := decodeJSON(r, &req); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}
	if len(req.TodoIDs) == 0 {
		writeAuthError(w, http.StatusBadRequest,
			NewAuthError(ErrCodeValidationFailed, "Please provide todo ids", "ids"))
		return
	}

	deleted, err := s.Todos.DeleteTodos(user.ID, req.TodoIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": deleted})
}

func (s *Server) handleTodoStats(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	stats, categoryStats, err := s.Todos.Stats(user.ID, time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"stats":         stats,
		"categoryStats": categoryStats,
	})
}
