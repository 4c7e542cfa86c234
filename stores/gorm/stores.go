package gorm

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tasknest/tasknest"
)

// AutoMigrate runs database migrations for all tasknest tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&TodoModel{},
	)
}

// =============================================================================
// UserStore
// =============================================================================

// UserStore implements tasknest.UserStore using GORM
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) CreateUser(user *tasknest.User) error {
	user.Email = tasknest.NormalizeEmail(user.Email)

	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return tasknest.ErrDuplicateEmail
	}

	model := UserToModel(user)
	if err := s.db.Create(model).Error; err != nil {
		// the unique index catches racing duplicate registrations
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return tasknest.ErrDuplicateEmail
		}
		return err
	}
	user.CreatedAt = model.CreatedAt
	user.UpdatedAt = model.UpdatedAt
	return nil
}

func (s *UserStore) GetUserById(userId string) (*tasknest.User, error) {
	return s.firstUser("id = ?", userId)
}

func (s *UserStore) GetUserByEmail(email string) (*tasknest.User, error) {
	return s.firstUser("email = ?", tasknest.NormalizeEmail(email))
}

func (s *UserStore) GetUserByGoogleId(googleId string) (*tasknest.User, error) {
	return s.firstUser("google_id = ? AND google_id <> ''", googleId)
}

func (s *UserStore) GetUserByResetToken(tokenHash string, now time.Time) (*tasknest.User, error) {
	return s.firstUser("reset_password_token = ? AND reset_password_token <> '' AND reset_password_expire > ?", tokenHash, now)
}

func (s *UserStore) firstUser(query string, args ...any) (*tasknest.User, error) {
	var model UserModel
	if err := s.db.First(&model, append([]any{query}, args...)...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tasknest.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToUser(), nil
}

func (s *UserStore) SaveUser(user *tasknest.User) error {
	model := UserToModel(user)
	result := s.db.Model(&UserModel{}).Where("id = ?", model.ID).Select("*").Omit("id", "created_at").Updates(model)
	if result.Error != nil {
		// the unique index catches an email change racing another account
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return tasknest.ErrDuplicateEmail
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tasknest.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) DeleteUser(userId string) error {
	result := s.db.Delete(&UserModel{}, "id = ?", userId)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tasknest.ErrUserNotFound
	}
	return nil
}

// =============================================================================
// TodoStore
// =============================================================================

// TodoStore implements tasknest.TodoStore using GORM
type TodoStore struct {
	db *gorm.DB
}

func NewTodoStore(db *gorm.DB) *TodoStore {
	return &TodoStore{db: db}
}

func (s *TodoStore) CreateTodo(todo *tasknest.Todo) error {
	model := TodoToModel(todo)
	if err := s.db.Create(model).Error; err != nil {
		return err
	}
	todo.CreatedAt = model.CreatedAt
	todo.UpdatedAt = model.UpdatedAt
	return nil
}

func (s *TodoStore) GetTodoById(todoId string) (*tasknest.Todo, error) {
	var model TodoModel
	if err := s.db.First(&model, "id = ?", todoId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tasknest.ErrTodoNotFound
		}
		return nil, err
	}
	return model.ToTodo(), nil
}

func (s *TodoStore) SaveTodo(todo *tasknest.Todo) error {
	model := TodoToModel(todo)
	result := s.db.Model(&TodoModel{}).Where("id = ?", model.ID).Select("*").Omit("id", "created_at").Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tasknest.ErrTodoNotFound
	}
	return nil
}

func (s *TodoStore) DeleteTodo(todoId string) error {
	result := s.db.Delete(&TodoModel{}, "id = ?", todoId)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tasknest.ErrTodoNotFound
	}
	return nil
}

func (s *TodoStore) DeleteTodos(userId string, todoIds []string) (int64, error) {
	result := s.db.Delete(&TodoModel{}, "user_id = ? AND id IN ?", userId, todoIds)
	return result.RowsAffected, result.Error
}

func (s *TodoStore) DeleteUserTodos(userId string) (int64, error) {
	result := s.db.Delete(&TodoModel{}, "user_id = ?", userId)
	return result.RowsAffected, result.Error
}

func (s *TodoStore) ListTodos(userId string, filter tasknest.TodoFilter) ([]*tasknest.Todo, int64, error) {
	filter.Normalize()
	query := s.filterQuery(userId, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []TodoModel
	err := query.
		Order(orderClause(filter.Sort)).
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	todos := make([]*tasknest.Todo, len(models))
	for i := range models {
		todos[i] = models[i].ToTodo()
	}
	return todos, total, nil
}

func (s *TodoStore) filterQuery(userId string, filter tasknest.TodoFilter) *gorm.DB {
	query := s.db.Model(&TodoModel{}).Where("user_id = ?", userId)
	if filter.Completed != nil {
		query = query.Where("completed = ?", *filter.Completed)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.DueDateFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		query = query.Where("due_date <= ?", *filter.DueDateTo)
	}
	if filter.Search != "" {
		needle := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags::text) LIKE ?",
			needle, needle, needle)
	}
	return query
}

// orderClause maps the API sort key onto SQL. The key is whitelisted by the
// endpoint layer before it gets here.
func orderClause(sortSpec string) string {
	field := sortSpec
	direction := "ASC"
	if strings.HasPrefix(field, "-") {
		field = field[1:]
		direction = "DESC"
	}
	switch field {
	case "dueDate":
		return "due_date " + direction
	case "priority":
		return "CASE priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END " + direction
	case "title":
		return "LOWER(title) " + direction
	default:
		return "created_at " + direction
	}
}

func (s *TodoStore) Stats(userId string, now time.Time) (*tasknest.TodoStats, []tasknest.CategoryStat, error) {
	type overviewRow struct {
		Total          int64
		Completed      int64
		HighPriority   int64
		MediumPriority int64
		LowPriority    int64
		Overdue        int64
	}
	var row overviewRow
	err := s.db.Model(&TodoModel{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN priority = 'high' THEN 1 ELSE 0 END), 0) AS high_priority,
			COALESCE(SUM(CASE WHEN priority = 'medium' THEN 1 ELSE 0 END), 0) AS medium_priority,
			COALESCE(SUM(CASE WHEN priority = 'low' THEN 1 ELSE 0 END), 0) AS low_priority,
			COALESCE(SUM(CASE WHEN NOT completed AND due_date < ? THEN 1 ELSE 0 END), 0) AS overdue`, now).
		Where("user_id = ?", userId).
		Scan(&row).Error
	if err != nil {
		return nil, nil, err
	}

	stats := &tasknest.TodoStats{
		Total:          row.Total,
		Completed:      row.Completed,
		Pending:        row.Total - row.Completed,
		HighPriority:   row.HighPriority,
		MediumPriority: row.MediumPriority,
		LowPriority:    row.LowPriority,
		Overdue:        row.Overdue,
	}

	var categories []tasknest.CategoryStat
	err = s.db.Model(&TodoModel{}).
		Select("category, COUNT(*) AS count, COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) AS completed").
		Where("user_id = ?", userId).
		Group("category").
		Order("category").
		Scan(&categories).Error
	if err != nil {
		return nil, nil, err
	}
	return stats, categories, nil
}
