package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/tasknest/tasknest"
)

// JSONMap is a helper type for storing JSON maps in GORM
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// StringSlice is a helper type for storing string slices in GORM
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// SubtaskList stores a todo's subtasks as a JSON column
type SubtaskList []tasknest.Subtask

func (l SubtaskList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *SubtaskList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// AttachmentList stores a todo's attachments as a JSON column
type AttachmentList []tasknest.Attachment

func (l AttachmentList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *AttachmentList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// UserModel is the GORM model for users
type UserModel struct {
	ID           string `gorm:"primaryKey;size:64"`
	Name         string `gorm:"size:255"`
	Email        string `gorm:"size:255;uniqueIndex"`
	PasswordHash string `gorm:"size:128"`
	GoogleID     string `gorm:"size:64;index"`
	Provider     string `gorm:"size:32"`

	Avatar          string `gorm:"size:512"`
	DateOfBirth     *time.Time
	Preferences     JSONMap `gorm:"type:jsonb"`
	IsEmailVerified bool    `gorm:"default:false"`

	ResetPasswordToken  string `gorm:"size:128;index"`
	ResetPasswordExpire *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *tasknest.User {
	return &tasknest.User{
		ID:                  m.ID,
		Name:                m.Name,
		Email:               m.Email,
		PasswordHash:        m.PasswordHash,
		GoogleID:            m.GoogleID,
		Provider:            tasknest.Provider(m.Provider),
		Avatar:              m.Avatar,
		DateOfBirth:         m.DateOfBirth,
		Preferences:         m.Preferences,
		IsEmailVerified:     m.IsEmailVerified,
		ResetPasswordToken:  m.ResetPasswordToken,
		ResetPasswordExpire: m.ResetPasswordExpire,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func UserToModel(u *tasknest.User) *UserModel {
	return &UserModel{
		ID:                  u.ID,
		Name:                u.Name,
		Email:               u.Email,
		PasswordHash:        u.PasswordHash,
		GoogleID:            u.GoogleID,
		Provider:            string(u.Provider),
		Avatar:              u.Avatar,
		DateOfBirth:         u.DateOfBirth,
		Preferences:         JSONMap(u.Preferences),
		IsEmailVerified:     u.IsEmailVerified,
		ResetPasswordToken:  u.ResetPasswordToken,
		ResetPasswordExpire: u.ResetPasswordExpire,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

// TodoModel is the GORM model for todos
type TodoModel struct {
	ID          string `gorm:"primaryKey;size:64"`
	UserID      string `gorm:"size:64;index"`
	Title       string `gorm:"size:255"`
	Description string `gorm:"size:1024"`
	Completed   bool   `gorm:"default:false;index"`
	Priority    string `gorm:"size:16;index"`
	Category    string `gorm:"size:32;index"`
	DueDate     *time.Time
	Reminder    *time.Time
	Tags        StringSlice    `gorm:"type:jsonb"`
	Subtasks    SubtaskList    `gorm:"type:jsonb"`
	Attachments AttachmentList `gorm:"type:jsonb"`
	CompletedAt *time.Time
	Position    int       `gorm:"default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (TodoModel) TableName() string {
	return "todos"
}

func (m *TodoModel) ToTodo() *tasknest.Todo {
	return &tasknest.Todo{
		ID:          m.ID,
		UserID:      m.UserID,
		Title:       m.Title,
		Description: m.Description,
		Completed:   m.Completed,
		Priority:    m.Priority,
		Category:    m.Category,
		DueDate:     m.DueDate,
		Reminder:    m.Reminder,
		Tags:        m.Tags,
		Subtasks:    m.Subtasks,
		Attachments: m.Attachments,
		CompletedAt: m.CompletedAt,
		Position:    m.Position,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func TodoToModel(t *tasknest.Todo) *TodoModel {
	return &TodoModel{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    t.Priority,
		Category:    t.Category,
		DueDate:     t.DueDate,
		Reminder:    t.Reminder,
		Tags:        StringSlice(t.Tags),
		Subtasks:    SubtaskList(t.Subtasks),
		Attachments: AttachmentList(t.Attachments),
		CompletedAt: t.CompletedAt,
		Position:    t.Position,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
