package stores

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tasknest/tasknest"
)

// fsUser is the on-disk shape of a user record.
type fsUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash,omitempty"`
	GoogleID     string `json:"google_id,omitempty"`
	Provider     string `json:"provider"`

	Avatar          string         `json:"avatar,omitempty"`
	DateOfBirth     *time.Time     `json:"date_of_birth,omitempty"`
	Preferences     map[string]any `json:"preferences,omitempty"`
	IsEmailVerified bool           `json:"is_email_verified"`

	ResetPasswordToken  string     `json:"reset_password_token,omitempty"`
	ResetPasswordExpire *time.Time `json:"reset_password_expire,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *fsUser) toUser() *tasknest.User {
	return &tasknest.User{
		ID:                  u.ID,
		Name:                u.Name,
		Email:               u.Email,
		PasswordHash:        u.PasswordHash,
		GoogleID:            u.GoogleID,
		Provider:            tasknest.Provider(u.Provider),
		Avatar:              u.Avatar,
		DateOfBirth:         u.DateOfBirth,
		Preferences:         u.Preferences,
		IsEmailVerified:     u.IsEmailVerified,
		ResetPasswordToken:  u.ResetPasswordToken,
		ResetPasswordExpire: u.ResetPasswordExpire,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func userToFS(u *tasknest.User) *fsUser {
	return &fsUser{
		ID:                  u.ID,
		Name:                u.Name,
		Email:               u.Email,
		PasswordHash:        u.PasswordHash,
		GoogleID:            u.GoogleID,
		Provider:            string(u.Provider),
		Avatar:              u.Avatar,
		DateOfBirth:         u.DateOfBirth,
		Preferences:         u.Preferences,
		IsEmailVerified:     u.IsEmailVerified,
		ResetPasswordToken:  u.ResetPasswordToken,
		ResetPasswordExpire: u.ResetPasswordExpire,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

// FSUserStore stores users as JSON files under <root>/users. Secondary
// lookups (email, google id, reset token) scan the directory, which is fine
// at the scale this store is meant for.
type FSUserStore struct {
	StoragePath string
	mu          sync.Mutex
}

func NewFSUserStore(storagePath string) *FSUserStore {
	return &FSUserStore{StoragePath: storagePath}
}

func (s *FSUserStore) userPath(userId string) string {
	return filepath.Join(s.StoragePath, "users", userId+".json")
}

func (s *FSUserStore) CreateUser(user *tasknest.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.findUnlocked(func(u *fsUser) bool { return u.Email == user.Email }); err == nil {
		return tasknest.ErrDuplicateEmail
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	return s.writeUnlocked(user)
}

func (s *FSUserStore) GetUserById(userId string) (*tasknest.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readUnlocked(s.userPath(userId))
}

func (s *FSUserStore) GetUserByEmail(email string) (*tasknest.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findUnlocked(func(u *fsUser) bool { return u.Email == email })
}

func (s *FSUserStore) GetUserByGoogleId(googleId string) (*tasknest.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findUnlocked(func(u *fsUser) bool { return u.GoogleID != "" && u.GoogleID == googleId })
}

func (s *FSUserStore) GetUserByResetToken(tokenHash string, now time.Time) (*tasknest.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findUnlocked(func(u *fsUser) bool {
		return u.ResetPasswordToken != "" &&
			u.ResetPasswordToken == tokenHash &&
			u.ResetPasswordExpire != nil &&
			u.ResetPasswordExpire.After(now)
	})
}

func (s *FSUserStore) SaveUser(user *tasknest.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.userPath(user.ID)); err != nil {
		return tasknest.ErrUserNotFound
	}
	user.UpdatedAt = time.Now()
	return s.writeUnlocked(user)
}

func (s *FSUserStore) DeleteUser(userId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.userPath(userId)); err != nil {
		if os.IsNotExist(err) {
			return tasknest.ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *FSUserStore) writeUnlocked(user *tasknest.User) error {
	path := s.userPath(user.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(userToFS(user), "", "  ")
	if err != nil {
		return err
	}
	return writeAtomicFile(path, data)
}

func (s *FSUserStore) readUnlocked(path string) (*tasknest.User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tasknest.ErrUserNotFound
		}
		return nil, err
	}
	var record fsUser
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return record.toUser(), nil
}

func (s *FSUserStore) findUnlocked(match func(*fsUser) bool) (*tasknest.User, error) {
	dir := filepath.Join(s.StoragePath, "users")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tasknest.ErrUserNotFound
		}
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		var record fsUser
		if err := json.Unmarshal(data, &record); err != nil {
			continue
		}
		if match(&record) {
			return record.toUser(), nil
		}
	}
	return nil, tasknest.ErrUserNotFound
}
