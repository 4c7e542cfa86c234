package tasknest

import (
	"net/http"
	"strings"
	"time"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	now := time.Now()

	profile := user.PublicProfile()
	if age := user.Age(now); age >= 0 {
		profile["age"] = age
	} else {
		profile["age"] = nil
	}
	profile["isBirthday"] = user.IsBirthday(now)

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": profile})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	var req struct {
		Name        string  `json:"name"`
		DateOfBirth *string `json:"dateOfBirth"`
	}
	if authErr := decodeJSON(r, &req); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		if authErr := validateName(name); authErr != nil {
			writeAuthError(w, http.StatusBadRequest, authErr)
			return
		}
		user.Name = name
	}

	// dateOfBirth absent leaves the field alone; an explicit null or empty
	// string clears it.
	if req.DateOfBirth != nil {
		if *req.DateOfBirth == "" {
			user.DateOfBirth = nil
		} else {
			dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
			if err != nil {
				dob, err = time.Parse(time.RFC3339, *req.DateOfBirth)
			}
			if err != nil {
				writeAuthError(w, http.StatusBadRequest,
					NewAuthError(ErrCodeValidationFailed, "Invalid date of birth format", "dateOfBirth"))
				return
			}
			if dob.After(time.Now()) {
				writeAuthError(w, http.StatusBadRequest,
					NewAuthError(ErrCodeValidationFailed, "Date of birth cannot be in the future", "dateOfBirth"))
				return
			}
			user.DateOfBirth = &dob
		}
	}

	if err := s.Users.SaveUser(user); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user.PublicProfile()})
}

func (s *Server) handleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	var req struct {
		Avatar string `json:"avatar"`
	}
	if authErr := decodeJSON(r, &req); authErr != nil {
		writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}

	user.Avatar = req.Avatar
	if err := s.Users.SaveUser(user); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "avatar": user.Avatar})
}

// handleDeleteAccount removes the account and every todo it owns.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	if _, err := s.Todos.DeleteUserTodos(user.ID); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Users.DeleteUser(user.ID); err != nil {
		s.writeError(w, err)
		return
	}
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Account deleted successfully",
	})
}

func (s *Server) handleBirthday(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	now := time.Now()
	body := map[string]any{
		"success":    true,
		"isBirthday": user.IsBirthday(now),
	}
	if age := user.Age(now); age >= 0 {
		body["age"] = age
	}
	writeJSON(w, http.StatusOK, body)
}
