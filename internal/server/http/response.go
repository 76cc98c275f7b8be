package http

import (
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse is the only shape a user record leaves the server in.
// Phone and BirthDate are profile fields signup does not collect; they are
// always null.
type userResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone"`
	BirthDate *string `json:"birthDate"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

type signupResponse struct {
	User userResponse `json:"user"`
}

type loginResponse struct {
	User      userResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type meResponse struct {
	UserID string `json:"user_id"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Message string `json:"message"`
}
