package user

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PasswordMaxLength is in bytes; bcrypt refuses anything longer.
const (
	PasswordMinLength = 8
	PasswordMaxLength = 72
)

// PasswordProblems lists every policy rule the password breaks, in a stable
// order. An empty result means the password is acceptable.
func PasswordProblems(password string) []string {
	var problems []string
	if n := len(password); n < PasswordMinLength {
		problems = append(problems, "Minimum 8 characters")
	} else if n > PasswordMaxLength {
		problems = append(problems, "Password too long")
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	if !upper {
		problems = append(problems, "Must include uppercase letter")
	}
	if !lower {
		problems = append(problems, "Must include lowercase letter")
	}
	if !digit {
		problems = append(problems, "Must include number")
	}
	if !special {
		problems = append(problems, "Must include special character")
	}
	return problems
}
