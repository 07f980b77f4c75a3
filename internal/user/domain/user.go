package domain

import (
	"context"
	"strings"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/shared/apperr"
	"github.com/google/uuid"
)

type UserType string

const (
	UserTypeGuest      UserType = "guest"
	UserTypeRegistered UserType = "registered"
)

var (
	ErrUserNotFound = apperr.New(apperr.CodeNotFound, "user not found")
	ErrEmailTaken   = apperr.New(apperr.CodeConflict, "user with this email already exists")
)

// User is a participant of the platform, either seller or bidder.
type User struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	UserType    UserType  `json:"userType"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewGuest builds a guest account, displayName and email are trimmed and required.
func NewGuest(displayName, email string, now time.Time) (*User, error) {
	displayName = strings.TrimSpace(displayName)
	email = strings.ToLower(strings.TrimSpace(email))
	if displayName == "" || email == "" {
		return nil, apperr.Validation("displayName and email are required")
	}
	return &User{
		ID:          uuid.New(),
		DisplayName: displayName,
		Email:       email,
		UserType:    UserTypeGuest,
		CreatedAt:   now,
	}, nil
}

type UserRepository interface {
	// GetByID returns ErrUserNotFound when no row matches.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
}
