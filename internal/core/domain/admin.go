package domain

import (
	"time"

	"github.com/google/uuid"
)

// Admin is an operator account allowed to manage category limits and
// vendor review state.
type Admin struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
