package domain

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	// Set for member accounts; the character whose rows this login may edit.
	CharacterID *string   `json:"characterId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
