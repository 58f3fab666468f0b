package models

import "time"

// Role classifies a user for the administrative surfaces outside the ledger.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User owns accounts and bills. The ledger core never mutates users; it only
// checks ownership when an acting user is supplied with an operation.
type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
