package domain

import "time"

// User is an account that can sign in.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
