// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account is a registered skill user. PasswordHash is a bcrypt hash, the
// plaintext password is never stored.
type Account struct {
	ID           string
	UserName     string
	PasswordHash []byte
	CreatedAt    time.Time
}
