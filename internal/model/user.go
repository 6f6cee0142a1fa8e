// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account.
//
// PasswordHash carries `json:"-"` so a User can be written straight to a
// response body without ever leaking the bcrypt digest.
//
// PlayerID links an account to its player profile. It's a *string because
// most accounts (admins, fans) have no player row.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	PlayerID     *string   `json:"player_id"`
	CreatedAt    time.Time `json:"created_at"`
}
