// Package models defines the entities persisted by the repositories.
package models

// User represents an account as stored in the database.
// `json:"-"` on PasswordHash keeps the hash out of every API response.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// Item is a titled entry owned by the user who created it.
// Only its owner may edit or delete it.
type Item struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	OwnerID int64  `json:"user_id"`
}

// InsertResult is the body returned when a resource is created.
type InsertResult struct {
	InsertID int64 `json:"insertId" example:"1"`
}
