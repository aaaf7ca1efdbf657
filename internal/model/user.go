package model

import "time"

// User is a credential record. Password is stored exactly as received.
type User struct {
	ID        string    `json:"_id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
