package model

import (
	"encoding/json"
	"time"
)

type Note struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MarshalJSON emits the id under both "_id" and "id".
func (n Note) MarshalJSON() ([]byte, error) {
	type plain Note
	return json.Marshal(struct {
		plain
		AltID string `json:"id"`
	}{plain: plain(n), AltID: n.ID})
}
