package models

import "time"

// User is a profile keyed by the identifier issued by the identity provider.
type User struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	IncomeBracket      string    `json:"incomeBracket,omitempty"`
	Goal               string    `json:"goal,omitempty"`
	LockPreferenceDays int       `json:"lockPreferenceDays,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the user-editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name               *string
	IncomeBracket      *string
	Goal               *string
	LockPreferenceDays *int
}
