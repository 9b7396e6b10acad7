package model

import "time"

// Session is cache-resident bookkeeping of the last login. It is never used
// to authorize a request.
type Session struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	LastLogin   time.Time `json:"lastLogin"`
	AccessToken string    `json:"accessToken"`
}
