package model

import "time"

// AdminSession is the credential issued to the admin after a successful login.
type AdminSession struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}
