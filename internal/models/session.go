package models

import "github.com/golang-jwt/jwt/v5"

// SessionRole distinguishes reviewers from content owners.
type SessionRole string

const (
	RoleCustomer SessionRole = "CUSTOMER"
	RoleCreator  SessionRole = "CREATOR"
	RoleAdmin    SessionRole = "ADMIN"
)

// Session identifies the viewer driving a review workspace. It is passed explicitly into every
// engine operation.
type Session struct {
	UserID      string      `json:"userId"`
	Role        SessionRole `json:"role"`
	DisplayName string      `json:"displayName"`
}

// Valid reports whether the session identifies a user.
func (s Session) Valid() bool {
	return s.UserID != ""
}

// SessionClaims is the bearer token payload.
type SessionClaims struct {
	UserID      string      `json:"user_id"`
	Role        SessionRole `json:"role"`
	DisplayName string      `json:"display_name"`
	jwt.RegisteredClaims
}

// Session converts claims into a Session value.
func (c *SessionClaims) Session() Session {
	return Session{UserID: c.UserID, Role: c.Role, DisplayName: c.DisplayName}
}
