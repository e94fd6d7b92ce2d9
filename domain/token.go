package domain

import "time"

// AccessToken is one issued bearer credential. Records are immutable:
// inserted on login, deleted on logout, never updated in place.
type AccessToken struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
}
