package domain

import "time"

// Profile holds optional personal details for a user. Empty strings are unset.
type Profile struct {
	UserID    UserID
	FirstName string
	LastName  string
	Phone     string
	Country   string
	TimeZone  string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}
