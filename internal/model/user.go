package model

import "time"

// Messaging privacy policies resolved from the user directory
const (
	PrivacyEveryone  = "everyone"
	PrivacyFollowers = "followers"
)

// User is the profile shape resolved from the external user directory.
type User struct {
	UserID           string     `json:"userId"`
	Username         string     `json:"username"`
	Avatar           string     `json:"avatar"`
	IsActive         bool       `json:"isActive"`
	MessagingPrivacy string     `json:"messagingPrivacy"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        *time.Time `json:"updatedAt"`
}
