package models

import (
	"time"

	"github.com/dmitrijs2005/memorylocks/internal/optional"
)

// AuthProviderEmail is the provider tag of accounts registered by email.
const AuthProviderEmail = "email"

// Account is a row of the users table. Email and phone number are unique
// when present; (AuthProvider, ProviderID) is unique as a pair.
type Account struct {
	ID            int64
	Name          *string
	Email         *string
	PhoneNumber   *string
	AuthProvider  string
	ProviderID    *string
	EmailVerified bool
	PhoneVerified bool
	CreatedAt     time.Time
	LastLoginAt   *time.Time
}

// NewAccount is the input of account creation.
type NewAccount struct {
	Name          *string
	Email         *string
	PhoneNumber   *string
	AuthProvider  string
	ProviderID    *string
	EmailVerified bool
	PhoneVerified bool
}

// AccountUpdate lists the account columns a partial update may touch.
type AccountUpdate struct {
	Name          optional.Field[string]    `json:"name"`
	Email         optional.Field[string]    `json:"email"`
	PhoneNumber   optional.Field[string]    `json:"phoneNumber"`
	AuthProvider  optional.Field[string]    `json:"authProvider"`
	ProviderID    optional.Field[string]    `json:"providerId"`
	EmailVerified optional.Field[bool]      `json:"emailVerified"`
	PhoneVerified optional.Field[bool]      `json:"phoneVerified"`
	LastLoginAt   optional.Field[time.Time] `json:"lastLoginAt"`
}
