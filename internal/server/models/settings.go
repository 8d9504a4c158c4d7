package models

import "time"

// Settings is the 1:1 per-owner account settings row, created with defaults
// at registration.
type Settings struct {
	ID                string
	OwnerID           string
	AutoLogoutMinutes int
	UpdatedAt         time.Time
}

// DefaultAutoLogoutMinutes is the auto-lock timeout assigned at registration.
const DefaultAutoLogoutMinutes = 15
