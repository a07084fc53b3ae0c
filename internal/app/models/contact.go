package models

import "time"

// Contact is a bot user that can receive notifications
type Contact struct {
	ID        int64     `json:"id" db:"id"`
	FirstName string    `json:"firstName,omitempty" db:"first_name"`
	LastName  string    `json:"lastName,omitempty" db:"last_name"`
	Username  string    `json:"username,omitempty" db:"username"`
	IsAdmin   bool      `json:"isAdmin" db:"is_admin"`
	Active    bool      `json:"active" db:"active"`
	FirstSeen time.Time `json:"firstSeen" db:"first_seen"`
	LastSeen  time.Time `json:"lastSeen" db:"last_seen"`
}

// DisplayName picks the most readable name available
func (c *Contact) DisplayName() string {
	switch {
	case c.Username != "":
		return "@" + c.Username
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	}
	return "contact"
}
