package repositories

import (
	"github.com/campushub/miniapp/internal/db"
)

// Repositories holds all the repository instances
type Repositories struct {
	Store             *Store
	ContactRepository *ContactRepository
}

// NewRepositories initializes all repositories. database may be nil when the
// relational store is unavailable; contacts then live in the JSON fallback.
func NewRepositories(store *Store, database *db.Database) *Repositories {
	repos := &Repositories{Store: store}
	if database != nil {
		repos.ContactRepository = NewContactRepository(database.DB, database.Builder)
	}
	return repos
}
