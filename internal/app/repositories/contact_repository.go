package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
	"github.com/campushub/miniapp/internal/pkg/helpers"
)

const contactsTable = "bot_contacts"

var contactColumns = []string{
	"id", "first_name", "last_name", "username", "is_admin", "active", "first_seen", "last_seen",
}

// ContactRepository handles database operations for bot contacts
type ContactRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

// NewContactRepository creates a new ContactRepository
func NewContactRepository(db *sql.DB, builder sq.StatementBuilderType) *ContactRepository {
	return &ContactRepository{db: db, builder: builder}
}

// Upsert inserts a contact or refreshes its names and last seen time.
// A contact that was deactivated becomes active again; first seen and the
// admin flag of an existing row are kept.
func (r *ContactRepository) Upsert(ctx context.Context, contact *models.Contact) error {
	now := contact.LastSeen
	if now.IsZero() {
		now = time.Now().UTC()
	}
	firstSeen := contact.FirstSeen
	if firstSeen.IsZero() {
		firstSeen = now
	}

	query, args, err := r.builder.
		Insert(contactsTable).
		Columns(contactColumns...).
		Values(
			contact.ID,
			contact.FirstName,
			helpers.GetContentNullString(contact.LastName),
			helpers.GetContentNullString(contact.Username),
			contact.IsAdmin,
			true,
			firstSeen,
			now,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			username = excluded.username,
			active = TRUE,
			last_seen = excluded.last_seen`).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("error upserting contact %d: %w", contact.ID, err)
	}
	return nil
}

// GetByID retrieves a single contact
func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*models.Contact, error) {
	query, args, err := r.builder.
		Select(contactColumns...).
		From(contactsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	contact, err := scanContact(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("contact %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning contact: %w", err)
	}
	return contact, nil
}

// GetAll retrieves every contact, newest first
func (r *ContactRepository) GetAll(ctx context.Context) ([]models.Contact, error) {
	return r.list(ctx, nil)
}

// GetActive retrieves contacts that can still be messaged
func (r *ContactRepository) GetActive(ctx context.Context) ([]models.Contact, error) {
	return r.list(ctx, sq.Eq{"active": true})
}

// GetAdmins retrieves active contacts flagged as admins
func (r *ContactRepository) GetAdmins(ctx context.Context) ([]models.Contact, error) {
	return r.list(ctx, sq.Eq{"active": true, "is_admin": true})
}

func (r *ContactRepository) list(ctx context.Context, where sq.Sqlizer) ([]models.Contact, error) {
	builder := r.builder.
		Select(contactColumns...).
		From(contactsTable).
		OrderBy("last_seen DESC")
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		contacts = append(contacts, *contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return contacts, nil
}

// SetActive flags a contact as reachable or not
func (r *ContactRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.update(ctx, id, map[string]interface{}{"active": active})
}

// SetAdmin grants or revokes moderation notifications for a contact
func (r *ContactRepository) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	return r.update(ctx, id, map[string]interface{}{"is_admin": isAdmin})
}

func (r *ContactRepository) update(ctx context.Context, id int64, fields map[string]interface{}) error {
	query, args, err := r.builder.
		Update(contactsTable).
		SetMap(fields).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating contact %d: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.NewResourceNotFoundError(fmt.Sprintf("contact %d not found", id))
	}
	return nil
}

// DeleteAll removes every contact and reports how many rows went away
func (r *ContactRepository) DeleteAll(ctx context.Context) (int64, error) {
	query, args, err := r.builder.Delete(contactsTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting contacts: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContact(row rowScanner) (*models.Contact, error) {
	var (
		contact            models.Contact
		lastName, username sql.NullString
	)
	err := row.Scan(
		&contact.ID,
		&contact.FirstName,
		&lastName,
		&username,
		&contact.IsAdmin,
		&contact.Active,
		&contact.FirstSeen,
		&contact.LastSeen,
	)
	if err != nil {
		return nil, err
	}
	contact.LastName = helpers.NullStringValue(lastName)
	contact.Username = helpers.NullStringValue(username)
	return &contact, nil
}
