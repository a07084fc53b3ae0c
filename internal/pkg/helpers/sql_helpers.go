package helpers

import "database/sql"

// GetContentNullString converts a string value to sql.NullString.
// If the string is empty, returns an empty NullString.
func GetContentNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// NullStringValue returns the string held by ns, or "" when it is NULL.
func NullStringValue(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}
