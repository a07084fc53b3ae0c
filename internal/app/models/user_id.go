package models

import (
	"bytes"
	"math/big"
	"strings"

	"github.com/goccy/go-json"
)

// UserID is the canonical form of a client-supplied user identifier. Clients
// send it as a JSON number or string. Numbers are rendered in plain decimal so
// 42, 42.0 and "42" compare equal; strings are only trimmed, so "007" stays
// distinct from 7.
type UserID string

// NormalizeUserID trims text taken from a query, path or form value
func NormalizeUserID(raw string) UserID {
	return UserID(strings.TrimSpace(raw))
}

// numberUserID renders a JSON number without exponent or trailing zeros
func numberUserID(n json.Number) UserID {
	text := n.String()
	r, ok := new(big.Rat).SetString(text)
	if !ok {
		return UserID(text)
	}
	if r.IsInt() {
		return UserID(r.Num().String())
	}
	return UserID(strings.TrimRight(r.FloatString(20), "0"))
}

// UnmarshalJSON accepts numbers, strings and null
func (u *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*u = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = NormalizeUserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*u = numberUserID(n)
	return nil
}

// String returns the identifier text
func (u UserID) String() string {
	return string(u)
}

// IsZero reports whether no id was supplied
func (u UserID) IsZero() bool {
	return u == ""
}
