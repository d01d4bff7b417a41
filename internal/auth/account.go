package auth

import (
	"errors"

	"pkt.systems/tabstack/schema"
)

var (
	// ErrUnknownAccount is returned for operations on an account that does not exist.
	ErrUnknownAccount = errors.New("unknown account")
	// ErrAccountExists is returned when creating an account twice.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidKey is returned for login keys that do not parse.
	ErrInvalidKey = errors.New("invalid login key")
	// ErrDuplicateKey is returned when a login key is already registered.
	ErrDuplicateKey = errors.New("login key already registered")
	// ErrKeyIndex is returned for a login key index outside the list.
	ErrKeyIndex = errors.New("login key index out of range")
)

// Account is a user allowed to run navigation sessions. LoginKeys admit SSH
// sessions, TokenHash admits the HTTP state API and HomeTab, when set, is the
// tab a session opens on before any state was stored.
type Account struct {
	Name      schema.UserID `json:"name"`
	LoginKeys []string      `json:"login_keys,omitempty"`
	TokenHash string        `json:"token_hash,omitempty"`
	HomeTab   schema.TabID  `json:"home_tab,omitempty"`
}

// HasToken reports whether an API token has been issued.
func (a Account) HasToken() bool {
	return a.TokenHash != ""
}

func (a Account) clone() Account {
	a.LoginKeys = append([]string(nil), a.LoginKeys...)
	return a
}
