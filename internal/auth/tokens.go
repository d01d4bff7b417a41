package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"pkt.systems/tabstack/schema"
)

const tokenPrefix = "ts_"

// IssueToken creates a new API token for the account, replacing any earlier
// one. Only its bcrypt hash is stored; the token is returned once.
func (s *Store) IssueToken(name schema.UserID) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := tokenPrefix + base64.RawURLEncoding.EncodeToString(raw)
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	if err := s.update(name, func(acct *Account) error {
		acct.TokenHash = string(hash)
		return nil
	}); err != nil {
		return "", err
	}
	s.log.Info("auth token issued", "user", name)
	return token, nil
}

// RevokeToken removes the account's API token.
func (s *Store) RevokeToken(name schema.UserID) error {
	if err := s.update(name, func(acct *Account) error {
		acct.TokenHash = ""
		return nil
	}); err != nil {
		return err
	}
	s.log.Info("auth token revoked", "user", name)
	return nil
}

// VerifyToken reports whether token is the account's current API token.
// Unknown accounts and accounts without a token are refused without an error.
func (s *Store) VerifyToken(name schema.UserID, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if !strings.HasPrefix(token, tokenPrefix) {
		return false, nil
	}
	acct, err := s.Account(name)
	switch {
	case errors.Is(err, ErrUnknownAccount):
		return false, nil
	case err != nil:
		return false, err
	}
	if !acct.HasToken() {
		return false, nil
	}
	err = bcrypt.CompareHashAndPassword([]byte(acct.TokenHash), []byte(token))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
