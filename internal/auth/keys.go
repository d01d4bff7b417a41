package auth

import (
	"bytes"
	"errors"
	"strings"

	"golang.org/x/crypto/ssh"

	"pkt.systems/tabstack/schema"
)

// AddLoginKey registers an authorized_keys line for the account and returns
// its 1-based index.
func (s *Store) AddLoginKey(name schema.UserID, line string) (int, error) {
	normalized, key, err := parseLoginKey(line)
	if err != nil {
		return 0, err
	}
	index := 0
	err = s.update(name, func(acct *Account) error {
		if hasKey(acct.LoginKeys, key) {
			return ErrDuplicateKey
		}
		acct.LoginKeys = append(acct.LoginKeys, normalized)
		index = len(acct.LoginKeys)
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("auth login key added", "user", name, "index", index, "fingerprint", ssh.FingerprintSHA256(key))
	return index, nil
}

// RemoveLoginKey drops the login key at the 1-based index.
func (s *Store) RemoveLoginKey(name schema.UserID, index int) error {
	err := s.update(name, func(acct *Account) error {
		if index < 1 || index > len(acct.LoginKeys) {
			return ErrKeyIndex
		}
		acct.LoginKeys = append(acct.LoginKeys[:index-1], acct.LoginKeys[index:]...)
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("auth login key removed", "user", name, "index", index)
	return nil
}

// Authorized reports whether key may open sessions as name. Unknown
// accounts are refused without an error.
func (s *Store) Authorized(name schema.UserID, key ssh.PublicKey) (bool, error) {
	acct, err := s.Account(name)
	switch {
	case errors.Is(err, ErrUnknownAccount):
		return false, nil
	case err != nil:
		return false, err
	}
	return hasKey(acct.LoginKeys, key), nil
}

func parseLoginKey(line string) (string, ssh.PublicKey, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil, ErrInvalidKey
	}
	key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(line))
	if err != nil {
		return "", nil, ErrInvalidKey
	}
	return line, key, nil
}

func hasKey(lines []string, key ssh.PublicKey) bool {
	want := key.Marshal()
	for _, line := range lines {
		_, parsed, err := parseLoginKey(line)
		if err == nil && bytes.Equal(parsed.Marshal(), want) {
			return true
		}
	}
	return false
}
