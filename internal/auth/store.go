package auth

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/tabstack/internal/persist"
	"pkt.systems/tabstack/schema"
)

// Store is the accounts file. Edits made by another process (the users
// command while the server runs) are picked up on the next call.
type Store struct {
	path string
	log  pslog.Logger

	mu       sync.Mutex
	accounts map[schema.UserID]Account
	stamp    fileStamp
}

type fileStamp struct {
	modTime time.Time
	size    int64
}

func stampOf(info os.FileInfo) fileStamp {
	return fileStamp{modTime: info.ModTime(), size: info.Size()}
}

// Open loads the accounts file at path, creating an empty one if needed.
func Open(path string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("accounts file path is required")
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	s := &Store{path: path, log: logger.With("users_file", path)}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := persist.WriteFileAtomic(path, []byte("[]\n")); err != nil {
			return nil, err
		}
		s.log.Info("auth accounts file created")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// Accounts lists every account sorted by name.
func (s *Store) Accounts() ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncLocked(); err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		out = append(out, acct.clone())
	}
	slices.SortFunc(out, func(a, b Account) int { return strings.Compare(string(a.Name), string(b.Name)) })
	return out, nil
}

// Account returns one account.
func (s *Store) Account(name schema.UserID) (Account, error) {
	if err := schema.ValidateUserID(name); err != nil {
		return Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncLocked(); err != nil {
		return Account{}, err
	}
	acct, ok := s.accounts[name]
	if !ok {
		return Account{}, ErrUnknownAccount
	}
	return acct.clone(), nil
}

// Create adds a new account. Its login keys are validated and normalised.
func (s *Store) Create(acct Account) error {
	if err := schema.ValidateUserID(acct.Name); err != nil {
		return err
	}
	keys := make([]string, 0, len(acct.LoginKeys))
	for _, raw := range acct.LoginKeys {
		line, _, err := parseLoginKey(raw)
		if err != nil {
			return err
		}
		keys = append(keys, line)
	}
	acct.LoginKeys = keys
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncLocked(); err != nil {
		return err
	}
	if _, ok := s.accounts[acct.Name]; ok {
		return ErrAccountExists
	}
	s.accounts[acct.Name] = acct
	if err := s.writeLocked(); err != nil {
		delete(s.accounts, acct.Name)
		return err
	}
	s.log.Info("auth account created", "user", acct.Name, "keys", len(keys))
	return nil
}

// Remove deletes an account.
func (s *Store) Remove(name schema.UserID) error {
	if err := schema.ValidateUserID(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncLocked(); err != nil {
		return err
	}
	acct, ok := s.accounts[name]
	if !ok {
		return ErrUnknownAccount
	}
	delete(s.accounts, name)
	if err := s.writeLocked(); err != nil {
		s.accounts[name] = acct
		return err
	}
	s.log.Info("auth account removed", "user", name)
	return nil
}

// SetHomeTab records the tab new sessions of the account open on. An empty
// tab clears it.
func (s *Store) SetHomeTab(name schema.UserID, tab schema.TabID) error {
	tab = schema.TabID(strings.TrimSpace(string(tab)))
	return s.update(name, func(acct *Account) error {
		acct.HomeTab = tab
		return nil
	})
}

// update applies fn to a copy of the named account and writes the file when
// fn succeeds.
func (s *Store) update(name schema.UserID, fn func(*Account) error) error {
	if err := schema.ValidateUserID(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncLocked(); err != nil {
		return err
	}
	prev, ok := s.accounts[name]
	if !ok {
		return ErrUnknownAccount
	}
	next := prev.clone()
	if err := fn(&next); err != nil {
		return err
	}
	s.accounts[name] = next
	if err := s.writeLocked(); err != nil {
		s.accounts[name] = prev
		s.log.Warn("auth account update failed", "user", name, "err", err)
		return err
	}
	return nil
}

// syncLocked reloads the file when its size or mtime moved.
func (s *Store) syncLocked() error {
	info, err := os.Stat(s.path)
	if err != nil {
		s.log.Warn("auth accounts stat failed", "err", err)
		return err
	}
	if stampOf(info) == s.stamp {
		return nil
	}
	return s.reloadLocked()
}

func (s *Store) reloadLocked() error {
	info, err := os.Stat(s.path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var list []Account
	if err := json.Unmarshal(data, &list); err != nil {
		s.log.Warn("auth accounts decode failed", "err", err)
		return err
	}
	accounts := make(map[schema.UserID]Account, len(list))
	for _, acct := range list {
		if err := schema.ValidateUserID(acct.Name); err != nil {
			s.log.Warn("auth accounts decode failed", "user", acct.Name, "err", err)
			return err
		}
		accounts[acct.Name] = acct
	}
	s.accounts = accounts
	s.stamp = stampOf(info)
	s.log.Debug("auth accounts loaded", "accounts", len(accounts))
	return nil
}

func (s *Store) writeLocked() error {
	list := make([]Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		list = append(list, acct)
	}
	slices.SortFunc(list, func(a, b Account) int { return strings.Compare(string(a.Name), string(b.Name)) })
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	if err := persist.WriteFileAtomic(s.path, append(data, '\n')); err != nil {
		return err
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return err
	}
	s.stamp = stampOf(info)
	return nil
}
