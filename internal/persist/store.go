package persist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/pslog"
	"pkt.systems/tabstack/schema"
)

// FileStore persists user snapshots to disk, one JSON document per user.
type FileStore struct {
	dir string
	log pslog.Logger
}

// NewFileStore constructs a persistent store at the given directory.
func NewFileStore(dir string, logger pslog.Logger) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", dir)
	}
	return &FileStore{dir: dir, log: logger}, nil
}

// Load reads a user snapshot from disk.
func (s *FileStore) Load(_ context.Context, userID schema.UserID) (schema.NavSnapshot, bool, error) {
	path := s.pathForUser(userID)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("state load miss", "user", userID)
			}
			return schema.NavSnapshot{}, false, nil
		}
		if s.log != nil {
			s.log.Warn("state load failed", "user", userID, "err", err)
		}
		return schema.NavSnapshot{}, false, err
	}
	snapshot, err := decodeSnapshot(data)
	if err != nil {
		if s.log != nil {
			s.log.Warn("state load failed", "user", userID, "err", err)
		}
		return schema.NavSnapshot{}, false, err
	}
	if s.log != nil {
		s.log.Debug("state load ok", "user", userID, "history", len(snapshot.History))
	}
	return snapshot, true, nil
}

// Save writes a user snapshot to disk atomically.
func (s *FileStore) Save(_ context.Context, userID schema.UserID, snapshot schema.NavSnapshot) error {
	if err := s.save(userID, snapshot); err != nil {
		if s.log != nil {
			s.log.Warn("state save failed", "user", userID, "err", err)
		}
		return err
	}
	if s.log != nil {
		s.log.Trace("state save ok", "user", userID, "history", len(snapshot.History))
	}
	return nil
}

func (s *FileStore) save(userID schema.UserID, snapshot schema.NavSnapshot) error {
	data, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	return WriteFileAtomic(s.pathForUser(userID), data)
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) pathForUser(userID schema.UserID) string {
	return filepath.Join(s.dir, userKey(userID)+".json")
}
