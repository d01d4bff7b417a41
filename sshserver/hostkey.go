package sshserver

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
	"pkt.systems/pslog"
	"pkt.systems/tabstack/internal/persist"
)

// ErrHostKeyPath is returned when no host key path is configured.
var ErrHostKeyPath = errors.New("ssh host key path is required")

const hostKeyComment = "tabstack host key"

// HostKey loads the ed25519 host key at path, generating and storing a new one
// on first start. A key readable by group or others is still used but logged.
func HostKey(path string, log pslog.Logger) (ssh.Signer, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrHostKeyPath
	}
	if log == nil {
		log = pslog.NoopLogger()
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return generateHostKey(path, log)
	case err != nil:
		return nil, fmt.Errorf("stat host key: %w", err)
	case info.IsDir():
		return nil, fmt.Errorf("host key %s is a directory", path)
	}
	if info.Mode().Perm()&0o077 != 0 {
		log.Warn("ssh host key permissions too open", "path", path, "mode", info.Mode().Perm().String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read host key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("parse host key %s: %w", path, err)
	}
	log.Debug("ssh host key loaded", "path", path, "fingerprint", ssh.FingerprintSHA256(signer.PublicKey()))
	return signer, nil
}

func generateHostKey(path string, log pslog.Logger) (ssh.Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate host key: %w", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, hostKeyComment)
	if err != nil {
		return nil, fmt.Errorf("marshal host key: %w", err)
	}
	if err := persist.WriteFileAtomic(path, pem.EncodeToMemory(block)); err != nil {
		return nil, fmt.Errorf("store host key: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return nil, err
	}
	log.Info("ssh host key generated", "path", path, "fingerprint", ssh.FingerprintSHA256(signer.PublicKey()))
	return signer, nil
}
