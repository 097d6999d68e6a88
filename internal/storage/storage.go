// Package storage manages per-run results directories and their age-based
// cleanup. The grading core never touches the filesystem itself; it hands a
// batch out and this layer owns where the artifacts live.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// sessionIDLen is the length of the hex session identifier.
const sessionIDLen = 12

// sessionIDRe guards downloads against path traversal: only short lowercase
// hex IDs resolve to a session directory.
var sessionIDRe = regexp.MustCompile(`^[a-f0-9]{12}$`)

// Store owns the results root directory.
type Store struct {
	root   string
	maxAge time.Duration
	logger zerolog.Logger
}

// New creates a store rooted at dir. Sessions older than maxAge are removed
// by Sweep.
func New(dir string, maxAge time.Duration, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	return &Store{root: dir, maxAge: maxAge, logger: logger}, nil
}

// NewSession allocates a fresh session directory and returns its ID and
// path.
func (s *Store) NewSession() (id, dir string, err error) {
	id = strings.ReplaceAll(uuid.New().String(), "-", "")[:sessionIDLen]
	dir = filepath.Join(s.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create session directory: %w", err)
	}
	return id, dir, nil
}

// ValidSessionID reports whether id is a well-formed session identifier.
func ValidSessionID(id string) bool {
	return sessionIDRe.MatchString(id)
}

// ArtifactPath resolves an artifact inside a session directory. The ID is
// validated before it touches the filesystem.
func (s *Store) ArtifactPath(sessionID, name string) (string, error) {
	if !ValidSessionID(sessionID) {
		return "", fmt.Errorf("invalid session ID")
	}
	p := filepath.Join(s.root, sessionID, filepath.Base(name))
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("artifact not found: %w", err)
	}
	return p, nil
}

// Sweep removes session directories older than the configured age. Failures
// are logged and swallowed; cleanup must never block a grading run.
func (s *Store) Sweep() {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		s.logger.Warn().Err(err).Msg("results cleanup failed")
		return
	}

	cutoff := time.Now().Add(-s.maxAge)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.RemoveAll(filepath.Join(s.root, entry.Name())); err != nil {
				s.logger.Warn().Err(err).Str("session", entry.Name()).Msg("failed to remove old results")
				continue
			}
			s.logger.Info().Str("session", entry.Name()).Msg("cleaned up old results")
		}
	}
}
