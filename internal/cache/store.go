package cache

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"
)

const (
	// AppDir is the directory name used under the platform cache directory
	AppDir = "nucleus-apple-mcp"

	// entriesDir holds one directory per BuildID
	entriesDir = "sidecar"

	// tempSuffix marks in-flight publish files
	tempSuffix = ".tmp"

	// StaleTempAge is how old a temp file must be before another publisher removes it
	StaleTempAge = time.Hour
)

// ResolveRoot returns the cache root directory
// Priority: explicit override, platform user cache dir, ~/.cache
func ResolveRoot(override string) (string, error) {
	if override != "" {
		return expandHome(override)
	}

	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, AppDir), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", sidecarerrors.CacheIO("resolve root", "", err)
	}

	return filepath.Join(home, ".cache", AppDir), nil
}

// Store is the content-addressed, append-only executable cache
type Store struct {
	root string
}

// NewStore creates the cache root if needed and returns a Store over it
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, sidecarerrors.CacheIO("resolve root", root, err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, sidecarerrors.CacheIO("create root", abs, err)
	}

	return &Store{root: abs}, nil
}

// Root returns the cache root directory
func (s *Store) Root() string {
	return s.root
}

// EntryDir returns the directory for a given BuildID
func (s *Store) EntryDir(id string) string {
	return filepath.Join(s.root, entriesDir, id)
}

// ExecutablePath returns the stable executable path for a given BuildID
func (s *Store) ExecutablePath(id, product string) string {
	return filepath.Join(s.EntryDir(id), product)
}

// Lookup returns the cached executable for id, if a regular executable file is there
func (s *Store) Lookup(id, product string) (string, bool) {
	path := s.ExecutablePath(id, product)

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
		return "", false
	}

	return path, true
}

// TempPath creates the entry directory and returns a fresh, unique temp path in it
func (s *Store) TempPath(id, product string) (string, error) {
	dir := s.EntryDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", sidecarerrors.CacheIO("create entry", dir, err)
	}

	return filepath.Join(dir, product+"."+uuid.NewString()+tempSuffix), nil
}

// Publish atomically installs src as the executable for id.
// src is copied to a temp file in the entry directory and renamed into place,
// so readers of the final path only ever see a complete file. A src that
// already lives in the entry directory is renamed without copying.
func (s *Store) Publish(id, product, src string) (string, error) {
	dir := s.EntryDir(id)
	final := s.ExecutablePath(id, product)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", sidecarerrors.CacheIO("create entry", dir, err)
	}

	s.removeStaleTemps(id, product, src)

	tmp := src
	if filepath.Dir(src) != dir || !strings.HasSuffix(src, tempSuffix) {
		var err error
		if tmp, err = s.TempPath(id, product); err != nil {
			return "", err
		}

		if err := copyFile(src, tmp); err != nil {
			os.Remove(tmp)
			return "", sidecarerrors.CacheIO("copy", tmp, err)
		}
	}

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", sidecarerrors.CacheIO("rename", final, err)
	}

	return final, nil
}

// removeStaleTemps deletes temp files left behind by aborted publishes.
// Recent temps may belong to a concurrent publisher and are left alone.
func (s *Store) removeStaleTemps(id, product, keep string) {
	matches, err := filepath.Glob(filepath.Join(s.EntryDir(id), product+".*"+tempSuffix))
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-StaleTempAge)
	for _, m := range matches {
		if m == keep {
			continue
		}

		info, err := os.Stat(m)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		os.Remove(m)
	}
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return filepath.Abs(path)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", sidecarerrors.CacheIO("expand home", path, err)
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
