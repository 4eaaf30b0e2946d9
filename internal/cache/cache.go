// Package cache stores built companion executables by content digest.
//
// The cache layout under the root is:
//
//	sidecar/<BuildID>/<product>   published executable
//	sidecar/<BuildID>/package/    copy of the sources (package backend only)
//	sidecar/<BuildID>/.build/     scratch directory (package backend only)
//	index.db                      advisory metadata index
//
// The filesystem is the source of truth: an executable is cached exactly
// when its stable path exists. Publishing goes through a uniquely named temp
// file and an atomic rename, so concurrent builders of the same BuildID
// never expose a partial file. The BoltDB index only records metadata for
// inspection and is never consulted on the build path.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	// IndexFile is the BoltDB file name under the cache root
	IndexFile = "index.db"

	// bucketName is the BoltDB bucket name for cache entries
	bucketName = "builds"

	// indexTimeout bounds how long we wait for another process's lock
	indexTimeout = 1 * time.Second
)

// Index records metadata about published executables using BoltDB.
// The database is opened per operation so that concurrent processes
// only contend for the file lock briefly.
type Index struct {
	path string
}

// Stats summarises the cache contents
type Stats struct {
	// Entries is the number of BuildID directories on disk
	Entries int
	// Indexed is the number of entries recorded in the index
	Indexed int
	// Bytes is the total size of all files under the entry directories
	Bytes int64
}

// NewIndex returns the index stored under the given cache root
func NewIndex(root string) *Index {
	return &Index{path: filepath.Join(root, IndexFile)}
}

// Path returns the index database path
func (x *Index) Path() string {
	return x.path
}

// Record saves or replaces the metadata for entry.BuildID
func (x *Index) Record(entry Entry) error {
	if entry.BuildID == "" {
		return fmt.Errorf("cannot record entry without build id")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	return x.update(func(b *bbolt.Bucket) error {
		return b.Put([]byte(entry.BuildID), data)
	})
}

// Get retrieves the entry for id
// Returns nil if the index has no record of it
func (x *Index) Get(id string) (*Entry, error) {
	var entry *Entry

	err := x.view(func(b *bbolt.Bucket) error {
		data := b.Get([]byte(id))
		if data == nil {
			return nil // Not indexed
		}

		entry = &Entry{}
		return json.Unmarshal(data, entry)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// List returns every indexed entry, newest first
func (x *Index) List() ([]Entry, error) {
	var entries []Entry

	err := x.view(func(b *bbolt.Bucket) error {
		return b.ForEach(func(_, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}

			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].BuiltAt.After(entries[j].BuiltAt)
	})

	return entries, nil
}

// Stats returns cache statistics for the store and this index
func (x *Index) Stats(store *Store) (Stats, error) {
	var stats Stats

	err := x.view(func(b *bbolt.Bucket) error {
		stats.Indexed = b.Stats().KeyN
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	dirs, err := os.ReadDir(filepath.Join(store.Root(), entriesDir))
	if err != nil && !os.IsNotExist(err) {
		return Stats{}, fmt.Errorf("failed to read cache entries: %w", err)
	}

	for _, d := range dirs {
		if d.IsDir() {
			stats.Entries++
		}
	}

	// Calculate total size
	_ = filepath.Walk(filepath.Join(store.Root(), entriesDir), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}

		if !info.IsDir() {
			stats.Bytes += info.Size()
		}

		return nil
	})

	return stats, nil
}

func (x *Index) open(readOnly bool) (*bbolt.DB, error) {
	if readOnly {
		if _, err := os.Stat(x.path); os.IsNotExist(err) {
			return nil, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(x.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bbolt.Open(x.path, 0o600, &bbolt.Options{Timeout: indexTimeout, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache index: %w", err)
	}

	return db, nil
}

func (x *Index) update(fn func(*bbolt.Bucket) error) error {
	db, err := x.open(false)
	if err != nil {
		return err
	}

	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return fmt.Errorf("failed to create cache bucket: %w", err)
		}

		return fn(b)
	})
}

// view runs fn against the bucket; fn is not called when nothing has been recorded yet
func (x *Index) view(fn func(*bbolt.Bucket) error) error {
	db, err := x.open(true)
	if err != nil {
		return err
	}

	if db == nil {
		return nil
	}

	defer db.Close()

	return db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}

		return fn(b)
	})
}
