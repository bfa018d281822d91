package fingerprint

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Entry is one remembered run: the fingerprint of its inputs and the
// bindings document it produced.
type Entry struct {
	Fingerprint string    `msgpack:"fingerprint"`
	Dialect     string    `msgpack:"dialect"`
	CreatedAt   time.Time `msgpack:"created_at"`
	Output      []byte    `msgpack:"output"`
}

// Store keeps msgpack-encoded entries in a directory, one file per
// fingerprint. The directory is created on first save.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) entryPath(fingerprint string) string {
	return filepath.Join(s.dir, fingerprint+".bind")
}

// Load returns the entry stored under the fingerprint. A missing entry
// is a clean miss, not an error.
func (s *Store) Load(fingerprint string) (*Entry, bool, error) {
	buf, err := os.ReadFile(s.entryPath(fingerprint))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var e Entry
	if err := msgpack.Unmarshal(buf, &e); err != nil {
		return nil, false, fmt.Errorf("cache entry %s: %w", fingerprint, err)
	}
	if e.Fingerprint != fingerprint {
		return nil, false, fmt.Errorf("cache entry %s: fingerprint mismatch", fingerprint)
	}
	return &e, true, nil
}

// Save writes the entry under its fingerprint, replacing any previous
// one. The entry lands atomically; a concurrent Load sees either the
// old entry or the new one.
func (s *Store) Save(e *Entry) error {
	if e.Fingerprint == "" {
		return fmt.Errorf("cache entry without a fingerprint")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	buf, err := msgpack.Marshal(e)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "entry-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.entryPath(e.Fingerprint)); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
