// Package fingerprint persists content fingerprints of served files so the
// server can attach stable ETags across restarts, the way an edge cache
// keyed on content would.
package fingerprint

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/charmbracelet/log"
	"golang.org/x/crypto/blake2b"
)

const (
	// DbName is the file name of the database inside the data directory.
	DbName = "fingerprints.db"

	// indexFile is what a directory path resolves to, mirroring the file
	// responder.
	indexFile = "index.html"

	bucketName = "fingerprints"

	// tagHexLength is how much of the content hash ends up in the ETag.
	tagHexLength = 16
)

var (
	// ErrEmptyRoot is returned when the served root is empty.
	ErrEmptyRoot = errors.New("root cannot be empty")
	// ErrEmptyLogger is returned when the logger is nil.
	ErrEmptyLogger = errors.New("logger cannot be nil")
)

// Record is the stored fingerprint of one file on disk. Size and ModTime
// identify the file state the ETag was computed from. A mismatch on either
// forces a rehash.
type Record struct {
	ETag    string
	Size    int64
	ModTime time.Time
}

// Store computes and persists fingerprints for files under a served root.
type Store struct {
	db     *bolt.DB
	root   string
	logger *log.Logger
}

// Open opens the database at dbPath, creating its directory and the bucket
// if needed, and returns a store for files under root.
func Open(dbPath, root string, logger *log.Logger) (*Store, error) {
	if root == "" {
		return nil, ErrEmptyRoot
	}
	if logger == nil {
		return nil, ErrEmptyLogger
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0770); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open fingerprint database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %q: %w", bucketName, err)
	}

	return &Store{db: db, root: root, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tag returns the ETag for the file a request path resolves to, computing
// and storing a fresh fingerprint when the file is new or has changed on
// disk. An empty tag with a nil error means the path does not resolve to a
// regular file, which is not a store failure.
func (s *Store) Tag(urlPath string) (string, error) {
	key := path.Clean("/" + urlPath)

	file, info, ok := s.resolve(key)
	if !ok {
		return "", nil
	}

	record, err := s.get(key)
	if err != nil {
		return "", err
	}
	if record != nil && record.Size == info.Size() && record.ModTime.Equal(info.ModTime()) {
		return record.ETag, nil
	}

	tag, err := hashFile(file)
	if err != nil {
		return "", fmt.Errorf("fingerprint %q: %w", file, err)
	}

	record = &Record{ETag: tag, Size: info.Size(), ModTime: info.ModTime()}
	if err := s.put(key, record); err != nil {
		return "", fmt.Errorf("store fingerprint %q: %w", key, err)
	}
	s.logger.Debug("fingerprinted", "path", key, "etag", tag)

	return tag, nil
}

// Count returns the number of stored fingerprints.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			n++
			return nil
		})
	})
	return n, err
}

// resolve maps a cleaned request path to the regular file the file
// responder would serve for it. Directories resolve to their index file.
func (s *Store) resolve(key string) (string, os.FileInfo, bool) {
	file := filepath.Join(s.root, filepath.FromSlash(key))

	info, err := os.Stat(file)
	if err == nil && info.IsDir() {
		file = filepath.Join(file, indexFile)
		info, err = os.Stat(file)
	}
	if err != nil || !info.Mode().IsRegular() {
		return "", nil, false
	}
	return file, info, true
}

func (s *Store) get(key string) (*Record, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketName)).Get([]byte(key)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read fingerprint %q: %w", key, err)
	}
	if raw == nil {
		return nil, nil
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode fingerprint %q: %w", key, err)
	}
	return &record, nil
}

func (s *Store) put(key string, record *Record) error {
	value, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), value)
	})
}

func (s *Store) delete(key []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete(key)
	})
}

// hashFile returns a quoted strong validator derived from the file content.
func hashFile(name string) (string, error) {
	f, err := os.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	sum := hex.EncodeToString(h.Sum(nil))
	return `"` + sum[:tagHexLength] + `"`, nil
}
