// Package history keeps completed analyses after the controller's current
// result slot is cleared. Reset and re-analysis never touch it; entries are
// removed only by explicit delete.
package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"

	"github.com/hoorain17/Receipt-Analyzer/internal/analyzing"
)

const analysesBucket = "analyses"

// Entry is one saved analysis: the full result plus the stored receipt image
type Entry struct {
	ID        string            `json:"id"`
	SavedAt   time.Time         `json:"saved_at"`
	ImageFile string            `json:"image_file,omitempty"`
	Result    *analyzing.Result `json:"result"`
}

// IDGenerator generates unique IDs for history entries
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Store persists analysis entries in BoltDB with images in a FileStore
type Store struct {
	db          *bbolt.DB
	files       FileStore
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewStore opens the history database and creates its bucket
func NewStore(path string, files FileStore) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(analysesBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &Store{
		db:          db,
		files:       files,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}, nil
}

// NewStoreWithDeps creates a Store with custom dependencies for testing
func NewStoreWithDeps(path string, files FileStore, idGen IDGenerator, timeSrc TimeSource) (*Store, error) {
	store, err := NewStore(path, files)
	if err != nil {
		return nil, err
	}
	store.idGenerator = idGen
	store.timeSource = timeSrc
	return store, nil
}

// SaveAnalysis stores a completed result and its receipt image, returning
// the new entry's ID
func (s *Store) SaveAnalysis(result *analyzing.Result, imagePNG []byte) (string, error) {
	id := s.idGenerator.Generate()

	entry := &Entry{
		ID:      id,
		SavedAt: s.timeSource.Now(),
		Result:  result,
	}

	if s.files != nil && len(imagePNG) > 0 {
		savedPath, err := s.files.Save(fmt.Sprintf("%s.png", id), imagePNG)
		if err != nil {
			return "", fmt.Errorf("saving image: %w", err)
		}
		entry.ImageFile = savedPath
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(analysesBucket))
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshaling entry: %w", err)
		}
		return bucket.Put([]byte(id), data)
	})
	if err != nil {
		if entry.ImageFile != "" {
			s.files.Delete(entry.ImageFile)
		}
		return "", fmt.Errorf("saving entry: %w", err)
	}

	return id, nil
}

// GetAnalysis retrieves a saved entry by ID
func (s *Store) GetAnalysis(id string) (*Entry, error) {
	var entry *Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(analysesBucket))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("analysis not found: %s", id)
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetAnalysisImage retrieves the stored receipt image for an entry
func (s *Store) GetAnalysisImage(id string) ([]byte, error) {
	entry, err := s.GetAnalysis(id)
	if err != nil {
		return nil, err
	}
	if entry.ImageFile == "" || s.files == nil {
		return nil, fmt.Errorf("no image stored for analysis: %s", id)
	}
	data, err := s.files.Get(entry.ImageFile)
	if err != nil {
		return nil, fmt.Errorf("getting image: %w", err)
	}
	return data, nil
}

// ListAnalyses returns all saved entries. UnixNano IDs are fixed-width
// digit strings, so bucket order is chronological.
func (s *Store) ListAnalyses() ([]*Entry, error) {
	entries := make([]*Entry, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(analysesBucket))
		return bucket.ForEach(func(k, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("unmarshaling entry: %w", err)
			}
			entries = append(entries, &entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteAnalysis removes a saved entry and its image
func (s *Store) DeleteAnalysis(id string) error {
	entry, err := s.GetAnalysis(id)
	if err != nil {
		return err
	}

	if entry.ImageFile != "" && s.files != nil {
		if err := s.files.Delete(entry.ImageFile); err != nil {
			// Log error but continue with database deletion
			slog.Warn("Failed to delete image file", "file", entry.ImageFile, "error", err)
		}
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(analysesBucket))
		return bucket.Delete([]byte(id))
	})
}

// Close closes the history database
func (s *Store) Close() error {
	return s.db.Close()
}
