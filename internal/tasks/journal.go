package tasks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var deadLettersBucket = []byte("dead_letters")

// DeadLetter is a task that could not be delivered
type DeadLetter struct {
	ID         string            `json:"id"`
	Kind       Kind              `json:"kind"`
	Payload    map[string]string `json:"payload"`
	Attempts   int               `json:"attempts"`
	Error      string            `json:"error"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
	FailedAt   time.Time         `json:"failed_at"`
}

// Journal persists dead letters
type Journal interface {
	Record(dl DeadLetter) error
	List() ([]DeadLetter, error)
	Close() error
}

// BoltJournal stores dead letters in a bbolt file, keyed by failure time so
// iteration is chronological.
type BoltJournal struct {
	db *bbolt.DB
}

// OpenBoltJournal opens or creates the journal at path
func OpenBoltJournal(path string) (*BoltJournal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open dead letter journal: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(deadLettersBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize dead letter journal: %w", err)
	}

	return &BoltJournal{db: db}, nil
}

// Record appends a dead letter
func (j *BoltJournal) Record(dl DeadLetter) error {
	return j.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(dl)
		if err != nil {
			return err
		}
		key := fmt.Sprintf("%020d:%s", dl.FailedAt.UnixNano(), dl.ID)
		return tx.Bucket(deadLettersBucket).Put([]byte(key), data)
	})
}

// List returns every dead letter, oldest first
func (j *BoltJournal) List() ([]DeadLetter, error) {
	out := []DeadLetter{}
	err := j.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(deadLettersBucket).ForEach(func(_, v []byte) error {
			var dl DeadLetter
			if err := json.Unmarshal(v, &dl); err != nil {
				return err
			}
			out = append(out, dl)
			return nil
		})
	})
	return out, err
}

// Close closes the journal file
func (j *BoltJournal) Close() error {
	return j.db.Close()
}
