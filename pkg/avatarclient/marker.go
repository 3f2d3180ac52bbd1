package avatarclient

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v3"
)

// Marker keys. A single pending generation is tracked at a time, mirroring
// the one-active-generation flow of the web client.
var (
	keyPendingTaskID  = []byte("pending_task_id")
	keyPendingPayload = []byte("pending_payload")
)

// ErrNoPendingTask is returned when no pending generation marker exists.
var ErrNoPendingTask = errors.New("no pending generation marker")

// MarkerStore persists the identity of an in-flight generation across client
// restarts, so polling can resume instead of the submission being lost. The
// marker is advisory: the server record is the source of truth, and a stale
// marker simply resolves on the next poll.
type MarkerStore struct {
	db *badger.DB
}

// OpenMarkerStore opens or creates the marker database at the given path.
func OpenMarkerStore(path string) (*MarkerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open marker store: %w", err)
	}
	return &MarkerStore{db: db}, nil
}

// Close releases the underlying database.
func (s *MarkerStore) Close() error {
	return s.db.Close()
}

// SetPending records the task being generated along with the submitted
// payload reference, replacing any previous marker.
func (s *MarkerStore) SetPending(taskID, payload string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(keyPendingTaskID, []byte(taskID)); err != nil {
			return err
		}
		return txn.Set(keyPendingPayload, []byte(payload))
	})
}

// Pending returns the task ID and payload of the in-flight generation.
// Returns ErrNoPendingTask when no marker is set.
func (s *MarkerStore) Pending() (taskID, payload string, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyPendingTaskID)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNoPendingTask
			}
			return err
		}
		if err := item.Value(func(v []byte) error {
			taskID = string(v)
			return nil
		}); err != nil {
			return err
		}

		item, err = txn.Get(keyPendingPayload)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(v []byte) error {
			payload = string(v)
			return nil
		})
	})
	if err != nil {
		return "", "", err
	}
	return taskID, payload, nil
}

// Clear removes the pending marker. Clearing an absent marker is not an error.
func (s *MarkerStore) Clear() error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(keyPendingTaskID); err != nil {
			return err
		}
		return txn.Delete(keyPendingPayload)
	})
}
