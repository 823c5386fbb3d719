// Package spanstore archives completed spans in a local Badger database
// so development traces survive process restarts, and exports them as
// JSONL snapshots.
package spanstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/the-yaml-life/tyl-tracing"
)

const keyPrefix = "span:"

// Store is a Badger-backed span archive. Keys are
// "span:<traceID>:<spanID>" with JSON values, optionally expiring via TTL.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) an archive at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open span archive: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenReadOnly opens an existing archive without taking the write lock.
func OpenReadOnly(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil).WithReadOnly(true)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open span archive read-only: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put archives a single span. A zero TTL keeps it forever.
func (s *Store) Put(_ context.Context, span tracing.Span, ttl time.Duration) error {
	buf, err := json.Marshal(span)
	if err != nil {
		return fmt.Errorf("marshal span: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(spanKey(span), buf)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// PutBatch archives spans in one transaction.
func (s *Store) PutBatch(ctx context.Context, spans []tracing.Span, ttl time.Duration) error {
	if len(spans) == 0 {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, span := range spans {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			buf, err := json.Marshal(span)
			if err != nil {
				return fmt.Errorf("marshal span %s: %w", span.SpanID, err)
			}
			entry := badger.NewEntry(spanKey(span), buf)
			if ttl > 0 {
				entry = entry.WithTTL(ttl)
			}
			if err := txn.SetEntry(entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetTrace returns all archived spans of a trace. A trace with no
// archived spans yields an empty slice, not an error.
func (s *Store) GetTrace(ctx context.Context, traceID string) ([]tracing.Span, error) {
	var spans []tracing.Span
	prefix := []byte(keyPrefix + traceID + ":")
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			var span tracing.Span
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &span)
			}); err != nil {
				return err
			}
			spans = append(spans, span)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return spans, nil
}

// Get returns a single archived span, or false if it is not archived.
func (s *Store) Get(_ context.Context, traceID, spanID string) (tracing.Span, bool, error) {
	key := []byte(keyPrefix + traceID + ":" + spanID)
	var span tracing.Span
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &span)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return tracing.Span{}, false, nil
		}
		return tracing.Span{}, false, err
	}
	return span, true, nil
}

// Scan visits every archived span until fn returns an error or ctx is done.
func (s *Store) Scan(ctx context.Context, fn func(tracing.Span) error) error {
	prefix := []byte(keyPrefix)
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			var span tracing.Span
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &span)
			}); err != nil {
				continue
			}
			if err := fn(span); err != nil {
				return err
			}
		}
		return nil
	})
}

func spanKey(span tracing.Span) []byte {
	return []byte(keyPrefix + span.TraceID + ":" + span.SpanID)
}
