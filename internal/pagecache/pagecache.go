// Package pagecache persists last-known-good page responses so restore
// can render instantly even across process restarts. The in-memory copy
// held by each window stays authoritative during a session; this store
// only seeds windows that have nothing cached yet.
//
// Only successful GET responses are stored. POST responses are never
// cached: replaying them silently is exactly what the restore rules
// forbid.
package pagecache

import (
	"fmt"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/efroemling/ballistica-sub005/internal/logging"
	"github.com/efroemling/ballistica-sub005/internal/protocol"
)

var bucketName = []byte("pages-v1")

// Store is a bbolt-backed response cache keyed by request cache key.
type Store struct {
	db  *bbolt.DB
	log *zap.Logger
}

// Open opens or creates the cache file.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open page cache: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init page cache: %w", err)
	}
	return &Store{db: db, log: logging.Get(logging.CategoryCache)}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a response under req's cache key. Non-GET requests and
// error responses are ignored. Storage failures are logged, never
// surfaced; the cache is an optimization.
func (s *Store) Put(req *protocol.Request, resp *protocol.Response) {
	if req.Method != protocol.MethodGet || resp == nil || resp.IsError() {
		return
	}
	data, err := protocol.EncodeResponse(resp)
	if err != nil {
		s.log.Error("encode response for cache", zap.Error(err))
		return
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(req.CacheKey()), data)
	})
	if err != nil {
		s.log.Warn("cache write failed", zap.Error(err))
	}
}

// Get loads the cached response for req, if any. Corrupt entries are
// deleted and treated as a miss.
func (s *Store) Get(req *protocol.Request) (*protocol.Response, bool) {
	if req.Method != protocol.MethodGet {
		return nil, false
	}
	key := []byte(req.CacheKey())
	var data []byte
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketName).Get(key); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if data == nil {
		return nil, false
	}
	resp, err := protocol.DecodeResponse(data)
	if err != nil {
		s.log.Warn("corrupt cache entry dropped",
			zap.String("key", string(key)), zap.Error(err))
		_ = s.db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket(bucketName).Delete(key)
		})
		return nil, false
	}
	return resp, true
}

// Delete removes the cached response for req.
func (s *Store) Delete(req *protocol.Request) {
	_ = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(req.CacheKey()))
	})
}
