package database

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trailhunt-games/trailhunt/internal/database"
	"github.com/trailhunt-games/trailhunt/internal/database/snapshot/model"
	bolt "go.etcd.io/bbolt"
)

const prefix = "snapshot"

// the session is a single aggregate, one record under a fixed key
var key = []byte("current")

var (
	ErrEntryNotFound  = fmt.Errorf("not found")
	ErrBucketNotFound = fmt.Errorf("bucket not found")
)

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

// Fetch loads the saved session snapshot. Missing bucket or key returns
// ErrEntryNotFound; malformed bytes return an unmarshal error so the
// caller can fall back to defaults.
func (db *DB) Fetch() (model.Snapshot, error) {
	m := model.Default()

	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix))
		if b == nil {
			return ErrEntryNotFound
		}

		bytes := b.Get(key)
		if bytes == nil {
			return ErrEntryNotFound
		}

		if err := json.Unmarshal(bytes, &m); err != nil {
			return fmt.Errorf("json unmarshal error, %w", err)
		}

		return nil
	}); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return m, ErrEntryNotFound
		}
		return m, fmt.Errorf("view transaction error: %w", err)
	}

	return m, nil
}

// Put overwrites the stored snapshot unconditionally.
func (db *DB) Put(m model.Snapshot) error {
	tx, err := db.sDB.DB.Begin(true)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer tx.Rollback() // nolint

	b := tx.Bucket([]byte(prefix))
	if b == nil {
		bs, err := tx.CreateBucket([]byte(prefix))
		if err != nil {
			return fmt.Errorf("can not create bucket: %w", err)
		}
		b = bs
	}

	bytes, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := b.Put(key, bytes); err != nil {
		return fmt.Errorf("put to bucket error: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (db *DB) Clean() error {
	tx, err := db.sDB.DB.Begin(true)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer tx.Rollback() // nolint

	if err := tx.DeleteBucket([]byte(prefix)); err != nil {
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return ErrBucketNotFound
		}
		return fmt.Errorf("delete bucket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
