package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-sift/sift/internal/database"
	"github.com/go-sift/sift/internal/example/model"
	bolt "go.etcd.io/bbolt"
)

const (
	datasetKeys = "dataset:keys:"
	prefix      = "example:"
)

type FilterFn func(example model.Example) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func (db *DB) extractKey(key string) string {
	prefixPos := strings.Index(key, prefix)

	return key[prefixPos+len(prefix):]
}

// Keys returns the names of every dataset that has stored examples.
func (db *DB) Keys() ([]string, error) {
	var bucketKeys []string
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(datasetKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			bucketKeys = append(bucketKeys, db.extractKey(string(k)))
		}
		return nil
	})

	return bucketKeys, err
}

func (db *DB) Store(_ context.Context, example model.Example) error {
	var b *bolt.Bucket
	bytes, err := json.Marshal(example)
	if err != nil {
		return err
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b = tx.Bucket([]byte(prefix + example.Dataset))
		if b == nil {
			b, err = tx.CreateBucket([]byte(prefix + example.Dataset))
			if err != nil {
				return fmt.Errorf("create bucket: %w", err)
			}
		}
		if err := b.Put([]byte(example.ID.String()), bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		b = tx.Bucket([]byte(datasetKeys))
		if b == nil {
			b, err = tx.CreateBucket([]byte(datasetKeys))
			if err != nil {
				return fmt.Errorf("unable create dataset keys bucket: %w", err)
			}
		}
		if err := b.Put([]byte(prefix+example.Dataset), []byte{0x0}); err != nil {
			return fmt.Errorf("unable put to dataset keys bucket: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

// AppendMany bulk upserts examples. An example that already exists under the
// same id is overwritten, which is how audits persist quality fields.
func (db *DB) AppendMany(_ context.Context, examples []model.Example) error {
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		for _, example := range examples {
			b := tx.Bucket([]byte(prefix + example.Dataset))
			if b == nil {
				datasetBucket, err := tx.CreateBucket([]byte(prefix + example.Dataset))
				if err != nil {
					return fmt.Errorf("create bucket: %w", err)
				}
				b = datasetBucket
			}
			bytes, err := json.Marshal(example)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(example.ID.String()), bytes); err != nil {
				return fmt.Errorf("put to bucket error: %w", err)
			}
			keysBucket := tx.Bucket([]byte(datasetKeys))
			if keysBucket == nil {
				keysBucket, err = tx.CreateBucket([]byte(datasetKeys))
				if err != nil {
					return fmt.Errorf("unable create dataset keys bucket: %w", err)
				}
			}
			if err := keysBucket.Put([]byte(prefix+example.Dataset), []byte{0x0}); err != nil {
				return fmt.Errorf("unable put to dataset keys bucket: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) DeleteMany(_ context.Context, examples []model.Example) error {
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		for _, example := range examples {
			b := tx.Bucket([]byte(prefix + example.Dataset))
			if b == nil {
				continue
			}
			if err := b.Delete([]byte(example.ID.String())); err != nil {
				return fmt.Errorf("unable delete: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) Delete(_ context.Context, example model.Example) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + example.Dataset))
		if b == nil {
			return nil
		}

		return b.Delete([]byte(example.ID.String()))
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) FindAll(_ context.Context, filter FilterFn) ([]model.Example, error) {
	var (
		keys     []string
		examples []model.Example
	)
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(datasetKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, string(k))
		}

		for _, key := range keys {
			b := tx.Bucket([]byte(key))
			if b == nil {
				continue
			}
			c := b.Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				var e model.Example
				if err := json.Unmarshal(v, &e); err != nil {
					return fmt.Errorf("example unmarshal error, %q", err)
				}
				examples = append(examples, e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("view transaction error: %v", err)
	}

	if filter == nil {
		return examples, nil
	}

	filtered := examples[:0]
	for i := range examples {
		if filter(examples[i]) {
			filtered = append(filtered, examples[i])
		}
	}
	return filtered, nil
}

func (db *DB) FindByDataset(dataset string, filter FilterFn) ([]model.Example, error) {
	var examples []model.Example
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + dataset))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var e model.Example
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("example unmarshal error, %q", err)
			}
			if filter == nil || filter(e) {
				examples = append(examples, e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("view transaction error: %v", err)
	}

	return examples, nil
}

func (db *DB) CountByDataset(dataset string) (int, error) {
	var count int
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + dataset))
		if b == nil {
			return nil
		}
		count = b.Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("view transaction error: %v", err)
	}

	return count, nil
}
