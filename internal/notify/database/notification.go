package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-sift/sift/internal/database"
	"github.com/go-sift/sift/internal/notify/model"
	bolt "go.etcd.io/bbolt"
)

const (
	notifyKeys = "notify:keys:"
	prefix     = "notify:"
)

type FilterFn func(notification model.Notification) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func (db *DB) Store(_ context.Context, notification model.Notification) error {
	var b *bolt.Bucket
	bytes, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b = tx.Bucket([]byte(prefix + notification.Dataset))
		if b == nil {
			b, err = tx.CreateBucket([]byte(prefix + notification.Dataset))
			if err != nil {
				return fmt.Errorf("create bucket: %w", err)
			}
		}
		if err := b.Put([]byte(notification.ID.String()), bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		b = tx.Bucket([]byte(notifyKeys))
		if b == nil {
			b, err = tx.CreateBucket([]byte(notifyKeys))
			if err != nil {
				return fmt.Errorf("unable create notify keys bucket: %w", err)
			}
		}
		if err := b.Put([]byte(prefix+notification.Dataset), []byte{0x0}); err != nil {
			return fmt.Errorf("unable put to notify keys bucket: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}
	return nil
}

func (db *DB) Delete(_ context.Context, notification model.Notification) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + notification.Dataset))
		if b == nil {
			return nil
		}

		return b.Delete([]byte(notification.ID.String()))
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}
	return nil
}

func (db *DB) FindAll(_ context.Context, filter FilterFn) ([]model.Notification, error) {
	var (
		keys          []string
		notifications []model.Notification
	)
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(notifyKeys))
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
				var n model.Notification
				if err := json.Unmarshal(v, &n); err != nil {
					return fmt.Errorf("notification unmarshal error, %q", err)
				}
				notifications = append(notifications, n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("view transaction error: %v", err)
	}

	if filter == nil {
		return notifications, nil
	}

	filtered := notifications[:0]
	for i := range notifications {
		if filter(notifications[i]) {
			filtered = append(filtered, notifications[i])
		}
	}
	return filtered, nil
}
