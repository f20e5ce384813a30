package blob

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is the row shape of the blobs table.
type Record struct {
	Key       string    `gorm:"column:blob_key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Record) TableName() string { return "blobs" }

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SQLStore keeps blobs in the blobs table through gorm.
type SQLStore struct {
	conn *gorm.DB
	tx   txRunner
}

// NewSQLStore builds a store on conn. tx may be nil, in which case WithTx runs inline.
func NewSQLStore(conn *gorm.DB, tx txRunner) *SQLStore {
	return &SQLStore{conn: conn, tx: tx}
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var rec Record
	err := s.conn.WithContext(ctx).Where("blob_key = ?", key).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []byte(rec.Value), nil
}

func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	rec := Record{Key: key, Value: string(value), UpdatedAt: time.Now().UTC()}
	return s.conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blob_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	return s.conn.WithContext(ctx).Where("blob_key = ?", key).Delete(&Record{}).Error
}

// WithTx runs fn against a store bound to a single database transaction.
func (s *SQLStore) WithTx(ctx context.Context, fn func(Store) error) error {
	if s.tx == nil {
		return fn(s)
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(&SQLStore{conn: tx})
	})
}

// PurgeStale deletes session-scoped blobs named name that were last written before cutoff.
func (s *SQLStore) PurgeStale(ctx context.Context, name string, cutoff time.Time) (int64, error) {
	res := s.conn.WithContext(ctx).
		Where("blob_key LIKE ? AND updated_at < ?", "session:%:"+name, cutoff.UTC()).
		Delete(&Record{})
	return res.RowsAffected, res.Error
}
