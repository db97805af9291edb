package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DARKSNOUT/ETL-Pipeline/feature/pipeline/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// offsetName identifies the single incremental walk this service runs.
const offsetName = "staging"

// Store is the pipeline's persistence layer over the SQLite cache: reconciled
// rows, terminal run records and the incremental walk offset.
type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewStore migrates the cache schema and returns the store.
func NewStore(db *gorm.DB, timeoutSeconds int) (*Store, error) {
	if err := db.AutoMigrate(&models.CachedRow{}, &models.RunRecord{}, &models.SyncOffset{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cache schema: %w", err)
	}

	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Store{db: db, timeout: timeout}, nil
}

// Lookup returns the cached row for a key, or nil if the key is unknown.
func (s *Store) Lookup(ctx context.Context, key string) (*models.CachedRow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rec models.CachedRow
	err := s.db.WithContext(ctx).First(&rec, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lookup %s: %v", ErrStoreWrite, key, err)
	}
	return &rec, nil
}

// Upsert writes a cached row, replacing any existing row with the same key.
func (s *Store) Upsert(ctx context.Context, rec *models.CachedRow) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(rec).Error
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", ErrStoreWrite, rec.Key, err)
	}
	return nil
}

// Offset returns the persisted walk position, zero if none was saved yet.
func (s *Store) Offset(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var off models.SyncOffset
	err := s.db.WithContext(ctx).First(&off, "name = ?", offsetName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load offset: %w", err)
	}
	return off.Position, nil
}

// SaveOffset persists the walk position for the next incremental run.
func (s *Store) SaveOffset(ctx context.Context, position int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	off := models.SyncOffset{Name: offsetName, Position: position, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			UpdateAll: true,
		}).
		Create(&off).Error
	if err != nil {
		return fmt.Errorf("failed to save offset: %w", err)
	}
	return nil
}

// SaveRun persists a terminal run record snapshot.
func (s *Store) SaveRun(ctx context.Context, rec *models.RunRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(rec).Error
	if err != nil {
		return fmt.Errorf("failed to save run record: %w", err)
	}
	return nil
}

// LatestRun returns the most recently started persisted run, or nil if no
// run was ever recorded.
func (s *Store) LatestRun(ctx context.Context) (*models.RunRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rec models.RunRecord
	err := s.db.WithContext(ctx).Order("start_time DESC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest run: %w", err)
	}
	return &rec, nil
}
