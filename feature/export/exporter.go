package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/DARKSNOUT/ETL-Pipeline/core/storage"
	"github.com/DARKSNOUT/ETL-Pipeline/core/utils"
	"github.com/DARKSNOUT/ETL-Pipeline/feature/pipeline/models"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// exportPageSize bounds how many cache rows are decoded at once.
const exportPageSize = 1000

// Exporter renders the reconciled cache as a CSV snapshot and delivers it to
// object storage under a fixed object name, overwriting the previous export.
type Exporter struct {
	db      *gorm.DB
	client  storage.Client
	bucket  string
	object  string
	columns []string
	logger  *zap.Logger
}

// NewExporter creates an exporter over the cache database. columns is the
// schema-ordered header of the exported file.
func NewExporter(db *gorm.DB, client storage.Client, bucket string, cfg Config, columns []string, logger *zap.Logger) *Exporter {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Exporter{
		db:      db,
		client:  client,
		bucket:  bucket,
		object:  cfg.ObjectName,
		columns: cols,
		logger:  logger,
	}
}

// Export writes the full cache to CSV and uploads it. An empty cache removes
// any stale export instead and returns an empty object name.
func (e *Exporter) Export(ctx context.Context) (string, error) {
	e.logger.Info("Starting cache export", zap.String("object", e.object))

	if err := e.ensureBucket(ctx); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append(append([]string{}, e.columns...), "signature", "updated_at")
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to write export header: %w", err)
	}

	count := 0
	var rows []models.CachedRow
	result := e.db.WithContext(ctx).Order("key").FindInBatches(&rows, exportPageSize, func(tx *gorm.DB, _ int) error {
		for _, rec := range rows {
			record, err := e.renderRow(rec)
			if err != nil {
				return err
			}
			if err := w.Write(record); err != nil {
				return fmt.Errorf("failed to write export row: %w", err)
			}
			count++
		}
		return nil
	})
	if result.Error != nil {
		return "", fmt.Errorf("failed to read cache for export: %w", result.Error)
	}

	if count == 0 {
		e.logger.Warn("Cache is empty, removing stale export")
		if err := e.client.RemoveObject(ctx, e.bucket, e.object, minio.RemoveObjectOptions{}); err != nil {
			e.logger.Warn("Failed to remove stale export", zap.Error(err))
		}
		return "", nil
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush export: %w", err)
	}

	_, err := e.client.PutObject(ctx, e.bucket, e.object,
		bytes.NewReader(buf.Bytes()), int64(buf.Len()),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}

	e.logger.Info("Export delivered", zap.Int("rows", count), zap.String("object", e.object))
	return e.object, nil
}

func (e *Exporter) ensureBucket(ctx context.Context) error {
	exists, err := e.client.BucketExists(ctx, e.bucket)
	if err != nil {
		return fmt.Errorf("failed to check export bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := e.client.MakeBucket(ctx, e.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create export bucket: %w", err)
	}
	return nil
}

func (e *Exporter) renderRow(rec models.CachedRow) ([]string, error) {
	var values map[string]any
	if err := json.Unmarshal([]byte(rec.Payload), &values); err != nil {
		return nil, fmt.Errorf("failed to decode cached row %s: %w", rec.Key, err)
	}

	record := make([]string, 0, len(e.columns)+2)
	for _, col := range e.columns {
		val := values[col]
		if val == nil {
			record = append(record, "")
			continue
		}
		s, err := utils.Canonical(val)
		if err != nil {
			s = fmt.Sprint(val)
		}
		record = append(record, s)
	}
	record = append(record,
		fmt.Sprintf("%d", rec.Signature),
		rec.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"))
	return record, nil
}
