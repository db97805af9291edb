package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/DARKSNOUT/ETL-Pipeline/core/source"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
)

// setupMockSource creates a mock GORM DB speaking the sqlserver dialect.
func setupMockSource(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(sqlserver.New(sqlserver.Config{Conn: db}), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}
	return gormDB, mock
}

func sourceConfig() source.Config {
	return source.Config{
		Table:          "report_staging",
		OrderingColumn: "reg_no",
		KeyColumn:      "reg_no",
		Columns:        []string{"reg_no", "name", "amount"},
		TimeoutSeconds: 5,
	}
}

// chunkRows builds a mock result page of n sequential rows starting at start.
func chunkRows(start, n int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"reg_no", "name", "amount"})
	for i := 0; i < n; i++ {
		rows.AddRow(fmt.Sprintf("R-%03d", start+i), fmt.Sprintf("row %d", start+i), int64(start+i))
	}
	return rows
}

func TestWalk_Next(t *testing.T) {
	query := "^SELECT \\* FROM report_staging ORDER BY reg_no OFFSET"

	t.Run("paginates until a short page", func(t *testing.T) {
		gormDB, mock := setupMockSource(t)
		mock.ExpectQuery(query).WillReturnRows(chunkRows(0, 10))
		mock.ExpectQuery(query).WillReturnRows(chunkRows(10, 10))
		mock.ExpectQuery(query).WillReturnRows(chunkRows(20, 5))

		reader := NewReader(gormDB, sourceConfig(), zap.NewNop())
		walk := reader.Walk(0, 10)

		sizes := []int{}
		offsets := []int64{}
		for {
			batch, err := walk.Next(context.Background())
			require.NoError(t, err)
			if batch == nil {
				break
			}
			sizes = append(sizes, len(batch.Rows))
			offsets = append(offsets, batch.Offset)
		}

		assert.Equal(t, []int{10, 10, 5}, sizes)
		assert.Equal(t, []int64{0, 10, 20}, offsets)
		assert.Equal(t, int64(25), walk.Offset())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exact multiple needs a trailing empty page", func(t *testing.T) {
		gormDB, mock := setupMockSource(t)
		mock.ExpectQuery(query).WillReturnRows(chunkRows(0, 10))
		mock.ExpectQuery(query).WillReturnRows(chunkRows(0, 0))

		reader := NewReader(gormDB, sourceConfig(), zap.NewNop())
		walk := reader.Walk(0, 10)

		batch, err := walk.Next(context.Background())
		require.NoError(t, err)
		require.NotNil(t, batch)
		assert.Len(t, batch.Rows, 10)

		batch, err = walk.Next(context.Background())
		require.NoError(t, err)
		assert.Nil(t, batch)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty source ends immediately", func(t *testing.T) {
		gormDB, mock := setupMockSource(t)
		mock.ExpectQuery(query).WillReturnRows(chunkRows(0, 0))

		reader := NewReader(gormDB, sourceConfig(), zap.NewNop())
		walk := reader.Walk(0, 10)

		batch, err := walk.Next(context.Background())
		require.NoError(t, err)
		assert.Nil(t, batch)
		assert.Equal(t, int64(0), walk.Offset())
	})

	t.Run("read failure poisons the walk", func(t *testing.T) {
		gormDB, mock := setupMockSource(t)
		mock.ExpectQuery(query).WillReturnError(fmt.Errorf("connection reset"))

		reader := NewReader(gormDB, sourceConfig(), zap.NewNop())
		walk := reader.Walk(0, 10)

		batch, err := walk.Next(context.Background())
		assert.ErrorIs(t, err, ErrSourceUnavailable)
		assert.Nil(t, batch)

		// Poisoned walks yield end-of-data without touching the source again.
		batch, err = walk.Next(context.Background())
		require.NoError(t, err)
		assert.Nil(t, batch)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancellation surfaces as a context error, not a source failure", func(t *testing.T) {
		gormDB, _ := setupMockSource(t)

		reader := NewReader(gormDB, sourceConfig(), zap.NewNop())
		walk := reader.Walk(0, 10)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		batch, err := walk.Next(ctx)
		assert.Nil(t, batch)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrSourceUnavailable)
	})

	t.Run("resumes from a non-zero offset", func(t *testing.T) {
		gormDB, mock := setupMockSource(t)
		mock.ExpectQuery(query).WithArgs(int64(20), 10).WillReturnRows(chunkRows(20, 3))

		reader := NewReader(gormDB, sourceConfig(), zap.NewNop())
		walk := reader.Walk(20, 10)

		batch, err := walk.Next(context.Background())
		require.NoError(t, err)
		require.NotNil(t, batch)
		assert.Equal(t, int64(20), batch.Offset)
		assert.Equal(t, int64(23), walk.Offset())
	})
}

func TestReader_RefreshStaging(t *testing.T) {
	t.Run("no-op without a configured procedure", func(t *testing.T) {
		gormDB, mock := setupMockSource(t)

		reader := NewReader(gormDB, sourceConfig(), zap.NewNop())
		require.NoError(t, reader.RefreshStaging(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("executes the procedure", func(t *testing.T) {
		gormDB, mock := setupMockSource(t)
		mock.ExpectExec("EXEC refresh_reports").WillReturnResult(sqlmock.NewResult(0, 0))

		cfg := sourceConfig()
		cfg.StagingProc = "EXEC refresh_reports"
		reader := NewReader(gormDB, cfg, zap.NewNop())
		require.NoError(t, reader.RefreshStaging(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps procedure failure", func(t *testing.T) {
		gormDB, mock := setupMockSource(t)
		mock.ExpectExec("EXEC refresh_reports").WillReturnError(fmt.Errorf("proc missing"))

		cfg := sourceConfig()
		cfg.StagingProc = "EXEC refresh_reports"
		reader := NewReader(gormDB, cfg, zap.NewNop())
		assert.ErrorIs(t, reader.RefreshStaging(context.Background()), ErrSourceUnavailable)
	})
}
