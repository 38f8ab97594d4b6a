package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vitalsync/internal/domain"
)

func newHeartRateSample(t time.Time) *domain.HeartRateSample {
	return &domain.HeartRateSample{
		Timestamp:    domain.NewAPITime(t),
		HeartRate:    72,
		SourceDevice: "Apple Watch",
		MetadataJSON: `{"context":"resting"}`,
		DeviceInfo:   &domain.DeviceInfo{Model: "Watch7,1", OSVersion: "11.0", AppVersion: "1.2.0"},
	}
}

func TestHeartRateInsertIfAbsent_Inserted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresHeartRateRepository(db, zap.NewNop())
	sample := newHeartRateSample(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC))

	mock.ExpectExec("INSERT INTO heart_rate_samples").
		WithArgs(sample.Timestamp.Time, sample.HeartRate, sample.SourceDevice,
			sample.MetadataJSON, "Watch7,1", "11.0", "1.2.0").
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.InsertIfAbsent(context.Background(), sample)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHeartRateInsertIfAbsent_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresHeartRateRepository(db, zap.NewNop())
	sample := newHeartRateSample(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC))

	// ON CONFLICT DO NOTHING: 冲突时语句成功但影响 0 行
	mock.ExpectExec("INSERT INTO heart_rate_samples").
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.InsertIfAbsent(context.Background(), sample)
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestHeartRateInsertIfAbsent_UniqueViolationFoldsToDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresHeartRateRepository(db, zap.NewNop())
	sample := newHeartRateSample(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC))

	mock.ExpectExec("INSERT INTO heart_rate_samples").
		WillReturnError(&pq.Error{Code: "23505"})

	inserted, err := repo.InsertIfAbsent(context.Background(), sample)
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestHeartRateQueryRange(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresHeartRateRepository(db, zap.NewNop())

	start := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	later := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	earlier := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "timestamp", "heart_rate", "source_device", "metadata_json",
		"device_model", "device_os_version", "device_app_version", "created_at",
	}).
		AddRow(int64(2), later, 85.0, "Apple Watch", nil, "Watch7,1", nil, nil, time.Now()).
		AddRow(int64(1), earlier, 72.0, "Apple Watch", `{"context":"resting"}`, nil, nil, nil, time.Now())

	mock.ExpectQuery("SELECT (.+) FROM heart_rate_samples WHERE timestamp >= \\$1 AND timestamp <= \\$2 ORDER BY timestamp DESC LIMIT \\$3").
		WithArgs(start, end, 50).
		WillReturnRows(rows)

	results, err := repo.QueryRange(context.Background(), TimeRangeFilter{Start: &start, End: &end, Limit: 50})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 85.0, results[0].HeartRate)
	require.NotNil(t, results[0].DeviceInfo)
	assert.Equal(t, "Watch7,1", results[0].DeviceInfo.Model)
	assert.Equal(t, `{"context":"resting"}`, results[1].MetadataJSON)
	assert.Nil(t, results[1].DeviceInfo)
}

func TestHeartRateQueryRange_DefaultLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresHeartRateRepository(db, zap.NewNop())

	mock.ExpectQuery("SELECT (.+) FROM heart_rate_samples ORDER BY timestamp DESC LIMIT \\$1").
		WithArgs(DefaultHeartRateQueryLimit).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "timestamp", "heart_rate", "source_device", "metadata_json",
			"device_model", "device_os_version", "device_app_version", "created_at",
		}))

	results, err := repo.QueryRange(context.Background(), TimeRangeFilter{})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHeartRateCountAndLatest(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresHeartRateRepository(db, zap.NewNop())

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM heart_rate_samples").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	total, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), total)

	latest := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT MAX\\(timestamp\\) FROM heart_rate_samples").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(latest))

	got, err := repo.LatestTimestamp(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(latest))
}

func TestHeartRateLatestTimestamp_EmptyTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresHeartRateRepository(db, zap.NewNop())

	mock.ExpectQuery("SELECT MAX\\(timestamp\\) FROM heart_rate_samples").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	got, err := repo.LatestTimestamp(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}
