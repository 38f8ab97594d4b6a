package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"vitalsync/internal/domain"
)

// PostgresHeartRateRepository 心率采样 Repository 实现
type PostgresHeartRateRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresHeartRateRepository 创建心率采样 Repository
func NewPostgresHeartRateRepository(db *sql.DB, logger *zap.Logger) *PostgresHeartRateRepository {
	return &PostgresHeartRateRepository{db: db, logger: logger}
}

// 确保实现了接口
var _ HeartRateRepository = (*PostgresHeartRateRepository)(nil)

// InsertIfAbsent 条件插入：自然键 (timestamp, heart_rate, source_device) 已存在时跳过
func (r *PostgresHeartRateRepository) InsertIfAbsent(ctx context.Context, s *domain.HeartRateSample) (bool, error) {
	query := `
		INSERT INTO heart_rate_samples (
			timestamp, heart_rate, source_device, metadata_json,
			device_model, device_os_version, device_app_version
		) VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''))
		ON CONFLICT (timestamp, heart_rate, source_device) DO NOTHING
	`

	var model, osVersion, appVersion string
	if s.DeviceInfo != nil {
		model = s.DeviceInfo.Model
		osVersion = s.DeviceInfo.OSVersion
		appVersion = s.DeviceInfo.AppVersion
	}

	res, err := r.db.ExecContext(ctx, query,
		s.Timestamp.Time,
		s.HeartRate,
		s.SourceDevice,
		s.MetadataJSON,
		model,
		osVersion,
		appVersion,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert heart_rate_sample: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// QueryRange 时间范围查询（闭区间），按时间倒序，条数受 limit 限制
func (r *PostgresHeartRateRepository) QueryRange(ctx context.Context, f TimeRangeFilter) ([]*domain.HeartRateSample, error) {
	query := `
		SELECT id, timestamp, heart_rate, source_device, metadata_json,
		       device_model, device_os_version, device_app_version, created_at
		FROM heart_rate_samples
	`

	var where []string
	args := []interface{}{}
	argN := 1

	if f.Start != nil {
		where = append(where, fmt.Sprintf("timestamp >= $%d", argN))
		args = append(args, *f.Start)
		argN++
	}
	if f.End != nil {
		where = append(where, fmt.Sprintf("timestamp <= $%d", argN))
		args = append(args, *f.End)
		argN++
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultHeartRateQueryLimit
	}
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d", argN)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query heart_rate_samples: %w", err)
	}
	defer rows.Close()

	var results []*domain.HeartRateSample
	for rows.Next() {
		var s domain.HeartRateSample
		var ts time.Time
		var metadata, model, osVersion, appVersion sql.NullString

		if err := rows.Scan(
			&s.ID,
			&ts,
			&s.HeartRate,
			&s.SourceDevice,
			&metadata,
			&model,
			&osVersion,
			&appVersion,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		s.Timestamp = domain.NewAPITime(ts)
		if metadata.Valid {
			s.MetadataJSON = metadata.String
		}
		if model.Valid || osVersion.Valid || appVersion.Valid {
			s.DeviceInfo = &domain.DeviceInfo{
				Model:      model.String,
				OSVersion:  osVersion.String,
				AppVersion: appVersion.String,
			}
		}

		results = append(results, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return results, nil
}

// Count 总记录数
func (r *PostgresHeartRateRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM heart_rate_samples`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count heart_rate_samples: %w", err)
	}
	return total, nil
}

// LatestTimestamp 最近一条采样的时间（空表返回 nil）
func (r *PostgresHeartRateRepository) LatestTimestamp(ctx context.Context) (*time.Time, error) {
	var latest sql.NullTime
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(timestamp) FROM heart_rate_samples`).Scan(&latest); err != nil {
		return nil, fmt.Errorf("failed to query latest heart_rate timestamp: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	t := latest.Time.UTC()
	return &t, nil
}
