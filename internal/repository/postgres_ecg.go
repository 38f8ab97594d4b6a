package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"vitalsync/internal/domain"
)

// PostgresECGRepository 心电记录 Repository 实现
type PostgresECGRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresECGRepository 创建心电记录 Repository
func NewPostgresECGRepository(db *sql.DB, logger *zap.Logger) *PostgresECGRepository {
	return &PostgresECGRepository{db: db, logger: logger}
}

// 确保实现了接口
var _ ECGRepository = (*PostgresECGRepository)(nil)

// InsertIfAbsent 条件插入：自然键 (timestamp) 已存在时跳过
func (r *PostgresECGRepository) InsertIfAbsent(ctx context.Context, rec *domain.ECGRecording) (bool, error) {
	voltages := rec.VoltageMeasurements
	if voltages == nil {
		voltages = []domain.VoltageMeasurement{}
	}
	voltageJSON, err := json.Marshal(voltages)
	if err != nil {
		return false, fmt.Errorf("failed to marshal voltage measurements: %w", err)
	}

	var model, osVersion, appVersion string
	if rec.DeviceInfo != nil {
		model = rec.DeviceInfo.Model
		osVersion = rec.DeviceInfo.OSVersion
		appVersion = rec.DeviceInfo.AppVersion
	}

	query := `
		INSERT INTO ecg_recordings (
			timestamp, classification, average_heart_rate, sampling_frequency,
			voltage_measurements, symptom_status,
			device_model, device_os_version, device_app_version
		) VALUES ($1, $2, $3, $4, $5::jsonb, $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''))
		ON CONFLICT (timestamp) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query,
		rec.Timestamp.Time,
		int(rec.Classification),
		rec.AverageHeartRate,
		rec.SamplingFrequency,
		voltageJSON,
		rec.SymptomStatus,
		model,
		osVersion,
		appVersion,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert ecg_recording: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// QueryRange 时间范围查询（闭区间），按时间倒序，条数受 limit 限制
func (r *PostgresECGRepository) QueryRange(ctx context.Context, f TimeRangeFilter) ([]*domain.ECGRecording, error) {
	query := `
		SELECT id, timestamp, classification, average_heart_rate, sampling_frequency,
		       voltage_measurements, symptom_status,
		       device_model, device_os_version, device_app_version, created_at
		FROM ecg_recordings
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
		limit = DefaultECGQueryLimit
	}
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d", argN)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ecg_recordings: %w", err)
	}
	defer rows.Close()

	var results []*domain.ECGRecording
	for rows.Next() {
		var rec domain.ECGRecording
		var ts time.Time
		var classification int
		var avgHR, samplingFreq sql.NullFloat64
		var voltageJSON []byte
		var model, osVersion, appVersion sql.NullString

		if err := rows.Scan(
			&rec.ID,
			&ts,
			&classification,
			&avgHR,
			&samplingFreq,
			&voltageJSON,
			&rec.SymptomStatus,
			&model,
			&osVersion,
			&appVersion,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rec.Timestamp = domain.NewAPITime(ts)
		rec.Classification = domain.ECGClassification(classification)
		if avgHR.Valid {
			v := avgHR.Float64
			rec.AverageHeartRate = &v
		}
		if samplingFreq.Valid {
			v := samplingFreq.Float64
			rec.SamplingFrequency = &v
		}
		if len(voltageJSON) > 0 {
			if err := json.Unmarshal(voltageJSON, &rec.VoltageMeasurements); err != nil {
				return nil, fmt.Errorf("failed to unmarshal voltage measurements: %w", err)
			}
		}
		if rec.VoltageMeasurements == nil {
			rec.VoltageMeasurements = []domain.VoltageMeasurement{}
		}
		if model.Valid || osVersion.Valid || appVersion.Valid {
			rec.DeviceInfo = &domain.DeviceInfo{
				Model:      model.String,
				OSVersion:  osVersion.String,
				AppVersion: appVersion.String,
			}
		}

		results = append(results, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return results, nil
}

// Count 总记录数
func (r *PostgresECGRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ecg_recordings`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count ecg_recordings: %w", err)
	}
	return total, nil
}

// LatestTimestamp 最近一条记录的时间（空表返回 nil）
func (r *PostgresECGRepository) LatestTimestamp(ctx context.Context) (*time.Time, error) {
	var latest sql.NullTime
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(timestamp) FROM ecg_recordings`).Scan(&latest); err != nil {
		return nil, fmt.Errorf("failed to query latest ecg timestamp: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	t := latest.Time.UTC()
	return &t, nil
}
