package repository

import (
	"context"
	"time"

	"github.com/lib/pq"

	"vitalsync/internal/domain"
)

// 默认查询条数上限（心电记录携带电压曲线，单条体积大，上限更低）
const (
	DefaultHeartRateQueryLimit = 100
	DefaultECGQueryLimit       = 20
)

// TimeRangeFilter 时间范围查询参数（闭区间，边界可选）
type TimeRangeFilter struct {
	Start *time.Time
	End   *time.Time
	Limit int
}

// HeartRateRepository 心率采样存储接口
type HeartRateRepository interface {
	// InsertIfAbsent 按自然键条件插入：键不存在则完整写入并返回 true；
	// 已存在则不做任何修改并返回 false（判重由存储层唯一约束保证，并发安全）
	InsertIfAbsent(ctx context.Context, s *domain.HeartRateSample) (bool, error)
	QueryRange(ctx context.Context, f TimeRangeFilter) ([]*domain.HeartRateSample, error)
	Count(ctx context.Context) (int64, error)
	LatestTimestamp(ctx context.Context) (*time.Time, error)
}

// ECGRepository 心电记录存储接口
type ECGRepository interface {
	InsertIfAbsent(ctx context.Context, r *domain.ECGRecording) (bool, error)
	QueryRange(ctx context.Context, f TimeRangeFilter) ([]*domain.ECGRecording, error)
	Count(ctx context.Context) (int64, error)
	LatestTimestamp(ctx context.Context) (*time.Time, error)
}

// isUniqueViolation PostgreSQL 唯一约束冲突（23505）
// ON CONFLICT DO NOTHING 已经吸收了同语句内的冲突，这里兜底并发路径上仍可能冒出的 23505，
// 统一折叠为 duplicate 而不是错误
func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}
