package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"vitalsync/internal/domain"
)

// MemoryHeartRateRepo: 用于 DB 未就绪时的联测与单元测试
// - 以自然键为 map key，与 Postgres 唯一约束同语义
// - 数据不持久化
type MemoryHeartRateRepo struct {
	mu      sync.RWMutex
	samples map[domain.HeartRateKey]*domain.HeartRateSample
	nextID  int64
}

func NewMemoryHeartRateRepo() *MemoryHeartRateRepo {
	return &MemoryHeartRateRepo{
		samples: map[domain.HeartRateKey]*domain.HeartRateSample{},
	}
}

var _ HeartRateRepository = (*MemoryHeartRateRepo)(nil)

func (r *MemoryHeartRateRepo) InsertIfAbsent(_ context.Context, s *domain.HeartRateSample) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := s.NaturalKey()
	if _, ok := r.samples[key]; ok {
		return false, nil
	}

	r.nextID++
	stored := *s
	stored.ID = r.nextID
	stored.CreatedAt = time.Now().UTC()
	r.samples[key] = &stored
	return true, nil
}

func (r *MemoryHeartRateRepo) QueryRange(_ context.Context, f TimeRangeFilter) ([]*domain.HeartRateSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*domain.HeartRateSample, 0)
	for _, s := range r.samples {
		if inRange(s.Timestamp.Time, f.Start, f.End) {
			copied := *s
			results = append(results, &copied)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp.Time)
	})

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultHeartRateQueryLimit
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (r *MemoryHeartRateRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.samples)), nil
}

func (r *MemoryHeartRateRepo) LatestTimestamp(_ context.Context) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *time.Time
	for _, s := range r.samples {
		t := s.Timestamp.Time
		if latest == nil || t.After(*latest) {
			copied := t
			latest = &copied
		}
	}
	return latest, nil
}

// MemoryECGRepo: 心电记录的内存实现，自然键为毫秒时间戳
type MemoryECGRepo struct {
	mu         sync.RWMutex
	recordings map[int64]*domain.ECGRecording
	nextID     int64
}

func NewMemoryECGRepo() *MemoryECGRepo {
	return &MemoryECGRepo{
		recordings: map[int64]*domain.ECGRecording{},
	}
}

var _ ECGRepository = (*MemoryECGRepo)(nil)

func (r *MemoryECGRepo) InsertIfAbsent(_ context.Context, rec *domain.ECGRecording) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := rec.NaturalKey()
	if _, ok := r.recordings[key]; ok {
		return false, nil
	}

	r.nextID++
	stored := *rec
	stored.ID = r.nextID
	stored.CreatedAt = time.Now().UTC()
	if stored.VoltageMeasurements == nil {
		stored.VoltageMeasurements = []domain.VoltageMeasurement{}
	}
	r.recordings[key] = &stored
	return true, nil
}

func (r *MemoryECGRepo) QueryRange(_ context.Context, f TimeRangeFilter) ([]*domain.ECGRecording, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*domain.ECGRecording, 0)
	for _, rec := range r.recordings {
		if inRange(rec.Timestamp.Time, f.Start, f.End) {
			copied := *rec
			results = append(results, &copied)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp.Time)
	})

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultECGQueryLimit
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (r *MemoryECGRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.recordings)), nil
}

func (r *MemoryECGRepo) LatestTimestamp(_ context.Context) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *time.Time
	for _, rec := range r.recordings {
		t := rec.Timestamp.Time
		if latest == nil || t.After(*latest) {
			copied := t
			latest = &copied
		}
	}
	return latest, nil
}

// inRange 闭区间判断，边界可选
func inRange(t time.Time, start, end *time.Time) bool {
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && t.After(*end) {
		return false
	}
	return true
}
