package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"vitalsync/internal/domain"
	"vitalsync/internal/repository"
	"vitalsync/internal/store"
)

// StoreSummary 运维侧的总量统计（检测同步停滞用）
type StoreSummary struct {
	TotalHeartRateSamples    int64             `json:"totalHeartRateSamples"`
	TotalECGRecordings       int64             `json:"totalECGRecordings"`
	LatestHeartRateTimestamp *domain.APITime   `json:"latestHeartRateTimestamp"`
	LatestECGTimestamp       *domain.APITime   `json:"latestECGTimestamp"`
	Devices                  map[string]string `json:"devices,omitempty"`
}

// StatsService 读侧统计
type StatsService struct {
	heartRates repository.HeartRateRepository
	ecgs       repository.ECGRepository
	activity   *store.DeviceActivity
	logger     *zap.Logger
}

func NewStatsService(
	heartRates repository.HeartRateRepository,
	ecgs repository.ECGRepository,
	activity *store.DeviceActivity,
	logger *zap.Logger,
) *StatsService {
	return &StatsService{
		heartRates: heartRates,
		ecgs:       ecgs,
		activity:   activity,
		logger:     logger,
	}
}

// Summary 每种记录的总条数与最近时间戳
func (s *StatsService) Summary(ctx context.Context) (*StoreSummary, error) {
	summary := &StoreSummary{}

	total, err := s.heartRates.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count heart-rate samples: %w", err)
	}
	summary.TotalHeartRateSamples = total

	total, err = s.ecgs.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count ecg recordings: %w", err)
	}
	summary.TotalECGRecordings = total

	if latest, err := s.heartRates.LatestTimestamp(ctx); err != nil {
		return nil, fmt.Errorf("failed to read latest heart-rate timestamp: %w", err)
	} else if latest != nil {
		t := domain.NewAPITime(*latest)
		summary.LatestHeartRateTimestamp = &t
	}

	if latest, err := s.ecgs.LatestTimestamp(ctx); err != nil {
		return nil, fmt.Errorf("failed to read latest ecg timestamp: %w", err)
	} else if latest != nil {
		t := domain.NewAPITime(*latest)
		summary.LatestECGTimestamp = &t
	}

	// 设备活跃信息来自 Redis，缺失或故障时降级为不带 devices 字段
	if seen, err := s.activity.LastSeen(ctx); err != nil {
		s.logger.Warn("failed to read device activity", zap.Error(err))
	} else if len(seen) > 0 {
		summary.Devices = seen
	}

	return summary, nil
}
