package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"vitalsync/internal/domain"
	"vitalsync/internal/repository"
	"vitalsync/internal/store"
)

// IngestService 批量入库引擎
// 每条记录独立完成 解码 -> 校验 -> 设备信息补全 -> 条件插入，单条失败只计入
// Errors，不阻断同批其余记录；同一批次重放任意次，落库状态不变
type IngestService struct {
	heartRates repository.HeartRateRepository
	ecgs       repository.ECGRepository
	activity   *store.DeviceActivity
	logger     *zap.Logger
}

func NewIngestService(
	heartRates repository.HeartRateRepository,
	ecgs repository.ECGRepository,
	activity *store.DeviceActivity,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		heartRates: heartRates,
		ecgs:       ecgs,
		activity:   activity,
		logger:     logger,
	}
}

// IngestHeartRates 提交一批心率采样，返回逐条结果的汇总
func (s *IngestService) IngestHeartRates(ctx context.Context, raws []json.RawMessage, info *domain.DeviceInfo) domain.BatchOutcome {
	out := domain.BatchOutcome{Received: len(raws)}
	touched := map[string]bool{}

	for i, raw := range raws {
		var sample domain.HeartRateSample
		if err := json.Unmarshal(raw, &sample); err != nil {
			out.Errors++
			s.logger.Warn("skipping malformed heart-rate record",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		if sample.DeviceInfo.Empty() && !info.Empty() {
			sample.DeviceInfo = info
		}
		if err := sample.Validate(); err != nil {
			out.Errors++
			s.logger.Warn("rejecting invalid heart-rate record",
				zap.Int("index", i), zap.Error(err))
			continue
		}

		inserted, err := s.heartRates.InsertIfAbsent(ctx, &sample)
		if err != nil {
			out.Errors++
			s.logger.Error("failed to commit heart-rate record",
				zap.Int("index", i),
				zap.Time("timestamp", sample.Timestamp.Time),
				zap.String("source_device", sample.SourceDevice),
				zap.Error(err))
			continue
		}
		if inserted {
			out.Inserted++
		} else {
			out.Duplicates++
		}
		touched[sample.SourceDevice] = true
	}

	now := time.Now()
	for device := range touched {
		s.activity.Touch(ctx, "heartrate", device, now)
	}

	s.logger.Info("heart-rate batch processed",
		zap.Int("received", out.Received),
		zap.Int("inserted", out.Inserted),
		zap.Int("duplicates", out.Duplicates),
		zap.Int("errors", out.Errors))
	return out
}

// IngestECGs 提交一批心电记录，返回逐条结果的汇总
func (s *IngestService) IngestECGs(ctx context.Context, raws []json.RawMessage, info *domain.DeviceInfo) domain.BatchOutcome {
	out := domain.BatchOutcome{Received: len(raws)}
	committed := false

	for i, raw := range raws {
		var rec domain.ECGRecording
		if err := json.Unmarshal(raw, &rec); err != nil {
			out.Errors++
			s.logger.Warn("skipping malformed ecg record",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		if rec.DeviceInfo.Empty() && !info.Empty() {
			rec.DeviceInfo = info
		}
		if err := rec.Validate(); err != nil {
			out.Errors++
			s.logger.Warn("rejecting invalid ecg record",
				zap.Int("index", i), zap.Error(err))
			continue
		}

		inserted, err := s.ecgs.InsertIfAbsent(ctx, &rec)
		if err != nil {
			out.Errors++
			s.logger.Error("failed to commit ecg record",
				zap.Int("index", i),
				zap.Time("timestamp", rec.Timestamp.Time),
				zap.Error(err))
			continue
		}
		if inserted {
			out.Inserted++
		} else {
			out.Duplicates++
		}
		committed = true
	}

	if committed && !info.Empty() {
		s.activity.Touch(ctx, "ecg", info.Model, time.Now())
	}

	s.logger.Info("ecg batch processed",
		zap.Int("received", out.Received),
		zap.Int("inserted", out.Inserted),
		zap.Int("duplicates", out.Duplicates),
		zap.Int("errors", out.Errors))
	return out
}
