package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"vitalsync/internal/domain"
)

// State 同步会话状态机: Idle -> Extracting -> Transmitting -> Succeeded | Failed
type State int32

const (
	StateIdle State = iota
	StateExtracting
	StateTransmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExtracting:
		return "extracting"
	case StateTransmitting:
		return "transmitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrSyncInProgress 会话单飞：同一游标同时只允许一个会话
var ErrSyncInProgress = errors.New("sync session already in progress")

// Extractor 设备本地数据源，产出 [start, end) 窗口内的采样
// 硬件/系统数据源的细节在接口之后，不属于本模块
type Extractor interface {
	HeartRates(ctx context.Context, start, end time.Time) ([]*domain.HeartRateSample, error)
	ECGs(ctx context.Context, start, end time.Time) ([]*domain.ECGRecording, error)
}

// Transmitter 批次上送通道（HTTP API 客户端）
type Transmitter interface {
	PushHeartRates(ctx context.Context, samples []*domain.HeartRateSample, info *domain.DeviceInfo) (*domain.BatchOutcome, error)
	PushECGs(ctx context.Context, recordings []*domain.ECGRecording, info *domain.DeviceInfo) (*domain.BatchOutcome, error)
}

// Syncer 设备侧同步会话执行器
type Syncer struct {
	cursor      *CursorStore
	extractor   Extractor
	transmitter Transmitter
	device      domain.DeviceInfo
	logger      *zap.Logger

	running atomic.Bool
	state   atomic.Int32

	now func() time.Time
}

func NewSyncer(
	cursor *CursorStore,
	extractor Extractor,
	transmitter Transmitter,
	device domain.DeviceInfo,
	logger *zap.Logger,
) *Syncer {
	return &Syncer{
		cursor:      cursor,
		extractor:   extractor,
		transmitter: transmitter,
		device:      device,
		logger:      logger,
		now:         time.Now,
	}
}

// State 当前会话状态
func (s *Syncer) State() State {
	return State(s.state.Load())
}

func (s *Syncer) setState(st State) {
	s.state.Store(int32(st))
}

// Run 执行一轮同步会话
// 两种记录都被服务端完整确认后才推进游标；任何一种失败（包括取消）都保持
// 游标不动，整个窗口留待下一轮重发
func (s *Syncer) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrSyncInProgress
	}
	defer s.running.Store(false)

	start, end, err := s.cursor.Window(s.now())
	if err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("failed to compute sync window: %w", err)
	}

	s.logger.Info("sync session started",
		zap.Time("window_start", start),
		zap.Time("window_end", end))

	s.setState(StateExtracting)
	heartRates, err := s.extractor.HeartRates(ctx, start, end)
	if err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("failed to extract heart-rate samples: %w", err)
	}
	ecgs, err := s.extractor.ECGs(ctx, start, end)
	if err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("failed to extract ecg recordings: %w", err)
	}

	s.setState(StateTransmitting)
	if err := s.transmitHeartRates(ctx, heartRates); err != nil {
		s.setState(StateFailed)
		return err
	}
	if err := s.transmitECGs(ctx, ecgs); err != nil {
		s.setState(StateFailed)
		return err
	}

	if err := s.cursor.Advance(end); err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("failed to advance sync cursor: %w", err)
	}

	s.setState(StateSucceeded)
	s.logger.Info("sync session succeeded",
		zap.Int("heart_rate_samples", len(heartRates)),
		zap.Int("ecg_recordings", len(ecgs)),
		zap.Time("cursor", end))
	return nil
}

func (s *Syncer) transmitHeartRates(ctx context.Context, samples []*domain.HeartRateSample) error {
	if len(samples) == 0 {
		return nil
	}
	outcome, err := s.transmitter.PushHeartRates(ctx, samples, &s.device)
	if err != nil {
		return fmt.Errorf("failed to transmit heart-rate batch: %w", err)
	}
	return checkOutcome("heart-rate", outcome, len(samples))
}

func (s *Syncer) transmitECGs(ctx context.Context, recordings []*domain.ECGRecording) error {
	if len(recordings) == 0 {
		return nil
	}
	outcome, err := s.transmitter.PushECGs(ctx, recordings, &s.device)
	if err != nil {
		return fmt.Errorf("failed to transmit ecg batch: %w", err)
	}
	return checkOutcome("ecg", outcome, len(recordings))
}

// checkOutcome 调用方侧对账：服务端必须确认收到全部记录且无错误，
// 否则本轮不算成功（游标不推进，整窗重发是安全的）
func checkOutcome(kind string, outcome *domain.BatchOutcome, sent int) error {
	if outcome.Received != sent {
		return fmt.Errorf("%s batch: server received %d of %d records", kind, outcome.Received, sent)
	}
	if !outcome.Clean() {
		return fmt.Errorf("%s batch: server reported %d errors (inserted=%d duplicates=%d)",
			kind, outcome.Errors, outcome.Inserted, outcome.Duplicates)
	}
	return nil
}
