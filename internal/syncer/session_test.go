package syncer

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vitalsync/internal/domain"
)

type fakeExtractor struct {
	heartRates []*domain.HeartRateSample
	ecgs       []*domain.ECGRecording
	hrErr      error
	ecgErr     error
}

func (f *fakeExtractor) HeartRates(_ context.Context, _, _ time.Time) ([]*domain.HeartRateSample, error) {
	return f.heartRates, f.hrErr
}

func (f *fakeExtractor) ECGs(_ context.Context, _, _ time.Time) ([]*domain.ECGRecording, error) {
	return f.ecgs, f.ecgErr
}

type fakeTransmitter struct {
	mu        sync.Mutex
	hrCalls   int
	ecgCalls  int
	hrErr     error
	ecgErr    error
	hrOutcome func(sent int) *domain.BatchOutcome
	block     chan struct{}
}

func cleanOutcome(sent int) *domain.BatchOutcome {
	return &domain.BatchOutcome{Received: sent, Inserted: sent}
}

func (f *fakeTransmitter) PushHeartRates(_ context.Context, samples []*domain.HeartRateSample, _ *domain.DeviceInfo) (*domain.BatchOutcome, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.hrCalls++
	f.mu.Unlock()
	if f.hrErr != nil {
		return nil, f.hrErr
	}
	if f.hrOutcome != nil {
		return f.hrOutcome(len(samples)), nil
	}
	return cleanOutcome(len(samples)), nil
}

func (f *fakeTransmitter) PushECGs(_ context.Context, recordings []*domain.ECGRecording, _ *domain.DeviceInfo) (*domain.BatchOutcome, error) {
	f.mu.Lock()
	f.ecgCalls++
	f.mu.Unlock()
	if f.ecgErr != nil {
		return nil, f.ecgErr
	}
	return cleanOutcome(len(recordings)), nil
}

func newTestSyncer(t *testing.T, extractor Extractor, transmitter Transmitter) (*Syncer, *CursorStore) {
	t.Helper()
	cursor := NewCursorStore(filepath.Join(t.TempDir(), "cursor.json"))
	s := NewSyncer(cursor, extractor, transmitter,
		domain.DeviceInfo{Model: "Watch7,1"}, zap.NewNop())
	return s, cursor
}

func sampleAt(t time.Time) *domain.HeartRateSample {
	return &domain.HeartRateSample{
		Timestamp:    domain.NewAPITime(t),
		HeartRate:    72,
		SourceDevice: "Apple Watch",
	}
}

func TestSyncer_SuccessAdvancesCursor(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	extractor := &fakeExtractor{
		heartRates: []*domain.HeartRateSample{sampleAt(now.Add(-time.Hour))},
		ecgs:       []*domain.ECGRecording{{Timestamp: domain.NewAPITime(now.Add(-time.Hour))}},
	}
	transmitter := &fakeTransmitter{}

	s, cursor := newTestSyncer(t, extractor, transmitter)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, StateSucceeded, s.State())
	assert.Equal(t, 1, transmitter.hrCalls)
	assert.Equal(t, 1, transmitter.ecgCalls)

	last, err := cursor.Last()
	require.NoError(t, err)
	assert.True(t, last.Equal(now))
}

func TestSyncer_EmptyWindowStillAdvances(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	transmitter := &fakeTransmitter{}

	s, cursor := newTestSyncer(t, &fakeExtractor{}, transmitter)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Run(context.Background()))
	// 空窗口不发起请求，但游标照常推进
	assert.Zero(t, transmitter.hrCalls)
	assert.Zero(t, transmitter.ecgCalls)

	last, err := cursor.Last()
	require.NoError(t, err)
	assert.True(t, last.Equal(now))
}

func TestSyncer_TransmitFailureKeepsCursor(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	extractor := &fakeExtractor{
		heartRates: []*domain.HeartRateSample{sampleAt(now.Add(-time.Hour))},
		ecgs:       []*domain.ECGRecording{{Timestamp: domain.NewAPITime(now.Add(-time.Hour))}},
	}
	transmitter := &fakeTransmitter{ecgErr: errors.New("connection reset")}

	s, cursor := newTestSyncer(t, extractor, transmitter)
	s.now = func() time.Time { return now }

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, s.State())

	// 心率已发出、心电失败：游标保持不动，下一轮整窗重发
	last, cursorErr := cursor.Last()
	require.NoError(t, cursorErr)
	assert.True(t, last.IsZero())
}

func TestSyncer_ExtractFailure(t *testing.T) {
	extractor := &fakeExtractor{hrErr: errors.New("store unavailable")}
	transmitter := &fakeTransmitter{}

	s, cursor := newTestSyncer(t, extractor, transmitter)

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, s.State())
	assert.Zero(t, transmitter.hrCalls)

	last, cursorErr := cursor.Last()
	require.NoError(t, cursorErr)
	assert.True(t, last.IsZero())
}

func TestSyncer_IncompleteAckKeepsCursor(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	extractor := &fakeExtractor{
		heartRates: []*domain.HeartRateSample{sampleAt(now.Add(-time.Hour))},
	}
	// 服务端回报 errors > 0：批次未被完整落库
	transmitter := &fakeTransmitter{
		hrOutcome: func(sent int) *domain.BatchOutcome {
			return &domain.BatchOutcome{Received: sent, Errors: sent}
		},
	}

	s, cursor := newTestSyncer(t, extractor, transmitter)
	s.now = func() time.Time { return now }

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, s.State())

	last, cursorErr := cursor.Last()
	require.NoError(t, cursorErr)
	assert.True(t, last.IsZero())
}

func TestSyncer_SingleFlight(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	block := make(chan struct{})
	extractor := &fakeExtractor{
		heartRates: []*domain.HeartRateSample{sampleAt(now.Add(-time.Hour))},
	}
	transmitter := &fakeTransmitter{block: block}

	s, _ := newTestSyncer(t, extractor, transmitter)
	s.now = func() time.Time { return now }

	firstDone := make(chan error, 1)
	go func() { firstDone <- s.Run(context.Background()) }()

	// 等首个会话进入传输阶段后再并发触发
	require.Eventually(t, func() bool {
		return s.State() == StateTransmitting
	}, time.Second, 5*time.Millisecond)

	err := s.Run(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)

	close(block)
	require.NoError(t, <-firstDone)
}

func TestCheckOutcome(t *testing.T) {
	clean := &domain.BatchOutcome{Received: 3, Inserted: 2, Duplicates: 1}
	assert.NoError(t, checkOutcome("heart-rate", clean, 3))

	short := &domain.BatchOutcome{Received: 2, Inserted: 2}
	assert.Error(t, checkOutcome("heart-rate", short, 3))

	withErrors := &domain.BatchOutcome{Received: 3, Inserted: 2, Errors: 1}
	assert.Error(t, checkOutcome("ecg", withErrors, 3))
}
