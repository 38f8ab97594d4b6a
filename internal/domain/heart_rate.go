package domain

import (
	"errors"
	"fmt"
	"time"
)

// MaxHeartRate 心率合法上限（BPM）
const MaxHeartRate = 300

// HeartRateSample 单次心率采样
// 自然键: (timestamp, heart_rate, source_device)
type HeartRateSample struct {
	ID           int64       `json:"-"`
	Timestamp    APITime     `json:"timestamp"`
	HeartRate    float64     `json:"heartRate"`
	SourceDevice string      `json:"sourceDevice"`
	MetadataJSON string      `json:"metadataJSON,omitempty"`
	DeviceInfo   *DeviceInfo `json:"deviceInfo,omitempty"`
	CreatedAt    time.Time   `json:"-"`
}

// HeartRateKey 心率采样的自然键
// 同键的两条采样视为同一次观测，存储层保证至多保留一条
type HeartRateKey struct {
	UnixMilli    int64
	HeartRate    float64
	SourceDevice string
}

// NaturalKey 派生自然键（时间戳已在反序列化时归一化为毫秒精度）
func (s *HeartRateSample) NaturalKey() HeartRateKey {
	return HeartRateKey{
		UnixMilli:    s.Timestamp.UnixMilli(),
		HeartRate:    s.HeartRate,
		SourceDevice: s.SourceDevice,
	}
}

// Validate 入库前校验
func (s *HeartRateSample) Validate() error {
	if s.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	if s.HeartRate < 0 || s.HeartRate > MaxHeartRate {
		return fmt.Errorf("heartRate %.1f out of range [0, %d]", s.HeartRate, MaxHeartRate)
	}
	if s.SourceDevice == "" {
		return errors.New("sourceDevice is required")
	}
	return nil
}
