package domain

import (
	"errors"
	"fmt"
	"time"
)

// ECGClassification 心电图分类（闭合枚举，未知值在校验边界拒绝）
type ECGClassification int

const (
	ECGClassificationUnset ECGClassification = iota
	ECGClassificationSinusRhythm
	ECGClassificationAtrialFibrillation
	ECGClassificationInconclusiveLowHeartRate
	ECGClassificationInconclusiveHighHeartRate
	ECGClassificationInconclusivePoorReading
)

// Valid 是否为已知分类码
func (c ECGClassification) Valid() bool {
	return c >= ECGClassificationUnset && c <= ECGClassificationInconclusivePoorReading
}

func (c ECGClassification) String() string {
	switch c {
	case ECGClassificationUnset:
		return "unset"
	case ECGClassificationSinusRhythm:
		return "sinusRhythm"
	case ECGClassificationAtrialFibrillation:
		return "atrialFibrillation"
	case ECGClassificationInconclusiveLowHeartRate:
		return "inconclusiveLowHR"
	case ECGClassificationInconclusiveHighHeartRate:
		return "inconclusiveHighHR"
	case ECGClassificationInconclusivePoorReading:
		return "inconclusivePoorReading"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// VoltageMeasurement 心电电压采样点（顺序敏感，内部不去重）
type VoltageMeasurement struct {
	TimeSinceStart float64  `json:"timeSinceStart"`
	Voltage        *float64 `json:"voltage,omitempty"`
}

// ECGRecording 单次心电记录
// 自然键: timestamp（模型假设同一时刻不会产生两条不同的心电记录）
type ECGRecording struct {
	ID                  int64                `json:"-"`
	Timestamp           APITime              `json:"timestamp"`
	Classification      ECGClassification    `json:"classification"`
	AverageHeartRate    *float64             `json:"averageHeartRate,omitempty"`
	SamplingFrequency   *float64             `json:"samplingFrequency,omitempty"`
	VoltageMeasurements []VoltageMeasurement `json:"voltageMeasurements"`
	SymptomStatus       int                  `json:"symptomStatus"`
	DeviceInfo          *DeviceInfo          `json:"deviceInfo,omitempty"`
	CreatedAt           time.Time            `json:"-"`
}

// NaturalKey 派生自然键（仅时间戳，与设备无关）
func (r *ECGRecording) NaturalKey() int64 {
	return r.Timestamp.UnixMilli()
}

// Validate 入库前校验
func (r *ECGRecording) Validate() error {
	if r.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	if !r.Classification.Valid() {
		return fmt.Errorf("unknown classification code %d", int(r.Classification))
	}
	if r.AverageHeartRate != nil && (*r.AverageHeartRate < 0 || *r.AverageHeartRate > MaxHeartRate) {
		return fmt.Errorf("averageHeartRate %.1f out of range [0, %d]", *r.AverageHeartRate, MaxHeartRate)
	}
	if r.SamplingFrequency != nil && *r.SamplingFrequency <= 0 {
		return errors.New("samplingFrequency must be positive")
	}
	return nil
}
