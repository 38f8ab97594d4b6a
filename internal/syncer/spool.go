package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"vitalsync/internal/domain"
)

// FileExtractor 从本地 JSON spool 文件读取待同步数据
// 平台相关的采集链路在别处落盘，这里只做窗口过滤
type FileExtractor struct {
	path string
}

func NewFileExtractor(path string) *FileExtractor {
	return &FileExtractor{path: path}
}

var _ Extractor = (*FileExtractor)(nil)

type spoolFile struct {
	HeartRateSamples []*domain.HeartRateSample `json:"heartRateSamples"`
	ECGRecordings    []*domain.ECGRecording    `json:"ecgRecordings"`
}

func (e *FileExtractor) load() (*spoolFile, error) {
	data, err := os.ReadFile(e.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &spoolFile{}, nil
		}
		return nil, fmt.Errorf("failed to read spool file: %w", err)
	}

	var f spoolFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse spool file: %w", err)
	}
	return &f, nil
}

// HeartRates 返回 [start, end) 窗口内的心率采样
func (e *FileExtractor) HeartRates(_ context.Context, start, end time.Time) ([]*domain.HeartRateSample, error) {
	f, err := e.load()
	if err != nil {
		return nil, err
	}

	var results []*domain.HeartRateSample
	for _, s := range f.HeartRateSamples {
		if inWindow(s.Timestamp.Time, start, end) {
			results = append(results, s)
		}
	}
	return results, nil
}

// ECGs 返回 [start, end) 窗口内的心电记录
func (e *FileExtractor) ECGs(_ context.Context, start, end time.Time) ([]*domain.ECGRecording, error) {
	f, err := e.load()
	if err != nil {
		return nil, err
	}

	var results []*domain.ECGRecording
	for _, r := range f.ECGRecordings {
		if inWindow(r.Timestamp.Time, start, end) {
			results = append(results, r)
		}
	}
	return results, nil
}

// inWindow 半开区间 [start, end)
func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
