package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"vitalsync/internal/domain"
)

// Client vitalsync 服务端 API 客户端
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient 创建 API 客户端（网络抖动由 resty 重试吸收，整批重放是安全的）
func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-API-Key", apiKey)

	return &Client{
		httpClient: client,
		logger:     logger,
	}
}

var _ Transmitter = (*Client)(nil)

type ingestResponse struct {
	Success bool                `json:"success"`
	Stats   domain.BatchOutcome `json:"stats"`
	Error   string              `json:"error"`
}

func (c *Client) push(ctx context.Context, path string, body any, count int) (*domain.BatchOutcome, error) {
	c.logger.Info("Pushing batch to ingest API",
		zap.String("path", path),
		zap.Int("records", count))

	var response ingestResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&response).
		SetError(&response).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("failed to call ingest API: %w", err)
	}
	if resp.IsError() || !response.Success {
		msg := response.Error
		if msg == "" {
			msg = resp.Status()
		}
		return nil, fmt.Errorf("ingest API rejected batch: %s", msg)
	}

	c.logger.Info("Batch acknowledged",
		zap.String("path", path),
		zap.Int("received", response.Stats.Received),
		zap.Int("inserted", response.Stats.Inserted),
		zap.Int("duplicates", response.Stats.Duplicates),
		zap.Int("errors", response.Stats.Errors))
	return &response.Stats, nil
}

// PushHeartRates 上送一批心率采样
func (c *Client) PushHeartRates(ctx context.Context, samples []*domain.HeartRateSample, info *domain.DeviceInfo) (*domain.BatchOutcome, error) {
	body := map[string]any{"data": samples, "deviceInfo": info}
	return c.push(ctx, "/health-data/heartrate", body, len(samples))
}

// PushECGs 上送一批心电记录
func (c *Client) PushECGs(ctx context.Context, recordings []*domain.ECGRecording, info *domain.DeviceInfo) (*domain.BatchOutcome, error) {
	body := map[string]any{"data": recordings, "deviceInfo": info}
	return c.push(ctx, "/health-data/ecg", body, len(recordings))
}
