package store

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	activityKeyPrefix = "vitalsync:last-ingest:"
	activityTTL       = 30 * 24 * time.Hour
)

// DeviceActivity 记录每个来源设备最近一次成功入库的时间
// 仅供运维侧 stats 观察同步是否停滞，不参与判重；Redis 不可用不影响入库
type DeviceActivity struct {
	kv     KV
	logger *zap.Logger
}

func NewDeviceActivity(kv KV, logger *zap.Logger) *DeviceActivity {
	return &DeviceActivity{kv: kv, logger: logger}
}

// Touch 更新 <kind>:<device> 的最近入库时间
func (a *DeviceActivity) Touch(ctx context.Context, kind, device string, t time.Time) {
	if a == nil || a.kv == nil || device == "" {
		return
	}
	key := activityKeyPrefix + kind + ":" + device
	if err := a.kv.Set(ctx, key, t.UTC().Format(time.RFC3339), activityTTL); err != nil {
		a.logger.Warn("failed to record device activity", zap.String("key", key), zap.Error(err))
	}
}

// LastSeen 返回 "<kind>:<device>" -> 最近入库时间（RFC3339）
func (a *DeviceActivity) LastSeen(ctx context.Context) (map[string]string, error) {
	if a == nil || a.kv == nil {
		return map[string]string{}, nil
	}
	keys, err := a.kv.ScanKeys(ctx, activityKeyPrefix+"*")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]string, len(keys))
	for _, key := range keys {
		val, err := a.kv.Get(ctx, key)
		if err != nil {
			continue
		}
		seen[strings.TrimPrefix(key, activityKeyPrefix)] = val
	}
	return seen, nil
}
