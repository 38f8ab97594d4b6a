package syncer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultLookback 无历史游标时的首轮同步窗口
const DefaultLookback = 7 * 24 * time.Hour

// CursorStore 同步游标：最近一次成功同步的结束时刻，持久化到本地文件
// 只有整个会话（两种记录都被确认）成功后才推进；失败时保持不动，
// 下一轮重发同一窗口，靠服务端 insert-if-absent 吸收重复
type CursorStore struct {
	path string
	mu   sync.Mutex
}

type cursorFile struct {
	LastSyncAt time.Time `json:"last_sync_at"`
}

func NewCursorStore(path string) *CursorStore {
	return &CursorStore{path: path}
}

// Last 读取游标（文件缺失返回零值）
func (c *CursorStore) Last() (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to read cursor file: %w", err)
	}

	var f cursorFile
	if err := json.Unmarshal(data, &f); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse cursor file: %w", err)
	}
	return f.LastSyncAt.UTC(), nil
}

// Window 计算本轮同步窗口 [start, end)
func (c *CursorStore) Window(now time.Time) (time.Time, time.Time, error) {
	last, err := c.Last()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	end := now.UTC()
	start := last
	if start.IsZero() {
		start = end.Add(-DefaultLookback)
	}
	return start, end, nil
}

// Advance 推进游标（临时文件 + rename，避免半写状态）
func (c *CursorStore) Advance(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(cursorFile{LastSyncAt: t.UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal cursor: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cursor directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cursor file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace cursor file: %w", err)
	}
	return nil
}
