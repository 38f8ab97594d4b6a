package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// rfc3339Milli 毫秒精度的时间格式（与客户端序列化对齐）
const rfc3339Milli = "2006-01-02T15:04:05.000Z07:00"

// APITime 时间戳的线上表示
// - 接受 RFC3339 字符串或 Unix 毫秒数
// - 统一归一化为 UTC 毫秒精度，保证同一物理时刻每次派生出相同的自然键
type APITime struct {
	time.Time
}

// NewAPITime 归一化时间（UTC + 毫秒截断）
func NewAPITime(t time.Time) APITime {
	return APITime{t.UTC().Truncate(time.Millisecond)}
}

func (t *APITime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = APITime{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		*t = NewAPITime(parsed)
		return nil
	}

	// epoch milliseconds
	var ms int64
	if err := json.Unmarshal(b, &ms); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", string(b), err)
	}
	*t = NewAPITime(time.UnixMilli(ms))
	return nil
}

func (t APITime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(rfc3339Milli))
}
