package eventbus

import (
	"context"
	"encoding/json"
	"time"
)

// Event 排班事件信封
type Event struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

const TypeScheduleGenerated = "schedule.generated"

// ScheduleGeneratedEvent 一次生成提交成功后推送
type ScheduleGeneratedEvent struct {
	TenantID        string  `json:"tenant_id"`
	WeekStart       string  `json:"week_start"`
	GenerationID    string  `json:"generation_id"`
	Source          string  `json:"source"`
	CoveragePercent float64 `json:"coverage_percent"`
	FairnessScore   float64 `json:"fairness_score"`
	NeedsReview     bool    `json:"needs_review"`
}

// Publisher 事件发布者
// key 用于分区（kafka）；redis 实现忽略 key
type Publisher interface {
	Publish(ctx context.Context, key string, event Event) error
	Close() error
}

func NewEvent(eventType string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}, nil
}

// Nop 不推送任何事件（events.driver=none）
type Nop struct{}

func (Nop) Publish(context.Context, string, Event) error { return nil }
func (Nop) Close() error                                 { return nil }
