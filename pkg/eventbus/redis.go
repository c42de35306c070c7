package eventbus

import (
	"context"
	"encoding/json"
)

// channelPublisher 由 pkg/redis.Client 满足
type channelPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisPublisher 通过 Redis pub/sub 推送事件
type RedisPublisher struct {
	client  channelPublisher
	channel string
}

func NewRedisPublisher(client channelPublisher, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, _ string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, payload)
}

// Close 连接由 redis.Client 的持有者关闭
func (p *RedisPublisher) Close() error { return nil }
