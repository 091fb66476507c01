package helper

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type BookingStatusEvent struct {
	BookingId uint   `json:"bookingId"`
	Status    string `json:"status"`
	Points    int64  `json:"points,omitempty"`
}

func BookingChannel(bookingId uint) string {
	return fmt.Sprintf("booking:%d", bookingId)
}

// StatusPublisher fans booking status changes out over redis pub/sub. A nil
// publisher or one without a client does nothing.
type StatusPublisher struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewStatusPublisher(rdb *redis.Client, log *zap.Logger) *StatusPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &StatusPublisher{rdb: rdb, log: log}
}

func (p *StatusPublisher) Enabled() bool {
	return p != nil && p.rdb != nil
}

func (p *StatusPublisher) Publish(ctx context.Context, event BookingStatusEvent) error {
	if !p.Enabled() {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, BookingChannel(event.BookingId), string(payload)).Err(); err != nil {
		p.log.Warn("publish booking status failed", zap.Uint("bookingId", event.BookingId), zap.Error(err))
		return err
	}
	return nil
}

// Subscribe returns nil when realtime updates are disabled.
func (p *StatusPublisher) Subscribe(ctx context.Context, bookingId uint) *redis.PubSub {
	if !p.Enabled() {
		return nil
	}
	return p.rdb.Subscribe(ctx, BookingChannel(bookingId))
}
