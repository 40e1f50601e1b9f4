package redis

import (
	"context"
	"encoding/json"

	"art-auction/internal/domain"

	"github.com/go-redis/redis/v8"
)

const auctionEventsChannel = "auction_events"

type EventPublisher struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisher {
	return &EventPublisher{client: client}
}

func (p *EventPublisher) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, auctionEventsChannel, payload).Err()
}
