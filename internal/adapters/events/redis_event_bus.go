package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/internal/domain/providers"
	redisclient "github.com/zatekoja/careroute/internal/infrastructure/clients/redis"
)

// subscriberBuffer is how many undelivered events a slow subscriber may hold
const subscriberBuffer = 32

// RedisEventBus implements the EventBus interface using Redis Pub/Sub. One
// Redis subscription is shared by every local subscriber of a channel.
type RedisEventBus struct {
	client        *redisclient.Client
	subscriptions map[string]*redis.PubSub
	subscribers   map[string]map[chan *entities.BookingEvent]struct{}
	mu            sync.RWMutex
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) *RedisEventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:        client,
		subscriptions: make(map[string]*redis.PubSub),
		subscribers:   make(map[string]map[chan *entities.BookingEvent]struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
}

var _ providers.EventBus = (*RedisEventBus)(nil)

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.BookingEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().Str("channel", channel).Str("event_id", event.ID).Msg("Published booking event")
	return nil
}

// Subscribe delivers events published on channel until ctx is done, after
// which the returned channel is closed.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error) {
	eventChan := make(chan *entities.BookingEvent, subscriberBuffer)

	var fresh *redis.PubSub
	for {
		b.mu.Lock()
		if b.ctx.Err() != nil {
			b.mu.Unlock()
			if fresh != nil {
				_ = fresh.Close()
			}
			return nil, errors.New("event bus closed")
		}

		if _, exists := b.subscriptions[channel]; exists {
			subscriberCount := b.addSubscriber(channel, eventChan)
			b.mu.Unlock()
			if fresh != nil {
				// another caller subscribed first
				_ = fresh.Close()
			}
			b.logSubscribed(channel, subscriberCount)
			break
		}

		if fresh != nil {
			b.subscriptions[channel] = fresh
			go b.receiveMessages(channel, fresh)
			subscriberCount := b.addSubscriber(channel, eventChan)
			b.mu.Unlock()
			b.logSubscribed(channel, subscriberCount)
			break
		}
		b.mu.Unlock()

		pubsub, err := b.subscribe(ctx, channel)
		if err != nil {
			return nil, err
		}
		fresh = pubsub
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.removeSubscriber(channel, eventChan)
	}()

	return eventChan, nil
}

// subscribe opens a Redis subscription and waits for its confirmation so
// events published right after Subscribe returns are not lost. It must be
// called without holding mu.
func (b *RedisEventBus) subscribe(ctx context.Context, channel string) (*redis.PubSub, error) {
	pubsub := b.client.Client().Subscribe(b.ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	return pubsub, nil
}

// addSubscriber must be called with mu held
func (b *RedisEventBus) addSubscriber(channel string, eventChan chan *entities.BookingEvent) int {
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.BookingEvent]struct{})
	}
	b.subscribers[channel][eventChan] = struct{}{}
	return len(b.subscribers[channel])
}

func (b *RedisEventBus) logSubscribed(channel string, subscriberCount int) {
	log.Debug().Str("channel", channel).Int("subscribers", subscriberCount).Msg("Subscribed to channel")
}

// receiveMessages fans messages from one Redis subscription out to the
// local subscribers of channel
func (b *RedisEventBus) receiveMessages(channel string, pubsub *redis.PubSub) {
	defer b.dropSubscription(channel, pubsub)

	ch := pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event entities.BookingEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("Failed to unmarshal booking event")
				continue
			}

			b.mu.RLock()
			for subscriber := range b.subscribers[channel] {
				select {
				case subscriber <- &event:
				default:
					log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("Subscriber channel full, skipping event")
				}
			}
			b.mu.RUnlock()
		}
	}
}

func (b *RedisEventBus) removeSubscriber(channel string, eventChan chan *entities.BookingEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers, exists := b.subscribers[channel]
	if !exists {
		return
	}
	if _, ok := subscribers[eventChan]; !ok {
		return
	}

	delete(subscribers, eventChan)
	close(eventChan)

	if len(subscribers) == 0 {
		delete(b.subscribers, channel)
		if pubsub, ok := b.subscriptions[channel]; ok {
			_ = pubsub.Close()
			delete(b.subscriptions, channel)
			log.Debug().Str("channel", channel).Msg("Closed subscription")
		}
	}
}

// dropSubscription runs when a receive loop exits. A newer subscription
// for the same channel is left alone.
func (b *RedisEventBus) dropSubscription(channel string, pubsub *redis.PubSub) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if current, ok := b.subscriptions[channel]; !ok || current != pubsub {
		return
	}

	for subscriber := range b.subscribers[channel] {
		close(subscriber)
	}
	delete(b.subscribers, channel)
	_ = pubsub.Close()
	delete(b.subscriptions, channel)
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for channel, pubsub := range b.subscriptions {
		for subscriber := range b.subscribers[channel] {
			close(subscriber)
		}
		delete(b.subscribers, channel)
		if err := pubsub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close subscription %s: %w", channel, err))
		}
		delete(b.subscriptions, channel)
	}

	log.Info().Msg("Event bus closed")
	return errors.Join(errs...)
}
