package events

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/internal/domain/providers"
	redisclient "github.com/zatekoja/careroute/internal/infrastructure/clients/redis"
)

func newTestBus(t *testing.T) *RedisEventBus {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	bus := NewRedisEventBus(redisclient.Wrap(rdb))
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func receive(t *testing.T, ch <-chan *entities.BookingEvent) *entities.BookingEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestRedisEventBus_PublishSubscribe(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel := providers.GetDoctorChannel("doc-1")
	first, err := bus.Subscribe(ctx, channel)
	require.NoError(t, err)
	second, err := bus.Subscribe(ctx, channel)
	require.NoError(t, err)

	event := entities.NewBookingConfirmedEvent(&entities.Booking{DoctorID: "doc-1", Date: "2030-01-15", Time: "09:00", PatientName: "Sara"})
	require.NoError(t, bus.Publish(ctx, channel, event))

	for _, ch := range []<-chan *entities.BookingEvent{first, second} {
		got := receive(t, ch)
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, entities.BookingEventTypeConfirmed, got.EventType)
		assert.Equal(t, "09:00", got.Time)
	}
}

func TestRedisEventBus_ChannelsAreIsolated(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, providers.GetDoctorChannel("doc-1"))
	require.NoError(t, err)

	other := entities.NewBookingConfirmedEvent(&entities.Booking{DoctorID: "doc-2", Date: "2030-01-15", Time: "10:00"})
	require.NoError(t, bus.Publish(ctx, providers.GetDoctorChannel("doc-2"), other))
	mine := entities.NewBookingConfirmedEvent(&entities.Booking{DoctorID: "doc-1", Date: "2030-01-15", Time: "11:00"})
	require.NoError(t, bus.Publish(ctx, providers.GetDoctorChannel("doc-1"), mine))

	assert.Equal(t, mine.ID, receive(t, ch).ID)
}

func TestRedisEventBus_UnsubscribeOnContextDone(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := bus.Subscribe(ctx, providers.GetDoctorChannel("doc-1"))
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber channel was not closed")
	}

	assert.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.subscriptions) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRedisEventBus_Close(t *testing.T) {
	bus := newTestBus(t)

	ch, err := bus.Subscribe(context.Background(), providers.GetDoctorChannel("doc-1"))
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber channel was not closed")
	}

	_, err = bus.Subscribe(context.Background(), "doctor:doc-2")
	assert.Error(t, err)
}

func TestRedisEventBus_PendingSubscribeDoesNotBlockDelivery(t *testing.T) {
	mr := miniredis.RunT(t)

	var gated atomic.Bool
	dialing := make(chan struct{}, 1)
	release := make(chan struct{})
	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if gated.Load() {
				select {
				case dialing <- struct{}{}:
				default:
				}
				select {
				case <-release:
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	})
	t.Cleanup(func() { _ = rdb.Close() })
	bus := NewRedisEventBus(redisclient.Wrap(rdb))
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel := providers.GetDoctorChannel("doc-1")
	ch, err := bus.Subscribe(ctx, channel)
	require.NoError(t, err)
	// keep an idle pooled connection for Publish
	require.NoError(t, rdb.Ping(ctx).Err())

	gated.Store(true)
	pending := make(chan error, 1)
	go func() {
		_, err := bus.Subscribe(ctx, providers.GetDoctorChannel("doc-2"))
		pending <- err
	}()

	select {
	case <-dialing:
	case <-time.After(2 * time.Second):
		t.Fatal("second subscription never dialed")
	}

	event := entities.NewBookingConfirmedEvent(&entities.Booking{DoctorID: "doc-1", Date: "2030-01-15", Time: "09:00"})
	require.NoError(t, bus.Publish(ctx, channel, event))
	assert.Equal(t, event.ID, receive(t, ch).ID)

	close(release)
	select {
	case err := <-pending:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("second subscription did not complete")
	}
}

func TestRedisEventBus_ConcurrentSubscribersShareOneSubscription(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel := providers.GetDoctorChannel("doc-1")
	const n = 8
	chans := make(chan (<-chan *entities.BookingEvent), n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			ch, err := bus.Subscribe(ctx, channel)
			errs <- err
			chans <- ch
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}

	bus.mu.RLock()
	assert.Len(t, bus.subscriptions, 1)
	assert.Len(t, bus.subscribers[channel], n)
	bus.mu.RUnlock()

	event := entities.NewBookingConfirmedEvent(&entities.Booking{DoctorID: "doc-1", Date: "2030-01-15", Time: "10:00"})
	require.NoError(t, bus.Publish(ctx, channel, event))
	for i := 0; i < n; i++ {
		assert.Equal(t, event.ID, receive(t, <-chans).ID)
	}
}
