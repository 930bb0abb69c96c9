package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/internal/domain/repositories"
	redisclient "github.com/zatekoja/careroute/internal/infrastructure/clients/redis"
)

const (
	slotKeyPrefix   = "booking:slot:"
	doctorKeyPrefix = "booking:doctor:"

	// retention is how long a slot stays reserved after its date begins
	retention = 72 * time.Hour
	// minTTL covers malformed or already past dates
	minTTL = time.Hour
)

// RedisLedger shares bookings between API replicas. Keys expire shortly
// after the slot date; this is coordination state, not a system of record.
type RedisLedger struct {
	client *redisclient.Client
	now    func() time.Time
}

// NewRedisLedger creates a ledger backed by client
func NewRedisLedger(client *redisclient.Client) *RedisLedger {
	return &RedisLedger{client: client, now: time.Now}
}

var _ repositories.BookingLedger = (*RedisLedger)(nil)

// reserveScript claims KEYS[1] and indexes the slot time in KEYS[2] in one
// step. The index is written first so a failure leaves nothing behind.
// Returns 0 when the slot is already taken.
var reserveScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
local added = redis.pcall("SADD", KEYS[2], ARGV[2])
if type(added) == "table" and added.err then
	return added
end
redis.call("PEXPIRE", KEYS[2], ARGV[3])
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

// Reserve claims the slot key and indexes it atomically. Only the first
// caller for a slot gets a booking.
func (l *RedisLedger) Reserve(ctx context.Context, booking *entities.Booking) error {
	key := booking.Key()

	candidate := *booking
	candidate.ID = uuid.NewString()
	candidate.CreatedAt = l.now().UTC()
	if candidate.Status == "" {
		candidate.Status = entities.BookingStatusConfirmed
	}

	payload, err := json.Marshal(&candidate)
	if err != nil {
		return fmt.Errorf("failed to marshal booking: %w", err)
	}

	ttl := l.ttlFor(key.Date)
	keys := []string{slotKey(key), doctorKey(key.DoctorID, key.Date)}

	claimed, err := reserveScript.Run(ctx, l.client.Client(), keys, payload, key.Time, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("failed to reserve slot: %w", err)
	}
	if claimed == 0 {
		return repositories.ErrSlotTaken
	}

	*booking = candidate
	return nil
}

// IsSlotBooked reports whether a booking exists for key
func (l *RedisLedger) IsSlotBooked(ctx context.Context, key entities.SlotKey) (bool, error) {
	n, err := l.client.Client().Exists(ctx, slotKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return n > 0, nil
}

// ListByDoctorDate returns bookings for one doctor and date ordered by
// creation time
func (l *RedisLedger) ListByDoctorDate(ctx context.Context, doctorID, date string) ([]*entities.Booking, error) {
	rdb := l.client.Client()

	times, err := rdb.SMembers(ctx, doctorKey(doctorID, date)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	if len(times) == 0 {
		return []*entities.Booking{}, nil
	}

	keys := make([]string, len(times))
	for i, t := range times {
		keys[i] = slotKey(entities.SlotKey{DoctorID: doctorID, Date: date, Time: t})
	}

	values, err := rdb.MGet(ctx, keys...).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	bookings := make([]*entities.Booking, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// expired between SMEMBERS and MGET
			continue
		}
		var b entities.Booking
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		bookings = append(bookings, &b)
	}

	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
	})
	return bookings, nil
}

func (l *RedisLedger) ttlFor(date string) time.Duration {
	day, err := time.Parse(entities.BookingDateLayout, date)
	if err != nil {
		return minTTL
	}
	ttl := day.Add(retention).Sub(l.now())
	if ttl < minTTL {
		return minTTL
	}
	return ttl
}

func slotKey(k entities.SlotKey) string {
	return fmt.Sprintf("%s%s:%s:%s", slotKeyPrefix, k.DoctorID, k.Date, k.Time)
}

func doctorKey(doctorID, date string) string {
	return fmt.Sprintf("%s%s:%s", doctorKeyPrefix, doctorID, date)
}
