package providers

import (
	"context"

	"github.com/zatekoja/careroute/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to booking events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.BookingEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelDoctorPrefix is the prefix for doctor-specific channels
	EventChannelDoctorPrefix = "doctor:"
)

// GetDoctorChannel returns the channel name for a specific doctor
func GetDoctorChannel(doctorID string) string {
	return EventChannelDoctorPrefix + doctorID
}
