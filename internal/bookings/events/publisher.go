// Package events publishes booking lifecycle events to Kafka. Delivery to
// drivers (mail, push) happens in downstream consumers; the engine only
// emits facts.
package events

import (
	"context"

	"portbuoy/pkg/kafka"
	kafka_config "portbuoy/pkg/kafka/config"
	"portbuoy/pkg/logger"
	"portbuoy/pkg/model"
)

const (
	TopicBookings = "portbuoy.bookings"

	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"

	sourceService = "bookings-service"
)

type BookingEventPayload struct {
	BookingID         string  `json:"booking_id"`
	TruckID           string  `json:"truck_id"`
	SlotID            string  `json:"slot_id"`
	DriverID          string  `json:"driver_id"`
	Status            string  `json:"status"`
	EstimatedIdleTime int     `json:"estimated_idle_time"`
	EmissionSaved     float64 `json:"emission_saved,omitempty"`
}

// Publisher is nil-safe when Kafka is disabled: a nil producer turns every
// publish into a no-op, so booking flow never depends on broker health.
type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewPublisher(cfg *kafka_config.Config, log *logger.Logger) *Publisher {
	if !cfg.Enabled {
		log.Info("Kafka disabled, booking events will not be published")
		return &Publisher{log: log}
	}

	producer, err := kafka.NewProducer(cfg, TopicBookings)
	if err != nil {
		log.Error("Failed to create Kafka producer, booking events disabled", "error", err)
		return &Publisher{log: log}
	}

	log.Info("Booking event publisher initialized", "topic", TopicBookings, "brokers", cfg.Brokers)
	return &Publisher{producer: producer, log: log}
}

func (p *Publisher) BookingConfirmed(ctx context.Context, booking *model.Booking, emissionSaved float64) {
	p.publish(ctx, EventBookingConfirmed, BookingEventPayload{
		BookingID:         booking.ID,
		TruckID:           booking.TruckID,
		SlotID:            booking.SlotID,
		DriverID:          booking.DriverID,
		Status:            booking.Status,
		EstimatedIdleTime: booking.EstimatedIdleTime,
		EmissionSaved:     emissionSaved,
	})
}

func (p *Publisher) BookingCancelled(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingCancelled, BookingEventPayload{
		BookingID: booking.ID,
		TruckID:   booking.TruckID,
		SlotID:    booking.SlotID,
		DriverID:  booking.DriverID,
		Status:    model.BookingStatusCancelled,
	})
}

func (p *Publisher) publish(ctx context.Context, eventType string, payload BookingEventPayload) {
	if p.producer == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(payload.SlotID). // keyed by slot for per-slot ordering
		WithValue(payload).
		WithEventType(eventType).
		WithSource(sourceService).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		// Events are best-effort; the booking itself already committed.
		p.log.Error("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", payload.BookingID,
			"error", err,
		)
	}
}

func (p *Publisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
