// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// Event types carried in BookingEvent.Type.
const (
    EventBookingCreated   = "booking.created"
    EventBookingCancelled = "booking.cancelled"
    EventBookingExpired   = "booking.expired"
    EventBookingCompleted = "booking.completed"
)

// BookingQueue is the durable queue every booking lifecycle event goes to.
const BookingQueue = "booking.events"

// BookingEvent is published whenever a booking changes state.  It carries
// enough for downstream consumers to log or notify without reading the
// primary database.
type BookingEvent struct {
    Type          string `json:"type"`
    BookingID     uint64 `json:"booking_id"`
    Reference     string `json:"reference"`
    SpotLabel     string `json:"spot_label"`
    UserName      string `json:"user_name"`
    UserPhone     string `json:"user_phone"`
    CarType       string `json:"car_type,omitempty"`
    ArrivalTime   string `json:"arrival_time,omitempty"`
    DurationHours int    `json:"duration,omitempty"`
    OccurredAt    string `json:"occurred_at"`
}
