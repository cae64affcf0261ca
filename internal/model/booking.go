package model

import "time"

// BookingStatus is the lifecycle state of a booking row.
type BookingStatus string

const (
    BookingActive    BookingStatus = "active"
    BookingCancelled BookingStatus = "cancelled"
    BookingExpired   BookingStatus = "expired"
    BookingCompleted BookingStatus = "completed"
)

// Booking records a user's reservation of a single spot.  Creating an
// active booking moves the spot to reserved; cancelling, expiring or
// completing it releases the spot back to available.  A booking whose car
// was seen on the spot is never expired; it completes once its duration
// has elapsed.
//
// Fields:
//  ID             – primary key identifier.
//  Reference      – opaque reference code returned to the client.
//  SpotLabel      – label of the reserved spot.
//  UserName       – name of the driver.
//  UserPhone      – contact phone, used by the "my bookings" lookup.
//  UserEmail      – optional contact email.
//  CarType        – free-form vehicle class (Sedan, SUV, ...).
//  ArrivalTime    – expected arrival.
//  DurationHours  – booked duration in hours.
//  BookingTime    – when the booking was made.
//  Status         – active, cancelled, expired or completed.
//  GracePeriodEnd – arrival deadline after which the booking expires.
//  ArrivedAt      – when the detector first saw a car on the spot.
type Booking struct {
    ID             uint64        `json:"id"`
    Reference      string        `json:"reference"`
    SpotLabel      string        `json:"spot_label"`
    UserName       string        `json:"user_name"`
    UserPhone      string        `json:"user_phone"`
    UserEmail      string        `json:"user_email,omitempty"`
    CarType        string        `json:"car_type"`
    ArrivalTime    time.Time     `json:"arrival_time"`
    DurationHours  int           `json:"duration"`
    BookingTime    time.Time     `json:"booking_time"`
    Status         BookingStatus `json:"status"`
    GracePeriodEnd *time.Time    `json:"grace_period_end,omitempty"`
    ArrivedAt      *time.Time    `json:"arrived_at,omitempty"`
}

// EndsAt is the end of the booked stay.
func (b Booking) EndsAt() time.Time {
    return b.ArrivalTime.Add(time.Duration(b.DurationHours) * time.Hour)
}
