package model

import "time"

// ParkingLog is one entry in the activity feed shown on the admin
// dashboard (booked, cancelled, expired, occupied, vacated).
type ParkingLog struct {
    ID        uint64    `json:"id"`
    SpotLabel string    `json:"spot_label"`
    Action    string    `json:"action"`
    UserName  string    `json:"user_name,omitempty"`
    Timestamp time.Time `json:"timestamp"`
    Details   string    `json:"details,omitempty"`
}

// OccupancyStat is a periodic snapshot of aggregate spot counts.
type OccupancyStat struct {
    ID        uint64    `json:"id"`
    Timestamp time.Time `json:"timestamp"`
    Total     int       `json:"total_spots"`
    Occupied  int       `json:"occupied_spots"`
    Available int       `json:"available_spots"`
    Reserved  int       `json:"reserved_spots"`
}

// Feedback is a rating left by a user.
type Feedback struct {
    ID        uint64    `json:"id"`
    UserName  string    `json:"user_name"`
    Rating    int       `json:"rating"`
    Comment   string    `json:"comment,omitempty"`
    Timestamp time.Time `json:"timestamp"`
}

// WaitlistEntry is a driver waiting for a spot to free up.
type WaitlistEntry struct {
    ID            uint64    `json:"id"`
    UserName      string    `json:"user_name"`
    UserPhone     string    `json:"user_phone"`
    UserEmail     string    `json:"user_email,omitempty"`
    CarType       string    `json:"car_type"`
    RequestedTime time.Time `json:"requested_time"`
    Status        string    `json:"status"`
}
