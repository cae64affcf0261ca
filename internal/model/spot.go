package model

import (
    "errors"
    "fmt"
    "time"
)

// SpotStatus is the persisted occupancy state of a parking spot.  Only the
// three values declared below are valid; use ParseSpotStatus when reading a
// status from storage or user input.
type SpotStatus string

const (
    StatusAvailable SpotStatus = "available" // free and bookable
    StatusOccupied  SpotStatus = "occupied"  // a vehicle was detected in the spot
    StatusReserved  SpotStatus = "reserved"  // held by an active booking
)

// ParseSpotStatus validates a raw status string.
func ParseSpotStatus(s string) (SpotStatus, error) {
    switch SpotStatus(s) {
    case StatusAvailable, StatusOccupied, StatusReserved:
        return SpotStatus(s), nil
    }
    return "", fmt.Errorf("unknown spot status %q", s)
}

// Decision is the binary output of the occupancy classifier for one spot in
// one frame.  It has no "reserved" value; a detection can only
// ever move a spot between available and occupied.
type Decision uint8

const (
    DecisionFree Decision = iota
    DecisionOccupied
)

func (d Decision) String() string {
    if d == DecisionOccupied {
        return "occupied"
    }
    return "free"
}

// Target is the status a detection asks for when the spot is not reserved.
func (d Decision) Target() SpotStatus {
    if d == DecisionOccupied {
        return StatusOccupied
    }
    return StatusAvailable
}

// Event returns the transition event carried by the decision.
func (d Decision) Event() Event {
    if d == DecisionOccupied {
        return EventDetectedOccupied
    }
    return EventDetectedFree
}

// Event is anything that may change a spot's status.
type Event uint8

const (
    EventDetectedFree     Event = iota // classifier saw an empty spot
    EventDetectedOccupied              // classifier saw a vehicle
    EventBooked                        // a booking was created for the spot
    EventCancelled                     // the active booking was cancelled or expired
)

func (e Event) String() string {
    switch e {
    case EventDetectedFree:
        return "detected_free"
    case EventDetectedOccupied:
        return "detected_occupied"
    case EventBooked:
        return "booked"
    case EventCancelled:
        return "cancelled"
    }
    return "unknown"
}

// ErrIllegalTransition is returned by Transition when the event is not
// allowed from the current status.
var ErrIllegalTransition = errors.New("illegal spot status transition")

// Transition is the single state machine for spot status.
//
//   available/occupied --detected--> available/occupied
//   reserved           --detected--> reserved (input ignored)
//   available          --booked----> reserved
//   reserved           --cancelled-> available
//
// Every other (status, event) pair yields ErrIllegalTransition and leaves the
// status unchanged.
func Transition(from SpotStatus, ev Event) (SpotStatus, error) {
    switch ev {
    case EventDetectedFree, EventDetectedOccupied:
        switch from {
        case StatusReserved:
            return StatusReserved, nil
        case StatusAvailable, StatusOccupied:
            if ev == EventDetectedOccupied {
                return StatusOccupied, nil
            }
            return StatusAvailable, nil
        }
    case EventBooked:
        if from == StatusAvailable {
            return StatusReserved, nil
        }
    case EventCancelled:
        if from == StatusReserved {
            return StatusAvailable, nil
        }
    }
    return from, fmt.Errorf("%w: %s on %q", ErrIllegalTransition, ev, from)
}

// Spot represents one physical parking space as stored in the `spots`
// table.  X, Y, Width and Height record the region used when the spot
// was seeded; the detection loop uses the geometry file instead.
//
// Fields:
//  ID          – primary key identifier.
//  Label       – stable label such as A1 (unique).
//  X, Y        – top-left corner of the seeded region.
//  Width       – region width in pixels.
//  Height      – region height in pixels.
//  Status      – current occupancy status.
//  Location    – lot name shown to users.
//  LastUpdated – timestamp of the last status change.
type Spot struct {
    ID          uint64     `json:"id"`           // spots.id
    Label       string     `json:"spot_label"`   // spots.spot_label
    X           int        `json:"x"`            // spots.x
    Y           int        `json:"y"`            // spots.y
    Width       int        `json:"width"`        // spots.width
    Height      int        `json:"height"`       // spots.height
    Status      SpotStatus `json:"status"`       // spots.status
    Location    string     `json:"location"`     // spots.location
    LastUpdated time.Time  `json:"last_updated"` // spots.last_updated
}

// SpotStats aggregates spot counts by status.
type SpotStats struct {
    Total     int `json:"total"`
    Available int `json:"available"`
    Occupied  int `json:"occupied"`
    Reserved  int `json:"reserved"`
}

// CountSpots tallies spots by status.
func CountSpots(spots []Spot) SpotStats {
    st := SpotStats{Total: len(spots)}
    for _, s := range spots {
        switch s.Status {
        case StatusAvailable:
            st.Available++
        case StatusOccupied:
            st.Occupied++
        case StatusReserved:
            st.Reserved++
        }
    }
    return st
}
