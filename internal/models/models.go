package models

import (
	"fmt"
	"strconv"
	"time"
	"unicode"
)

// Direction classifies which way a train is heading relative to the city
// centre. It is a property of the destination station.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
	DirectionUnknown  Direction = "unknown"
)

// Product is the transport product code used by the departure feed.
type Product string

const (
	ProductSBahn Product = "SBAHN"
	ProductUBahn Product = "UBAHN"
	ProductBus   Product = "BUS"
	ProductTram  Product = "TRAM"
	ProductBahn  Product = "BAHN"
)

// Station is one stop of the tracked network. Immutable after registry load.
type Station struct {
	ID        int       `db:"station_id"`
	Name      string    `db:"name"`
	Direction Direction `db:"direction"`

	// GlobalID is the external feed identifier (e.g. "de:09162:6"),
	// derived from ID after load. Not stored.
	GlobalID string `db:"-"`
}

// Line is a normalized line identity derived from a raw label.
type Line struct {
	ID      int    `db:"line_id"`
	Label   string `db:"label"`
	Invalid bool   `db:"-"`
}

// ParseLine derives a Line from a raw label such as "S8": the leading
// letter is stripped and the remaining digits are parsed. Labels that do
// not yield a number produce a Line flagged Invalid instead of an error.
func ParseLine(label string) Line {
	line := Line{Label: label}
	if label == "" {
		line.Invalid = true
		return line
	}
	digits := label
	if !unicode.IsDigit(rune(label[0])) {
		digits = label[1:]
	}
	id, err := strconv.Atoi(digits)
	if err != nil {
		line.Invalid = true
		return line
	}
	line.ID = id
	return line
}

// Departure is one validated real-time departure record.
// DepartureID is a deterministic key, so repeated polls of the same
// real-world departure collide in the accumulation buffer.
type Departure struct {
	DepartureID   string
	StationID     int
	DestinationID int
	Line          Line
	Product       Product
	Planned       time.Time
	DelayMinutes  int
	TimeOfRecord  time.Time

	Cancelled bool
	Sev       bool
	Platform  int
	Occupancy string
}

// DeriveDepartureID builds the deterministic departure key from the fields
// that identify a real-world departure across polls.
func DeriveDepartureID(stationID int, planned time.Time, label string, product Product) string {
	return fmt.Sprintf("%d_%d_%s_%s", stationID, planned.Unix(), label, product)
}

// Realtime returns the delay-adjusted departure time.
func (d Departure) Realtime() time.Time {
	return d.Planned.Add(time.Duration(d.DelayMinutes) * time.Minute)
}

// TransferCandidate is a feasible passenger connection between an inbound
// and an outbound departure at the same station.
type TransferCandidate struct {
	StationID     int
	PlannedFrom   time.Time
	LineFrom      int
	DelayFrom     int
	PlannedTo     time.Time
	LineTo        int
	DelayTo       int
	DestinationTo int
	HourBucket    time.Time
}

// TransferKey is the uniqueness key for transfer candidates.
type TransferKey struct {
	PlannedFrom time.Time
	StationID   int
	LineFrom    int
	LineTo      int
}

// Key returns the candidate's uniqueness key.
func (t TransferCandidate) Key() TransferKey {
	return TransferKey{
		PlannedFrom: t.PlannedFrom,
		StationID:   t.StationID,
		LineFrom:    t.LineFrom,
		LineTo:      t.LineTo,
	}
}
