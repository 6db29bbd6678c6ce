package feed

// RawDeparture is one un-validated departure object as delivered by the
// feed. Field typing is left to the validation layer's coercion table.
type RawDeparture map[string]any

// StationResponse is the decoded payload of one per-station request.
type StationResponse struct {
	Departures []RawDeparture `json:"departures"`
}
