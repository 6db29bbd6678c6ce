package registry

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Joshua-96/MVG-tracker/internal/models"
)

// Source supplies the static station and line tables, loaded once at
// startup from the durable store.
type Source interface {
	LoadStations(ctx context.Context) ([]models.Station, error)
	LoadLines(ctx context.Context) ([]models.Line, error)
}

// Registry holds the static network mappings: station name and id
// lookups, feed identifiers and line label normalization. Immutable
// after Load; safe for shared reads.
type Registry struct {
	byID    map[int]models.Station
	ordered []models.Station
	lines   map[string]int
}

// Load reads stations and lines from the source and builds the registry.
func Load(ctx context.Context, src Source) (*Registry, error) {
	stations, err := src.LoadStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stations: %w", err)
	}
	lines, err := src.LoadLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines: %w", err)
	}
	return New(stations, lines), nil
}

// New builds a registry from already-loaded tables. Station order is
// preserved; destination resolution depends on it.
func New(stations []models.Station, lines []models.Line) *Registry {
	r := &Registry{
		byID:    make(map[int]models.Station, len(stations)),
		ordered: make([]models.Station, 0, len(stations)),
		lines:   make(map[string]int, len(lines)),
	}
	for _, st := range stations {
		st.GlobalID = GlobalID(st.ID)
		if st.Direction == "" {
			st.Direction = models.DirectionUnknown
		}
		r.byID[st.ID] = st
		r.ordered = append(r.ordered, st)
	}
	for _, ln := range lines {
		r.lines[ln.Label] = ln.ID
	}
	return r
}

// Station returns the station with the given internal id.
func (r *Registry) Station(id int) (models.Station, bool) {
	st, ok := r.byID[id]
	return st, ok
}

// Stations returns all stations in registry order.
func (r *Registry) Stations() []models.Station {
	return r.ordered
}

// Direction returns the direction tag of a station, or unknown when the
// id is not in the registry.
func (r *Registry) Direction(id int) models.Direction {
	st, ok := r.byID[id]
	if !ok {
		return models.DirectionUnknown
	}
	return st.Direction
}

// Line normalizes a raw label: known labels resolve through the lines
// table, everything else falls back to parse-derivation.
func (r *Registry) Line(label string) models.Line {
	if id, ok := r.lines[label]; ok {
		return models.Line{ID: id, Label: label}
	}
	return models.ParseLine(label)
}

// ResolveDestination maps a raw destination string to a station id by
// case-sensitive substring match against the station names, in registry
// order. Unmatched destinations resolve to (0, false).
func (r *Registry) ResolveDestination(destination string) (int, bool) {
	for _, st := range r.ordered {
		if strings.Contains(destination, st.Name) {
			return st.ID, true
		}
	}
	return 0, false
}

// GlobalID derives the external feed identifier from an internal numeric
// station id: 91626 becomes "de:09162:6".
func GlobalID(id int) string {
	s := strconv.Itoa(id)
	if len(s) < 5 {
		s = fmt.Sprintf("%05d", id)
	}
	return "de:0" + s[:4] + ":" + s[4:]
}

// StationCode derives the internal numeric id from an external feed
// identifier: "de:09162:6" becomes 91626.
func StationCode(globalID string) (int, error) {
	s := strings.ReplaceAll(globalID, ":", "")
	s = strings.TrimPrefix(s, "de")
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid global id %q: %w", globalID, err)
	}
	return id, nil
}
