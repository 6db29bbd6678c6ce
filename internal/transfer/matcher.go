package transfer

import (
	"sort"
	"time"

	"github.com/Joshua-96/MVG-tracker/internal/models"
	"github.com/Joshua-96/MVG-tracker/internal/registry"
)

// Matcher joins accumulated departures at each station into feasible
// passenger transfers: an inbound arrival against a later outbound
// departure on a different line.
type Matcher struct {
	reg *registry.Registry
}

// NewMatcher creates a matcher over the given registry.
func NewMatcher(reg *registry.Registry) *Matcher {
	return &Matcher{reg: reg}
}

type bucketKey struct {
	stationID int
	bucket    time.Time
}

// Match computes transfer candidates from the current departures set.
// Departures are partitioned into inbound and outbound by the direction
// tag of their destination station; the join runs once against the
// same-hour bucket and once against the next-hour one, because a transfer
// may span an hour boundary. The next-hour bucket is real time arithmetic,
// so 23:xx correctly matches 00:xx of the following day. Results are
// sorted by (from, to) and deduplicated keeping the earliest match.
func (m *Matcher) Match(departures []models.Departure) []models.TransferCandidate {
	var inbound, outbound []models.Departure
	for _, dep := range departures {
		if _, ok := m.reg.Station(dep.StationID); !ok {
			continue
		}
		switch m.reg.Direction(dep.DestinationID) {
		case models.DirectionInbound:
			inbound = append(inbound, dep)
		case models.DirectionOutbound:
			outbound = append(outbound, dep)
		}
	}

	byBucket := make(map[bucketKey][]models.Departure)
	for _, dep := range outbound {
		key := bucketKey{dep.StationID, hourBucket(dep.Planned)}
		byBucket[key] = append(byBucket[key], dep)
	}

	candidates := m.matchBucket(inbound, byBucket, 0)
	candidates = append(candidates, m.matchBucket(inbound, byBucket, 1)...)

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].PlannedFrom.Equal(candidates[j].PlannedFrom) {
			return candidates[i].PlannedFrom.Before(candidates[j].PlannedFrom)
		}
		return candidates[i].PlannedTo.Before(candidates[j].PlannedTo)
	})

	seen := make(map[models.TransferKey]struct{}, len(candidates))
	deduped := candidates[:0]
	for _, cand := range candidates {
		if _, dup := seen[cand.Key()]; dup {
			continue
		}
		seen[cand.Key()] = struct{}{}
		deduped = append(deduped, cand)
	}
	return deduped
}

// matchBucket joins every inbound departure against the outbound bucket
// hourOffset hours after its own.
func (m *Matcher) matchBucket(inbound []models.Departure, byBucket map[bucketKey][]models.Departure, hourOffset int) []models.TransferCandidate {
	var out []models.TransferCandidate
	for _, from := range inbound {
		bucket := hourBucket(from.Planned).Add(time.Duration(hourOffset) * time.Hour)
		for _, to := range byBucket[bucketKey{from.StationID, bucket}] {
			if from.Line.ID == to.Line.ID {
				continue
			}
			if !from.Planned.Before(to.Planned) {
				continue
			}
			out = append(out, models.TransferCandidate{
				StationID:     from.StationID,
				PlannedFrom:   from.Planned,
				LineFrom:      from.Line.ID,
				DelayFrom:     from.DelayMinutes,
				PlannedTo:     to.Planned,
				LineTo:        to.Line.ID,
				DelayTo:       to.DelayMinutes,
				DestinationTo: to.DestinationID,
				HourBucket:    hourBucket(from.Planned),
			})
		}
	}
	return out
}

func hourBucket(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}
