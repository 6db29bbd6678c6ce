package validate

import (
	"fmt"
	"log"
	"time"

	"github.com/Joshua-96/MVG-tracker/internal/feed"
	"github.com/Joshua-96/MVG-tracker/internal/models"
	"github.com/Joshua-96/MVG-tracker/internal/registry"
)

// fieldSpec declares how one raw payload field is typed. The whole
// departure record is described by the departureFields table; coercion
// itself is delegated to the (source, target) table in coerce.go.
type fieldSpec struct {
	name     string
	to       Kind
	required bool
	digits   bool // keep only digits before coercion (platform strings)
}

var departureFields = []fieldSpec{
	{name: "transportType", to: KindString, required: true},
	{name: "label", to: KindString, required: true},
	{name: "destination", to: KindString, required: true},
	{name: "plannedDepartureTime", to: KindTime, required: true},
	{name: "delayInMinutes", to: KindInt, required: true},
	{name: "cancelled", to: KindBool},
	{name: "sev", to: KindBool},
	{name: "platform", to: KindInt, digits: true},
	{name: "occupancy", to: KindString},
}

// Validator converts raw station payloads into validated Departure
// records.
type Validator struct {
	reg     *registry.Registry
	horizon time.Duration
	logger  *log.Logger
	now     func() time.Time
}

// New creates a validator. The horizon caps how far ahead a departure may
// be scheduled to still count as current.
func New(reg *registry.Registry, horizon time.Duration, logger *log.Logger) *Validator {
	if logger == nil {
		logger = log.Default()
	}
	return &Validator{
		reg:     reg,
		horizon: horizon,
		logger:  logger,
		now:     time.Now,
	}
}

// Validate produces zero or more Departure records from one station's
// payload. A nil response (station absent this cycle) yields nothing.
// Records failing coercion are dropped individually with a warning and
// never abort their siblings.
func (v *Validator) Validate(station models.Station, resp *feed.StationResponse) []models.Departure {
	if resp == nil {
		return nil
	}

	now := v.now()
	var out []models.Departure
	for _, raw := range resp.Departures {
		// Non-rail departures are not tracked.
		product, ok := raw["transportType"].(string)
		if !ok || models.Product(product) != models.ProductSBahn {
			continue
		}
		// Delay is the signal of interest; records without one carry
		// no information.
		if val, ok := raw["delayInMinutes"]; !ok || val == nil {
			continue
		}

		fields, err := coerceRecord(raw)
		if err != nil {
			v.logger.Printf("validate: dropping record at %s line %v: %v",
				station.Name, raw["label"], err)
			continue
		}

		planned := fields["plannedDepartureTime"].(time.Time)
		if planned.Sub(now) > v.horizon {
			continue
		}

		label := fields["label"].(string)
		destination := fields["destination"].(string)
		destinationID, matched := v.reg.ResolveDestination(destination)
		if !matched {
			v.logger.Printf("validate: non matching destination %q at %s line %s",
				destination, station.Name, label)
		}

		out = append(out, models.Departure{
			DepartureID:   models.DeriveDepartureID(station.ID, planned, label, models.Product(product)),
			StationID:     station.ID,
			DestinationID: destinationID,
			Line:          v.reg.Line(label),
			Product:       models.Product(product),
			Planned:       planned,
			DelayMinutes:  int(fields["delayInMinutes"].(int64)),
			TimeOfRecord:  now,
			Cancelled:     fields["cancelled"].(bool),
			Sev:           fields["sev"].(bool),
			Platform:      int(fields["platform"].(int64)),
			Occupancy:     fields["occupancy"].(string),
		})
	}
	return out
}

// coerceRecord applies the field table to one raw record, returning fully
// typed values. Missing optional fields take their zero value; a failed
// or missing required field rejects the record.
func coerceRecord(raw feed.RawDeparture) (map[string]any, error) {
	fields := make(map[string]any, len(departureFields))
	for _, spec := range departureFields {
		val, ok := raw[spec.name]
		if !ok || val == nil {
			if spec.required {
				return nil, fmt.Errorf("missing required field %q", spec.name)
			}
			fields[spec.name] = zeroValue(spec.to)
			continue
		}
		if spec.digits {
			if s, isString := val.(string); isString {
				val = ExtractDigits(s)
			}
		}
		typed, err := Coerce(val, spec.to)
		if err != nil {
			if spec.required {
				return nil, fmt.Errorf("field %q: %w", spec.name, err)
			}
			fields[spec.name] = zeroValue(spec.to)
			continue
		}
		fields[spec.name] = typed
	}
	return fields, nil
}

func zeroValue(k Kind) any {
	switch k {
	case KindString:
		return ""
	case KindInt:
		return int64(0)
	case KindFloat:
		return float64(0)
	case KindBool:
		return false
	case KindTime:
		return time.Time{}
	}
	return nil
}
